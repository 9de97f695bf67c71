package objstream

import "strconv"

type item struct {
	Value int32
	Next  *item
}

type itemStreamer struct{ obj *item }

func (s itemStreamer) Object() Serializable { return s.obj }

func (s itemStreamer) Write(e *Encoder) error {
	if err := e.WriteInt32(s.obj.Value); err != nil {
		return err
	}
	return e.WriteObject(s.obj.Next)
}

func (s itemStreamer) Read(d *Decoder) (Serializable, error) {
	v, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	s.obj.Value = v
	if s.obj.Next, err = ReadRef[*item](d); err != nil {
		return nil, err
	}
	return s.obj, nil
}

type pair struct {
	Left, Right *item
}

type pairStreamer struct{ obj *pair }

func (s pairStreamer) Object() Serializable { return s.obj }

func (s pairStreamer) Write(e *Encoder) error {
	if err := e.WriteObject(s.obj.Left); err != nil {
		return err
	}
	return e.WriteObject(s.obj.Right)
}

func (s pairStreamer) Read(d *Decoder) (Serializable, error) {
	var err error
	if s.obj.Left, err = ReadRef[*item](d); err != nil {
		return nil, err
	}
	if s.obj.Right, err = ReadRef[*item](d); err != nil {
		return nil, err
	}
	return s.obj, nil
}

// named 是 widget 的基类部分。
type named struct {
	Name string
}

type namedStreamer struct{ obj *named }

func (s namedStreamer) Object() Serializable { return s.obj }

func (s namedStreamer) Write(e *Encoder) error {
	return e.WriteWString(s.obj.Name)
}

func (s namedStreamer) Read(d *Decoder) (Serializable, error) {
	name, err := d.ReadWString()
	if err != nil {
		return nil, err
	}
	s.obj.Name = name
	return s.obj, nil
}

type widget struct {
	named
	Size  int32
	Parts []*item
}

type widgetStreamer struct {
	namedStreamer
	obj *widget
}

func bindWidget(w *widget) Streamer {
	return widgetStreamer{namedStreamer: namedStreamer{obj: &w.named}, obj: w}
}

func (s widgetStreamer) Object() Serializable { return s.obj }

func (s widgetStreamer) Write(e *Encoder) error {
	if err := e.WriteBase(s.namedStreamer); err != nil {
		return err
	}
	if err := e.WriteInt32(s.obj.Size); err != nil {
		return err
	}
	return WriteList(e, s.obj.Parts)
}

func (s widgetStreamer) Read(d *Decoder) (Serializable, error) {
	if err := d.ReadBase(s.namedStreamer); err != nil {
		return nil, err
	}
	var err error
	if s.obj.Size, err = d.ReadInt32(); err != nil {
		return nil, err
	}
	if s.obj.Parts, err = ReadList[*item](d); err != nil {
		return nil, err
	}
	return s.obj, nil
}

// shared 是 diamond 两侧共同引用的组件。
type shared struct {
	Tag string
}

type sharedStreamer struct{ obj *shared }

func (s sharedStreamer) Object() Serializable { return s.obj }

func (s sharedStreamer) Write(e *Encoder) error { return e.WriteString(s.obj.Tag) }

func (s sharedStreamer) Read(d *Decoder) (Serializable, error) {
	tag, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	s.obj.Tag = tag
	return s.obj, nil
}

type limb struct {
	Root   *shared
	Weight int32
}

type limbStreamer struct{ obj *limb }

func (s limbStreamer) Object() Serializable { return s.obj }

func (s limbStreamer) Write(e *Encoder) error {
	if err := e.WriteObject(s.obj.Root); err != nil {
		return err
	}
	return e.WriteInt32(s.obj.Weight)
}

func (s limbStreamer) Read(d *Decoder) (Serializable, error) {
	var err error
	if s.obj.Root, err = ReadRef[*shared](d); err != nil {
		return nil, err
	}
	if s.obj.Weight, err = d.ReadInt32(); err != nil {
		return nil, err
	}
	return s.obj, nil
}

type diamond struct {
	Left  limb
	Right limb
}

type diamondStreamer struct{ obj *diamond }

func (s diamondStreamer) Object() Serializable { return s.obj }

func (s diamondStreamer) Write(e *Encoder) error {
	if err := e.WriteValue(&s.obj.Left); err != nil {
		return err
	}
	return e.WriteValue(&s.obj.Right)
}

func (s diamondStreamer) Read(d *Decoder) (Serializable, error) {
	if err := d.ReadObjectInto(&s.obj.Left); err != nil {
		return nil, err
	}
	if err := d.ReadObjectInto(&s.obj.Right); err != nil {
		return nil, err
	}
	return s.obj, nil
}

type vec3 struct {
	X, Y, Z float64
}

func writeVec3(e *Encoder, v vec3) error {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if err := e.WriteFloat64(f); err != nil {
			return err
		}
	}
	return nil
}

func readVec3(d *Decoder) (vec3, error) {
	var v vec3
	for _, f := range []*float64{&v.X, &v.Y, &v.Z} {
		var err error
		if *f, err = d.ReadFloat64(); err != nil {
			return v, err
		}
	}
	return v, nil
}

type empty struct{}

const (
	itemName    = "test.item"
	pairName    = "test.pair"
	widgetName  = "test.widget"
	sharedName  = "test.shared"
	limbName    = "test.limb"
	diamondName = "test.diamond"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	MustRegister(r, itemName, func(o *item) Streamer { return itemStreamer{o} })
	MustRegister(r, pairName, func(o *pair) Streamer { return pairStreamer{o} })
	MustRegister(r, widgetName, bindWidget)
	MustRegister(r, sharedName, func(o *shared) Streamer { return sharedStreamer{o} })
	MustRegister(r, limbName, func(o *limb) Streamer { return limbStreamer{o} })
	MustRegister(r, diamondName, func(o *diamond) Streamer { return diamondStreamer{o} })
	return r
}

type recordingTracer struct {
	events []string
}

func (t *recordingTracer) OnNull() { t.events = append(t.events, "null") }

func (t *recordingTracer) OnBackReference(id int32) {
	t.events = append(t.events, "ref:"+itoa(id))
}

func (t *recordingTracer) OnObjectBegin(id int32, typeName string, newType bool) {
	ev := "begin:" + itoa(id) + ":" + typeName
	if newType {
		ev += ":new"
	}
	t.events = append(t.events, ev)
}

func (t *recordingTracer) OnObjectEnd(id int32) {
	t.events = append(t.events, "end:"+itoa(id))
}

func itoa(v int32) string { return strconv.Itoa(int(v)) }
