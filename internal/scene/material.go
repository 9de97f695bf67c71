package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
)

// Finish 描述材质表面的光学参数，与基色一起换算为 Surface。
type Finish struct {
	Ambient      float32
	Diffuse      float32
	Shine        float32
	Spot         float32
	Specular     Color
	Transparency Color
	IOR          float32
}

// DefaultFinish 返回默认的哑光表面。
func DefaultFinish() Finish {
	return Finish{Ambient: 0.2, Diffuse: 0.8, Specular: Black, Transparency: Black, IOR: 1}
}

type Surface struct {
	Ambient      Color
	Diffuse      Color
	Shine        float32
	Spot         Color
	Specular     Color
	Transparency Color
	IOR          float32
}

var (
	_ refcount.Copier = (*Material)(nil)
)

type Material struct {
	Nameable
	Surface Surface
}

// NewMaterial 创建白色默认表面的材质。
func NewMaterial(name string) *Material {
	m := &Material{}
	m.name = name
	m.SetSurface(White, DefaultFinish())
	return m
}

// SetSurface 按基色与表面参数计算 Surface。
func (m *Material) SetSurface(color Color, finish Finish) {
	m.Surface = Surface{
		Ambient:      color.Scale(finish.Ambient),
		Diffuse:      color.Scale(finish.Diffuse),
		Shine:        finish.Shine,
		Spot:         color.Scale(finish.Spot),
		Specular:     finish.Specular,
		Transparency: finish.Transparency,
		IOR:          finish.IOR,
	}
}

func (m *Material) MakeCopy() any {
	cp := &Material{Surface: m.Surface}
	cp.name = m.name
	return cp
}

type materialStreamer struct {
	base nameableStreamer
	obj  *Material
}

func bindMaterial(m *Material) objstream.Streamer {
	return materialStreamer{base: nameableStreamer{obj: &m.Nameable}, obj: m}
}

func (s materialStreamer) Object() objstream.Serializable { return s.obj }

func (s materialStreamer) Write(e *objstream.Encoder) error {
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	sf := &s.obj.Surface
	for _, c := range []Color{sf.Ambient, sf.Diffuse} {
		if err := writeColor(e, c); err != nil {
			return err
		}
	}
	if err := e.WriteFloat32(sf.Shine); err != nil {
		return err
	}
	for _, c := range []Color{sf.Spot, sf.Specular, sf.Transparency} {
		if err := writeColor(e, c); err != nil {
			return err
		}
	}
	return e.WriteFloat32(sf.IOR)
}

func (s materialStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	sf := &s.obj.Surface
	var err error
	for _, c := range []*Color{&sf.Ambient, &sf.Diffuse} {
		if *c, err = readColor(d); err != nil {
			return nil, err
		}
	}
	if sf.Shine, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	for _, c := range []*Color{&sf.Spot, &sf.Specular, &sf.Transparency} {
		if *c, err = readColor(d); err != nil {
			return nil, err
		}
	}
	if sf.IOR, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	return s.obj, nil
}
