package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
)

var (
	_ refcount.Destroyer = (*Actor)(nil)
	_ refcount.Copier    = (*Actor)(nil)
)

// Actor 是场景中可见的组件，通过共享引用持有一个模型。
type Actor struct {
	Component
	Visible bool
	model   refcount.Ptr[Model]
}

func NewActor(name string, model Model) *Actor {
	a := &Actor{Visible: true}
	a.name = name
	a.model.Set(model)
	return a
}

func (a *Actor) Model() Model {
	return a.model.Get()
}

func (a *Actor) SetModel(m Model) {
	a.model.Set(m)
}

func (a *Actor) Destroy() {
	a.model.Reset()
}

// MakeCopy 返回 nil，演员不支持多态拷贝，需要拷贝时走 DeepCopy。
func (a *Actor) MakeCopy() any {
	return nil
}

type actorStreamer struct {
	base componentStreamer
	obj  *Actor
}

func bindActor(a *Actor) objstream.Streamer {
	return actorStreamer{base: newComponentStreamer(&a.Component), obj: a}
}

func (s actorStreamer) Object() objstream.Serializable { return s.obj }

func (s actorStreamer) Write(e *objstream.Encoder) error {
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	if err := e.WriteBool(s.obj.Visible); err != nil {
		return err
	}
	return e.WriteObject(s.obj.model.Get())
}

func (s actorStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	visible, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	model, err := objstream.ReadRef[Model](d)
	if err != nil {
		return nil, err
	}
	s.obj.Visible = visible
	s.obj.model.Set(model)
	return s.obj, nil
}
