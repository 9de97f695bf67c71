package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
)

// Nameable 是带名字的实体的公共基类。
type Nameable struct {
	refcount.Object
	name string
}

func (n *Nameable) Name() string {
	return n.name
}

func (n *Nameable) SetName(name string) {
	n.name = name
}

type nameableStreamer struct {
	obj *Nameable
}

func (s nameableStreamer) Object() objstream.Serializable { return s.obj }

func (s nameableStreamer) Write(e *objstream.Encoder) error {
	return e.WriteWString(s.obj.name)
}

func (s nameableStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	name, err := d.ReadWString()
	if err != nil {
		return nil, err
	}
	s.obj.name = name
	return s.obj, nil
}

// Component 是可放入场景的组件，自身没有字段。
type Component struct {
	Nameable
}

type componentStreamer struct {
	base nameableStreamer
	obj  *Component
}

func newComponentStreamer(c *Component) componentStreamer {
	return componentStreamer{base: nameableStreamer{obj: &c.Nameable}, obj: c}
}

func (s componentStreamer) Object() objstream.Serializable { return s.obj }

func (s componentStreamer) Write(e *objstream.Encoder) error {
	return e.WriteBase(s.base)
}

func (s componentStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	return s.obj, nil
}
