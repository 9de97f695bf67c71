package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

var _ refcount.Copier = (*Light)(nil)

// Light 是点光源或平行光。平行光的 Position 表示光照方向。
type Light struct {
	Component
	On          bool
	Directional bool
	Position    Vec3
	Color       Color
	Falloff     Falloff
}

func NewLight(name string, position Vec3, color Color) *Light {
	l := &Light{On: true, Position: position, Color: color, Falloff: FalloffInfinite}
	l.name = name
	return l
}

func (l *Light) MakeCopy() any {
	cp := &Light{
		On:          l.On,
		Directional: l.Directional,
		Position:    l.Position,
		Color:       l.Color,
		Falloff:     l.Falloff,
	}
	cp.name = l.name
	return cp
}

type lightStreamer struct {
	base componentStreamer
	obj  *Light
}

func bindLight(l *Light) objstream.Streamer {
	return lightStreamer{base: newComponentStreamer(&l.Component), obj: l}
}

func (s lightStreamer) Object() objstream.Serializable { return s.obj }

func (s lightStreamer) Write(e *objstream.Encoder) error {
	l := s.obj
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	if err := e.WriteBool(l.On); err != nil {
		return err
	}
	if err := e.WriteBool(l.Directional); err != nil {
		return err
	}
	if err := writeVec3(e, l.Position); err != nil {
		return err
	}
	if err := writeColor(e, l.Color); err != nil {
		return err
	}
	return e.WriteInt16(int16(l.Falloff))
}

func (s lightStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	l := s.obj
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	var err error
	if l.On, err = d.ReadBool(); err != nil {
		return nil, err
	}
	if l.Directional, err = d.ReadBool(); err != nil {
		return nil, err
	}
	if l.Position, err = readVec3(d); err != nil {
		return nil, err
	}
	if l.Color, err = readColor(d); err != nil {
		return nil, err
	}
	falloff, err := d.ReadInt16()
	if err != nil {
		return nil, err
	}
	switch f := Falloff(falloff); f {
	case FalloffInfinite, FalloffLinear, FalloffSquared:
		l.Falloff = f
	default:
		return nil, merr.WrapErrFraming("falloff", falloff, "read light")
	}
	return s.obj, nil
}
