package scene

import (
	"math"

	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
)

// Model 是演员可以持有的几何模型。
type Model interface {
	refcount.Counted
	// Bounds 返回轴对齐包围盒。
	Bounds() (min, max Vec3)
}

// Primitive 是带材质的基本几何体，被具体形状嵌入。
type Primitive struct {
	refcount.Object
	material refcount.Ptr[*Material]
}

func (p *Primitive) Material() *Material {
	return p.material.Get()
}

func (p *Primitive) SetMaterial(m *Material) {
	p.material.Set(m)
}

func (p *Primitive) Destroy() {
	p.material.Reset()
}

type primitiveStreamer struct {
	obj *Primitive
}

func (s primitiveStreamer) Object() objstream.Serializable { return s.obj }

func (s primitiveStreamer) Write(e *objstream.Encoder) error {
	return e.WriteObject(s.obj.material.Get())
}

func (s primitiveStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	m, err := objstream.ReadRef[*Material](d)
	if err != nil {
		return nil, err
	}
	s.obj.material.Set(m)
	return s.obj, nil
}

var (
	_ Model           = (*Sphere)(nil)
	_ Model           = (*Box)(nil)
	_ refcount.Copier = (*Sphere)(nil)
	_ refcount.Copier = (*Box)(nil)
)

type Sphere struct {
	Primitive
	Center Vec3
	Radius float64
}

func NewSphere(center Vec3, radius float64, material *Material) *Sphere {
	s := &Sphere{Center: center, Radius: radius}
	s.SetMaterial(material)
	return s
}

func (s *Sphere) Bounds() (Vec3, Vec3) {
	r := math.Abs(s.Radius)
	return Vec3{s.Center.X - r, s.Center.Y - r, s.Center.Z - r},
		Vec3{s.Center.X + r, s.Center.Y + r, s.Center.Z + r}
}

// MakeCopy 复制几何参数，材质与原对象共享。
func (s *Sphere) MakeCopy() any {
	return NewSphere(s.Center, s.Radius, s.Material())
}

type sphereStreamer struct {
	base primitiveStreamer
	obj  *Sphere
}

func bindSphere(s *Sphere) objstream.Streamer {
	return sphereStreamer{base: primitiveStreamer{obj: &s.Primitive}, obj: s}
}

func (s sphereStreamer) Object() objstream.Serializable { return s.obj }

func (s sphereStreamer) Write(e *objstream.Encoder) error {
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	if err := writeVec3(e, s.obj.Center); err != nil {
		return err
	}
	return e.WriteFloat64(s.obj.Radius)
}

func (s sphereStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	var err error
	if s.obj.Center, err = readVec3(d); err != nil {
		return nil, err
	}
	if s.obj.Radius, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	return s.obj, nil
}

type Box struct {
	Primitive
	Min, Max Vec3
}

func NewBox(min, max Vec3, material *Material) *Box {
	b := &Box{Min: min, Max: max}
	b.SetMaterial(material)
	return b
}

func (b *Box) Bounds() (Vec3, Vec3) {
	return b.Min, b.Max
}

// MakeCopy 复制几何参数，材质与原对象共享。
func (b *Box) MakeCopy() any {
	return NewBox(b.Min, b.Max, b.Material())
}

type boxStreamer struct {
	base primitiveStreamer
	obj  *Box
}

func bindBox(b *Box) objstream.Streamer {
	return boxStreamer{base: primitiveStreamer{obj: &b.Primitive}, obj: b}
}

func (s boxStreamer) Object() objstream.Serializable { return s.obj }

func (s boxStreamer) Write(e *objstream.Encoder) error {
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	if err := writeVec3(e, s.obj.Min); err != nil {
		return err
	}
	return writeVec3(e, s.obj.Max)
}

func (s boxStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	var err error
	if s.obj.Min, err = readVec3(d); err != nil {
		return nil, err
	}
	if s.obj.Max, err = readVec3(d); err != nil {
		return nil, err
	}
	return s.obj, nil
}
