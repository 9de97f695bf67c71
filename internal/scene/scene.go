package scene

import (
	"github.com/samber/lo"

	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
)

// DefaultMaterialName 是每个场景自带的材质名。
const DefaultMaterialName = "default"

var _ refcount.Destroyer = (*Scene)(nil)

// Scene 持有材质库、演员与光源。材质库属于场景本身，
// 同名材质在一个场景内只有一份。
type Scene struct {
	Nameable
	Background Color
	Ambient    Color
	IOR        float64

	materials []refcount.Ptr[*Material]
	actors    []refcount.Ptr[*Actor]
	lights    []refcount.Ptr[*Light]
}

func NewScene(name string) *Scene {
	s := &Scene{Background: Black, Ambient: White, IOR: 1}
	s.name = name
	s.NewMaterial(DefaultMaterialName)
	return s
}

// NewMaterial 返回名为 name 的材质，不存在时创建并加入材质库。
func (s *Scene) NewMaterial(name string) *Material {
	if m := s.Material(name); m != nil {
		return m
	}
	m := NewMaterial(name)
	s.materials = append(s.materials, refcount.NewPtr(m))
	return m
}

// Material 按名字查找材质，未找到返回 nil。
func (s *Scene) Material(name string) *Material {
	p, ok := lo.Find(s.materials, func(p refcount.Ptr[*Material]) bool {
		return p.Get().Name() == name
	})
	if !ok {
		return nil
	}
	return p.Get()
}

func (s *Scene) DefaultMaterial() *Material {
	return s.NewMaterial(DefaultMaterialName)
}

func (s *Scene) Materials() []*Material {
	return unwrap(s.materials)
}

// AddActor 把 a 加入场景，nil 被忽略，因此列表中不会出现空引用。
func (s *Scene) AddActor(a *Actor) {
	if a == nil {
		return
	}
	s.actors = append(s.actors, refcount.NewPtr(a))
}

// RemoveActor 移除 a 并释放场景对它的引用，返回是否找到。
func (s *Scene) RemoveActor(a *Actor) bool {
	_, idx, ok := lo.FindIndexOf(s.actors, func(p refcount.Ptr[*Actor]) bool {
		return p.Get() == a
	})
	if !ok {
		return false
	}
	s.actors[idx].Reset()
	s.actors = append(s.actors[:idx], s.actors[idx+1:]...)
	return true
}

func (s *Scene) Actors() []*Actor {
	return unwrap(s.actors)
}

// AddLight 与 AddActor 相同，nil 被忽略。
func (s *Scene) AddLight(l *Light) {
	if l == nil {
		return
	}
	s.lights = append(s.lights, refcount.NewPtr(l))
}

func (s *Scene) Lights() []*Light {
	return unwrap(s.lights)
}

// Destroy 释放场景持有的全部实体。
func (s *Scene) Destroy() {
	reset(s.actors)
	reset(s.lights)
	reset(s.materials)
	s.actors, s.lights, s.materials = nil, nil, nil
}

func unwrap[T refcount.Counted](ptrs []refcount.Ptr[T]) []T {
	return lo.Map(ptrs, func(p refcount.Ptr[T], _ int) T {
		return p.Get()
	})
}

func wrap[T refcount.Counted](items []T) []refcount.Ptr[T] {
	ptrs := make([]refcount.Ptr[T], 0, len(items))
	for _, item := range items {
		if p := refcount.NewPtr(item); !p.IsNil() {
			ptrs = append(ptrs, p)
		}
	}
	return ptrs
}

func reset[T refcount.Counted](ptrs []refcount.Ptr[T]) {
	for i := range ptrs {
		ptrs[i].Reset()
	}
}

type sceneStreamer struct {
	base nameableStreamer
	obj  *Scene
}

func bindScene(s *Scene) objstream.Streamer {
	return sceneStreamer{base: nameableStreamer{obj: &s.Nameable}, obj: s}
}

func (s sceneStreamer) Object() objstream.Serializable { return s.obj }

// Write 先写材质库，演员引用到的材质因此总是以回溯引用出现。
func (s sceneStreamer) Write(e *objstream.Encoder) error {
	sc := s.obj
	if err := objstream.WriteList(e, sc.Materials()); err != nil {
		return err
	}
	if err := e.WriteBase(s.base); err != nil {
		return err
	}
	if err := writeColor(e, sc.Background); err != nil {
		return err
	}
	if err := writeColor(e, sc.Ambient); err != nil {
		return err
	}
	if err := e.WriteFloat64(sc.IOR); err != nil {
		return err
	}
	if err := objstream.WriteList(e, sc.Actors()); err != nil {
		return err
	}
	return objstream.WriteList(e, sc.Lights())
}

func (s sceneStreamer) Read(d *objstream.Decoder) (objstream.Serializable, error) {
	sc := s.obj
	materials, err := objstream.ReadList[*Material](d)
	if err != nil {
		return nil, err
	}
	if err := d.ReadBase(s.base); err != nil {
		return nil, err
	}
	if sc.Background, err = readColor(d); err != nil {
		return nil, err
	}
	if sc.Ambient, err = readColor(d); err != nil {
		return nil, err
	}
	if sc.IOR, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	actors, err := objstream.ReadList[*Actor](d)
	if err != nil {
		return nil, err
	}
	lights, err := objstream.ReadList[*Light](d)
	if err != nil {
		return nil, err
	}
	sc.Destroy()
	sc.materials = wrap(materials)
	sc.actors = wrap(actors)
	sc.lights = wrap(lights)
	return sc, nil
}
