package scene

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/refcount"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

type actorView struct {
	Name     string
	Visible  bool
	Model    string
	Min, Max Vec3
	Material string
}

type sceneView struct {
	Name       string
	Background Color
	Ambient    Color
	IOR        float64
	Materials  map[string]Surface
	Actors     []actorView
	Lights     []lightView
}

type lightView struct {
	Name        string
	On          bool
	Directional bool
	Position    Vec3
	Color       Color
	Falloff     Falloff
}

// view 把场景展开成可直接比较的普通值。
func view(s *Scene) sceneView {
	v := sceneView{
		Name:       s.Name(),
		Background: s.Background,
		Ambient:    s.Ambient,
		IOR:        s.IOR,
		Materials:  make(map[string]Surface),
	}
	for _, m := range s.Materials() {
		v.Materials[m.Name()] = m.Surface
	}
	for _, a := range s.Actors() {
		av := actorView{Name: a.Name(), Visible: a.Visible}
		if m := a.Model(); m != nil {
			av.Model = fmt.Sprintf("%T", m)
			av.Min, av.Max = m.Bounds()
			switch t := m.(type) {
			case *Sphere:
				av.Material = t.Material().Name()
			case *Box:
				av.Material = t.Material().Name()
			}
		}
		v.Actors = append(v.Actors, av)
	}
	for _, l := range s.Lights() {
		v.Lights = append(v.Lights, lightView{
			Name: l.Name(), On: l.On, Directional: l.Directional, Position: l.Position, Color: l.Color, Falloff: l.Falloff,
		})
	}
	return v
}

type SceneSuite struct {
	suite.Suite
	registry *objstream.Registry
}

func (s *SceneSuite) SetupTest() {
	s.registry = objstream.NewRegistry()
	s.Require().NoError(RegisterTypes(s.registry))
}

func (s *SceneSuite) roundTrip(sc *Scene) *Scene {
	var buf bytes.Buffer
	enc := objstream.NewEncoder(&buf, objstream.WithRegistry(s.registry))
	s.Require().NoError(enc.WriteObject(sc))
	s.Require().NoError(enc.Flush())

	dec := objstream.NewDecoder(&buf, objstream.WithRegistry(s.registry))
	got, err := objstream.ReadRef[*Scene](dec)
	s.Require().NoError(err)
	s.False(dec.More())
	return got
}

func (s *SceneSuite) TestRegisterTypes() {
	s.Equal(6, s.registry.Len())
	s.True(s.registry.Names().Contain(TypeScene, TypeActor, TypeMaterial))

	err := RegisterTypes(s.registry)
	s.ErrorIs(err, merr.ErrTypeDuplicated)
}

func (s *SceneSuite) TestRoundTripDemo() {
	src := Demo()
	got := s.roundTrip(src)

	if diff := cmp.Diff(view(src), view(got)); diff != "" {
		s.Failf("scene mismatch", "(-want +got):\n%s", diff)
	}

	actors := got.Actors()
	s.Require().Len(actors, 3)
	s.Same(actors[0].Model(), actors[1].Model())

	ball := actors[0].Model().(*Sphere)
	s.Same(got.Material("red"), ball.Material())
	s.Same(got.DefaultMaterial(), actors[2].Model().(*Box).Material())
	s.NotSame(src.Material("red"), got.Material("red"))
}

func (s *SceneSuite) TestDecodedReferenceCounts() {
	got := s.roundTrip(Demo())
	actors := got.Actors()
	ball := actors[0].Model().(*Sphere)
	red := got.Material("red")

	s.EqualValues(2, ball.Uses())
	s.EqualValues(2, red.Uses())
	s.EqualValues(1, actors[0].Uses())

	got.Destroy()
	s.EqualValues(0, ball.Uses())
	s.EqualValues(0, red.Uses())
	s.Nil(ball.Material())
	s.Nil(actors[0].Model())
	s.Empty(got.Actors())
}

func (s *SceneSuite) TestDeepCopy() {
	src := Demo()
	cp, err := DeepCopy(s.registry, src)
	s.Require().NoError(err)
	s.NotSame(src, cp)
	if diff := cmp.Diff(view(src), view(cp)); diff != "" {
		s.Failf("copy mismatch", "(-want +got):\n%s", diff)
	}
	s.NotSame(src.Actors()[0], cp.Actors()[0])

	nilCopy, err := DeepCopy(s.registry, nil)
	s.NoError(err)
	s.Nil(nilCopy)
}

func (s *SceneSuite) TestMaterialLibrary() {
	sc := NewScene("lib")
	s.Len(sc.Materials(), 1)
	s.Same(sc.DefaultMaterial(), sc.Material(DefaultMaterialName))

	glass := sc.NewMaterial("glass")
	s.Same(glass, sc.NewMaterial("glass"))
	s.Len(sc.Materials(), 2)
	s.Nil(sc.Material("missing"))

	s.Equal(White.Scale(0.8), glass.Surface.Diffuse)
	s.Equal(Black, glass.Surface.Spot)
	s.EqualValues(1, glass.Surface.IOR)
}

func (s *SceneSuite) TestRemoveActor() {
	sc := NewScene("rm")
	box := NewBox(Vec3{}, Vec3{1, 1, 1}, sc.DefaultMaterial())
	a := NewActor("a", box)
	sc.AddActor(a)
	s.EqualValues(1, a.Uses())

	s.True(sc.RemoveActor(a))
	s.False(sc.RemoveActor(a))
	s.Empty(sc.Actors())
	s.EqualValues(0, box.Uses())
	s.Nil(a.Model())
}

func (s *SceneSuite) TestNilMembersIgnored() {
	sc := NewScene("nil")
	sc.AddActor(nil)
	sc.AddActor(NewActor("a", nil))
	sc.AddLight(nil)
	sc.AddLight(NewLight("l", Vec3{}, White))
	s.Len(sc.Actors(), 1)
	s.Len(sc.Lights(), 1)

	got := s.roundTrip(sc)
	s.Len(got.Actors(), 1)
	s.Len(got.Lights(), 1)
	s.Equal("a", got.Actors()[0].Name())
	s.Nil(got.Actors()[0].Model())
}

func (s *SceneSuite) TestCopy() {
	sc := NewScene("copy")
	sphere := NewSphere(Vec3{1, 2, 3}, 2, sc.DefaultMaterial())

	cp, err := refcount.Copy(sphere)
	s.Require().NoError(err)
	s.NotSame(sphere, cp)
	s.Equal(sphere.Center, cp.Center)
	s.Same(sphere.Material(), cp.Material())
	s.EqualValues(3, sc.DefaultMaterial().Uses())

	_, err = refcount.Copy(NewActor("a", sphere))
	s.ErrorIs(err, merr.ErrCopyUnsupported)

	l := NewLight("l", Vec3{}, White)
	lc, err := refcount.Copy(l)
	s.Require().NoError(err)
	s.Equal("l", lc.Name())
}

func (s *SceneSuite) TestBounds() {
	min, max := NewSphere(Vec3{1, 1, 1}, -2, nil).Bounds()
	s.Equal(Vec3{-1, -1, -1}, min)
	s.Equal(Vec3{3, 3, 3}, max)
}

func (s *SceneSuite) TestInvalidFalloff() {
	l := NewLight("bad", Vec3{}, White)
	l.Falloff = 7

	var buf bytes.Buffer
	enc := objstream.NewEncoder(&buf, objstream.WithRegistry(s.registry))
	s.Require().NoError(enc.WriteObject(l))
	s.Require().NoError(enc.Flush())

	_, err := objstream.NewDecoder(&buf, objstream.WithRegistry(s.registry)).ReadObject()
	s.ErrorIs(err, merr.ErrFraming)
}

func TestScene(t *testing.T) {
	suite.Run(t, new(SceneSuite))
}
