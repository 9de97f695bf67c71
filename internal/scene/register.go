package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// 场景实体在流中的类型名。
const (
	TypeMaterial = "scene.Material"
	TypeSphere   = "scene.Sphere"
	TypeBox      = "scene.Box"
	TypeActor    = "scene.Actor"
	TypeLight    = "scene.Light"
	TypeScene    = "scene.Scene"
)

// RegisterTypes 把场景实体注册到 r 中，已注册的类型会以 ErrTypeDuplicated 报出。
func RegisterTypes(r *objstream.Registry) error {
	return merr.Combine(
		objstream.Register(r, TypeMaterial, bindMaterial),
		objstream.Register(r, TypeSphere, bindSphere),
		objstream.Register(r, TypeBox, bindBox),
		objstream.Register(r, TypeActor, bindActor),
		objstream.Register(r, TypeLight, bindLight),
		objstream.Register(r, TypeScene, bindScene),
	)
}
