package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
)

// DeepCopy 返回 s 的完整拷贝。拷贝与原场景不共享任何实体，
// 但拷贝内部的共享关系（多个演员引用同一模型、模型引用库中材质）保持不变。
func DeepCopy(r *objstream.Registry, s *Scene, opts ...objstream.Option) (*Scene, error) {
	return objstream.Clone(r, s, opts...)
}
