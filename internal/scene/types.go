// Package scene 是一个示例领域模型：场景由材质库、演员与光源组成，
// 演员通过共享引用持有模型，模型通过共享引用持有材质。
package scene

import (
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
)

type Vec3 struct {
	X, Y, Z float64
}

type Color struct {
	R, G, B float32
}

var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
)

// Scale 返回各分量乘以 f 的颜色。
func (c Color) Scale(f float32) Color {
	return Color{c.R * f, c.G * f, c.B * f}
}

// Falloff 是光源强度随距离衰减的方式。
type Falloff int16

const (
	FalloffInfinite Falloff = iota
	FalloffLinear
	FalloffSquared
)

func writeVec3(e *objstream.Encoder, v Vec3) error {
	if err := e.WriteFloat64(v.X); err != nil {
		return err
	}
	if err := e.WriteFloat64(v.Y); err != nil {
		return err
	}
	return e.WriteFloat64(v.Z)
}

func readVec3(d *objstream.Decoder) (Vec3, error) {
	var v Vec3
	var err error
	if v.X, err = d.ReadFloat64(); err != nil {
		return v, err
	}
	if v.Y, err = d.ReadFloat64(); err != nil {
		return v, err
	}
	v.Z, err = d.ReadFloat64()
	return v, err
}

func writeColor(e *objstream.Encoder, c Color) error {
	if err := e.WriteFloat32(c.R); err != nil {
		return err
	}
	if err := e.WriteFloat32(c.G); err != nil {
		return err
	}
	return e.WriteFloat32(c.B)
}

func readColor(d *objstream.Decoder) (Color, error) {
	var c Color
	var err error
	if c.R, err = d.ReadFloat32(); err != nil {
		return c, err
	}
	if c.G, err = d.ReadFloat32(); err != nil {
		return c, err
	}
	c.B, err = d.ReadFloat32()
	return c, err
}
