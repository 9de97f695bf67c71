package objstream

import (
	"reflect"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Serializable 是参与对象图编码的实体，必须是指向非零大小类型的指针。
// 实体的身份由指针地址决定。
type Serializable = any

// Streamer 绑定到一个实体上，负责读写该实体自身声明的字段。
//
// 派生类型的 Streamer 先通过 Encoder.WriteBase / Decoder.ReadBase
// 处理基类部分，再处理自身字段。
type Streamer interface {
	// Object 返回绑定的实体。
	Object() Serializable
	Write(e *Encoder) error
	// Read 读取字段填充绑定的实体并返回它。
	Read(d *Decoder) (Serializable, error)
}

// Builder 为已有实体创建 Streamer；obj 为 nil 时创建空白实体并绑定。
type Builder func(obj Serializable) (Streamer, error)

// Descriptor 描述一个已注册的类型。
type Descriptor struct {
	name    string
	typ     reflect.Type
	builder Builder
}

// Name 返回流中使用的类型名。
func (d *Descriptor) Name() string {
	return d.name
}

// Type 返回实体的指针类型。
func (d *Descriptor) Type() reflect.Type {
	return d.typ
}

// Streamer 为 obj 创建 Streamer，obj 为 nil 时绑定一个空白实体。
func (d *Descriptor) Streamer(obj Serializable) (Streamer, error) {
	s, err := d.builder(obj)
	if err != nil {
		return nil, err
	}
	if s == nil || isNil(s.Object()) {
		return nil, merr.WrapErrTypeInvalid(d.name, "builder returned no entity")
	}
	return s, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func checkEntity(obj Serializable) error {
	if reflect.TypeOf(obj).Kind() != reflect.Pointer {
		return merr.WrapErrEntityInvalid(obj, "entity must be a pointer")
	}
	return nil
}
