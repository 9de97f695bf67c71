package objstream

import (
	"reflect"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// maxPrealloc 限制按流中元素个数预分配的容量，个数来自不可信的输入。
const maxPrealloc = 1024

// WriteList 写出元素个数，再逐个以 WriteObject 写出元素。
func WriteList[T any](e *Encoder, items []T) error {
	if err := e.WriteCount(len(items)); err != nil {
		return e.fail(err)
	}
	for i := range items {
		if err := e.WriteObject(items[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadList 是 WriteList 的逆过程，空引用以零值占位。
func ReadList[T any](d *Decoder) ([]T, error) {
	n, err := d.ReadCount()
	if err != nil {
		return nil, d.fail(err)
	}
	items := make([]T, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		item, err := ReadRef[T](d)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// WriteValues 写出元素个数，再以 write 逐个写出内嵌的值。
func WriteValues[T any](e *Encoder, items []T, write func(*Encoder, T) error) error {
	if err := e.WriteCount(len(items)); err != nil {
		return e.fail(err)
	}
	for i := range items {
		if err := write(e, items[i]); err != nil {
			return e.fail(err)
		}
	}
	return nil
}

// ReadValues 是 WriteValues 的逆过程。
func ReadValues[T any](d *Decoder, read func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadCount()
	if err != nil {
		return nil, d.fail(err)
	}
	items := make([]T, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		item, err := read(d)
		if err != nil {
			return nil, d.fail(err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadRef 读取一个对象引用并断言为 T，空引用返回零值。
func ReadRef[T any](d *Decoder) (T, error) {
	var zero T
	obj, err := d.ReadObject()
	if err != nil || obj == nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, d.fail(merr.WrapErrTypeMismatch(reflect.TypeOf((*T)(nil)).Elem(), reflect.TypeOf(obj), "read reference"))
	}
	return typed, nil
}
