// Package refcount 为对象图中的实体提供共享所有权。
//
// 实体嵌入 Object 获得引用计数；持有方通过 Ptr 管理计数，
// 计数归零时若实体实现了 Destroyer，则调用其 Destroy 释放子对象。
package refcount

import (
	"reflect"

	"go.uber.org/atomic"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Counted 是可被共享持有的实体。
type Counted interface {
	Retain()
	Release() bool
	Uses() int32
}

// Destroyer 在最后一个持有者释放实体时被调用。
type Destroyer interface {
	Destroy()
}

// Copier 是实体的多态深拷贝。返回 nil 表示该类型不支持拷贝。
type Copier interface {
	MakeCopy() any
}

var _ Counted = (*Object)(nil)

// Object 嵌入到实体结构体中提供引用计数。新建实体计数为 0。
type Object struct {
	uses atomic.Int32
}

// Retain 增加一次引用。
func (o *Object) Retain() {
	o.uses.Inc()
}

// Release 减少一次引用，返回实体是否已无持有者。
// 计数不会减到负数，对计数为 0 的实体调用 Release 同样视为无持有者。
func (o *Object) Release() bool {
	for {
		cur := o.uses.Load()
		if cur <= 0 {
			return true
		}
		if o.uses.CompareAndSwap(cur, cur-1) {
			return cur == 1
		}
	}
}

// Uses 返回当前引用次数。
func (o *Object) Uses() int32 {
	return o.uses.Load()
}

// Retain 为 obj 增加一次引用并原样返回，obj 为空时不做任何事。
func Retain[T Counted](obj T) T {
	if !isNil(obj) {
		obj.Retain()
	}
	return obj
}

// Release 释放 obj 的一次引用，无持有者时调用 Destroy。
func Release(obj Counted) {
	if isNil(obj) {
		return
	}
	if obj.Release() {
		if d, ok := obj.(Destroyer); ok {
			d.Destroy()
		}
	}
}

// Copy 返回 obj 的深拷贝，类型不支持拷贝时返回 ErrCopyUnsupported。
func Copy[T any](obj T) (T, error) {
	var zero T
	c, ok := any(obj).(Copier)
	if !ok || isNil(obj) {
		return zero, merr.WrapErrCopyUnsupported(obj)
	}
	cp := c.MakeCopy()
	if isNil(cp) {
		return zero, merr.WrapErrCopyUnsupported(obj)
	}
	typed, ok := cp.(T)
	if !ok {
		return zero, merr.WrapErrTypeMismatch(reflect.TypeOf(obj), reflect.TypeOf(cp), "copy")
	}
	return typed, nil
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
