package objstream

import (
	"bytes"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Clone 通过一次内存中的编码与解码得到 obj 的深拷贝。
// 拷贝内部的共享与循环引用与原对象图一致。
func Clone[T any](r *Registry, obj T, opts ...Option) (T, error) {
	var zero T
	if isNil(obj) {
		return zero, nil
	}
	opts = append(opts, WithRegistry(r))

	var buf bytes.Buffer
	enc := NewEncoder(&buf, opts...)
	if err := enc.WriteObject(obj); err != nil {
		return zero, err
	}
	if err := enc.Flush(); err != nil {
		return zero, err
	}

	dec := NewDecoder(&buf, opts...)
	cp, err := ReadRef[T](dec)
	if err != nil {
		return zero, err
	}
	if dec.More() {
		return zero, merr.WrapErrFramingReason("trailing bytes after clone")
	}
	return cp, nil
}
