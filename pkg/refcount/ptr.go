package refcount

// Ptr 是持有一次引用的句柄，零值表示空。
//
// Ptr 不是并发安全的，持有它的实体负责同步。
type Ptr[T Counted] struct {
	obj T
	set bool
}

// NewPtr 创建持有 obj 的句柄，obj 被增加一次引用。
func NewPtr[T Counted](obj T) Ptr[T] {
	var p Ptr[T]
	p.Set(obj)
	return p
}

// Get 返回被持有的实体，空句柄返回零值。
func (p *Ptr[T]) Get() T {
	return p.obj
}

// IsNil 报告句柄是否为空。
func (p *Ptr[T]) IsNil() bool {
	return !p.set
}

// Set 改为持有 obj：先引用新实体，再释放旧实体，因此 Set 同一实体是安全的。
func (p *Ptr[T]) Set(obj T) {
	if isNil(obj) {
		p.Reset()
		return
	}
	obj.Retain()
	old, had := p.obj, p.set
	p.obj, p.set = obj, true
	if had {
		Release(old)
	}
}

// Reset 释放持有的实体并置空。
func (p *Ptr[T]) Reset() {
	if !p.set {
		return
	}
	old := p.obj
	var zero T
	p.obj, p.set = zero, false
	Release(old)
}

// Clone 返回持有同一实体的新句柄。
func (p *Ptr[T]) Clone() Ptr[T] {
	return NewPtr(p.obj)
}
