package objstream

import (
	"reflect"
	"sync"

	"github.com/samber/lo"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
	"github.com/lk2023060901/objgraph-go/pkg/util/typeutil"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default 返回进程级的注册表，首次调用时创建。
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry 记录类型名、实体类型与 Builder 之间的映射。
// 注册与查找可以并发进行，但一般在启动阶段集中完成注册。
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	byType map[reflect.Type]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		byType: make(map[reflect.Type]*Descriptor),
	}
}

// Register 以 name 注册实体类型 typ。typ 必须是指向非零大小类型的指针。
// 同名或同类型的重复注册返回 ErrTypeDuplicated。
func (r *Registry) Register(name string, typ reflect.Type, builder Builder) error {
	if name == "" {
		return merr.WrapErrParameterMissing("name", "register type")
	}
	if builder == nil {
		return merr.WrapErrParameterMissing("builder", "register type "+name)
	}
	if typ == nil || typ.Kind() != reflect.Pointer {
		return merr.WrapErrTypeInvalid(typ, "entity type must be a pointer")
	}
	// 零大小类型的不同实例可能共享地址，无法区分身份。
	if typ.Elem().Size() == 0 {
		return merr.WrapErrEntityInvalid(typ, "zero-size entity type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return merr.WrapErrTypeDuplicated(name)
	}
	if existing, ok := r.byType[typ]; ok {
		return merr.WrapErrTypeDuplicated(name, "type already registered as "+existing.name)
	}
	desc := &Descriptor{name: name, typ: typ, builder: builder}
	r.byName[name] = desc
	r.byType[typ] = desc
	return nil
}

// Lookup 按类型名查找。
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byName[name]
	return desc, ok
}

// LookupType 按实体的指针类型查找。
func (r *Registry) LookupType(typ reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byType[typ]
	return desc, ok
}

// Names 返回全部已注册的类型名。
func (r *Registry) Names() typeutil.Set[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return typeutil.NewSet(lo.Keys(r.byName)...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Register 以 name 注册 *T。bind 把一个 *T 绑定到它的 Streamer 上，
// 解码时以 new(T) 作为空白实体调用 bind。
func Register[T any](r *Registry, name string, bind func(*T) Streamer) error {
	if bind == nil {
		return merr.WrapErrParameterMissing("bind", "register type "+name)
	}
	typ := reflect.TypeOf((*T)(nil))
	return r.Register(name, typ, func(obj Serializable) (Streamer, error) {
		if obj == nil {
			return bind(new(T)), nil
		}
		t, ok := obj.(*T)
		if !ok {
			return nil, merr.WrapErrTypeMismatch(typ, reflect.TypeOf(obj), "bind "+name)
		}
		return bind(t), nil
	})
}

// MustRegister 与 Register 相同，失败时 panic。
func MustRegister[T any](r *Registry, name string, bind func(*T) Streamer) {
	if err := Register(r, name, bind); err != nil {
		panic(err)
	}
}
