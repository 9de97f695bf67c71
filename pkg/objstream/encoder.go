package objstream

import (
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/pkg/datastream"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Encoder 是一次编码会话，持有已写出实体与类型名的编号表。
//
// 同一个 Encoder 上多次调用 WriteObject 共享编号表，
// 后写出的对象可以回溯引用先前写出的实体。Encoder 不是并发安全的。
type Encoder struct {
	*datastream.Writer

	registry *Registry
	tracer   Tracer
	logger   *log.MLogger
	maxDepth int

	objects    map[Serializable]int32
	types      map[string]int32
	nextObject int32
	depth      int
	stats      Stats
	err        error
}

func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	o := buildOptions(opts)
	return &Encoder{
		Writer:   datastream.NewWriter(w, o.stream...),
		registry: o.registry,
		tracer:   o.tracer,
		logger:   o.logger.With(zap.String(log.FieldNameDirection, "encode")),
		maxDepth: o.maxDepth,
		objects:  make(map[Serializable]int32),
		types:    make(map[string]int32),
	}
}

// Registry 返回会话使用的注册表。
func (e *Encoder) Registry() *Registry {
	return e.registry
}

// Err 返回会话中的第一个错误。
func (e *Encoder) Err() error {
	return e.err
}

// Stats 返回截至目前的会话统计。
func (e *Encoder) Stats() Stats {
	st := e.stats
	st.Types = len(e.types)
	st.Bytes = e.Written()
	return st
}

// Flush 将缓冲数据写入底层 io.Writer。
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.Writer.Flush(); err != nil {
		return e.fail(err)
	}
	return nil
}

// WriteObject 写出一个可空的对象引用。
// nil（包括有类型的 nil 指针）写为 PtrNull；已写出过的实体写为 PtrIndexed 加编号；
// 其余实体写为 PtrObject 加完整记录。
func (e *Encoder) WriteObject(obj Serializable) error {
	if e.err != nil {
		return e.err
	}
	if isNil(obj) {
		e.stats.Nulls++
		e.tracer.OnNull()
		return e.check(e.WriteUint8(PtrNull))
	}
	if err := checkEntity(obj); err != nil {
		return e.fail(err)
	}
	if id, ok := e.objects[obj]; ok {
		e.stats.BackReferences++
		e.tracer.OnBackReference(id)
		if err := e.WriteUint8(PtrIndexed); err != nil {
			return e.fail(err)
		}
		return e.check(e.WriteInt32(id))
	}
	if err := e.WriteUint8(PtrObject); err != nil {
		return e.fail(err)
	}
	return e.writeRecord(obj)
}

// WriteValue 无条件写出 obj 的完整记录，不带指针标记，用于内嵌的值对象。
// 对应的读取方法是 Decoder.ReadObjectInto。
func (e *Encoder) WriteValue(obj Serializable) error {
	if e.err != nil {
		return e.err
	}
	if isNil(obj) {
		return e.fail(merr.WrapErrEntityInvalid(obj, "value must not be nil"))
	}
	if err := checkEntity(obj); err != nil {
		return e.fail(err)
	}
	return e.writeRecord(obj)
}

// WriteBase 写出基类部分的字段，在派生类型的 Streamer.Write 开头调用。
func (e *Encoder) WriteBase(base Streamer) error {
	if e.err != nil {
		return e.err
	}
	return base.Write(e)
}

func (e *Encoder) writeRecord(obj Serializable) error {
	typ := reflect.TypeOf(obj)
	desc, ok := e.registry.LookupType(typ)
	if !ok {
		return e.fail(merr.WrapErrTypeNotFound(typ.String(), "write object"))
	}
	if e.depth >= e.maxDepth {
		return e.fail(merr.WrapErrFramingReason("nesting too deep", "write object"))
	}
	streamer, err := desc.Streamer(obj)
	if err != nil {
		return e.fail(err)
	}

	newType, err := e.writePrefix(desc.Name())
	if err != nil {
		return e.fail(err)
	}
	// 先登记再写字段，字段中出现的自引用才能写成回溯引用。
	e.nextObject++
	id := e.nextObject
	e.objects[obj] = id
	e.stats.Objects++
	e.tracer.OnObjectBegin(id, desc.Name(), newType)

	e.depth++
	err = streamer.Write(e)
	e.depth--
	if err != nil {
		return e.fail(err)
	}
	if err := e.WriteUint8(SuffixMark); err != nil {
		return e.fail(err)
	}
	e.tracer.OnObjectEnd(id)
	return nil
}

func (e *Encoder) writePrefix(name string) (bool, error) {
	if err := e.WriteUint8(PrefixMark); err != nil {
		return false, err
	}
	if id, ok := e.types[name]; ok {
		if err := e.WriteUint8(NameIndexed); err != nil {
			return false, err
		}
		return false, e.WriteInt32(id)
	}
	id := int32(len(e.types) + 1)
	e.types[name] = id
	e.logger.Debug("declare type", log.FieldTypeName(name), zap.Int32("typeID", id))
	if err := e.WriteUint8(NameClass); err != nil {
		return true, err
	}
	return true, e.WriteString(name)
}

func (e *Encoder) check(err error) error {
	if err != nil {
		return e.fail(err)
	}
	return nil
}

func (e *Encoder) fail(err error) error {
	if e.err == nil {
		e.err = err
		e.logger.Warn("encode session aborted", zap.Error(err), zap.Int("objects", e.stats.Objects))
	}
	return e.err
}
