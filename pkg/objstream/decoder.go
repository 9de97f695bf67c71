package objstream

import (
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/pkg/datastream"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Decoder 是一次解码会话，是 Encoder 的逆过程。
//
// 任何错误都会终止会话：之后的所有调用返回同一个错误，
// 失败的 ReadObject 不返回部分构造的实体。Decoder 不是并发安全的。
type Decoder struct {
	*datastream.Reader

	registry *Registry
	tracer   Tracer
	logger   *log.MLogger
	maxDepth int

	// 下标 0 保留，编号从 1 开始。
	objects []Serializable
	types   []*Descriptor
	depth   int
	stats   Stats
	err     error
}

func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := buildOptions(opts)
	return &Decoder{
		Reader:   datastream.NewReader(r, o.stream...),
		registry: o.registry,
		tracer:   o.tracer,
		logger:   o.logger.With(zap.String(log.FieldNameDirection, "decode")),
		maxDepth: o.maxDepth,
		objects:  make([]Serializable, 1, 16),
		types:    make([]*Descriptor, 1, 8),
	}
}

// Registry 返回会话使用的注册表。
func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Err 返回会话中的第一个错误。
func (d *Decoder) Err() error {
	return d.err
}

// Stats 返回截至目前的会话统计。
func (d *Decoder) Stats() Stats {
	st := d.stats
	st.Types = len(d.types) - 1
	st.Bytes = d.Consumed()
	return st
}

// More 报告输入在当前位置之后是否还有记录。
func (d *Decoder) More() bool {
	return d.err == nil && !d.AtEOF()
}

// ReadObject 读取一个可空的对象引用，PtrNull 返回 (nil, nil)。
func (d *Decoder) ReadObject() (Serializable, error) {
	if d.err != nil {
		return nil, d.err
	}
	tag, err := d.ReadUint8()
	if err != nil {
		return nil, d.fail(err)
	}
	switch tag {
	case PtrNull:
		d.stats.Nulls++
		d.tracer.OnNull()
		return nil, nil
	case PtrIndexed:
		id, err := d.ReadInt32()
		if err != nil {
			return nil, d.fail(err)
		}
		if id <= 0 || int(id) >= len(d.objects) {
			return nil, d.fail(merr.WrapErrBrokenReference("object", id, "read object"))
		}
		d.stats.BackReferences++
		d.tracer.OnBackReference(id)
		return d.objects[id], nil
	case PtrObject:
		return d.readRecord(nil)
	default:
		return nil, d.fail(merr.WrapErrFraming("pointer tag", tag, "read object"))
	}
}

// ReadObjectInto 读取一条不带指针标记的记录并填充 obj，
// 记录的类型必须与 obj 的类型一致。对应 Encoder.WriteValue。
func (d *Decoder) ReadObjectInto(obj Serializable) error {
	if d.err != nil {
		return d.err
	}
	if isNil(obj) {
		return d.fail(merr.WrapErrEntityInvalid(obj, "target must not be nil"))
	}
	if err := checkEntity(obj); err != nil {
		return d.fail(err)
	}
	_, err := d.readRecord(obj)
	return err
}

// ReadBase 读取基类部分的字段，在派生类型的 Streamer.Read 开头调用。
func (d *Decoder) ReadBase(base Streamer) error {
	if d.err != nil {
		return d.err
	}
	_, err := base.Read(d)
	return err
}

func (d *Decoder) readRecord(target Serializable) (Serializable, error) {
	if d.depth >= d.maxDepth {
		return nil, d.fail(merr.WrapErrFramingReason("nesting too deep", "read object"))
	}
	desc, newType, err := d.readPrefix()
	if err != nil {
		return nil, d.fail(err)
	}
	if target != nil && reflect.TypeOf(target) != desc.Type() {
		return nil, d.fail(merr.WrapErrTypeMismatch(reflect.TypeOf(target), desc.Type(), "read object into"))
	}
	streamer, err := desc.Streamer(target)
	if err != nil {
		return nil, d.fail(err)
	}

	// 先登记空白实体再读字段，字段中的自引用才能解析。
	obj := streamer.Object()
	id := int32(len(d.objects))
	d.objects = append(d.objects, obj)
	d.stats.Objects++
	d.tracer.OnObjectBegin(id, desc.Name(), newType)

	d.depth++
	result, err := streamer.Read(d)
	d.depth--
	if err != nil {
		return nil, d.fail(err)
	}
	if isNil(result) {
		result = obj
	}
	if err := d.readMark(SuffixMark); err != nil {
		return nil, d.fail(err)
	}
	d.tracer.OnObjectEnd(id)
	return result, nil
}

func (d *Decoder) readPrefix() (*Descriptor, bool, error) {
	if err := d.readMark(PrefixMark); err != nil {
		return nil, false, err
	}
	tag, err := d.ReadUint8()
	if err != nil {
		return nil, false, err
	}
	switch tag {
	case NameIndexed:
		id, err := d.ReadInt32()
		if err != nil {
			return nil, false, err
		}
		if id <= 0 || int(id) >= len(d.types) {
			return nil, false, merr.WrapErrBrokenReference("type", id, "read prefix")
		}
		return d.types[id], false, nil
	case NameClass:
		name, err := d.ReadNullableString()
		if err != nil {
			return nil, false, err
		}
		if name == nil {
			return nil, false, merr.WrapErrFramingReason("null type name", "read prefix")
		}
		desc, ok := d.registry.Lookup(*name)
		if !ok {
			return nil, false, merr.WrapErrTypeNotFound(*name, "read prefix")
		}
		d.types = append(d.types, desc)
		d.logger.Debug("declare type", log.FieldTypeName(*name), zap.Int("typeID", len(d.types)-1))
		return desc, true, nil
	default:
		return nil, false, merr.WrapErrFraming("type name tag", tag, "read prefix")
	}
}

func (d *Decoder) readMark(mark uint8) error {
	got, err := d.ReadUint8()
	if err != nil {
		return err
	}
	if got != mark {
		return merr.WrapErrFraming(string(rune(mark)), got)
	}
	return nil
}

func (d *Decoder) fail(err error) error {
	if d.err == nil {
		d.err = err
		d.logger.Warn("decode session aborted", zap.Error(err), zap.Int("objects", d.stats.Objects))
	}
	return d.err
}
