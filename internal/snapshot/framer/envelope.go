package framer

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// 头部标志位。
const (
	FlagCompressed uint64 = 1 << 0
	FlagEncrypted  uint64 = 1 << 1
)

// Header 是快照帧的头部，按 protobuf 线格式编码：
//
//	1: version string  2: flags uint64  3: compressor uint32
//	4: size uint64     5: timestamp int64  6: root_type string
//
// Size 为压缩与加密之前的原始对象流长度。
type Header struct {
	Version    string
	Flags      uint64
	Compressor uint32
	Size       uint64
	Timestamp  int64
	RootType   string
}

// Envelope 是一帧的完整内容：1: header（嵌套消息） 2: payload bytes。
type Envelope struct {
	Header  *Header
	Payload []byte
}

const (
	headerVersion protowire.Number = iota + 1
	headerFlags
	headerCompressor
	headerSize
	headerTimestamp
	headerRootType
)

const (
	envelopeHeader protowire.Number = iota + 1
	envelopePayload
)

// AppendHeader 把 h 编码后追加到 b。零值字段不写出。
func AppendHeader(b []byte, h *Header) []byte {
	if h.Version != "" {
		b = protowire.AppendTag(b, headerVersion, protowire.BytesType)
		b = protowire.AppendString(b, h.Version)
	}
	if h.Flags != 0 {
		b = protowire.AppendTag(b, headerFlags, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Flags)
	}
	if h.Compressor != 0 {
		b = protowire.AppendTag(b, headerCompressor, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.Compressor))
	}
	if h.Size != 0 {
		b = protowire.AppendTag(b, headerSize, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Size)
	}
	if h.Timestamp != 0 {
		b = protowire.AppendTag(b, headerTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.Timestamp))
	}
	if h.RootType != "" {
		b = protowire.AppendTag(b, headerRootType, protowire.BytesType)
		b = protowire.AppendString(b, h.RootType)
	}
	return b
}

// MarshalEnvelope 编码整个 Envelope。
func MarshalEnvelope(env *Envelope) []byte {
	var b []byte
	if env.Header != nil {
		b = protowire.AppendTag(b, envelopeHeader, protowire.BytesType)
		b = protowire.AppendBytes(b, AppendHeader(nil, env.Header))
	}
	if len(env.Payload) > 0 {
		b = protowire.AppendTag(b, envelopePayload, protowire.BytesType)
		b = protowire.AppendBytes(b, env.Payload)
	}
	return b
}

// eachField 依次解出 b 中的字段，未知字段被跳过。
func eachField(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return corrupted(n, "consume tag")
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return corrupted(n, "consume field")
		}
		b = b[n:]
	}
	return nil
}

func corrupted(n int, msg string) error {
	return merr.WrapErrSnapshotCorrupted(protowire.ParseError(n).Error(), msg)
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, merr.WrapErrSnapshotCorrupted("unexpected wire type", "consume varint")
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, corrupted(n, "consume varint")
	}
	return v, n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, merr.WrapErrSnapshotCorrupted("unexpected wire type", "consume bytes")
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, corrupted(n, "consume bytes")
	}
	return v, n, nil
}

// UnmarshalHeader 解码头部。
func UnmarshalHeader(b []byte) (*Header, error) {
	h := &Header{}
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case headerVersion, headerRootType:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			if num == headerVersion {
				h.Version = string(v)
			} else {
				h.RootType = string(v)
			}
			return n, nil
		case headerFlags, headerCompressor, headerSize, headerTimestamp:
			v, n, err := consumeVarint(typ, b)
			if err != nil {
				return 0, err
			}
			switch num {
			case headerFlags:
				h.Flags = v
			case headerCompressor:
				h.Compressor = uint32(v)
			case headerSize:
				h.Size = v
			default:
				h.Timestamp = int64(v)
			}
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// UnmarshalEnvelope 解码整个 Envelope，缺少头部时返回空头部。
// Payload 引用 b 的底层数组。
func UnmarshalEnvelope(b []byte) (*Envelope, error) {
	env := &Envelope{}
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case envelopeHeader:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			if env.Header, err = UnmarshalHeader(v); err != nil {
				return 0, err
			}
			return n, nil
		case envelopePayload:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			env.Payload = v
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if env.Header == nil {
		env.Header = &Header{}
	}
	return env, nil
}
