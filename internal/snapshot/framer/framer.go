package framer

import (
	"encoding/binary"
	"io"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Framer 抽象了基于 Envelope 的打包/解包能力。
//
// 一帧数据的格式为：4 字节大端无符号整型（后续 Envelope 编码后的长度）+ Envelope 二进制数据。
type Framer interface {
	// WriteFrame 将 Envelope 打包为一帧并写入到 w 中，返回写出的字节数。
	WriteFrame(w io.Writer, env *Envelope) (int, error)

	// ReadFrame 从 r 中读取一帧数据并解包为 Envelope，同时返回读入的字节数。
	ReadFrame(r io.Reader) (*Envelope, int, error)
}

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大帧大小（Envelope 编码后长度），单位字节。
	// 为 0 时使用默认值 DefaultMaxFrameSize。
	MaxFrameSize uint32
}

const DefaultMaxFrameSize uint32 = 256 * 1024 * 1024 // 256MB

var _ Framer = (*LengthPrefixedFramer)(nil)

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器，maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 Envelope 编码为长度前缀帧并写入。
func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, env *Envelope) (int, error) {
	if env == nil {
		return 0, merr.WrapErrParameterMissing("envelope", "write frame")
	}

	body := MarshalEnvelope(env)
	length := uint32(len(body))
	if len(body) > int(f.effectiveMaxSize()) {
		return 0, merr.WrapErrParameterTooLarge("frame", "write frame")
	}

	frame := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(frame, length)
	frame = append(frame, body...)
	n, err := w.Write(frame)
	if err != nil {
		return n, merr.WrapErrIoFailed("frame", err)
	}
	return n, nil
}

// ReadFrame 从流中读取一帧数据并解码为 Envelope。
// 流在帧边界处结束时原样返回 io.EOF。
func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) (*Envelope, int, error) {
	var header [4]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, n, merr.WrapErrIoUnexpectEOF("frame header", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > f.effectiveMaxSize() {
		return nil, 4, merr.WrapErrSnapshotCorrupted("frame size exceeds limit", "read frame")
	}

	body := make([]byte, length)
	if n, err := io.ReadFull(r, body); err != nil {
		return nil, 4 + n, merr.WrapErrIoUnexpectEOF("frame body", err)
	}

	env, err := UnmarshalEnvelope(body)
	if err != nil {
		return nil, 4 + int(length), err
	}
	return env, 4 + int(length), nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return f.MaxFrameSize
}
