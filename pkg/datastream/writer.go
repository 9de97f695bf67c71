package datastream

import (
	"bufio"
	"io"
	"math"
	"unicode/utf16"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Writer 以定长二进制格式写出基础类型与长度前缀字符串。
//
// 写入经过 bufio 缓冲，调用方在会话结束时必须调用 Flush。
// 首次失败后 Writer 进入失败状态，之后所有写入都返回同一个错误。
type Writer struct {
	w    *bufio.Writer
	opts options
	buf  [8]byte
	n    int64
	err  error
}

// NewWriter 创建一个写入 w 的 Writer。
func NewWriter(w io.Writer, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		w:    bufio.NewWriterSize(w, o.bufferSize),
		opts: o,
	}
}

// Written 返回已写入（含尚在缓冲区中）的字节数。
func (w *Writer) Written() int64 {
	return w.n
}

// Err 返回 Writer 记录的第一个错误。
func (w *Writer) Err() error {
	return w.err
}

// MaxCollectionLength 返回集合元素个数上限。
func (w *Writer) MaxCollectionLength() int {
	return w.opts.maxCollectionLength
}

// Flush 将缓冲区写入底层 io.Writer。
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = merr.WrapErrIoFailed("flush", err)
	}
	return w.err
}

func (w *Writer) write(p []byte) error {
	if w.err != nil {
		return w.err
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = merr.WrapErrIoFailed("write", err)
	}
	return w.err
}

func (w *Writer) WriteUint8(v uint8) error {
	w.buf[0] = v
	return w.write(w.buf[:1])
}

func (w *Writer) WriteInt8(v int8) error {
	return w.WriteUint8(uint8(v))
}

func (w *Writer) WriteUint16(v uint16) error {
	w.opts.order.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) error {
	w.opts.order.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) error {
	w.opts.order.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteUint64(math.Float64bits(v))
}

// WriteBool 写出单字节布尔值，true 为 1。
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteChar 写出一个窄字符（单字节）。
func (w *Writer) WriteChar(c byte) error {
	return w.WriteUint8(c)
}

// WriteWChar 写出一个宽字符（UTF-16 码元）。
func (w *Writer) WriteWChar(c uint16) error {
	return w.WriteUint16(c)
}

// WriteCount 写出集合元素个数。
func (w *Writer) WriteCount(n int) error {
	if w.err != nil {
		return w.err
	}
	if err := checkLength("collection length", n, w.opts.maxCollectionLength); err != nil {
		return err
	}
	return w.WriteInt32(int32(n))
}

// WriteString 写出 int32 字节长度与字节内容。
func (w *Writer) WriteString(s string) error {
	if w.err != nil {
		return w.err
	}
	if err := checkLength("string length", len(s), w.opts.maxStringLength); err != nil {
		return err
	}
	if err := w.WriteInt32(int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return w.write([]byte(s))
}

// WriteNullableString 与 WriteString 相同，但 nil 被写为长度 -1。
func (w *Writer) WriteNullableString(s *string) error {
	if s == nil {
		return w.WriteInt32(NullLength)
	}
	return w.WriteString(*s)
}

// WriteWString 写出 int32 码元个数与 UTF-16 码元序列。
func (w *Writer) WriteWString(s string) error {
	if w.err != nil {
		return w.err
	}
	units := utf16.Encode([]rune(s))
	if err := checkLength("wide string length", len(units), w.opts.maxStringLength); err != nil {
		return err
	}
	if err := w.WriteInt32(int32(len(units))); err != nil {
		return err
	}
	for _, u := range units {
		if err := w.WriteUint16(u); err != nil {
			return err
		}
	}
	return nil
}

// WriteNullableWString 与 WriteWString 相同，但 nil 被写为长度 -1。
func (w *Writer) WriteNullableWString(s *string) error {
	if s == nil {
		return w.WriteInt32(NullLength)
	}
	return w.WriteWString(*s)
}
