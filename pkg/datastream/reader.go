package datastream

import (
	"bufio"
	"io"
	"math"
	"unicode/utf16"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Reader 是 Writer 的逆过程。首次失败后的所有读取都返回同一个错误。
type Reader struct {
	r    *bufio.Reader
	opts options
	buf  [8]byte
	n    int64
	err  error
}

// NewReader 创建一个从 r 读取的 Reader。
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{
		r:    bufio.NewReaderSize(r, o.bufferSize),
		opts: o,
	}
}

// Consumed 返回已读取的字节数。
func (r *Reader) Consumed() int64 {
	return r.n
}

// Err 返回 Reader 记录的第一个错误。
func (r *Reader) Err() error {
	return r.err
}

// AtEOF 报告底层输入是否恰好在此处结束。
func (r *Reader) AtEOF() bool {
	if r.err != nil {
		return false
	}
	_, err := r.r.Peek(1)
	return errors.Is(err, io.EOF)
}

func (r *Reader) fail(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		r.err = merr.WrapErrIoUnexpectEOF("read", err)
	} else {
		r.err = merr.WrapErrIoFailed("read", err)
	}
	return r.err
}

func (r *Reader) readFull(p []byte) error {
	if r.err != nil {
		return r.err
	}
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		return r.fail(err)
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.readFull(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.readFull(r.buf[:2]); err != nil {
		return 0, err
	}
	return r.opts.order.Uint16(r.buf[:2]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.readFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return r.opts.order.Uint32(r.buf[:4]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.readFull(r.buf[:8]); err != nil {
		return 0, err
	}
	return r.opts.order.Uint64(r.buf[:8]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBool 读取单字节布尔值，非 0 即为 true。
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

func (r *Reader) ReadChar() (byte, error) {
	return r.ReadUint8()
}

func (r *Reader) ReadWChar() (uint16, error) {
	return r.ReadUint16()
}

// ReadCount 读取集合元素个数，负数视为流结构损坏。
func (r *Reader) ReadCount() (int, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if err := checkLength("collection length", n, r.opts.maxCollectionLength); err != nil {
		r.err = err
		return 0, err
	}
	return int(n), nil
}

// readLength 读取字符串长度，返回 -1 表示空字符串。
func (r *Reader) readLength(what string) (int, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n == NullLength {
		return -1, nil
	}
	if err := checkLength(what, n, r.opts.maxStringLength); err != nil {
		r.err = err
		return 0, err
	}
	return int(n), nil
}

// ReadString 读取窄字符串，空字符串按 "" 返回。
func (r *Reader) ReadString() (string, error) {
	s, err := r.ReadNullableString()
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// ReadNullableString 读取窄字符串，长度 -1 时返回 nil。
func (r *Reader) ReadNullableString() (*string, error) {
	n, err := r.readLength("string length")
	if err != nil || n < 0 {
		return nil, err
	}
	p := make([]byte, n)
	if err := r.readFull(p); err != nil {
		return nil, err
	}
	s := string(p)
	return &s, nil
}

// ReadWString 读取宽字符串，空字符串按 "" 返回。
func (r *Reader) ReadWString() (string, error) {
	s, err := r.ReadNullableWString()
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// ReadNullableWString 读取宽字符串，长度 -1 时返回 nil。
func (r *Reader) ReadNullableWString() (*string, error) {
	n, err := r.readLength("wide string length")
	if err != nil || n < 0 {
		return nil, err
	}
	units := make([]uint16, n)
	for i := range units {
		if units[i], err = r.ReadUint16(); err != nil {
			return nil, err
		}
	}
	s := string(utf16.Decode(units))
	return &s, nil
}
