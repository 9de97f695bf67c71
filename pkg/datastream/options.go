package datastream

import (
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

const (
	defaultBufferSize          = 4096
	defaultMaxStringLength     = 16 << 20
	defaultMaxCollectionLength = 1 << 24

	// NullLength 是空字符串（区别于长度为 0 的字符串）在流中的长度标记。
	NullLength int32 = -1
)

type options struct {
	order               binary.ByteOrder
	bufferSize          int
	maxStringLength     int
	maxCollectionLength int
}

func defaultOptions() options {
	return options{
		order:               binary.LittleEndian,
		bufferSize:          defaultBufferSize,
		maxStringLength:     defaultMaxStringLength,
		maxCollectionLength: defaultMaxCollectionLength,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option 配置 Reader/Writer。读写双方必须使用相同的字节序。
type Option func(*options)

// WithByteOrder 设置定长整数与浮点数的字节序，默认小端。
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.order = order
		}
	}
}

// WithBufferSize 设置底层 bufio 缓冲区大小。
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithMaxStringLength 限制单个字符串的长度（窄字符串按字节、宽字符串按码元计）。
func WithMaxStringLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxStringLength = min(n, math.MaxInt32)
		}
	}
}

// WithMaxCollectionLength 限制集合元素个数。
func WithMaxCollectionLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCollectionLength = min(n, math.MaxInt32)
		}
	}
}

// ParseByteOrder 将配置中的字节序名称解析为 binary.ByteOrder。
// 空字符串返回默认的小端序。
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "little", "little-endian", "le":
		return binary.LittleEndian, nil
	case "big", "big-endian", "be":
		return binary.BigEndian, nil
	default:
		return nil, merr.WrapErrParameterInvalid("little|big", name, "byte order")
	}
}

func checkLength[T constraints.Integer](what string, n T, limit int) error {
	if n < 0 {
		return merr.WrapErrFraming(">= 0", n, what)
	}
	if uint64(n) > uint64(limit) {
		return merr.WrapErrParameterTooLarge(what)
	}
	return nil
}
