package compressor

import (
	"strconv"
	"strings"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Code 是写入快照头部的压缩算法编号。
type Code uint32

const (
	CodeNone Code = iota
	CodeZstd
	CodeLZ4
	CodeSnappy
)

var codeNames = map[Code]string{
	CodeNone:   "none",
	CodeZstd:   "zstd",
	CodeLZ4:    "lz4",
	CodeSnappy: "snappy",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Compressor 抽象了“单次压缩/解压”能力。
//
// 面向内存中的整块快照数据，不做全局单例，调用方按需创建具体实现的实例。
type Compressor interface {
	// Code 返回写入快照头部的算法编号。
	Code() Code

	// Compress 将 src 压缩到 dst。
	//
	// dst 一般可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst，解压结果最多 limit 字节。
	// 超出 limit 时在分配更多内存之前返回 ErrParameterTooLarge。
	Decompress(dst, src []byte, limit int) (plain []byte, err error)
}

// NopCompressor 不做任何压缩/解压，直接返回输入内容，用于关闭压缩的场景。
type NopCompressor struct{}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}

func (NopCompressor) Code() Code { return CodeNone }

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(len(src), limit); err != nil {
		return nil, err
	}
	return src, nil
}

func checkLimit(n, limit int) error {
	if limit <= 0 {
		return merr.WrapErrParameterInvalidMsg("decompress limit must be positive, got %d", limit)
	}
	if n > limit {
		return merr.WrapErrParameterTooLarge("decompressed size", "limit "+strconv.Itoa(limit))
	}
	return nil
}

// ParseCode 把配置中的算法名解析为编号，空字符串视为 none。
func ParseCode(name string) (Code, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CodeNone, nil
	}
	for code, n := range codeNames {
		if n == name {
			return code, nil
		}
	}
	return CodeNone, merr.WrapErrCompressorUnknown(name)
}

// New 按编号创建压缩器。
func New(code Code) (Compressor, error) {
	switch code {
	case CodeNone:
		return NopCompressor{}, nil
	case CodeZstd:
		return NewZstdCompressor()
	case CodeLZ4:
		return NewLZ4Compressor(), nil
	case CodeSnappy:
		return SnappyCompressor{}, nil
	default:
		return nil, merr.WrapErrCompressorUnknown(uint32(code))
	}
}

// Close 释放持有资源的压缩器，其它实现什么也不做。
func Close(c Compressor) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}
