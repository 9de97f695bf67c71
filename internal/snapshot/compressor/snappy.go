package compressor

import (
	"github.com/golang/snappy"
)

// SnappyCompressor 使用 snappy 块格式，块头记录了原始长度。
type SnappyCompressor struct{}

var _ Compressor = SnappyCompressor{}

func (SnappyCompressor) Code() Code { return CodeSnappy }

func (SnappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (SnappyCompressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	if err := checkLimit(n, limit); err != nil {
		return nil, err
	}
	return snappy.Decode(dst[:cap(dst)], src)
}
