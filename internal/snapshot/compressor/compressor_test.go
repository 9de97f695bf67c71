package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

type CompressorSuite struct {
	suite.Suite
	data []byte
}

func (s *CompressorSuite) SetupSuite() {
	s.data = bytes.Repeat([]byte("objgraph snapshot payload "), 512)
}

func (s *CompressorSuite) TestRoundTrip() {
	for _, code := range []Code{CodeNone, CodeZstd, CodeLZ4, CodeSnappy} {
		s.Run(code.String(), func() {
			c, err := New(code)
			s.Require().NoError(err)
			defer Close(c)
			s.Equal(code, c.Code())

			packed, err := c.Compress(nil, s.data)
			s.Require().NoError(err)
			if code != CodeNone {
				s.Less(len(packed), len(s.data))
			}

			plain, err := c.Decompress(nil, packed, len(s.data))
			s.Require().NoError(err)
			s.Equal(s.data, plain)
		})
	}
}

func (s *CompressorSuite) TestReuseBuffer() {
	c, err := New(CodeSnappy)
	s.Require().NoError(err)
	buf := make([]byte, 0, 64)
	for i := 0; i < 3; i++ {
		packed, err := c.Compress(buf, s.data)
		s.Require().NoError(err)
		plain, err := c.Decompress(nil, packed, len(s.data))
		s.Require().NoError(err)
		s.Equal(s.data, plain)
	}
}

func (s *CompressorSuite) TestCorruptInput() {
	for _, code := range []Code{CodeZstd, CodeLZ4, CodeSnappy} {
		c, err := New(code)
		s.Require().NoError(err)
		_, err = c.Decompress(nil, []byte("definitely not compressed"), 1024)
		s.Error(err, code.String())
		Close(c)
	}
}

func (s *CompressorSuite) TestDecompressLimit() {
	for _, code := range []Code{CodeNone, CodeZstd, CodeLZ4, CodeSnappy} {
		s.Run(code.String(), func() {
			c, err := New(code)
			s.Require().NoError(err)
			defer Close(c)

			packed, err := c.Compress(nil, s.data)
			s.Require().NoError(err)

			plain, err := c.Decompress(nil, packed, len(s.data))
			s.Require().NoError(err)
			s.Equal(s.data, plain)

			_, err = c.Decompress(nil, packed, len(s.data)-1)
			s.ErrorIs(err, merr.ErrParameterTooLarge)

			_, err = c.Decompress(nil, packed, 0)
			s.ErrorIs(err, merr.ErrParameterInvalid)
		})
	}
}

func (s *CompressorSuite) TestParseCode() {
	code, err := ParseCode(" LZ4 ")
	s.NoError(err)
	s.Equal(CodeLZ4, code)

	code, err = ParseCode("")
	s.NoError(err)
	s.Equal(CodeNone, code)

	_, err = ParseCode("brotli")
	s.ErrorIs(err, merr.ErrCompressorUnknown)

	_, err = New(Code(42))
	s.ErrorIs(err, merr.ErrCompressorUnknown)
	s.Equal("unknown", Code(42).String())
}

func (s *CompressorSuite) TestClosedZstd() {
	c, err := NewZstdCompressorWithConcurrency(1)
	s.Require().NoError(err)
	c.Close()
	_, err = c.Compress(nil, s.data)
	s.Error(err)
	_, err = c.Decompress(nil, s.data, len(s.data))
	s.Error(err)
}

func TestCompressor(t *testing.T) {
	suite.Run(t, new(CompressorSuite))
}
