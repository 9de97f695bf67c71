package snapshot

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/compressor"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/framer"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

var (
	testEncKey = strings.Repeat("ab", 32)
	testMacKey = strings.Repeat("cd", 16)
)

func newTestRegistry() *objstream.Registry {
	r := objstream.NewRegistry()
	if err := scene.RegisterTypes(r); err != nil {
		panic(err)
	}
	return r
}

func testConfig(compression string, encrypted bool) Config {
	cfg := DefaultConfig()
	cfg.Compression = compression
	cfg.MinCompressSize = 0
	if encrypted {
		cfg.Encryption = EncryptionConfig{Enabled: true, EncKey: testEncKey, MacKey: testMacKey}
	}
	return cfg
}

type CodecSuite struct {
	suite.Suite
	registry *objstream.Registry
	ctx      context.Context
}

func (s *CodecSuite) SetupSuite() {
	s.registry = newTestRegistry()
	s.ctx = context.Background()
}

func (s *CodecSuite) newCodec(cfg Config) *Codec {
	c, err := NewCodec(cfg, s.registry)
	s.Require().NoError(err)
	s.T().Cleanup(c.Close)
	return c
}

func (s *CodecSuite) encode(c *Codec, root objstream.Serializable) []byte {
	var buf bytes.Buffer
	n, err := c.Encode(s.ctx, &buf, root)
	s.Require().NoError(err)
	s.Equal(buf.Len(), n)
	return buf.Bytes()
}

// rewrite 解出 data 中的帧，修改头部后重新打包。
func (s *CodecSuite) rewrite(data []byte, fn func(h *framer.Header)) []byte {
	f := framer.NewLengthPrefixedFramer(0)
	env, _, err := f.ReadFrame(bytes.NewReader(data))
	s.Require().NoError(err)
	fn(env.Header)
	var buf bytes.Buffer
	_, err = f.WriteFrame(&buf, env)
	s.Require().NoError(err)
	return buf.Bytes()
}

func (s *CodecSuite) TestRoundTrip() {
	for _, compression := range []string{"none", "zstd", "lz4", "snappy"} {
		for _, encrypted := range []bool{false, true} {
			name := compression
			if encrypted {
				name += "+aes"
			}
			s.Run(name, func() {
				c := s.newCodec(testConfig(compression, encrypted))
				data := s.encode(c, scene.Demo())

				root, header, err := c.Decode(s.ctx, bytes.NewReader(data))
				s.Require().NoError(err)
				s.Equal(FormatVersion, header.Version)
				s.Equal(scene.TypeScene, header.RootType)
				s.Equal(compression != "none", header.Flags&framer.FlagCompressed != 0)
				s.Equal(encrypted, header.Flags&framer.FlagEncrypted != 0)

				sc, ok := root.(*scene.Scene)
				s.Require().True(ok)
				s.Equal("demo", sc.Name())
				s.Len(sc.Actors(), 3)
				s.Same(sc.Actors()[0].Model(), sc.Actors()[1].Model())
			})
		}
	}
}

func (s *CodecSuite) TestDecodeRaw() {
	c := s.newCodec(testConfig("zstd", true))
	data := s.encode(c, scene.Demo())

	header, raw, err := c.DecodeRaw(s.ctx, bytes.NewReader(data))
	s.Require().NoError(err)
	s.EqualValues(len(raw), header.Size)
	s.Equal(byte(objstream.PtrObject), raw[0])
}

func (s *CodecSuite) TestNilRoot() {
	c := s.newCodec(testConfig("none", false))
	data := s.encode(c, nil)

	root, header, err := c.Decode(s.ctx, bytes.NewReader(data))
	s.Require().NoError(err)
	s.Nil(root)
	s.Empty(header.RootType)
	s.EqualValues(1, header.Size)
}

func (s *CodecSuite) TestMinCompressSize() {
	cfg := testConfig("zstd", false)
	cfg.MinCompressSize = 1 << 20
	c := s.newCodec(cfg)

	header, _, err := c.DecodeRaw(s.ctx, bytes.NewReader(s.encode(c, scene.Demo())))
	s.Require().NoError(err)
	s.Zero(header.Flags & framer.FlagCompressed)
	s.Zero(header.Compressor)
}

func (s *CodecSuite) TestReadOtherCompressor() {
	writer := s.newCodec(testConfig("lz4", false))
	reader := s.newCodec(testConfig("zstd", false))

	root, header, err := reader.Decode(s.ctx, bytes.NewReader(s.encode(writer, scene.Demo())))
	s.Require().NoError(err)
	s.EqualValues(compressor.CodeLZ4, header.Compressor)
	s.NotNil(root)
}

func (s *CodecSuite) TestEncryptionDisabled() {
	writer := s.newCodec(testConfig("none", true))
	reader := s.newCodec(testConfig("none", false))

	_, _, err := reader.Decode(s.ctx, bytes.NewReader(s.encode(writer, scene.Demo())))
	s.ErrorIs(err, merr.ErrEncryptionDisabled)
	s.True(IsSnapshotError(err))
}

func (s *CodecSuite) TestTamperedHeader() {
	c := s.newCodec(testConfig("snappy", true))
	data := s.rewrite(s.encode(c, scene.Demo()), func(h *framer.Header) {
		h.Timestamp++
	})
	_, _, err := c.Decode(s.ctx, bytes.NewReader(data))
	s.ErrorIs(err, merr.ErrSnapshotCorrupted)
}

func (s *CodecSuite) TestVersion() {
	c := s.newCodec(testConfig("none", false))
	data := s.encode(c, scene.Demo())

	minor := s.rewrite(data, func(h *framer.Header) { h.Version = "1.7.2" })
	_, _, err := c.Decode(s.ctx, bytes.NewReader(minor))
	s.NoError(err)

	major := s.rewrite(data, func(h *framer.Header) { h.Version = "2.0.0" })
	_, _, err = c.Decode(s.ctx, bytes.NewReader(major))
	s.ErrorIs(err, merr.ErrSnapshotVersionMismatch)

	garbage := s.rewrite(data, func(h *framer.Header) { h.Version = "v-next" })
	_, _, err = c.Decode(s.ctx, bytes.NewReader(garbage))
	s.ErrorIs(err, merr.ErrSnapshotCorrupted)
}

func (s *CodecSuite) TestCorruptedPayload() {
	c := s.newCodec(testConfig("none", false))
	data := s.encode(c, scene.Demo())

	sized := s.rewrite(data, func(h *framer.Header) { h.Size++ })
	_, _, err := c.Decode(s.ctx, bytes.NewReader(sized))
	s.ErrorIs(err, merr.ErrSnapshotCorrupted)

	unknown := s.rewrite(data, func(h *framer.Header) {
		h.Flags |= framer.FlagCompressed
		h.Compressor = 42
	})
	_, _, err = c.Decode(s.ctx, bytes.NewReader(unknown))
	s.ErrorIs(err, merr.ErrCompressorUnknown)

	wrongRoot := s.rewrite(data, func(h *framer.Header) { h.RootType = scene.TypeActor })
	_, _, err = c.Decode(s.ctx, bytes.NewReader(wrongRoot))
	s.ErrorIs(err, merr.ErrTypeMismatch)

	_, _, err = c.Decode(s.ctx, bytes.NewReader(nil))
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)

	_, _, err = c.Decode(s.ctx, bytes.NewReader(data[:len(data)-3]))
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)
}

func (s *CodecSuite) TestDecompressionBound() {
	for _, name := range []string{"zstd", "lz4", "snappy"} {
		s.Run(name, func() {
			c := s.newCodec(testConfig(name, false))
			data := s.encode(c, scene.Demo())

			huge := s.rewrite(data, func(h *framer.Header) { h.Size = 1 << 40 })
			_, _, err := c.Decode(s.ctx, bytes.NewReader(huge))
			s.ErrorIs(err, merr.ErrSnapshotCorrupted)

			short := s.rewrite(data, func(h *framer.Header) { h.Size -= 10 })
			_, _, err = c.Decode(s.ctx, bytes.NewReader(short))
			s.ErrorIs(err, merr.ErrSnapshotCorrupted)
		})
	}

	// 小帧解压后远大于头部声明的大小。
	zc, err := compressor.New(compressor.CodeZstd)
	s.Require().NoError(err)
	defer compressor.Close(zc)
	bomb, err := zc.Compress(nil, make([]byte, 16<<20))
	s.Require().NoError(err)
	s.Less(len(bomb), 1<<16)

	var buf bytes.Buffer
	_, err = framer.NewLengthPrefixedFramer(0).WriteFrame(&buf, &framer.Envelope{
		Header: &framer.Header{
			Version:    FormatVersion,
			Flags:      framer.FlagCompressed,
			Compressor: uint32(compressor.CodeZstd),
			Size:       1024,
			RootType:   scene.TypeScene,
		},
		Payload: bomb,
	})
	s.Require().NoError(err)
	c := s.newCodec(testConfig("zstd", false))
	_, _, err = c.Decode(s.ctx, &buf)
	s.ErrorIs(err, merr.ErrSnapshotCorrupted)

	cfg := testConfig("none", false)
	cfg.MaxRawSize = 16
	small := s.newCodec(cfg)
	_, _, err = small.Decode(s.ctx, bytes.NewReader(s.encode(c, scene.Demo())))
	s.ErrorIs(err, merr.ErrSnapshotCorrupted)
}

func (s *CodecSuite) TestUnknownType() {
	c, err := NewCodec(testConfig("none", false), objstream.NewRegistry())
	s.Require().NoError(err)
	defer c.Close()

	_, err = c.Encode(s.ctx, &bytes.Buffer{}, scene.Demo())
	s.ErrorIs(err, merr.ErrTypeNotFound)

	full := s.newCodec(testConfig("none", false))
	_, _, err = c.Decode(s.ctx, bytes.NewReader(s.encode(full, scene.Demo())))
	s.ErrorIs(err, merr.ErrTypeNotFound)
}

func (s *CodecSuite) TestTimestamp() {
	c := s.newCodec(testConfig("none", false))
	fixed := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	header, _, err := c.DecodeRaw(s.ctx, bytes.NewReader(s.encode(c, scene.NewScene("t"))))
	s.Require().NoError(err)
	s.Equal(fixed.Unix(), header.Timestamp)
}

func (s *CodecSuite) TestInvalidConfig() {
	_, err := NewCodec(testConfig("brotli", false), s.registry)
	s.ErrorIs(err, merr.ErrCompressorUnknown)

	cfg := testConfig("none", true)
	cfg.Encryption.EncKey = "00"
	_, err = NewCodec(cfg, s.registry)
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = NewCodec(DefaultConfig(), nil)
	s.ErrorIs(err, merr.ErrParameterMissing)
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}
