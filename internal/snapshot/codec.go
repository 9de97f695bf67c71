package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/internal/snapshot/compressor"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/crypto"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/framer"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/metrics"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// FormatVersion 是当前写出的快照格式版本，主版本号不同的快照无法读取。
const FormatVersion = "1.0.0"

const tracerName = "objgraph/snapshot"

// Codec 把一个对象图封装为一帧快照，以及从一帧快照还原对象图。
//
// 写出：
//
//	root --> objstream --> [compress?] --> [encrypt?] --> Envelope{Header+Payload} --> framer.WriteFrame
//
// 读入为其逆过程。Codec 可以被多个协程同时使用，每次调用使用独立的编解码会话。
type Codec struct {
	log.Binder

	registry   *objstream.Registry
	streamOpts []objstream.Option
	framer     framer.Framer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor
	encrypt    bool
	minSize    int
	maxRaw     uint64
	version    semver.Version
	now        func() time.Time
}

// NewCodec 按配置创建 Codec。streamOpts 透传给每次会话的 Encoder/Decoder。
func NewCodec(cfg Config, registry *objstream.Registry, streamOpts ...objstream.Option) (*Codec, error) {
	if registry == nil {
		return nil, merr.WrapErrParameterMissing("registry", "new snapshot codec")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	code, _ := compressor.ParseCode(cfg.Compression)
	comp, err := compressor.New(code)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		registry:   registry,
		streamOpts: streamOpts,
		framer:     framer.NewLengthPrefixedFramer(cfg.MaxFrameSize),
		compressor: comp,
		encryptor:  crypto.NopEncryptor{},
		encrypt:    cfg.Encryption.Enabled,
		minSize:    cfg.MinCompressSize,
		maxRaw:     cfg.MaxRawSize,
		version:    semver.MustParse(FormatVersion),
		now:        time.Now,
	}
	if c.maxRaw == 0 {
		c.maxRaw = DefaultMaxRawSize
	}
	if c.encrypt {
		enc, err := crypto.NewAESGCMHMACCodecFromHex(cfg.Encryption.EncKey, cfg.Encryption.MacKey)
		if err != nil {
			compressor.Close(comp)
			return nil, err
		}
		c.encryptor = enc
	}
	c.SetLogger(log.With(log.FieldModule("snapshot")))
	return c, nil
}

// Close 释放压缩器持有的资源。
func (c *Codec) Close() {
	compressor.Close(c.compressor)
}

func (c *Codec) sessionOptions() []objstream.Option {
	opts := make([]objstream.Option, 0, len(c.streamOpts)+2)
	opts = append(opts, objstream.WithLogger(c.Logger()))
	opts = append(opts, c.streamOpts...)
	return append(opts, objstream.WithRegistry(c.registry))
}

// Encode 把以 root 为根的对象图写为一帧快照，返回写出的字节数。
func (c *Codec) Encode(ctx context.Context, w io.Writer, root objstream.Serializable) (written int, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Encode")
	start := time.Now()
	stage := StageEncode
	defer func() {
		c.finish(ctx, span, metrics.DirectionEncode, stage, start, err)
	}()

	var raw bytes.Buffer
	enc := objstream.NewEncoder(&raw, c.sessionOptions()...)
	if err = enc.WriteObject(root); err != nil {
		return 0, err
	}
	if err = enc.Flush(); err != nil {
		return 0, err
	}
	st := enc.Stats()
	metrics.ObserveStream(metrics.DirectionEncode, st.Objects, st.BackReferences, st.Nulls, st.Types)

	body := raw.Bytes()
	header := &framer.Header{
		Version:   FormatVersion,
		Size:      uint64(len(body)),
		Timestamp: c.now().Unix(),
		RootType:  c.rootType(root),
	}
	metrics.SnapshotBytes.WithLabelValues(metrics.DirectionEncode, metrics.StageRaw).Add(float64(len(body)))

	if c.compressor.Code() != compressor.CodeNone && len(body) > 0 && len(body) >= c.minSize {
		stage = StageCompress
		if body, err = c.compressor.Compress(nil, body); err != nil {
			return 0, err
		}
		header.Flags |= framer.FlagCompressed
		header.Compressor = uint32(c.compressor.Code())
		metrics.SnapshotBytes.WithLabelValues(metrics.DirectionEncode, metrics.StageCompressed).Add(float64(len(body)))
	}

	if c.encrypt && len(body) > 0 {
		stage = StageEncrypt
		// 标志位在计算 AAD 之前设置，读取方看到的头部与此一致。
		header.Flags |= framer.FlagEncrypted
		if body, err = c.encryptor.Encrypt(body, buildAAD(header)); err != nil {
			return 0, err
		}
	}

	stage = StageFrame
	written, err = c.framer.WriteFrame(w, &framer.Envelope{Header: header, Payload: body})
	if err != nil {
		return written, err
	}
	metrics.SnapshotBytes.WithLabelValues(metrics.DirectionEncode, metrics.StageFramed).Add(float64(written))
	span.SetAttributes(
		attribute.String("snapshot.root_type", header.RootType),
		attribute.Int("snapshot.objects", st.Objects),
		attribute.Int("snapshot.bytes", written),
	)
	log.Ctx(ctx).Debug("snapshot encoded",
		log.FieldTypeName(header.RootType),
		zap.Int("objects", st.Objects),
		zap.Uint64("rawBytes", header.Size),
		zap.Int("frameBytes", written),
		zap.Uint64("flags", header.Flags))
	return written, nil
}

// DecodeRaw 读取一帧快照，返回头部与还原后的对象流字节，不解码对象图。
func (c *Codec) DecodeRaw(ctx context.Context, r io.Reader) (header *framer.Header, data []byte, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "DecodeRaw")
	start := time.Now()
	stage := StageUnframe
	defer func() {
		c.finish(ctx, span, metrics.DirectionDecode, stage, start, err)
	}()
	return c.decodeFrame(r, &stage)
}

// Decode 读取一帧快照并还原出根对象。
func (c *Codec) Decode(ctx context.Context, r io.Reader) (root objstream.Serializable, header *framer.Header, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Decode")
	start := time.Now()
	stage := StageUnframe
	defer func() {
		c.finish(ctx, span, metrics.DirectionDecode, stage, start, err)
	}()

	header, data, err := c.decodeFrame(r, &stage)
	if err != nil {
		return nil, nil, err
	}

	stage = StageDecode
	dec := objstream.NewDecoder(bytes.NewReader(data), c.sessionOptions()...)
	if root, err = dec.ReadObject(); err != nil {
		return nil, nil, err
	}
	if dec.More() {
		err = merr.WrapErrFramingReason("trailing bytes after root object", "decode snapshot")
		return nil, nil, err
	}
	if name := c.rootType(root); name != header.RootType {
		err = merr.WrapErrTypeMismatch(header.RootType, name, "decode snapshot")
		return nil, nil, err
	}
	st := dec.Stats()
	metrics.ObserveStream(metrics.DirectionDecode, st.Objects, st.BackReferences, st.Nulls, st.Types)
	span.SetAttributes(
		attribute.String("snapshot.root_type", header.RootType),
		attribute.Int("snapshot.objects", st.Objects),
	)
	log.Ctx(ctx).Debug("snapshot decoded",
		log.FieldTypeName(header.RootType),
		zap.Int("objects", st.Objects),
		zap.Int64("timestamp", header.Timestamp))
	return root, header, nil
}

func (c *Codec) decodeFrame(r io.Reader, stage *Stage) (*framer.Header, []byte, error) {
	env, n, err := c.framer.ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			err = merr.WrapErrIoUnexpectEOF("snapshot", err)
		}
		return nil, nil, err
	}
	metrics.SnapshotBytes.WithLabelValues(metrics.DirectionDecode, metrics.StageFramed).Add(float64(n))
	header, data := env.Header, env.Payload

	*stage = StageVersion
	if err := c.checkVersion(header.Version); err != nil {
		return nil, nil, err
	}

	// 解密与解压之前先按头部声明的大小拒绝过大的快照。
	if header.Size > c.maxRaw {
		return nil, nil, merr.WrapErrSnapshotCorrupted("payload size exceeds limit", "decode snapshot")
	}

	if header.Flags&framer.FlagEncrypted != 0 {
		*stage = StageDecrypt
		if !c.encrypt {
			return nil, nil, merr.WrapErrEncryptionDisabled("decode snapshot")
		}
		if data, err = c.encryptor.Decrypt(data, buildAAD(header)); err != nil {
			return nil, nil, err
		}
	}

	if header.Flags&framer.FlagCompressed != 0 {
		*stage = StageDecompress
		metrics.SnapshotBytes.WithLabelValues(metrics.DirectionDecode, metrics.StageCompressed).Add(float64(len(data)))
		if data, err = c.decompress(compressor.Code(header.Compressor), data, int(header.Size)); err != nil {
			return nil, nil, err
		}
	}

	if uint64(len(data)) != header.Size {
		return nil, nil, merr.WrapErrSnapshotCorrupted("payload size does not match header", "decode snapshot")
	}
	metrics.SnapshotBytes.WithLabelValues(metrics.DirectionDecode, metrics.StageRaw).Add(float64(len(data)))
	return header, data, nil
}

// decompress 优先使用已配置的压缩器，其它算法临时创建。
func (c *Codec) decompress(code compressor.Code, data []byte, size int) ([]byte, error) {
	comp := c.compressor
	if code != comp.Code() {
		var err error
		if comp, err = compressor.New(code); err != nil {
			return nil, err
		}
		defer compressor.Close(comp)
	}
	plain, err := comp.Decompress(nil, data, size)
	if err != nil {
		return nil, merr.WrapErrSnapshotCorrupted(err.Error(), "decompress "+code.String())
	}
	return plain, nil
}

func (c *Codec) checkVersion(version string) error {
	v, err := semver.Parse(version)
	if err != nil {
		return merr.WrapErrSnapshotCorrupted(err.Error(), "parse version")
	}
	if v.Major != c.version.Major {
		return merr.WrapErrSnapshotVersionMismatch(c.version.String(), v.String())
	}
	return nil
}

func (c *Codec) rootType(root objstream.Serializable) string {
	if root == nil {
		return ""
	}
	if desc, ok := c.registry.LookupType(reflect.TypeOf(root)); ok {
		return desc.Name()
	}
	return ""
}

func (c *Codec) finish(ctx context.Context, span trace.Span, direction string, stage Stage, start time.Time, err error) {
	defer span.End()
	metrics.SnapshotLatency.WithLabelValues(direction).Observe(float64(time.Since(start).Milliseconds()))
	if err == nil {
		return
	}
	code := merr.Code(err)
	metrics.SnapshotFailures.WithLabelValues(direction, strconv.Itoa(int(code))).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	log.Ctx(ctx).Warn("snapshot "+direction+" failed",
		zap.String("stage", string(stage)),
		zap.Int32("code", code),
		zap.Error(err))
}

// buildAAD 将头部中与完整性相关的字段编码为 AAD：
//
//	flags(uint64) | compressor(uint32) | timestamp(int64)
func buildAAD(h *framer.Header) []byte {
	var buf [20]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Flags)
	binary.BigEndian.PutUint32(buf[8:12], h.Compressor)
	binary.BigEndian.PutUint64(buf[12:20], uint64(h.Timestamp))
	return buf[:]
}

// IsSnapshotError 报告 err 是否由快照本身的问题（而非 I/O）引起。
func IsSnapshotError(err error) bool {
	return errors.IsAny(err,
		merr.ErrSnapshotCorrupted,
		merr.ErrSnapshotVersionMismatch,
		merr.ErrCompressorUnknown,
		merr.ErrEncryptionDisabled,
		merr.ErrFraming,
		merr.ErrTypeNotFound,
		merr.ErrBrokenReference,
		merr.ErrTypeMismatch,
	)
}

// Registry 返回解码时使用的注册表。
func (c *Codec) Registry() *objstream.Registry {
	return c.registry
}
