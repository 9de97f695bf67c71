package snapshot

import (
	"time"

	"github.com/lk2023060901/objgraph-go/internal/snapshot/compressor"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/crypto"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/framer"
	"github.com/lk2023060901/objgraph-go/pkg/util/conc"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// EncryptionConfig 配置快照加密，密钥以十六进制字符串给出。
type EncryptionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	EncKey  string `mapstructure:"enc-key"`
	MacKey  string `mapstructure:"mac-key"`
}

// PoolConfig 配置 Store.SaveAll 使用的协程池，Size 为 0 时取 CPU 核数。
type PoolConfig struct {
	Size           int           `mapstructure:"size"`
	NonBlocking    bool          `mapstructure:"non-blocking"`
	PreAlloc       bool          `mapstructure:"pre-alloc"`
	ExpiryDuration time.Duration `mapstructure:"expiry-duration"`
	DisablePurge   bool          `mapstructure:"disable-purge"`
}

// options 总是吞掉任务中的 panic，由对应的 Future 报出 ErrServiceInternal。
func (c PoolConfig) options() []conc.PoolOption {
	return []conc.PoolOption{
		conc.WithNonBlocking(c.NonBlocking),
		conc.WithPreAlloc(c.PreAlloc),
		conc.WithExpiryDuration(c.ExpiryDuration),
		conc.WithDisablePurge(c.DisablePurge),
		conc.WithConcealPanic(true),
	}
}

// Config 是 snapshot 配置段。
type Config struct {
	Compression     string           `mapstructure:"compression"`
	MinCompressSize int              `mapstructure:"min-compress-size"`
	Encryption      EncryptionConfig `mapstructure:"encryption"`
	MaxFrameSize    uint32           `mapstructure:"max-frame-size"`
	MaxRawSize      uint64           `mapstructure:"max-raw-size"`
	Root            string           `mapstructure:"root"`
	Pool            PoolConfig       `mapstructure:"pool"`
}

// DefaultMaxRawSize 是解压后对象流的默认上限。
const DefaultMaxRawSize = 1 << 28

// DefaultConfig 返回不压缩、不加密的配置。
func DefaultConfig() Config {
	return Config{
		Compression:     "none",
		MinCompressSize: 256,
		MaxFrameSize:    framer.DefaultMaxFrameSize,
		MaxRawSize:      DefaultMaxRawSize,
		Root:            "./snapshots",
	}
}

// Validate 检查配置是否可以构造出 Codec。
func (c Config) Validate() error {
	if _, err := compressor.ParseCode(c.Compression); err != nil {
		return err
	}
	if c.MinCompressSize < 0 {
		return merr.WrapErrParameterInvalidMsg("min-compress-size must not be negative, got %d", c.MinCompressSize)
	}
	if c.Pool.Size < 0 || c.Pool.ExpiryDuration < 0 {
		return merr.WrapErrParameterInvalidMsg("pool size and expiry-duration must not be negative, got %d and %s",
			c.Pool.Size, c.Pool.ExpiryDuration)
	}
	if c.Encryption.Enabled {
		if _, err := crypto.NewAESGCMHMACCodecFromHex(c.Encryption.EncKey, c.Encryption.MacKey); err != nil {
			return err
		}
	}
	return nil
}
