package application

import (
	"github.com/lk2023060901/objgraph-go/internal/snapshot"
	"github.com/lk2023060901/objgraph-go/pkg/datastream"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	zviper "github.com/lk2023060901/objgraph-go/pkg/util/viper"
)

// StreamConfig 是 stream 配置段，对应 datastream 与 objstream 的选项。
type StreamConfig struct {
	ByteOrder           string `mapstructure:"byte-order"`
	BufferSize          int    `mapstructure:"buffer-size"`
	MaxStringLength     int    `mapstructure:"max-string-length"`
	MaxCollectionLength int    `mapstructure:"max-collection-length"`
	MaxDepth            int    `mapstructure:"max-depth"`
}

// Options 把配置转换为编解码会话的选项。
func (c StreamConfig) Options() ([]objstream.Option, error) {
	order, err := datastream.ParseByteOrder(c.ByteOrder)
	if err != nil {
		return nil, err
	}
	return []objstream.Option{
		objstream.WithMaxDepth(c.MaxDepth),
		objstream.WithStreamOptions(
			datastream.WithByteOrder(order),
			datastream.WithBufferSize(c.BufferSize),
			datastream.WithMaxStringLength(c.MaxStringLength),
			datastream.WithMaxCollectionLength(c.MaxCollectionLength),
		),
	}, nil
}

// Config 是应用的完整配置。
//
// 示例：
//
//	log:
//	  level: info
//	  stdout: true
//	stream:
//	  byte-order: little
//	snapshot:
//	  compression: zstd
//	  root: ./snapshots
//	logging:
//	  snapshot:
//	    level: debug
//	    file:
//	      rootpath: ./logs
//	      filename: snapshot.log
type Config struct {
	Log      log.Config            `mapstructure:"log"`
	Stream   StreamConfig          `mapstructure:"stream"`
	Snapshot snapshot.Config       `mapstructure:"snapshot"`
	Logging  map[string]log.Config `mapstructure:"logging"`
}

// setDefaults 为所有配置项设置默认值，环境变量只能覆盖设置过默认值的配置项。
func setDefaults(v *zviper.Config) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", log.FormatText)
	v.SetDefault("log.stdout", true)
	v.SetDefault("log.file.rootpath", "")
	v.SetDefault("log.file.filename", "")

	v.SetDefault("stream.byte-order", "little")
	v.SetDefault("stream.buffer-size", 4096)
	v.SetDefault("stream.max-string-length", 16<<20)
	v.SetDefault("stream.max-collection-length", 1<<24)
	v.SetDefault("stream.max-depth", 10000)

	snap := snapshot.DefaultConfig()
	v.SetDefault("snapshot.compression", snap.Compression)
	v.SetDefault("snapshot.min-compress-size", snap.MinCompressSize)
	v.SetDefault("snapshot.encryption.enabled", false)
	v.SetDefault("snapshot.encryption.enc-key", "")
	v.SetDefault("snapshot.encryption.mac-key", "")
	v.SetDefault("snapshot.max-frame-size", snap.MaxFrameSize)
	v.SetDefault("snapshot.max-raw-size", snap.MaxRawSize)
	v.SetDefault("snapshot.root", snap.Root)
	v.SetDefault("snapshot.pool.size", 0)
	v.SetDefault("snapshot.pool.non-blocking", false)
	v.SetDefault("snapshot.pool.pre-alloc", false)
	v.SetDefault("snapshot.pool.expiry-duration", "0s")
	v.SetDefault("snapshot.pool.disable-purge", false)
}
