package application

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/internal/snapshot"
	zlog "github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/metrics"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	zviper "github.com/lk2023060901/objgraph-go/pkg/util/viper"
)

const (
	// EnvConfigPath 指定配置文件路径的环境变量。
	EnvConfigPath = "OBJGRAPH_CONFIG_FILE_PATH"
	// EnvPrefix 是覆盖单个配置项的环境变量前缀，例如 OBJGRAPH_SNAPSHOT_COMPRESSION。
	EnvPrefix = "OBJGRAPH"

	defaultConfigPath = "./config.yaml"
)

// Application 持有配置、日志与对象注册表，是命令行工具的运行时容器。
type Application struct {
	cfg      *zviper.Config
	config   Config
	registry *objstream.Registry
	loggers  map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Init 加载配置、初始化日志与指标，并注册场景类型。
// 配置文件路径的优先级：
//  1. 默认：./config.yaml（不存在时只使用默认值）
//  2. 环境变量：OBJGRAPH_CONFIG_FILE_PATH
//  3. 参数 path（来自命令行 --config）
func (a *Application) Init(path string) error {
	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := cfg.Unmarshal(&a.config); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}
	if err := a.config.Snapshot.Validate(); err != nil {
		return err
	}
	if err := a.initLogging(); err != nil {
		return err
	}
	metrics.Register(metrics.GetRegisterer())

	a.registry = objstream.NewRegistry()
	if err := scene.RegisterTypes(a.registry); err != nil {
		return err
	}
	zlog.Info("application initialized",
		zap.String("compression", a.config.Snapshot.Compression),
		zap.Bool("encryption", a.config.Snapshot.Encryption.Enabled),
		zap.Int("types", a.registry.Len()))
	return nil
}

// Config returns the loaded configuration.
func (a *Application) Config() Config {
	return a.config
}

// Registry 返回注册了场景类型的注册表。
func (a *Application) Registry() *objstream.Registry {
	return a.registry
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// NewCodec 按配置创建快照编解码器，名为 snapshot 的模块日志存在时绑定到编解码器上。
func (a *Application) NewCodec() (*snapshot.Codec, error) {
	opts, err := a.config.Stream.Options()
	if err != nil {
		return nil, err
	}
	codec, err := snapshot.NewCodec(a.config.Snapshot, a.registry, opts...)
	if err != nil {
		return nil, err
	}
	if lg, ok := a.loggers["snapshot"]; ok {
		codec.SetLogger(lg)
	}
	return codec, nil
}

// NewStore 在本地文件系统的 snapshot.root 目录上创建快照存储。
func (a *Application) NewStore(codec *snapshot.Codec) (*snapshot.Store, error) {
	return snapshot.NewStore(afero.NewOsFs(), a.config.Snapshot.Root, codec, a.config.Snapshot.Pool)
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig(path string) (*zviper.Config, error) {
	explicit := path != ""
	if !explicit {
		if envPath := os.Getenv(EnvConfigPath); envPath != "" {
			path, explicit = envPath, true
		} else {
			path = defaultConfigPath
		}
	}

	cfg := zviper.New()
	setDefaults(cfg)
	cfg.BindEnv(EnvPrefix)

	if _, err := os.Stat(path); err != nil && !explicit && os.IsNotExist(err) {
		return cfg, nil
	}
	if err := cfg.LoadFile(path); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %q", path)
	}
	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	logger, props, err := zlog.InitLogger(&a.config.Log)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)

	if len(a.config.Logging) == 0 {
		return nil
	}
	a.loggers = make(map[string]*zlog.MLogger, len(a.config.Logging))
	for name, lc := range a.config.Logging {
		cfgCopy := lc
		if cfgCopy.Level == "" {
			cfgCopy.Level = a.config.Log.Level
		}
		if cfgCopy.Format == "" {
			cfgCopy.Format = a.config.Log.Format
		}
		logger, err := zlog.NewLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}
