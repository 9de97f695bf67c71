package objstream

import (
	"github.com/lk2023060901/objgraph-go/pkg/datastream"
	"github.com/lk2023060901/objgraph-go/pkg/log"
)

type options struct {
	registry *Registry
	tracer   Tracer
	logger   *log.MLogger
	maxDepth int
	stream   []datastream.Option
}

func buildOptions(opts []Option) options {
	o := options{
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = Default()
	}
	if o.tracer == nil {
		o.tracer = NopTracer{}
	}
	if o.logger == nil {
		o.logger = log.With(log.FieldModule("objstream"))
	}
	return o
}

// Option 配置 Encoder/Decoder。
type Option func(*options)

// WithRegistry 指定会话使用的注册表，默认使用 Default()。
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func WithTracer(t Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func WithLogger(l *log.MLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxDepth 限制对象记录的嵌套深度。
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithStreamOptions 透传底层 datastream 的配置，如字节序与长度上限。
func WithStreamOptions(opts ...datastream.Option) Option {
	return func(o *options) {
		o.stream = append(o.stream, opts...)
	}
}
