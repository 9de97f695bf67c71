// objdump 写出示例场景快照，或检查快照与原始对象流文件的结构。
//
//	objdump --config config.yaml --demo out.snap
//	objdump [--raw] file...
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/objgraph-go/application"
	"github.com/lk2023060901/objgraph-go/internal/inspect"
	"github.com/lk2023060901/objgraph-go/internal/json"
	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/internal/snapshot"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/util/hardware"
)

type options struct {
	config string
	demo   string
	raw    bool
	files  []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("objdump", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "config file path (yaml or json)")
	fs.StringVar(&opts.demo, "demo", "", "write a demo scene snapshot to this path")
	fs.BoolVar(&opts.raw, "raw", false, "treat inputs as raw object streams instead of snapshots")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()
	if opts.demo == "" && len(opts.files) == 0 {
		return nil, errors.New("nothing to do: pass --demo or at least one file")
	}
	return opts, nil
}

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(log.S().Infof)); err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "objdump:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	app := application.New()
	if err := app.Init(opts.config); err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	codec, err := app.NewCodec()
	if err != nil {
		return err
	}
	defer codec.Close()

	if opts.demo != "" {
		if err := writeDemo(ctx, codec, opts.demo, stdout); err != nil {
			return err
		}
	}
	if len(opts.files) == 0 {
		return nil
	}

	reports, err := inspectFiles(ctx, app, codec, opts)
	if err != nil {
		return err
	}
	// 每行一份报告。
	for _, report := range reports {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
	}
	return nil
}

func writeDemo(ctx context.Context, codec *snapshot.Codec, path string, stdout io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := codec.Encode(ctx, f, scene.Demo())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "write demo %s", path)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", path, n)
	return nil
}

// inspectFiles 并发检查全部文件，报告顺序与参数顺序一致。
func inspectFiles(ctx context.Context, app *application.Application, codec *snapshot.Codec, opts *options) ([]*inspect.Report, error) {
	streamOpts, err := app.Config().Stream.Options()
	if err != nil {
		return nil, err
	}

	reports := make([]*inspect.Report, len(opts.files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hardware.GetCPUNum())
	for i, path := range opts.files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var report *inspect.Report
			if opts.raw {
				report, err = inspect.Inspect(f, app.Registry(), streamOpts...)
			} else {
				report, err = inspect.InspectSnapshot(ctx, codec, f)
			}
			if err != nil {
				return errors.Wrapf(err, "inspect %s", path)
			}
			report.Source = path
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
