package snapshot

import (
	"context"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/internal/snapshot/framer"
	"github.com/lk2023060901/objgraph-go/pkg/log"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/util/conc"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

// Ext 是快照文件的扩展名。
const Ext = ".snap"

// Store 把快照保存为 root 目录下的文件，每个文件一帧。
type Store struct {
	fs    afero.Fs
	root  string
	codec *Codec
	pool  *conc.Pool[int]
}

// NewStore 在 fs 的 root 目录上创建 Store，目录不存在时自动创建。
// pool 配置 SaveAll 的并发度。
func NewStore(fs afero.Fs, root string, codec *Codec, pool PoolConfig) (*Store, error) {
	if codec == nil {
		return nil, merr.WrapErrParameterMissing("codec", "new snapshot store")
	}
	if pool.Size < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("pool size must not be negative, got %d", pool.Size)
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, merr.WrapErrIoFailed(root, err)
	}
	return &Store{
		fs:    fs,
		root:  root,
		codec: codec,
		pool:  newPool(pool),
	}, nil
}

func newPool(cfg PoolConfig) *conc.Pool[int] {
	if cfg.Size > 0 {
		return conc.NewPool[int](cfg.Size, cfg.options()...)
	}
	return conc.NewDefaultPool[int](cfg.options()...)
}

// Close 关闭内部协程池，不关闭 Codec。
func (s *Store) Close() {
	s.pool.Release()
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", merr.WrapErrParameterInvalidMsg("invalid snapshot name %q", name)
	}
	return path.Join(s.root, name+Ext), nil
}

// Save 把对象图写入名为 name 的快照，先写临时文件再改名，写入失败不会留下半个快照。
func (s *Store) Save(ctx context.Context, name string, root objstream.Serializable) (int, error) {
	p, err := s.path(name)
	if err != nil {
		return 0, err
	}
	tmp := p + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, merr.WrapErrIoFailed(tmp, err)
	}
	n, err := s.codec.Encode(ctx, f, root)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = merr.WrapErrIoFailed(tmp, cerr)
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return 0, err
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return 0, merr.WrapErrIoFailed(p, err)
	}
	log.Ctx(ctx).Info("snapshot saved", zap.String("name", name), zap.Int("bytes", n))
	return n, nil
}

// Load 读取名为 name 的快照并还原根对象。
func (s *Store) Load(ctx context.Context, name string) (objstream.Serializable, *framer.Header, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, merr.WrapErrIoKeyNotFound(name)
		}
		return nil, nil, merr.WrapErrIoFailed(p, err)
	}
	defer f.Close()
	return s.codec.Decode(ctx, f)
}

// List 返回全部快照名，按字典序排列。
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, merr.WrapErrIoFailed(s.root, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(info.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}

// Remove 删除名为 name 的快照。
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return merr.WrapErrIoKeyNotFound(name)
		}
		return merr.WrapErrIoFailed(p, err)
	}
	return nil
}

// SaveAll 在协程池中并行保存多个对象图，每个对象图使用独立的编码会话。
// 所有任务结束后返回，失败的快照以 Combine 合并的错误报出。
// 同一实体不应同时出现在多个对象图中被并发修改。
func (s *Store) SaveAll(ctx context.Context, roots map[string]objstream.Serializable) (map[string]int, error) {
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)

	futures := make([]*conc.Future[int], len(names))
	for i, name := range names {
		name, root := name, roots[name]
		futures[i] = s.pool.Submit(func() (int, error) {
			return s.Save(ctx, name, root)
		})
	}

	sizes := make(map[string]int, len(names))
	errs := make([]error, 0)
	for i, future := range futures {
		n, err := future.Await()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sizes[names[i]] = n
	}
	return sizes, merr.Combine(errs...)
}
