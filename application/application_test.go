package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

type ApplicationSuite struct {
	suite.Suite
	dir string
}

func (s *ApplicationSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ApplicationSuite) writeConfig(content string) string {
	path := filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ApplicationSuite) TestInitFromFile() {
	path := s.writeConfig(`
log:
  level: warn
  stdout: false
stream:
  byte-order: big
  max-depth: 64
snapshot:
  compression: lz4
  root: ` + filepath.Join(s.dir, "snaps") + `
logging:
  snapshot:
    level: debug
`)
	app := New()
	s.Require().NoError(app.Init(path))

	cfg := app.Config()
	s.Equal("warn", cfg.Log.Level)
	s.Equal("big", cfg.Stream.ByteOrder)
	s.Equal(64, cfg.Stream.MaxDepth)
	s.Equal(4096, cfg.Stream.BufferSize)
	s.Equal("lz4", cfg.Snapshot.Compression)
	s.NotNil(app.Logger("snapshot"))
	s.NotNil(app.Logger("missing"))
	s.True(app.Registry().Names().Contain(scene.TypeScene))

	codec, err := app.NewCodec()
	s.Require().NoError(err)
	defer codec.Close()
	store, err := app.NewStore(codec)
	s.Require().NoError(err)
	defer store.Close()

	_, err = store.Save(s.T().Context(), "demo", scene.Demo())
	s.Require().NoError(err)
	root, _, err := store.Load(s.T().Context(), "demo")
	s.Require().NoError(err)
	s.Equal("demo", root.(*scene.Scene).Name())
}

func (s *ApplicationSuite) TestDefaultsAndEnv() {
	s.T().Chdir(s.dir)
	s.T().Setenv(EnvConfigPath, "")
	s.T().Setenv("OBJGRAPH_SNAPSHOT_COMPRESSION", "snappy")
	s.T().Setenv("OBJGRAPH_LOG_STDOUT", "false")

	app := New()
	s.Require().NoError(app.Init(""))
	cfg := app.Config()
	s.Equal("snappy", cfg.Snapshot.Compression)
	s.Equal("little", cfg.Stream.ByteOrder)
	s.Equal(10000, cfg.Stream.MaxDepth)
}

func (s *ApplicationSuite) TestInvalidConfig() {
	app := New()
	s.Error(app.Init(filepath.Join(s.dir, "missing.yaml")))

	path := s.writeConfig("log:\n  stdout: false\nsnapshot:\n  compression: brotli\n")
	s.ErrorIs(New().Init(path), merr.ErrCompressorUnknown)

	path = s.writeConfig("log:\n  stdout: false\nstream:\n  byte-order: middle\n")
	app = New()
	s.Require().NoError(app.Init(path))
	_, err := app.NewCodec()
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func TestApplication(t *testing.T) {
	suite.Run(t, new(ApplicationSuite))
}
