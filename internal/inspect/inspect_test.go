package inspect

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/internal/json"
	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/internal/snapshot"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

type InspectSuite struct {
	suite.Suite
	registry *objstream.Registry
}

func (s *InspectSuite) SetupSuite() {
	s.registry = objstream.NewRegistry()
	s.Require().NoError(scene.RegisterTypes(s.registry))
}

func (s *InspectSuite) TestInspectDemo() {
	var buf bytes.Buffer
	enc := objstream.NewEncoder(&buf, objstream.WithRegistry(s.registry))
	s.Require().NoError(enc.WriteObject(scene.Demo()))
	s.Require().NoError(enc.WriteObject(nil))
	s.Require().NoError(enc.Flush())
	size := buf.Len()

	report, err := Inspect(&buf, s.registry)
	s.Require().NoError(err)

	// 1 scene + 2 materials + 3 actors + 2 models + 2 lights
	s.Equal(2, report.Roots)
	s.Equal(10, report.Objects)
	s.Equal(map[string]int{
		scene.TypeScene:    1,
		scene.TypeMaterial: 2,
		scene.TypeActor:    3,
		scene.TypeSphere:   1,
		scene.TypeBox:      1,
		scene.TypeLight:    2,
	}, report.Types)
	// 两个材质在模型中各回溯一次，共享的球体再回溯一次
	s.Equal(3, report.BackReferences)
	s.Equal(1, report.Nulls)
	s.EqualValues(size, report.Bytes)
	// scene -> actor -> sphere
	s.Equal(3, report.MaxDepth)
}

func (s *InspectSuite) TestInspectBroken() {
	_, err := Inspect(bytes.NewReader([]byte{objstream.PtrIndexed, 9, 0, 0, 0}), s.registry)
	s.ErrorIs(err, merr.ErrBrokenReference)

	report, err := Inspect(bytes.NewReader(nil), s.registry)
	s.Require().NoError(err)
	s.Zero(report.Roots)
}

func (s *InspectSuite) TestInspectSnapshot() {
	cfg := snapshot.DefaultConfig()
	cfg.Compression = "snappy"
	cfg.MinCompressSize = 0
	codec, err := snapshot.NewCodec(cfg, s.registry)
	s.Require().NoError(err)
	defer codec.Close()

	var buf bytes.Buffer
	_, err = codec.Encode(context.Background(), &buf, scene.Demo())
	s.Require().NoError(err)

	report, err := InspectSnapshot(context.Background(), codec, &buf)
	s.Require().NoError(err)
	s.Equal(snapshot.FormatVersion, report.Version)
	s.Equal(scene.TypeScene, report.RootType)
	s.Equal("snappy", report.Compressor)
	s.Equal(1, report.Roots)

	data, err := report.JSON()
	s.Require().NoError(err)
	s.True(strings.Contains(string(data), `"rootType": "scene.Scene"`))

	var back Report
	s.Require().NoError(json.Unmarshal(data, &back))
	s.Equal(report.Types, back.Types)
}

func TestInspect(t *testing.T) {
	suite.Run(t, new(InspectSuite))
}
