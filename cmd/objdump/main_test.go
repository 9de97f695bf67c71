package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/objgraph-go/internal/inspect"
	"github.com/lk2023060901/objgraph-go/internal/json"
	"github.com/lk2023060901/objgraph-go/internal/scene"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
)

func writeConfig(t *testing.T, dir string) string {
	path := filepath.Join(dir, "config.yaml")
	content := "log:\n  stdout: false\nsnapshot:\n  compression: zstd\n  min-compress-size: 0\n  root: " + dir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDemoThenInspect(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	snap := filepath.Join(dir, "demo.snap")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config", cfg, "--demo", snap}, &out, &out))
	assert.Contains(t, out.String(), "wrote "+snap)

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"--config", cfg, snap, snap}, &out, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var report inspect.Report
		require.NoError(t, json.Unmarshal([]byte(line), &report))
		assert.Equal(t, snap, report.Source)
		assert.Equal(t, scene.TypeScene, report.RootType)
		assert.Equal(t, "zstd", report.Compressor)
		assert.Equal(t, 10, report.Objects)
	}
}

func TestInspectRaw(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	r := objstream.NewRegistry()
	require.NoError(t, scene.RegisterTypes(r))
	var buf bytes.Buffer
	enc := objstream.NewEncoder(&buf, objstream.WithRegistry(r))
	require.NoError(t, enc.WriteObject(scene.NewScene("raw")))
	require.NoError(t, enc.Flush())
	raw := filepath.Join(dir, "scene.bin")
	require.NoError(t, os.WriteFile(raw, buf.Bytes(), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config=" + cfg, "--raw", raw}, &out, &out))

	var report inspect.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Roots)
	assert.Equal(t, 2, report.Objects)

	out.Reset()
	err := run(context.Background(), []string{"--config", cfg, raw}, &out, &out)
	assert.Error(t, err)
}

func TestFlags(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags(nil, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--bogus"}, &stderr)
	assert.Error(t, err)

	opts, err := parseFlags([]string{"--raw", "a", "b"}, &stderr)
	require.NoError(t, err)
	assert.True(t, opts.raw)
	assert.Equal(t, []string{"a", "b"}, opts.files)
}
