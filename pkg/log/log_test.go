package log

import (
	"os"
	"path/filepath"
	"testing"

	"pastpapers-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPaths(t *testing.T) {
	dir := t.TempDir()

	paths, err := outputPaths("")
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout"}, paths)

	paths, err = outputPaths("stderr")
	require.NoError(t, err)
	assert.Equal(t, []string{"stderr"}, paths)

	paths, err = outputPaths(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", filepath.Join(dir, "logs", defaultLogFile)}, paths)
	assert.DirExists(t, filepath.Join(dir, "logs"))

	file := filepath.Join(dir, "nested", "server.log")
	paths, err = outputPaths(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", file}, paths)
}

func TestInitWritesToFile(t *testing.T) {
	prev := sugar
	t.Cleanup(func() { sugar = prev })

	file := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(config.LogConfig{Level: "warn", Format: "json", OutputPath: file}))

	Infof("[Test] 低于级别, id: %d", 1)
	Warnf("[Test] 写入文件, id: %d", 2)
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Test] 写入文件, id: 2")
	assert.NotContains(t, string(data), "低于级别")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	prev := sugar
	t.Cleanup(func() { sugar = prev })

	assert.Error(t, Init(config.LogConfig{Level: "chatty"}))
}
