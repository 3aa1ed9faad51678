package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/log"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("DATA_BACKEND", "postgres")
	_, err = LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenApp_Memory(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	app, err := OpenApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer app.Close()

	assert.Empty(t, app.DBPath)
	n, err := app.ProcessOnStart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGracefulShutdown_ParentCancel(t *testing.T) {
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	parent, cancel := context.WithCancel(context.Background())

	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(parent, logger, time.Second, func() { close(cleaned) })

	cancel()
	WaitForShutdown(ctx, done)

	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup did not run")
	}
	assert.Error(t, ctx.Err())
}
