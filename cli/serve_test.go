package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeStopsOnCancel(t *testing.T) {
	dir := modelsDir(t)
	dbPath := filepath.Join(t.TempDir(), "feedback.db")

	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- app.RunContext(ctx, []string{
			"comfortcast", "--models-dir", dir, "serve", "--port", "0", "--db", dbPath,
		})
	}()

	// the database is created before the listener starts
	require.Eventually(t, func() bool {
		_, err := os.Stat(dbPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	logs := stderr.String()
	assert.Contains(t, logs, dbPath)
	assert.Contains(t, logs, ":0")
	assert.Contains(t, logs, "shutting down")
	assert.Empty(t, stdout.String())
}

func TestServeBadDatabasePath(t *testing.T) {
	dir := modelsDir(t)
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "feedback.db")

	_, _, err := run(t, "--models-dir", dir, "serve", "--port", "0", "--db", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initializing database")
	assert.Equal(t, exitGeneric, exitCode(err))
}
