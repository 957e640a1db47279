package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{Logger: discardLogger()})
	require.Error(t, err)
}

func TestStartWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "order.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("%PDF-1.4"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)

	select {
	case got := <-evCh:
		assert.Equal(t, existing, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event from initial scan")
	}
}

func TestStartWatcherSeesNewPDF(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{
		Roots:  []string{dir},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	// A non-PDF first; the emitted event must still be the PDF.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("skip"), 0o644))
	dropped := filepath.Join(dir, "incoming.pdf")
	require.NoError(t, os.WriteFile(dropped, []byte("%PDF-1.4"), 0o644))

	select {
	case got := <-evCh:
		assert.Equal(t, dropped, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for new pdf")
	}
}

func TestStartWatcherClosesOnCancel(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	evCh, errCh, err := StartWatcher(ctx, WatchConfig{
		Roots:  []string{dir},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-evCh:
		assert.False(t, open, "event channel should close")
	case <-time.After(5 * time.Second):
		t.Fatal("event channel did not close")
	}
	select {
	case _, open := <-errCh:
		assert.False(t, open, "error channel should close")
	case <-time.After(5 * time.Second):
		t.Fatal("error channel did not close")
	}
}
