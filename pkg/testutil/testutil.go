// Package testutil provides testing utilities for textreader
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/textreader/pkg/compression"
	"github.com/ajitpratap0/textreader/pkg/logger"
)

// TestLogger creates a test logger that writes to the test output and
// installs it as the global logger until the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	l := zaptest.NewLogger(t)
	prev := logger.Get()
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
	return l
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WriteFile writes content to name inside a per-test temporary directory
// and returns the path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteCompressed writes content through the codec detected from name's
// extension
func WriteCompressed(t *testing.T, name, content string) string {
	t.Helper()
	alg, _ := compression.Detect(name)
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := compression.NewWriter(f, alg, compression.Default)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

// GenerateCSV returns rows of comma-separated values: an int column, a
// float column and a short label, all derived from seed.
func GenerateCSV(rows int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%g,label%d\n", rng.Intn(100000)-50000, rng.NormFloat64()*1e3, rng.Intn(100))
	}
	return b.String()
}
