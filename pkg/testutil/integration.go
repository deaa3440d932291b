package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// FileSuite provides a temporary directory and a context for tests that
// read real files
type FileSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *FileSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "textreader-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// TearDownSuite runs after all tests in the suite
func (s *FileSuite) TearDownSuite() {
	s.cancel()
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
	s.T().Logf("suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *FileSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *FileSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile creates a file with content in the suite directory
func (s *FileSuite) CreateTempFile(name string, content string) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
