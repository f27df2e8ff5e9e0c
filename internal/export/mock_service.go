package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MockExportService is a mock implementation of ExportServiceInterface for testing.
type MockExportService struct {
	mu            sync.Mutex
	shouldSucceed bool
	dir           string
	day           time.Time
	callCount     int
	lastConfig    *ExportConfig
	exportPath    string
}

// NewMockExportService creates a mock writing small files into dir.
func NewMockExportService(dir string) *MockExportService {
	return &MockExportService{
		shouldSucceed: true,
		dir:           dir,
		day:           time.Now(),
	}
}

// Export performs a mock export operation.
func (m *MockExportService) Export(ctx context.Context, config *ExportConfig) (*ExportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastConfig = config

	if !m.shouldSucceed {
		return nil, fmt.Errorf("mock export failed")
	}

	outputPath := filepath.Join(m.dir, FileName(m.day))
	if config != nil && config.OutputPath != "" {
		outputPath = config.OutputPath
	}
	m.exportPath = outputPath

	if err := os.WriteFile(outputPath, []byte("[]\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to create mock export file: %w", err)
	}

	return &ExportResult{
		FilePath:  outputPath,
		SizeBytes: 3,
		Checksum:  "mock-checksum-12345",
		Duration:  time.Millisecond,
	}, nil
}

// SetShouldSucceed controls whether the mock export will succeed.
func (m *MockExportService) SetShouldSucceed(shouldSucceed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldSucceed = shouldSucceed
}

// SetDay sets the day used for the default file name.
func (m *MockExportService) SetDay(day time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.day = day
}

// GetCallCount returns the number of times Export was called.
func (m *MockExportService) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GetExportPath returns the path of the last export.
func (m *MockExportService) GetExportPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exportPath
}
