package export

import (
	"context"
	"io"
)

// ExportServiceInterface defines the contract for export services.
// This interface allows mocking for testing.
type ExportServiceInterface interface {
	// Export performs a backup export with the given configuration.
	Export(ctx context.Context, config *ExportConfig) (*ExportResult, error)
}

// Ensure *ExportService implements the interfaces at compile time.
var (
	_ ExportServiceInterface = (*ExportService)(nil)
	_ io.WriterTo            = (*ExportService)(nil)
)
