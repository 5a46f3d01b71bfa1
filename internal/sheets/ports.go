package sheets

import (
	"context"

	"expenses/internal/core"
)

// RecordExporter writes a full snapshot of the records to an external sheet.
type RecordExporter interface {
	// Export replaces the sheet contents and returns a reference to the
	// written range.
	Export(ctx context.Context, records []core.Record) (ref string, err error)
}
