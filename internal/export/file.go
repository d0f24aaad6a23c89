package export

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/cinepos/internal/filex"
	"github.com/dmitrijs2005/cinepos/internal/models"
)

var writeFile = filex.WriteFile

// FileExporter writes receipts under <dir>/sales.
type FileExporter struct {
	dir string
}

// NewFileExporter returns an exporter rooted at the data directory dataDir.
func NewFileExporter(dataDir string) *FileExporter {
	return &FileExporter{dir: filepath.Join(dataDir, "sales")}
}

// Export renders sale and returns the absolute path of the written file.
func (e *FileExporter) Export(ctx context.Context, sale models.Sale) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := renderReceipt(sale)
	if err != nil {
		return "", err
	}
	return writeFile(e.dir, ReceiptName(sale), body)
}
