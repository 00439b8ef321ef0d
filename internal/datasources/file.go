package datasources

import (
	"context"
	"fmt"
	"os"

	"github.com/sawpanic/gridrun/internal/models"
)

// FileSource reads a saved result document from disk
type FileSource struct {
	path string
}

// NewFileSource creates a source over path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements PairSource
func (f *FileSource) Name() string {
	return KindFile
}

// Fetch implements PairSource
func (f *FileSource) Fetch(ctx context.Context) ([]models.PairRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	records, err := DecodeResult(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return records, nil
}
