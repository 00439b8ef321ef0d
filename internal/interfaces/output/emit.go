package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/gridrun/internal/application/scan"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Emitter renders a run in one format
type Emitter interface {
	Emit(w io.Writer, run *scan.Run) error
}

// New returns the emitter for format, showing at most top recommendations
// (top <= 0 shows all)
func New(format string, top int) (Emitter, error) {
	switch strings.ToLower(format) {
	case FormatTable:
		return &Table{Top: top}, nil
	case FormatJSON:
		return &JSON{Top: top, Indent: true}, nil
	case FormatCSV:
		return &CSV{Top: top}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile renders run into path atomically, creating parent directories.
// Readers never observe a partially written file.
func WriteFile(path string, e Emitter, run *scan.Run) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := e.Emit(file, run); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// money renders v with two decimals and thousands separators
func money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// fixed renders v with n decimals and no separators
func fixed(v float64, n int32) string {
	return decimal.NewFromFloat(v).StringFixed(n)
}

// title upper-cases the first letter of a scenario name
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
