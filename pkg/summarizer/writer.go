// Package summarizer builds human-readable summaries of finished conversions.
package summarizer

import (
	"fmt"

	"github.com/user/lottiemp4/pkg/ports"
)

// Formatter renders a Summary.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a plain function to Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string { return f(summary) }

// Writer renders summaries and stores them through a FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{formatter: formatter, fs: fs}
}

// Write stores the rendered summary at path. The file system creates missing
// parent directories.
func (w *Writer) Write(path string, summary *Summary) error {
	body := w.formatter.Format(summary)
	if err := w.fs.WriteFile(path, []byte(body)); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}
