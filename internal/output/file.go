package output

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileWriter represents a writer that writes each file into a directory
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}

	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}

	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) Write(f *File) error {
	if f.Name == "" || filepath.Base(f.Name) != f.Name {
		return fmt.Errorf("invalid file name '%s'", f.Name)
	}
	p := filepath.Join(w.FileDir, f.Name)
	if err := os.WriteFile(p, f.Content, 0644); err != nil {
		return fmt.Errorf("error while writing file %s: %w", p, err)
	}
	w.logger.Info(fmt.Sprintf("wrote file %s", p))
	return nil
}
