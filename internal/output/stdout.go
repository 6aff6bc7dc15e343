package output

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct {
	out    io.Writer
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(wc *WriterConfig) *StdoutWriter {
	return &StdoutWriter{
		out:    os.Stdout,
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) Write(f *File) error {
	w.logger.Debug(fmt.Sprintf("printing file %s", f.Name))
	if _, err := w.out.Write(f.Content); err != nil {
		return err
	}
	if !bytes.HasSuffix(f.Content, []byte("\n")) {
		_, err := fmt.Fprintln(w.out)
		return err
	}
	return nil
}
