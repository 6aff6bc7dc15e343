// Package output provides the interface and configuration and implementation for writers
package output

import (
	"fmt"
)

// File is a named piece of generated content, eg an exported test.
type File struct {
	Name    string
	Content []byte
}

// Writer defines the interface for all writers that are responsible
// for writing generated files to a specific output.
type Writer interface {
	Write(f *File) error
}

// WriterConfig defines the necessary paramters to make a new writer
// which is responsible for writing generated files to a specific output
// eg. stdout.
type WriterConfig struct {
	Type    WriterType `yaml:"type"`
	FileDir string     `yaml:"filedir"`
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
)

// NewWriter returns a new writer depending on the writer type
func NewWriter(wc *WriterConfig) (Writer, error) {
	switch wc.Type {
	case STDOUT_WRITER_TYPE:
		return NewStdoutWriter(wc), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}
