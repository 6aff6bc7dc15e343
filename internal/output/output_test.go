package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWriter(t *testing.T) {
	tests := []struct {
		config  WriterConfig
		wantErr bool
	}{
		{config: WriterConfig{Type: STDOUT_WRITER_TYPE}},
		{config: WriterConfig{Type: FILE_WRITER_TYPE, FileDir: t.TempDir()}},
		{config: WriterConfig{Type: FILE_WRITER_TYPE}, wantErr: true},
		{config: WriterConfig{Type: "api"}, wantErr: true},
	}
	for _, tt := range tests {
		_, err := NewWriter(&tt.config)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewWriter(%+v): expected error %t, got %v", tt.config, tt.wantErr, err)
		}
	}
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := NewFileWriter(&WriterConfig{Type: FILE_WRITER_TYPE, FileDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write(&File{Name: "login-flow.spec.js", Content: []byte("test();\n")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "login-flow.spec.js"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "test();\n" {
		t.Errorf("unexpected content %q", data)
	}

	for _, name := range []string{"", "../escape.js", "sub/file.js"} {
		if err := w.Write(&File{Name: name}); err == nil {
			t.Errorf("expected an error for file name %q", name)
		}
	}
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&WriterConfig{Type: STDOUT_WRITER_TYPE})
	w.out = &buf
	if err := w.Write(&File{Name: "a", Content: []byte("first")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write(&File{Name: "b", Content: []byte("second\n")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "first\nsecond\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
