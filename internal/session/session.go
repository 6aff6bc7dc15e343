// Package session provides the browser page sessions that scripts are replayed against.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds every wait for a navigation or an element.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTargetNotFound is returned if a selector does not resolve to an element in time.
	ErrTargetNotFound = errors.New("target not found")
	// ErrNavigationFailed is returned if a page does not reach its load state.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrInteraction is returned if an element was found but could not be interacted with.
	ErrInteraction = errors.New("interaction failed")
	// ErrClosed is returned by a session that has already been closed.
	ErrClosed = errors.New("session is closed")
)

// A Session is a handle to a single page in a running browser.
// All element methods locate their target by a CSS selector and wait up to
// DefaultTimeout for it to appear. Selectors are resolved in the frame chosen
// by the last call to SwitchFrame, Navigate switches back to the main document.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	DoubleClick(ctx context.Context, selector string) error
	RightClick(ctx context.Context, selector string) error
	// Fill replaces the content of an input, textarea or contenteditable element.
	Fill(ctx context.Context, selector, value string) error
	// SelectOption selects the option whose value, or else whose label, equals value.
	SelectOption(ctx context.Context, selector, value string) error
	// WaitFor blocks until an element matching selector is visible.
	WaitFor(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error
	Focus(ctx context.Context, selector string) error
	// SetChecked only clicks the checkbox or radio if its state differs from checked.
	SetChecked(ctx context.Context, selector string, checked bool) error
	// Press sends a named key (Enter, Tab, Escape, ArrowDown, ...) or a single
	// character to the element.
	Press(ctx context.Context, selector, key string) error
	ScrollIntoView(ctx context.Context, selector string) error
	// Upload sets the files of an <input type="file"> element.
	Upload(ctx context.Context, selector string, files []string) error
	// SwitchFrame makes the document of the iframe matching selector the
	// target of the following calls. An empty selector selects the main document.
	SwitchFrame(ctx context.Context, selector string) error
	Close() error
}

// Snapshot is a capture of the current page, eg a png screenshot.
type Snapshot struct {
	Data []byte
	Ext  string
}

// A Snapshotter is a session that can capture the current page.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Type encapsulates the type of a session
// See below constants for possible types
type Type string

const (
	CHROME_SESSION_TYPE Type = "chrome"
	ROD_SESSION_TYPE    Type = "rod"
	MOCK_SESSION_TYPE   Type = "mock"
)

// MockPage is a page served by the mock session.
type MockPage struct {
	URL     string `yaml:"url"`
	Content string `yaml:"content"`
}

// Config defines the necessary parameters to open a new session.
// Values are taken from the config file, environment variables or both.
type Config struct {
	Type         Type       `yaml:"type" env:"REPLAYR_SESSION_TYPE"`
	Headed       bool       `yaml:"headed" env:"REPLAYR_HEADED"`
	ExecPath     string     `yaml:"exec_path" env:"REPLAYR_EXEC_PATH"`
	UserAgent    string     `yaml:"user_agent" env:"REPLAYR_USER_AGENT"`
	WindowWidth  int        `yaml:"window_width" env-default:"1280"`
	WindowHeight int        `yaml:"window_height" env-default:"720"`
	DebugDir     string     `yaml:"debug_dir" env:"REPLAYR_DEBUG_DIR" env-default:"debug"`
	MockPages    []MockPage `yaml:"mock_pages,omitempty"`
}

func (c *Config) windowSize() (int, int) {
	w, h := c.WindowWidth, c.WindowHeight
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}
	return w, h
}

// stepContext returns the context a single session call runs in. It is derived
// from base, the context of the browser connection, and ends after
// DefaultTimeout or as soon as ctx is done.
func stepContext(base, ctx context.Context) (context.Context, context.CancelFunc) {
	sctx, cancel := context.WithTimeout(base, DefaultTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return sctx, func() {
		stop()
		cancel()
	}
}

// uploadPaths returns the absolute paths of files. All files must exist.
func uploadPaths(files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.New("no files given")
	}
	paths := make([]string, len(files))
	for i, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", f)
		}
		paths[i] = p
	}
	return paths, nil
}

// DefaultType returns the session type used if none is configured.
func DefaultType() Type {
	return CHROME_SESSION_TYPE
}

// New opens a new session depending on the session type
func New(ctx context.Context, c *Config) (Session, error) {
	t := c.Type
	if t == "" {
		t = DefaultType()
	}
	switch t {
	case CHROME_SESSION_TYPE:
		return NewChromeSession(ctx, c)
	case ROD_SESSION_TYPE:
		return NewRodSession(ctx, c)
	case MOCK_SESSION_TYPE:
		return NewMockSession(ctx, c)
	default:
		return nil, fmt.Errorf("session of type '%s' not implemented", c.Type)
	}
}
