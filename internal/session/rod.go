package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/jakopako/replayr/internal/log"
)

var rodKeys = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"home":       input.Home,
	"end":        input.End,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
}

// The RodSession drives a browser page with go-rod.
type RodSession struct {
	*Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	// frame is the page of the iframe selectors are resolved in, if any.
	frame  *rod.Page
	logger *slog.Logger
	closed bool
}

// NewRodSession launches a browser and opens a blank page.
func NewRodSession(ctx context.Context, c *Config) (*RodSession, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("session", string(ROD_SESSION_TYPE)))

	l := launcher.New().Headless(!c.Headed)
	if c.ExecPath != "" {
		l = l.Bin(c.ExecPath)
	} else if path, has := launcher.LookPath(); has {
		l = l.Bin(path)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	s := &RodSession{
		Config:   c,
		launcher: l,
		browser:  b,
		logger:   logger,
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	w, h := c.windowSize()
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if c.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: c.UserAgent}); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	logger.Debug("browser started")
	return s, nil
}

// step returns the page selectors are resolved in, bound to a new step context.
func (s *RodSession) step(ctx context.Context) (*rod.Page, context.CancelFunc, error) {
	if s.closed {
		return nil, nil, ErrClosed
	}
	p := s.page
	if s.frame != nil {
		p = s.frame
	}
	sctx, cancel := stepContext(s.page.GetContext(), ctx)
	return p.Context(sctx), cancel, nil
}

// interact locates selector and runs fn on the element. Locating and acting
// share one step deadline.
func (s *RodSession) interact(ctx context.Context, selector string, fn func(el *rod.Element) error) error {
	p, cancel, err := s.step(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTargetNotFound, selector, err)
	}
	if err := fn(el); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
	}
	return nil
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	s.frame = nil
	p, cancel, err := s.step(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	s.logger.Debug(fmt.Sprintf("navigating to %s", url))
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigationFailed, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigationFailed, url, err)
	}
	return nil
}

func (s *RodSession) Click(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (s *RodSession) DoubleClick(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 2)
	})
}

func (s *RodSession) RightClick(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonRight, 1)
	})
}

func (s *RodSession) Fill(ctx context.Context, selector, value string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		res, err := el.Eval(clearFieldJS)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return errors.New("element is not an <input>, <textarea> or [contenteditable] element that can be filled")
		}
		if value == "" {
			return nil
		}
		return el.Input(value)
	})
}

func (s *RodSession) SelectOption(ctx context.Context, selector, value string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		res, err := el.Eval(selectOptionJS, value)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return fmt.Errorf("no option matching %q", value)
		}
		return nil
	})
}

// WaitFor waits for the element to appear and to become visible within a
// single step deadline.
func (s *RodSession) WaitFor(ctx context.Context, selector string) error {
	p, cancel, err := s.step(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTargetNotFound, selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTargetNotFound, selector, err)
	}
	return nil
}

func (s *RodSession) Hover(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.Hover()
	})
}

func (s *RodSession) Focus(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.Focus()
	})
}

func (s *RodSession) SetChecked(ctx context.Context, selector string, checked bool) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		read := func() (checkState, error) {
			res, err := el.Eval(checkStateJS)
			if err != nil {
				return checkState{}, err
			}
			return checkState{
				Checkable: res.Value.Get("checkable").Bool(),
				Radio:     res.Value.Get("radio").Bool(),
				Checked:   res.Value.Get("checked").Bool(),
			}, nil
		}
		return setChecked(checked, read, func() error {
			return el.Click(proto.InputMouseButtonLeft, 1)
		})
	})
}

// keyDefined reports whether rod's keyboard layout knows k. Key.Info panics
// for keys that are not on the layout.
func keyDefined(k input.Key) (defined bool) {
	defer func() {
		if recover() != nil {
			defined = false
		}
	}()
	return k.Info().Key != ""
}

// rodKey resolves a named key or a single character. typed is false for a
// character that is not on rod's keyboard layout, eg an accented letter. Such
// characters have to be inserted as text.
func rodKey(key string) (k input.Key, typed bool, err error) {
	if k, ok := rodKeys[strings.ToLower(key)]; ok {
		return k, true, nil
	}
	if utf8.RuneCountInString(key) != 1 {
		return 0, false, fmt.Errorf("unknown key %q", key)
	}
	r, _ := utf8.DecodeRuneInString(key)
	k = input.Key(r)
	return k, keyDefined(k), nil
}

func (s *RodSession) Press(ctx context.Context, selector, key string) error {
	k, typed, err := rodKey(key)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
	}
	return s.interact(ctx, selector, func(el *rod.Element) error {
		if !typed {
			return el.Input(key)
		}
		return el.Type(k)
	})
}

func (s *RodSession) ScrollIntoView(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.ScrollIntoView()
	})
}

func (s *RodSession) Upload(ctx context.Context, selector string, files []string) error {
	paths, err := uploadPaths(files)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
	}
	return s.interact(ctx, selector, func(el *rod.Element) error {
		return el.SetFiles(paths)
	})
}

func (s *RodSession) SwitchFrame(ctx context.Context, selector string) error {
	s.frame = nil
	if selector == "" {
		return nil
	}
	var frame *rod.Page
	err := s.interact(ctx, selector, func(el *rod.Element) error {
		f, err := el.Frame()
		if err != nil {
			return err
		}
		frame = f
		return nil
	})
	if err != nil {
		return err
	}
	s.frame = frame.Context(s.page.GetContext())
	s.logger.Debug(fmt.Sprintf("switched to frame %s", selector))
	return nil
}

func (s *RodSession) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.closed {
		return nil, ErrClosed
	}
	sctx, cancel := stepContext(s.page.GetContext(), ctx)
	defer cancel()
	data, err := s.page.Context(sctx).Screenshot(false, nil)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Data: data, Ext: "png"}, nil
}

// Close closes the page and the browser and removes the browser's user data dir.
func (s *RodSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var pageErr error
	if s.page != nil {
		pageErr = s.page.Close()
	}
	err := s.browser.Close()
	s.launcher.Cleanup()
	if err != nil {
		return err
	}
	if pageErr != nil {
		s.logger.Debug(fmt.Sprintf("failed to close page: %v", pageErr))
	}
	s.logger.Debug("browser closed")
	return nil
}
