package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/jakopako/replayr/internal/log"
)

var chromeKeys = map[string]string{
	"enter":      kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
}

// The ChromeSession drives a Chrome/Chromium tab via the devtools protocol.
type ChromeSession struct {
	*Config
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
	// frame is the selector of the iframe element selectors are resolved in.
	frame  string
	closed bool
}

// NewChromeSession starts a browser and opens a blank tab.
func NewChromeSession(ctx context.Context, c *Config) (*ChromeSession, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("session", string(CHROME_SESSION_TYPE)))
	w, h := c.windowSize()
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(w, h),
	)
	if c.Headed {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	s := &ChromeSession{
		Config:      c,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}

	// the first run allocates the browser and the tab
	var startActions []chromedp.Action
	if log.Debug {
		startActions = append(startActions, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, revision, userAgent, jsVersion, err := browser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
				protocolVersion, product, revision, userAgent, jsVersion))
			return nil
		}))
	}
	if err := chromedp.Run(tabCtx, startActions...); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	logger.Debug("browser started")
	return s, nil
}

func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed {
		return ErrClosed
	}
	sctx, cancel := stepContext(s.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(sctx, actions...)
}

// query returns the options that scope a query to the current frame.
func (s *ChromeSession) query(ctx context.Context) ([]chromedp.QueryOption, error) {
	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if s.frame == "" {
		return opts, nil
	}
	var frames []*cdp.Node
	if err := chromedp.Nodes(s.frame, &frames, chromedp.ByQuery).Do(ctx); err != nil {
		return nil, fmt.Errorf("%w: frame %s: %w", ErrTargetNotFound, s.frame, err)
	}
	return append(opts, chromedp.FromNode(frames[0])), nil
}

func (s *ChromeSession) node(ctx context.Context, selector string) (*cdp.Node, error) {
	opts, err := s.query(ctx)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := chromedp.Nodes(selector, &nodes, opts...).Do(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTargetNotFound, selector, err)
	}
	return nodes[0], nil
}

// interact locates selector and runs fn on the node. Locating and acting share
// one step deadline. A missing element is reported as ErrTargetNotFound and
// everything after as ErrInteraction.
func (s *ChromeSession) interact(ctx context.Context, selector string, fn func(ctx context.Context, n *cdp.Node) error) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		n, err := s.node(ctx, selector)
		if err != nil {
			return err
		}
		if err := fn(ctx, n); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
		}
		return nil
	}))
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	s.logger.Debug(fmt.Sprintf("navigating to %s", url))
	s.frame = ""
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigationFailed, url, err)
	}
	return nil
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return chromedp.MouseClickNode(n).Do(ctx)
	})
}

func (s *ChromeSession) DoubleClick(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return chromedp.MouseClickNode(n, chromedp.ClickCount(2)).Do(ctx)
	})
}

func (s *ChromeSession) RightClick(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return chromedp.MouseClickNode(n, chromedp.ButtonRight).Do(ctx)
	})
}

func (s *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		var cleared bool
		if err := chromedp.CallFunctionOnNode(ctx, n, clearFieldJS, &cleared); err != nil {
			return err
		}
		if !cleared {
			return errors.New("element is not an <input>, <textarea> or [contenteditable] element that can be filled")
		}
		if value == "" {
			return nil
		}
		return chromedp.KeyEventNode(n, value).Do(ctx)
	})
}

func (s *ChromeSession) SelectOption(ctx context.Context, selector, value string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		var ok bool
		if err := chromedp.CallFunctionOnNode(ctx, n, selectOptionJS, &ok, value); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no option matching %q", value)
		}
		return nil
	})
}

func (s *ChromeSession) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		opts, err := s.query(ctx)
		if err != nil {
			return err
		}
		if err := chromedp.WaitVisible(selector, opts...).Do(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTargetNotFound, selector, err)
		}
		return nil
	}))
}

func (s *ChromeSession) Hover(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx); err != nil {
			return err
		}
		box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		x, y, err := quadCenter(box.Content)
		if err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})
}

func (s *ChromeSession) Focus(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return dom.Focus().WithNodeID(n.NodeID).Do(ctx)
	})
}

func (s *ChromeSession) SetChecked(ctx context.Context, selector string, checked bool) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		read := func() (checkState, error) {
			var st checkState
			err := chromedp.CallFunctionOnNode(ctx, n, checkStateJS, &st)
			return st, err
		}
		return setChecked(checked, read, func() error {
			return chromedp.MouseClickNode(n).Do(ctx)
		})
	})
}

func (s *ChromeSession) Press(ctx context.Context, selector, key string) error {
	k, ok := chromeKeys[strings.ToLower(key)]
	if !ok {
		if utf8.RuneCountInString(key) != 1 {
			return fmt.Errorf("%w: %s: unknown key %q", ErrInteraction, selector, key)
		}
		k = key
	}
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return chromedp.KeyEventNode(n, k).Do(ctx)
	})
}

func (s *ChromeSession) ScrollIntoView(ctx context.Context, selector string) error {
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx)
	})
}

func (s *ChromeSession) Upload(ctx context.Context, selector string, files []string) error {
	paths, err := uploadPaths(files)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
	}
	return s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		if n.NodeName != "INPUT" || !strings.EqualFold(n.AttributeValue("type"), "file") {
			return errors.New("element is not an <input type=\"file\"> element")
		}
		return dom.SetFileInputFiles(paths).WithNodeID(n.NodeID).Do(ctx)
	})
}

func (s *ChromeSession) SwitchFrame(ctx context.Context, selector string) error {
	s.frame = ""
	if selector == "" {
		return nil
	}
	err := s.interact(ctx, selector, func(ctx context.Context, n *cdp.Node) error {
		if n.NodeName != "IFRAME" && n.NodeName != "FRAME" {
			return errors.New("element is not an <iframe> element")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.frame = selector
	s.logger.Debug(fmt.Sprintf("switched to frame %s", selector))
	return nil
}

func (s *ChromeSession) Snapshot(ctx context.Context) (*Snapshot, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return &Snapshot{Data: buf, Ext: "png"}, nil
}

// Close closes the tab and shuts the browser down.
func (s *ChromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.tabCtx)
	s.cancelTab()
	s.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Debug("browser closed")
	return nil
}

// quadCenter returns the center of a quad given as 4 x/y pairs.
func quadCenter(q dom.Quad) (float64, float64, error) {
	if len(q) < 8 {
		return 0, 0, errors.New("element has no shape")
	}
	x := (q[0] + q[2] + q[4] + q[6]) / 4
	y := (q[1] + q[3] + q[5] + q[7]) / 4
	return x, y, nil
}
