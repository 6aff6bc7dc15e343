// Package runner replays scripts against page sessions.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jakopako/replayr/internal/log"
	"github.com/jakopako/replayr/internal/script"
	"github.com/jakopako/replayr/internal/session"
	"github.com/jakopako/replayr/internal/types"
	"github.com/jakopako/replayr/internal/utils"
)

// StepError is returned by Run if an action of a script fails.
type StepError struct {
	// Index is the zero-based position of the failed action.
	Index  int
	Action types.Action
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Action.Describe(), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// A Runner replays scripts one action at a time.
type Runner struct {
	// DebugDir is the directory a snapshot of the page is written to when a
	// step fails. No snapshots are taken if it is empty.
	DebugDir string
}

// RunScript opens a new session as configured by c and runs sc in it.
func (r *Runner) RunScript(ctx context.Context, c *session.Config, sc *script.Script) error {
	s, err := session.New(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open %s session: %w", c.Type, err)
	}
	return r.Run(ctx, s, sc)
}

// Run executes the actions of sc in order and stops at the first failing one.
// s is closed when Run returns, whether the script succeeded or not.
func (r *Runner) Run(ctx context.Context, s session.Session, sc *script.Script) (err error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("script", sc.Name))
	ctx = log.ContextWithLogger(ctx, logger)

	defer func() {
		cerr := s.Close()
		if cerr == nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("failed to close session: %w", cerr)
			return
		}
		logger.Error(fmt.Sprintf("failed to close session: %v", cerr))
	}()

	n := len(sc.Actions)
	// frame is the iframe the session currently resolves selectors in
	frame := ""
	for i, a := range sc.Actions {
		if cerr := ctx.Err(); cerr != nil {
			return &StepError{Index: i, Action: a, Err: cerr}
		}
		logger.Debug(fmt.Sprintf("step %d/%d: %s", i+1, n, describe(a)))
		if a.Kind != types.ActionKindNavigate && a.Frame != frame {
			if ferr := s.SwitchFrame(ctx, a.Frame); ferr != nil {
				r.snapshot(ctx, s, sc.Name, i)
				return &StepError{Index: i, Action: a, Err: fmt.Errorf("failed to switch to frame %s: %w", a.Frame, ferr)}
			}
			frame = a.Frame
		}
		if perr := Perform(ctx, s, a); perr != nil {
			r.snapshot(ctx, s, sc.Name, i)
			return &StepError{Index: i, Action: a, Err: perr}
		}
		if a.Kind == types.ActionKindNavigate {
			frame = ""
		}
	}
	logger.Info(fmt.Sprintf("completed %d steps", n))
	return nil
}

func describe(a types.Action) string {
	d := a.Describe()
	switch a.Kind {
	case types.ActionKindFill, types.ActionKindSelect:
		d = fmt.Sprintf("%s: %s", d, utils.ShortenString(a.Value, 40))
	}
	return d
}

// Perform executes a single action on s. The frame of a is not switched to,
// Run takes care of that.
func Perform(ctx context.Context, s session.Session, a types.Action) error {
	switch a.Kind {
	case types.ActionKindNavigate:
		return s.Navigate(ctx, a.URL)
	case types.ActionKindClick:
		return s.Click(ctx, a.Selector)
	case types.ActionKindDoubleClick:
		return s.DoubleClick(ctx, a.Selector)
	case types.ActionKindRightClick:
		return s.RightClick(ctx, a.Selector)
	case types.ActionKindFill:
		return s.Fill(ctx, a.Selector, a.Value)
	case types.ActionKindSelect:
		return s.SelectOption(ctx, a.Selector, a.Value)
	case types.ActionKindWait:
		return s.WaitFor(ctx, a.Selector)
	case types.ActionKindHover:
		return s.Hover(ctx, a.Selector)
	case types.ActionKindFocus:
		return s.Focus(ctx, a.Selector)
	case types.ActionKindCheck:
		return s.SetChecked(ctx, a.Selector, true)
	case types.ActionKindUncheck:
		return s.SetChecked(ctx, a.Selector, false)
	case types.ActionKindPress:
		return s.Press(ctx, a.Selector, a.Value)
	case types.ActionKindScroll:
		return s.ScrollIntoView(ctx, a.Selector)
	case types.ActionKindUpload:
		return s.Upload(ctx, a.Selector, a.Files)
	default:
		return fmt.Errorf("unknown action kind '%s'", a.Kind)
	}
}

// snapshot writes the current page to the debug dir. Failures are only logged.
func (r *Runner) snapshot(ctx context.Context, s session.Session, name string, index int) {
	if r.DebugDir == "" {
		return
	}
	logger := log.LoggerFromContext(ctx)
	snapshotter, ok := s.(session.Snapshotter)
	if !ok {
		logger.Debug("session cannot take snapshots")
		return
	}
	snap, err := snapshotter.Snapshot(ctx)
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to take snapshot: %v", err))
		return
	}
	if err := os.MkdirAll(r.DebugDir, 0755); err != nil {
		logger.Warn(fmt.Sprintf("failed to create debug dir: %v", err))
		return
	}
	p := filepath.Join(r.DebugDir, fmt.Sprintf("%s-step%02d.%s", utils.SafeFilename(name), index+1, snap.Ext))
	if err := os.WriteFile(p, snap.Data, 0644); err != nil {
		logger.Warn(fmt.Sprintf("failed to write snapshot: %v", err))
		return
	}
	logger.Debug(fmt.Sprintf("wrote snapshot to %s", p))
}
