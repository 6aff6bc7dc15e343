package session

import (
	"context"
	"testing"
	"time"
)

func TestStepContext(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	ctx, cancel := context.WithCancel(context.Background())

	sctx, stop := stepContext(base, ctx)
	defer stop()
	deadline, ok := sctx.Deadline()
	if !ok {
		t.Fatal("expected the step context to have a deadline")
	}
	if d := time.Until(deadline); d > DefaultTimeout {
		t.Errorf("expected the deadline to be at most %v away, got %v", DefaultTimeout, d)
	}

	cancel()
	select {
	case <-sctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("expected the step context to end with the caller's context")
	}
	if base.Err() != nil {
		t.Error("ending a step must not end the browser connection")
	}
}

func TestStepContextStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sctx, stop := stepContext(context.Background(), ctx)
	stop()
	if sctx.Err() == nil {
		t.Error("expected the step context to end when stopped")
	}
	if ctx.Err() != nil {
		t.Error("stopping a step must not cancel the caller's context")
	}
}
