package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jakopako/replayr/internal/runner"
	"github.com/jakopako/replayr/internal/script"
	"github.com/jakopako/replayr/internal/session"
	"github.com/jakopako/replayr/internal/types"
)

func TestLoadConfig(t *testing.T) {
	config, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("expected the missing default config to be ignored, got %v", err)
	}
	if config.Find(script.LoginFlowName) == nil {
		t.Errorf("expected built-in script %s", script.LoginFlowName)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config that is not the default")
	}
}

func TestSelectScripts(t *testing.T) {
	other := *script.LoginFlow()
	other.Name = "another"
	config := &script.Config{Scripts: []script.Script{*script.LoginFlow(), other}}

	all, err := selectScripts(config, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].Name != "another" || all[1].Name != script.LoginFlowName {
		t.Errorf("expected all scripts sorted by name, got %v", all)
	}

	one, err := selectScripts(config, script.LoginFlowName)
	if err != nil || len(one) != 1 {
		t.Fatalf("expected a single script, got %v, %v", one, err)
	}
	if _, err := selectScripts(config, "anothr"); err == nil || !strings.Contains(err.Error(), "did you mean another?") {
		t.Errorf("expected a suggestion, got %v", err)
	}
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	config := &script.Config{Scripts: []script.Script{*script.LoginFlow()}}
	if err := printList(&buf, config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, e := range []string{"login-flow", "13", "https://example.com/login"} {
		if !strings.Contains(out, e) {
			t.Errorf("expected list to contain %q, got:\n%s", e, out)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	results := []result{
		{name: "login-flow", steps: 13},
		{name: "broken", steps: 2, err: errors.New("step 2 failed")},
	}
	if err := printSummary(&buf, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, e := range []string{"login-flow", "ok", "broken", "step 2 failed"} {
		if !strings.Contains(out, e) {
			t.Errorf("expected summary to contain %q, got:\n%s", e, out)
		}
	}
}

func TestRunScripts(t *testing.T) {
	c := &session.Config{
		Type:      session.MOCK_SESSION_TYPE,
		MockPages: []session.MockPage{{URL: "https://example.com/", Content: `<p id="hello">hi</p>`}},
	}
	scripts := []*script.Script{
		{Name: "ok", Actions: []types.Action{
			{Kind: types.ActionKindNavigate, URL: "https://example.com/"},
			{Kind: types.ActionKindWait, Selector: "#hello"},
		}},
		{Name: "broken", Actions: []types.Action{
			{Kind: types.ActionKindNavigate, URL: "https://example.com/"},
			{Kind: types.ActionKindClick, Selector: "#bye"},
		}},
	}

	results, failed := runScripts(context.Background(), &runner.Runner{}, c, scripts)
	if len(results) != 2 || failed != 1 {
		t.Fatalf("expected 2 results with 1 failure, got %d results with %d failures", len(results), failed)
	}
	if results[0].err != nil || results[0].steps != 2 {
		t.Errorf("unexpected result for the first script: %+v", results[0])
	}
	if !errors.Is(results[1].err, session.ErrTargetNotFound) {
		t.Errorf("expected the second script to fail with ErrTargetNotFound, got %v", results[1].err)
	}
}

func TestRunScriptsInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scripts := []*script.Script{script.LoginFlow(), script.LoginFlow()}
	results, failed := runScripts(ctx, &runner.Runner{}, &session.Config{Type: session.MOCK_SESSION_TYPE}, scripts)
	if len(results) != 0 || failed != 0 {
		t.Errorf("expected no script to start after an interrupt, got %d results with %d failures", len(results), failed)
	}
}
