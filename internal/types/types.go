// Package types defines shared types used across the application.
package types

import (
	"errors"
	"fmt"
)

// ActionKind is the kind of a single step of a script.
// See below constants for possible kinds.
type ActionKind string

const (
	ActionKindNavigate    ActionKind = "navigate"
	ActionKindClick       ActionKind = "click"
	ActionKindFill        ActionKind = "fill"
	ActionKindSelect      ActionKind = "select"
	ActionKindWait        ActionKind = "wait"
	ActionKindDoubleClick ActionKind = "double_click"
	ActionKindRightClick  ActionKind = "right_click"
	ActionKindHover       ActionKind = "hover"
	ActionKindFocus       ActionKind = "focus"
	ActionKindCheck       ActionKind = "check"
	ActionKindUncheck     ActionKind = "uncheck"
	ActionKindPress       ActionKind = "press"
	ActionKindScroll      ActionKind = "scroll"
	ActionKindUpload      ActionKind = "upload"
)

// ActionKinds lists all supported kinds in a stable order.
var ActionKinds = []ActionKind{
	ActionKindNavigate,
	ActionKindClick,
	ActionKindFill,
	ActionKindSelect,
	ActionKindWait,
	ActionKindDoubleClick,
	ActionKindRightClick,
	ActionKindHover,
	ActionKindFocus,
	ActionKindCheck,
	ActionKindUncheck,
	ActionKindPress,
	ActionKindScroll,
	ActionKindUpload,
}

// IsValid reports whether k is one of the supported kinds.
func (k ActionKind) IsValid() bool {
	for _, kk := range ActionKinds {
		if k == kk {
			return true
		}
	}
	return false
}

// Action represents a single user interaction with a webpage.
// For navigate actions URL is the target, for all other kinds Selector is.
// Frame optionally selects the iframe the selector is resolved in.
type Action struct {
	Kind     ActionKind `yaml:"kind"`
	Selector string     `yaml:"selector,omitempty"`
	Frame    string     `yaml:"frame,omitempty"`
	URL      string     `yaml:"url,omitempty"`
	Value    string     `yaml:"value,omitempty"`
	Files    []string   `yaml:"files,omitempty"`
	Comment  string     `yaml:"comment,omitempty"`
}

// Target returns the URL for navigate actions and the selector otherwise.
func (a Action) Target() string {
	if a.Kind == ActionKindNavigate {
		return a.URL
	}
	return a.Selector
}

// Validate checks that the fields required by the action's kind are set.
// Unknown kinds are not handled here, see script.Validate.
func (a Action) Validate() error {
	switch a.Kind {
	case "":
		return errors.New("kind cannot be empty")
	case ActionKindNavigate:
		if a.URL == "" {
			return errors.New("navigate needs a url")
		}
		if a.Frame != "" {
			return errors.New("navigate cannot target a frame")
		}
		return nil
	}
	if a.Selector == "" {
		return fmt.Errorf("%s needs a selector", a.Kind)
	}
	switch a.Kind {
	case ActionKindSelect, ActionKindPress:
		if a.Value == "" {
			return fmt.Errorf("%s needs a value", a.Kind)
		}
	case ActionKindUpload:
		if len(a.Files) == 0 {
			return fmt.Errorf("%s needs at least one file", a.Kind)
		}
	}
	return nil
}

// Describe returns a short human readable description of the action,
// e.g. "Click on #username".
func (a Action) Describe() string {
	switch a.Kind {
	case ActionKindNavigate:
		return fmt.Sprintf("Navigate to %s", a.URL)
	case ActionKindClick:
		return fmt.Sprintf("Click on %s", a.Selector)
	case ActionKindDoubleClick:
		return fmt.Sprintf("Double-click on %s", a.Selector)
	case ActionKindRightClick:
		return fmt.Sprintf("Right-click on %s", a.Selector)
	case ActionKindFill:
		return fmt.Sprintf("Type in %s", a.Selector)
	case ActionKindSelect:
		return fmt.Sprintf("Select option in %s", a.Selector)
	case ActionKindWait:
		return fmt.Sprintf("Wait for %s", a.Selector)
	case ActionKindHover:
		return fmt.Sprintf("Hover over %s", a.Selector)
	case ActionKindFocus:
		return fmt.Sprintf("Focus on %s", a.Selector)
	case ActionKindCheck:
		return fmt.Sprintf("Check %s", a.Selector)
	case ActionKindUncheck:
		return fmt.Sprintf("Uncheck %s", a.Selector)
	case ActionKindPress:
		return fmt.Sprintf("Press %s on %s", a.Value, a.Selector)
	case ActionKindScroll:
		return fmt.Sprintf("Scroll to %s", a.Selector)
	case ActionKindUpload:
		return fmt.Sprintf("Upload file to %s", a.Selector)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Target())
	}
}
