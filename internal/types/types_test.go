package types

import "testing"

func TestActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"navigate with url", Action{Kind: ActionKindNavigate, URL: "https://example.com"}, false},
		{"navigate without url", Action{Kind: ActionKindNavigate, Selector: "#a"}, true},
		{"click with selector", Action{Kind: ActionKindClick, Selector: "#a"}, false},
		{"click without selector", Action{Kind: ActionKindClick}, true},
		{"fill with empty value", Action{Kind: ActionKindFill, Selector: "#a"}, false},
		{"select without value", Action{Kind: ActionKindSelect, Selector: "#a"}, true},
		{"select with value", Action{Kind: ActionKindSelect, Selector: "#a", Value: "daily"}, false},
		{"press without key", Action{Kind: ActionKindPress, Selector: "#a"}, true},
		{"empty kind", Action{Selector: "#a"}, true},
		{"upload without files", Action{Kind: ActionKindUpload, Selector: "#file"}, true},
		{"upload with files", Action{Kind: ActionKindUpload, Selector: "#file", Files: []string{"a.txt"}}, false},
		{"click in frame", Action{Kind: ActionKindClick, Selector: "#a", Frame: "#payment"}, false},
		{"navigate in frame", Action{Kind: ActionKindNavigate, URL: "https://example.com", Frame: "#payment"}, true},
	}

	for _, tt := range tests {
		err := tt.action.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v; wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestActionKindIsValid(t *testing.T) {
	for _, k := range ActionKinds {
		if !k.IsValid() {
			t.Errorf("expected %q to be valid", k)
		}
	}
	for _, k := range []ActionKind{"", "clik", "type", "Navigate"} {
		if k.IsValid() {
			t.Errorf("expected %q to be invalid", k)
		}
	}
}

func TestActionDescribe(t *testing.T) {
	tests := []struct {
		action   Action
		expected string
	}{
		{Action{Kind: ActionKindNavigate, URL: "https://example.com/login"}, "Navigate to https://example.com/login"},
		{Action{Kind: ActionKindClick, Selector: "#username"}, "Click on #username"},
		{Action{Kind: ActionKindFill, Selector: "#username", Value: "x"}, "Type in #username"},
		{Action{Kind: ActionKindSelect, Selector: "#notification-frequency", Value: "daily"}, "Select option in #notification-frequency"},
		{Action{Kind: ActionKindWait, Selector: ".dashboard-container"}, "Wait for .dashboard-container"},
		{Action{Kind: ActionKindPress, Selector: ".profile-name", Value: "Enter"}, "Press Enter on .profile-name"},
		{Action{Kind: ActionKindUpload, Selector: "#avatar", Files: []string{"me.png"}}, "Upload file to #avatar"},
	}

	for _, tt := range tests {
		if result := tt.action.Describe(); result != tt.expected {
			t.Errorf("Describe() = %q; want %q", result, tt.expected)
		}
	}
}

func TestActionTarget(t *testing.T) {
	nav := Action{Kind: ActionKindNavigate, URL: "https://example.com", Selector: "#ignored"}
	if nav.Target() != "https://example.com" {
		t.Errorf("expected url as target, got %q", nav.Target())
	}
	click := Action{Kind: ActionKindClick, Selector: ".save-button"}
	if click.Target() != ".save-button" {
		t.Errorf("expected selector as target, got %q", click.Target())
	}
}
