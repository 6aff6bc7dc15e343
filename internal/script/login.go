package script

import "github.com/jakopako/replayr/internal/types"

// LoginFlowName is the name of the built-in script.
const LoginFlowName = "login-flow"

// LoginFlow returns the built-in script that logs in on example.com and
// changes the notification settings.
func LoginFlow() *Script {
	return &Script{
		Name: LoginFlowName,
		Actions: []types.Action{
			{Kind: types.ActionKindNavigate, URL: "https://example.com/login", Comment: "Open the login page"},
			{Kind: types.ActionKindClick, Selector: "#username"},
			{Kind: types.ActionKindFill, Selector: "#username", Value: "testuser@example.com"},
			{Kind: types.ActionKindClick, Selector: "#password"},
			{Kind: types.ActionKindFill, Selector: "#password", Value: "securepassword123"},
			{Kind: types.ActionKindClick, Selector: `button[type="submit"]`, Comment: "Submit the login form"},
			{Kind: types.ActionKindWait, Selector: ".dashboard-container"},
			{Kind: types.ActionKindClick, Selector: ".profile-menu"},
			{Kind: types.ActionKindClick, Selector: ".settings-link"},
			{Kind: types.ActionKindNavigate, URL: "https://example.com/settings"},
			{Kind: types.ActionKindClick, Selector: "#email-preferences"},
			{Kind: types.ActionKindSelect, Selector: "#notification-frequency", Value: "daily"},
			{Kind: types.ActionKindClick, Selector: ".save-button", Comment: "Save the preferences"},
		},
	}
}
