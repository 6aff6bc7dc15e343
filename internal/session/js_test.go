package session

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"
)

// fakeDOM builds plain objects that stand in for DOM elements.
const fakeDOM = `
function Event(type, init) {
	this.type = type;
	this.bubbles = !!(init && init.bubbles);
}
function element(props) {
	var el = {
		events: [],
		dispatchEvent: function(e) {
			this.events.push(e.type);
			return true;
		}
	};
	for (var k in props) {
		el[k] = props[k];
	}
	return el;
}
`

// callOnElement calls the function fn with this bound to the element built by
// the expression element and returns the result and the element.
func callOnElement(t *testing.T, fn, element string, args ...interface{}) (goja.Value, *goja.Object) {
	t.Helper()
	vm := goja.New()
	if _, err := vm.RunString(fakeDOM); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := vm.RunString("(" + fn + ")")
	if err != nil {
		t.Fatalf("failed to compile function: %v", err)
	}
	f, ok := goja.AssertFunction(v)
	if !ok {
		t.Fatalf("expected a function, got %v", v)
	}
	el, err := vm.RunString("(" + element + ")")
	if err != nil {
		t.Fatalf("failed to build element: %v", err)
	}
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = vm.ToValue(a)
	}
	res, err := f(el, vals...)
	if err != nil {
		t.Fatalf("unexpected error calling function: %v", err)
	}
	return res, el.ToObject(vm)
}

func events(el *goja.Object) []string {
	var evs []string
	for _, e := range el.Get("events").Export().([]interface{}) {
		evs = append(evs, e.(string))
	}
	return evs
}

func TestClearFieldJS(t *testing.T) {
	tests := []struct {
		name      string
		element   string
		field     string
		wantOK    bool
		wantValue string
	}{
		{"typed text", `element({tagName: 'INPUT', type: 'text', value: 'typed by the user'})`, "value", true, ""},
		{"input without type", `element({tagName: 'INPUT', value: 'x'})`, "value", true, ""},
		{"email", `element({tagName: 'INPUT', type: 'email', value: 'a@b.c'})`, "value", true, ""},
		{"empty textarea", `element({tagName: 'TEXTAREA', value: ''})`, "value", true, ""},
		{"textarea", `element({tagName: 'TEXTAREA', value: 'old bio'})`, "value", true, ""},
		{"contenteditable", `element({tagName: 'DIV', isContentEditable: true, textContent: 'draft'})`, "textContent", true, ""},
		{"checkbox", `element({tagName: 'INPUT', type: 'checkbox', value: 'on'})`, "value", false, "on"},
		{"file input", `element({tagName: 'INPUT', type: 'FILE', value: 'a.png'})`, "value", false, "a.png"},
		{"readonly", `element({tagName: 'INPUT', type: 'text', readOnly: true, value: 'locked'})`, "value", false, "locked"},
		{"disabled", `element({tagName: 'TEXTAREA', disabled: true, value: 'off'})`, "value", false, "off"},
		{"plain div", `element({tagName: 'DIV', isContentEditable: false, textContent: 'text'})`, "textContent", false, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, el := callOnElement(t, clearFieldJS, tt.element)
			if res.ToBoolean() != tt.wantOK {
				t.Errorf("expected %v, got %v", tt.wantOK, res)
			}
			if got := el.Get(tt.field).String(); got != tt.wantValue {
				t.Errorf("expected %s %q, got %q", tt.field, tt.wantValue, got)
			}
			var wantEvents []string
			if tt.wantOK {
				wantEvents = []string{"input"}
			}
			if diff := cmp.Diff(wantEvents, events(el)); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const frequencySelect = `element({tagName: 'SELECT', options: [
	{value: 'never', label: 'Never', selected: false},
	{value: 'daily', label: 'Every day', selected: false},
	{value: 'Every day', label: 'Custom', selected: false}
]})`

func TestSelectOptionJS(t *testing.T) {
	tests := []struct {
		name     string
		element  string
		value    string
		wantOK   bool
		selected int
	}{
		{"by value", frequencySelect, "daily", true, 1},
		{"value before label", frequencySelect, "Every day", true, 2},
		{"by label", frequencySelect, "Custom", true, 2},
		{"by label only", frequencySelect, "Never", true, 0},
		{"no match", frequencySelect, "hourly", false, -1},
		{"not a select", `element({tagName: 'INPUT', options: []})`, "daily", false, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, el := callOnElement(t, selectOptionJS, tt.element, tt.value)
			if res.ToBoolean() != tt.wantOK {
				t.Fatalf("expected %v, got %v", tt.wantOK, res)
			}
			if !tt.wantOK {
				if len(events(el)) != 0 {
					t.Errorf("expected no events, got %v", events(el))
				}
				return
			}
			options := el.Get("options").Export().([]interface{})
			for i, o := range options {
				selected := o.(map[string]interface{})["selected"].(bool)
				if selected != (i == tt.selected) {
					t.Errorf("option %d: expected selected to be %v", i, i == tt.selected)
				}
			}
			if diff := cmp.Diff([]string{"input", "change"}, events(el)); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckStateJS(t *testing.T) {
	tests := []struct {
		element string
		want    checkState
	}{
		{`element({tagName: 'INPUT', type: 'checkbox', checked: true})`, checkState{Checkable: true, Checked: true}},
		{`element({tagName: 'INPUT', type: 'Radio', checked: false})`, checkState{Checkable: true, Radio: true}},
		{`element({tagName: 'INPUT', type: 'text'})`, checkState{}},
		{`element({tagName: 'BUTTON', type: 'checkbox', checked: true})`, checkState{Checked: true}},
	}
	for _, tt := range tests {
		res, _ := callOnElement(t, checkStateJS, tt.element)
		// decode the way the browser drivers do, as json
		b, err := json.Marshal(res.Export())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got checkState
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: state mismatch (-want +got):\n%s", tt.element, diff)
		}
	}
}

// fakeCheckable behaves like a checkbox or radio button on click.
type fakeCheckable struct {
	state    checkState
	clicks   int
	inert    bool
	clickErr error
}

func (f *fakeCheckable) read() (checkState, error) {
	return f.state, nil
}

func (f *fakeCheckable) click() error {
	f.clicks++
	if f.clickErr != nil {
		return f.clickErr
	}
	if f.inert || !f.state.Checkable {
		return nil
	}
	if f.state.Radio {
		f.state.Checked = true
	} else {
		f.state.Checked = !f.state.Checked
	}
	return nil
}

func TestSetChecked(t *testing.T) {
	checkbox := checkState{Checkable: true}
	radio := checkState{Checkable: true, Radio: true}
	checked := func(st checkState) checkState {
		st.Checked = true
		return st
	}
	clickErr := errors.New("node is detached")

	tests := []struct {
		name       string
		el         *fakeCheckable
		want       bool
		wantClicks int
		wantErr    string
	}{
		{"check checkbox", &fakeCheckable{state: checkbox}, true, 1, ""},
		{"checkbox already checked", &fakeCheckable{state: checked(checkbox)}, true, 0, ""},
		{"uncheck checkbox", &fakeCheckable{state: checked(checkbox)}, false, 1, ""},
		{"checkbox already unchecked", &fakeCheckable{state: checkbox}, false, 0, ""},
		{"check radio", &fakeCheckable{state: radio}, true, 1, ""},
		{"uncheck checked radio", &fakeCheckable{state: checked(radio)}, false, 0, "cannot uncheck radio button"},
		{"radio already unchecked", &fakeCheckable{state: radio}, false, 0, ""},
		{"not checkable", &fakeCheckable{}, true, 0, "not a checkbox or radio button"},
		{"click without effect", &fakeCheckable{state: checkbox, inert: true}, true, 1, "did not change"},
		{"click fails", &fakeCheckable{state: checkbox, clickErr: clickErr}, true, 1, clickErr.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := setChecked(tt.want, tt.el.read, tt.el.click)
			if tt.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if tt.el.clicks != tt.wantClicks {
				t.Errorf("expected %d clicks, got %d", tt.wantClicks, tt.el.clicks)
			}
			if tt.wantErr == "" && tt.el.state.Checked != tt.want {
				t.Errorf("expected checked to be %v", tt.want)
			}
		})
	}
}
