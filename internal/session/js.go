package session

import "errors"

// The snippets below are called with the target element as this, both by
// chromedp's CallFunctionOnNode and by rod's Element.Eval.

// clearFieldJS empties a text input, a textarea or a contenteditable element
// and fires an input event. It returns false for anything else.
const clearFieldJS = `function() {
	var nonText = ['checkbox', 'radio', 'file', 'submit', 'button', 'image', 'reset', 'hidden', 'range', 'color'];
	if (this.tagName === 'INPUT' || this.tagName === 'TEXTAREA') {
		if (this.readOnly || this.disabled) {
			return false;
		}
		if (this.tagName === 'INPUT' && nonText.indexOf((this.type || 'text').toLowerCase()) !== -1) {
			return false;
		}
		this.value = '';
	} else if (this.isContentEditable) {
		this.textContent = '';
	} else {
		return false;
	}
	this.dispatchEvent(new Event('input', { bubbles: true }));
	return true;
}`

// selectOptionJS selects the first option of a <select> whose value or, failing
// that, whose label equals value and fires the events a user selection fires.
const selectOptionJS = `function(value) {
	if (this.tagName !== 'SELECT') {
		return false;
	}
	var match = null;
	var i;
	for (i = 0; i < this.options.length && !match; i++) {
		if (this.options[i].value === value) {
			match = this.options[i];
		}
	}
	for (i = 0; i < this.options.length && !match; i++) {
		if (this.options[i].label === value) {
			match = this.options[i];
		}
	}
	if (!match) {
		return false;
	}
	match.selected = true;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// checkStateJS reports whether the element is a checkbox or radio button and
// whether it is checked. The result decodes into a checkState.
const checkStateJS = `function() {
	var type = this.tagName === 'INPUT' ? (this.type || '').toLowerCase() : '';
	return {
		checkable: type === 'checkbox' || type === 'radio',
		radio: type === 'radio',
		checked: !!this.checked
	};
}`

type checkState struct {
	Checkable bool `json:"checkable"`
	Radio     bool `json:"radio"`
	Checked   bool `json:"checked"`
}

// needsClick reports whether the element has to be clicked to become checked
// (or unchecked if want is false).
func (st checkState) needsClick(want bool) (bool, error) {
	if !st.Checkable {
		return false, errors.New("not a checkbox or radio button")
	}
	if st.Checked == want {
		return false, nil
	}
	if st.Radio && !want {
		return false, errors.New("cannot uncheck radio button")
	}
	return true, nil
}

// setChecked clicks an element if needed and makes sure the click had the
// wanted effect. read returns the current state of the element.
func setChecked(want bool, read func() (checkState, error), click func() error) error {
	st, err := read()
	if err != nil {
		return err
	}
	need, err := st.needsClick(want)
	if err != nil || !need {
		return err
	}
	if err := click(); err != nil {
		return err
	}
	if st, err = read(); err != nil {
		return err
	}
	if st.Checked != want {
		return errors.New("checked state did not change")
	}
	return nil
}
