package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/replayr/internal/log"
	"golang.org/x/net/html"
)

// input types that cannot be filled with text
var nonTextInputs = map[string]bool{
	"checkbox": true,
	"radio":    true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"file":     true,
	"hidden":   true,
	"range":    true,
	"color":    true,
}

// Call is a single call made on a MockSession.
type Call struct {
	Method string
	Target string
	Value  string
}

// The MockSession serves configured pages from memory and applies
// interactions to a parsed copy of the page. Every navigation parses the
// page content again, so state does not survive a reload.
// Iframes are supported if their src is a configured page or if they carry
// their content in a srcdoc attribute.
type MockSession struct {
	*Config
	pagesMap map[string]string
	url      string
	doc      *goquery.Document
	frameURL string
	frame    *goquery.Document
	focused  *goquery.Selection
	calls    []Call
	logger   *slog.Logger
	closed   bool
}

func NewMockSession(ctx context.Context, c *Config) (*MockSession, error) {
	m := &MockSession{
		Config:   c,
		pagesMap: map[string]string{},
		logger:   log.LoggerFromContext(ctx).With(slog.String("session", string(MOCK_SESSION_TYPE))),
	}
	for _, p := range c.MockPages {
		if _, found := m.pagesMap[p.URL]; found {
			return nil, fmt.Errorf("mock page %s defined more than once", p.URL)
		}
		m.pagesMap[p.URL] = p.Content
	}
	return m, nil
}

func (m *MockSession) record(method, target, value string) error {
	if m.closed {
		return ErrClosed
	}
	m.calls = append(m.calls, Call{Method: method, Target: target, Value: value})
	return nil
}

func parsePage(urlStr, content string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigationFailed, urlStr, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

func (m *MockSession) load(urlStr string) error {
	content, ok := m.pagesMap[urlStr]
	if !ok {
		return fmt.Errorf("%w: %s: page not found", ErrNavigationFailed, urlStr)
	}
	doc, err := parsePage(urlStr, content)
	if err != nil {
		return err
	}
	m.doc = doc
	m.url = urlStr
	m.frame = nil
	m.frameURL = ""
	m.focused = nil
	m.logger.Debug(fmt.Sprintf("loaded page %s", urlStr))
	return nil
}

// active returns the document selectors are resolved in and its url.
func (m *MockSession) active() (*goquery.Document, string) {
	if m.frame != nil {
		return m.frame, m.frameURL
	}
	return m.doc, m.url
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}

// follow loads the page that href points to, relative to the current
// document. Inside a frame the frame is navigated. Targets that are not
// configured are ignored, the page stays as it is.
func (m *MockSession) follow(href string) error {
	_, base := m.active()
	target, err := resolve(base, href)
	if err != nil {
		return err
	}
	content, ok := m.pagesMap[target]
	if !ok {
		m.logger.Debug(fmt.Sprintf("not following %s, no such mock page", target))
		return nil
	}
	if m.frame == nil {
		return m.load(target)
	}
	doc, err := parsePage(target, content)
	if err != nil {
		return err
	}
	m.frame = doc
	m.frameURL = target
	m.focused = nil
	m.logger.Debug(fmt.Sprintf("loaded page %s in frame", target))
	return nil
}

func (m *MockSession) find(selector string) (*goquery.Selection, error) {
	doc, _ := m.active()
	if doc == nil {
		return nil, fmt.Errorf("%w: %s: no page loaded", ErrTargetNotFound, selector)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, selector)
	}
	return sel.First(), nil
}

func isHidden(sel *goquery.Selection) bool {
	hidden := false
	sel.AddSelection(sel.Parents()).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, ok := s.Attr("hidden"); ok {
			hidden = true
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(s.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			hidden = true
			return false
		}
		return true
	})
	return hidden
}

// findInteractable locates a visible, enabled element.
func (m *MockSession) findInteractable(selector string) (*goquery.Selection, error) {
	el, err := m.find(selector)
	if err != nil {
		return nil, err
	}
	if isHidden(el) {
		return nil, fmt.Errorf("%w: %s: element is not visible", ErrInteraction, selector)
	}
	if _, disabled := el.Attr("disabled"); disabled {
		return nil, fmt.Errorf("%w: %s: element is disabled", ErrInteraction, selector)
	}
	return el, nil
}

func inputType(el *goquery.Selection) string {
	return strings.ToLower(el.AttrOr("type", "text"))
}

func isSubmitControl(el *goquery.Selection) bool {
	switch goquery.NodeName(el) {
	case "button":
		t := strings.ToLower(el.AttrOr("type", "submit"))
		return t == "submit"
	case "input":
		t := inputType(el)
		return t == "submit" || t == "image"
	}
	return false
}

func isTextInput(el *goquery.Selection) bool {
	return goquery.NodeName(el) == "input" && !nonTextInputs[inputType(el)]
}

func (m *MockSession) submit(el *goquery.Selection) error {
	form := el.Closest("form")
	if form.Length() == 0 {
		return nil
	}
	_, base := m.active()
	return m.follow(form.AttrOr("action", base))
}

// activate applies the default action of a click on el.
func (m *MockSession) activate(el *goquery.Selection) error {
	m.focused = el
	switch {
	case goquery.NodeName(el) == "input" && inputType(el) == "checkbox":
		if _, checked := el.Attr("checked"); checked {
			el.RemoveAttr("checked")
		} else {
			el.SetAttr("checked", "checked")
		}
	case goquery.NodeName(el) == "input" && inputType(el) == "radio":
		m.checkRadio(el)
	case isSubmitControl(el):
		return m.submit(el)
	}
	if link := el.Closest("a[href]"); link.Length() > 0 {
		return m.follow(link.AttrOr("href", ""))
	}
	return nil
}

func (m *MockSession) checkRadio(el *goquery.Selection) {
	if name, ok := el.Attr("name"); ok {
		doc, _ := m.active()
		doc.Find("input[type=radio]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("name", "") == name
		}).RemoveAttr("checked")
	}
	el.SetAttr("checked", "checked")
}

func (m *MockSession) Navigate(ctx context.Context, urlStr string) error {
	if err := m.record("navigate", urlStr, ""); err != nil {
		return err
	}
	return m.load(urlStr)
}

func (m *MockSession) Click(ctx context.Context, selector string) error {
	if err := m.record("click", selector, ""); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	return m.activate(el)
}

func (m *MockSession) DoubleClick(ctx context.Context, selector string) error {
	if err := m.record("double_click", selector, ""); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	m.focused = el
	return nil
}

func (m *MockSession) RightClick(ctx context.Context, selector string) error {
	if err := m.record("right_click", selector, ""); err != nil {
		return err
	}
	_, err := m.findInteractable(selector)
	return err
}

func (m *MockSession) Fill(ctx context.Context, selector, value string) error {
	if err := m.record("fill", selector, value); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	if _, readonly := el.Attr("readonly"); readonly {
		return fmt.Errorf("%w: %s: element is readonly", ErrInteraction, selector)
	}
	switch {
	case isTextInput(el):
		el.SetAttr("value", value)
	case goquery.NodeName(el) == "textarea":
		el.SetText(value)
	case el.AttrOr("contenteditable", "false") != "false":
		el.SetText(value)
	default:
		return fmt.Errorf("%w: %s: element is not an <input>, <textarea> or [contenteditable] element", ErrInteraction, selector)
	}
	m.focused = el
	return nil
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

func (m *MockSession) SelectOption(ctx context.Context, selector, value string) error {
	if err := m.record("select", selector, value); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "select" {
		return fmt.Errorf("%w: %s: element is not a <select> element", ErrInteraction, selector)
	}
	options := el.Find("option")
	match := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
		return optionValue(o) == value
	})
	if match.Length() == 0 {
		match = options.FilterFunction(func(_ int, o *goquery.Selection) bool {
			return strings.TrimSpace(o.AttrOr("label", o.Text())) == value
		})
	}
	if match.Length() == 0 {
		return fmt.Errorf("%w: %s: no option matching %q", ErrInteraction, selector, value)
	}
	if _, multiple := el.Attr("multiple"); !multiple {
		options.RemoveAttr("selected")
	}
	match.First().SetAttr("selected", "selected")
	return nil
}

func (m *MockSession) WaitFor(ctx context.Context, selector string) error {
	if err := m.record("wait", selector, ""); err != nil {
		return err
	}
	el, err := m.find(selector)
	if err != nil {
		return err
	}
	if isHidden(el) {
		return fmt.Errorf("%w: %s: element is not visible", ErrTargetNotFound, selector)
	}
	return nil
}

func (m *MockSession) Hover(ctx context.Context, selector string) error {
	if err := m.record("hover", selector, ""); err != nil {
		return err
	}
	_, err := m.findInteractable(selector)
	return err
}

func (m *MockSession) Focus(ctx context.Context, selector string) error {
	if err := m.record("focus", selector, ""); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	m.focused = el
	return nil
}

func (m *MockSession) SetChecked(ctx context.Context, selector string, checked bool) error {
	method := "uncheck"
	if checked {
		method = "check"
	}
	if err := m.record(method, selector, ""); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "input" || (inputType(el) != "checkbox" && inputType(el) != "radio") {
		return fmt.Errorf("%w: %s: not a checkbox or radio button", ErrInteraction, selector)
	}
	_, current := el.Attr("checked")
	if current == checked {
		return nil
	}
	if inputType(el) == "radio" && !checked {
		return fmt.Errorf("%w: %s: cannot uncheck radio button", ErrInteraction, selector)
	}
	return m.activate(el)
}

func (m *MockSession) Press(ctx context.Context, selector, key string) error {
	if err := m.record("press", selector, key); err != nil {
		return err
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	m.focused = el
	if strings.EqualFold(key, "enter") && isTextInput(el) {
		return m.submit(el)
	}
	return nil
}

func (m *MockSession) ScrollIntoView(ctx context.Context, selector string) error {
	if err := m.record("scroll", selector, ""); err != nil {
		return err
	}
	_, err := m.find(selector)
	return err
}

func (m *MockSession) Upload(ctx context.Context, selector string, files []string) error {
	if err := m.record("upload", selector, strings.Join(files, ",")); err != nil {
		return err
	}
	paths, err := uploadPaths(files)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
	}
	el, err := m.findInteractable(selector)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "input" || inputType(el) != "file" {
		return fmt.Errorf("%w: %s: element is not an <input type=\"file\"> element", ErrInteraction, selector)
	}
	if _, multiple := el.Attr("multiple"); !multiple && len(paths) > 1 {
		return fmt.Errorf("%w: %s: element does not accept multiple files", ErrInteraction, selector)
	}
	// browsers only expose the name of the first file as value
	el.SetAttr("value", filepath.Base(paths[0]))
	m.focused = el
	return nil
}

func (m *MockSession) SwitchFrame(ctx context.Context, selector string) error {
	if err := m.record("frame", selector, ""); err != nil {
		return err
	}
	m.frame = nil
	m.frameURL = ""
	if selector == "" {
		return nil
	}
	el, err := m.find(selector)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "iframe" {
		return fmt.Errorf("%w: %s: element is not an <iframe> element", ErrInteraction, selector)
	}
	frameURL, content := m.url, ""
	if srcdoc, ok := el.Attr("srcdoc"); ok {
		content = srcdoc
	} else {
		if frameURL, err = resolve(m.url, el.AttrOr("src", "")); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInteraction, selector, err)
		}
		var found bool
		if content, found = m.pagesMap[frameURL]; !found {
			return fmt.Errorf("%w: %s: frame page %s not found", ErrInteraction, selector, frameURL)
		}
	}
	doc, err := parsePage(frameURL, content)
	if err != nil {
		return err
	}
	m.frame = doc
	m.frameURL = frameURL
	m.focused = nil
	m.logger.Debug(fmt.Sprintf("switched to frame %s", selector))
	return nil
}

// Snapshot renders the current state of the page as html.
func (m *MockSession) Snapshot(ctx context.Context) (*Snapshot, error) {
	if m.doc == nil {
		return nil, errors.New("no page loaded")
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, m.doc.Get(0)); err != nil {
		return nil, err
	}
	return &Snapshot{Data: buf.Bytes(), Ext: "html"}, nil
}

// Close marks the session as closed. The last page stays available to the
// inspection methods below.
func (m *MockSession) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Debug("session closed")
	return nil
}

// URL returns the url of the currently loaded page.
func (m *MockSession) URL() string {
	return m.url
}

// Calls returns all calls made on the session so far, in order.
func (m *MockSession) Calls() []Call {
	return append([]Call(nil), m.calls...)
}

// Closed reports whether Close has been called.
func (m *MockSession) Closed() bool {
	return m.closed
}

// Frame returns the url of the document in the current frame, or an empty
// string if the main document is active.
func (m *MockSession) Frame() string {
	if m.frame == nil {
		return ""
	}
	return m.frameURL
}

// Focused reports whether the element matching selector has the focus.
// Like all inspection methods it looks at the active frame.
func (m *MockSession) Focused(selector string) bool {
	doc, _ := m.active()
	if m.focused == nil || doc == nil {
		return false
	}
	return m.focused.IsSelection(doc.Find(selector).First())
}

// Value returns the current value of a form control.
func (m *MockSession) Value(selector string) (string, error) {
	el, err := m.find(selector)
	if err != nil {
		return "", err
	}
	switch goquery.NodeName(el) {
	case "input":
		return el.AttrOr("value", ""), nil
	case "select":
		return m.SelectedValue(selector)
	default:
		return el.Text(), nil
	}
}

// SelectedValue returns the value of the selected option of a <select>.
// Without an explicitly selected option the first one is selected.
func (m *MockSession) SelectedValue(selector string) (string, error) {
	el, err := m.find(selector)
	if err != nil {
		return "", err
	}
	if goquery.NodeName(el) != "select" {
		return "", fmt.Errorf("%s is not a <select> element", selector)
	}
	opt := el.Find("option[selected]").First()
	if opt.Length() == 0 {
		opt = el.Find("option").First()
	}
	if opt.Length() == 0 {
		return "", nil
	}
	return optionValue(opt), nil
}

// Checked reports whether a checkbox or radio button is checked.
func (m *MockSession) Checked(selector string) (bool, error) {
	el, err := m.find(selector)
	if err != nil {
		return false, err
	}
	_, checked := el.Attr("checked")
	return checked, nil
}
