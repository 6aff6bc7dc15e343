// Package export renders scripts as Playwright tests.
package export

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jakopako/replayr/internal/script"
	"github.com/jakopako/replayr/internal/types"
	"github.com/jakopako/replayr/internal/utils"
)

// Language is a target language of the exported code.
// See below constants for possible languages.
type Language string

const (
	JAVASCRIPT_LANGUAGE Language = "javascript"
	TYPESCRIPT_LANGUAGE Language = "typescript"
	PYTHON_LANGUAGE     Language = "python"
	JAVA_LANGUAGE       Language = "java"
)

// Languages lists all supported languages.
var Languages = []Language{
	JAVASCRIPT_LANGUAGE,
	TYPESCRIPT_LANGUAGE,
	PYTHON_LANGUAGE,
	JAVA_LANGUAGE,
}

const defaultStartURL = "https://example.com"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// dialect describes how a language spells a Playwright test.
type dialect struct {
	indent  string
	comment string
	// method converts a camelCase Playwright method name to the language's spelling.
	method func(string) string
	quote  func(string) string
	// stmt wraps a call expression on the page into a statement.
	stmt            func(call string) string
	gotoMethod      string
	rightClickExtra string
	// locatorRightClickExtra is rightClickExtra for a call on a locator.
	locatorRightClickExtra string
	// files renders the argument of setInputFiles.
	files  func([]string) string
	header func(name, startURL string) string
	footer string
}

var (
	singleQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	doubleQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
)

func singleQuote(s string) string { return "'" + singleQuoter.Replace(s) + "'" }
func doubleQuote(s string) string { return `"` + doubleQuoter.Replace(s) + `"` }

func camel(s string) string { return s }

// fileList renders a single file as a string and more files as a list literal.
func fileList(quote func(string) string) func([]string) string {
	return func(files []string) string {
		if len(files) == 1 {
			return quote(files[0])
		}
		quoted := make([]string, len(files))
		for i, f := range files {
			quoted[i] = quote(f)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	}
}

func javaPaths(files []string) string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = fmt.Sprintf("Paths.get(%s)", doubleQuote(f))
	}
	if len(paths) == 1 {
		return paths[0]
	}
	return "new Path[]{" + strings.Join(paths, ", ") + "}"
}

var upperRun = regexp.MustCompile(`([a-z0-9])([A-Z])`)

func snake(s string) string {
	return strings.ToLower(upperRun.ReplaceAllString(s, "${1}_${2}"))
}

// Identifier turns a script name into a lower case identifier, eg login_flow.
func Identifier(name string) string {
	id := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if id == "" {
		return "script"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "script_" + id
	}
	return id
}

// ClassName turns a script name into a Java class name prefix, eg LoginFlow.
func ClassName(name string) string {
	var b strings.Builder
	for _, part := range nonAlnum.Split(name, -1) {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	c := b.String()
	if c == "" || (c[0] >= '0' && c[0] <= '9') {
		c = "Script" + c
	}
	return c
}

func jsHeader(importLine string) func(string, string) string {
	return func(name, startURL string) string {
		return fmt.Sprintf(`%s

test(%s, async ({ page }) => {
  // Navigate to the starting URL
  await page.goto(%s);

`, importLine, singleQuote("Recorded Test - "+name), singleQuote(startURL))
	}
}

var dialects = map[Language]dialect{
	JAVASCRIPT_LANGUAGE: {
		indent:                 "  ",
		comment:                "//",
		method:                 camel,
		quote:                  singleQuote,
		stmt:                   func(call string) string { return "await page." + call + ";" },
		gotoMethod:             "goto",
		rightClickExtra:        "{ button: 'right' }",
		locatorRightClickExtra: "{ button: 'right' }",
		files:                  fileList(singleQuote),
		header:                 jsHeader(`const { test, expect } = require('@playwright/test');`),
		footer: `  // Add your assertions here
  // await expect(page.locator('selector')).toBeVisible();
});
`,
	},
	TYPESCRIPT_LANGUAGE: {
		indent:                 "  ",
		comment:                "//",
		method:                 camel,
		quote:                  singleQuote,
		stmt:                   func(call string) string { return "await page." + call + ";" },
		gotoMethod:             "goto",
		rightClickExtra:        "{ button: 'right' }",
		locatorRightClickExtra: "{ button: 'right' }",
		files:                  fileList(singleQuote),
		header:                 jsHeader(`import { test, expect } from '@playwright/test';`),
		footer: `  // Add your assertions here
  // await expect(page.locator('selector')).toBeVisible();
});
`,
	},
	PYTHON_LANGUAGE: {
		indent:                 "        ",
		comment:                "#",
		method:                 snake,
		quote:                  singleQuote,
		stmt:                   func(call string) string { return "page." + call },
		gotoMethod:             "goto",
		rightClickExtra:        "button='right'",
		locatorRightClickExtra: "button='right'",
		files:                  fileList(singleQuote),
		header: func(name, startURL string) string {
			return fmt.Sprintf(`from playwright.sync_api import sync_playwright, expect


def test_recorded_%s():
    with sync_playwright() as p:
        browser = p.chromium.launch()
        page = browser.new_page()

        # Navigate to the starting URL
        page.goto(%s)

`, Identifier(name), singleQuote(startURL))
		},
		footer: `        # Add your assertions here
        # expect(page.locator('selector')).to_be_visible()

        browser.close()
`,
	},
	JAVA_LANGUAGE: {
		indent:                 "            ",
		comment:                "//",
		method:                 camel,
		quote:                  doubleQuote,
		stmt:                   func(call string) string { return "page." + call + ";" },
		gotoMethod:             "navigate",
		rightClickExtra:        "new Page.ClickOptions().setButton(MouseButton.RIGHT)",
		locatorRightClickExtra: "new Locator.ClickOptions().setButton(MouseButton.RIGHT)",
		files:                  javaPaths,
		header: func(name, startURL string) string {
			return fmt.Sprintf(`import com.microsoft.playwright.*;
import com.microsoft.playwright.options.*;
import java.nio.file.*;

public class %sTest {
    public static void main(String[] args) {
        try (Playwright playwright = Playwright.create()) {
            Browser browser = playwright.chromium().launch();
            Page page = browser.newPage();

            // Navigate to the starting URL
            page.navigate(%s);

`, ClassName(name), doubleQuote(startURL))
		},
		footer: `            // Add your assertions here
            // page.locator("selector").shouldBeVisible();

            browser.close();
        }
    }
}
`,
	},
}

// ParseLanguage returns the language called s. Some common aliases are accepted.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(s))
	switch l {
	case "js":
		return JAVASCRIPT_LANGUAGE, nil
	case "ts":
		return TYPESCRIPT_LANGUAGE, nil
	case "py":
		return PYTHON_LANGUAGE, nil
	}
	if _, ok := dialects[l]; ok {
		return l, nil
	}
	names := make([]string, len(Languages))
	for i, ll := range Languages {
		names[i] = string(ll)
	}
	if suggestion, ok := utils.ClosestMatch(s, names); ok {
		return "", fmt.Errorf("language '%s' not supported, did you mean '%s'?", s, suggestion)
	}
	return "", fmt.Errorf("language '%s' not supported, must be one of [%s]", s, strings.Join(names, ", "))
}

// FileName returns the conventional test file name for a script in language l.
func FileName(name string, l Language) string {
	switch l {
	case TYPESCRIPT_LANGUAGE:
		return utils.SafeFilename(name) + ".spec.ts"
	case PYTHON_LANGUAGE:
		return "test_" + Identifier(name) + ".py"
	case JAVA_LANGUAGE:
		return ClassName(name) + "Test.java"
	default:
		return utils.SafeFilename(name) + ".spec.js"
	}
}

// Clean drops actions that would only repeat the previous step: an action equal
// to the one before it and a navigation to the url of the previous navigation.
// startURL counts as the first navigation.
func Clean(actions []types.Action, startURL string) []types.Action {
	cleaned := []types.Action{}
	lastURL := startURL
	var last *types.Action
	for i := range actions {
		a := actions[i]
		if last != nil && sameStep(*last, a) {
			continue
		}
		if a.Kind == types.ActionKindNavigate {
			if a.URL == lastURL {
				continue
			}
			lastURL = a.URL
		}
		cleaned = append(cleaned, a)
		last = &actions[i]
	}
	return cleaned
}

func sameStep(a, b types.Action) bool {
	return a.Kind == b.Kind && a.Selector == b.Selector && a.Frame == b.Frame &&
		a.URL == b.URL && a.Value == b.Value && slices.Equal(a.Files, b.Files)
}

// Render returns the Playwright test for sc in language l.
func Render(sc *script.Script, l Language) (string, error) {
	d, ok := dialects[l]
	if !ok {
		return "", fmt.Errorf("language '%s' not supported", l)
	}
	startURL := sc.StartURL()
	if startURL == "" {
		startURL = defaultStartURL
	}

	var b strings.Builder
	b.WriteString(d.header(sc.Name, startURL))
	for _, a := range Clean(sc.Actions, startURL) {
		call, err := d.call(a)
		if err != nil {
			return "", err
		}
		comment := a.Comment
		if comment == "" {
			comment = a.Describe()
		}
		for _, line := range strings.Split(comment, "\n") {
			fmt.Fprintf(&b, "%s%s %s\n", d.indent, d.comment, line)
		}
		fmt.Fprintf(&b, "%s%s\n\n", d.indent, d.stmt(call))
	}
	b.WriteString(d.footer)
	return b.String(), nil
}

// call returns the page method call that performs a.
func (d dialect) call(a types.Action) (string, error) {
	if a.Frame != "" && a.Kind != types.ActionKindNavigate {
		return d.frameCall(a)
	}
	sel := d.quote(a.Selector)
	switch a.Kind {
	case types.ActionKindNavigate:
		return fmt.Sprintf("%s(%s)", d.gotoMethod, d.quote(a.URL)), nil
	case types.ActionKindClick:
		return fmt.Sprintf("click(%s)", sel), nil
	case types.ActionKindDoubleClick:
		return fmt.Sprintf("dblclick(%s)", sel), nil
	case types.ActionKindRightClick:
		return fmt.Sprintf("click(%s, %s)", sel, d.rightClickExtra), nil
	case types.ActionKindFill:
		return fmt.Sprintf("fill(%s, %s)", sel, d.quote(a.Value)), nil
	case types.ActionKindSelect:
		return fmt.Sprintf("%s(%s, %s)", d.method("selectOption"), sel, d.quote(a.Value)), nil
	case types.ActionKindWait:
		return fmt.Sprintf("%s(%s)", d.method("waitForSelector"), sel), nil
	case types.ActionKindHover:
		return fmt.Sprintf("hover(%s)", sel), nil
	case types.ActionKindFocus:
		return fmt.Sprintf("focus(%s)", sel), nil
	case types.ActionKindCheck:
		return fmt.Sprintf("check(%s)", sel), nil
	case types.ActionKindUncheck:
		return fmt.Sprintf("uncheck(%s)", sel), nil
	case types.ActionKindPress:
		return fmt.Sprintf("press(%s, %s)", sel, d.quote(a.Value)), nil
	case types.ActionKindScroll:
		return fmt.Sprintf("locator(%s).%s()", sel, d.method("scrollIntoViewIfNeeded")), nil
	case types.ActionKindUpload:
		return fmt.Sprintf("%s(%s, %s)", d.method("setInputFiles"), sel, d.files(a.Files)), nil
	default:
		return "", fmt.Errorf("cannot export action of kind '%s'", a.Kind)
	}
}

// frameCall returns the call that performs a on a locator inside the frame of a.
func (d dialect) frameCall(a types.Action) (string, error) {
	var call string
	switch a.Kind {
	case types.ActionKindClick:
		call = "click()"
	case types.ActionKindDoubleClick:
		call = "dblclick()"
	case types.ActionKindRightClick:
		call = fmt.Sprintf("click(%s)", d.locatorRightClickExtra)
	case types.ActionKindFill:
		call = fmt.Sprintf("fill(%s)", d.quote(a.Value))
	case types.ActionKindSelect:
		call = fmt.Sprintf("%s(%s)", d.method("selectOption"), d.quote(a.Value))
	case types.ActionKindWait:
		call = d.method("waitFor") + "()"
	case types.ActionKindHover:
		call = "hover()"
	case types.ActionKindFocus:
		call = "focus()"
	case types.ActionKindCheck:
		call = "check()"
	case types.ActionKindUncheck:
		call = "uncheck()"
	case types.ActionKindPress:
		call = fmt.Sprintf("press(%s)", d.quote(a.Value))
	case types.ActionKindScroll:
		call = d.method("scrollIntoViewIfNeeded") + "()"
	case types.ActionKindUpload:
		call = fmt.Sprintf("%s(%s)", d.method("setInputFiles"), d.files(a.Files))
	default:
		return "", fmt.Errorf("cannot export action of kind '%s'", a.Kind)
	}
	return fmt.Sprintf("%s(%s).locator(%s).%s", d.method("frameLocator"), d.quote(a.Frame), d.quote(a.Selector), call), nil
}
