/*
replayr replays scripted browser interactions.

A script is a fixed list of actions (navigate, click, fill, select, wait, ...)
that is executed against a single browser page. Scripts are read from a yaml
configuration, the built-in login-flow script is always available.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/jakopako/replayr/internal/export"
	"github.com/jakopako/replayr/internal/log"
	"github.com/jakopako/replayr/internal/output"
	"github.com/jakopako/replayr/internal/runner"
	"github.com/jakopako/replayr/internal/script"
	"github.com/jakopako/replayr/internal/session"
	"github.com/jakopako/replayr/internal/utils"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

var version = "dev"

const defaultConfigPath = "./replayr.yaml"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store a snapshot of the page when a step fails."`

	Run    RunCmd    `cmd:"" help:"Run scripts"`
	List   ListCmd   `cmd:"" help:"List available scripts in the given configuration file(s)"`
	Show   ShowCmd   `cmd:"" help:"Print the configuration of a single script"`
	Export ExportCmd `cmd:"" help:"Export a script as Playwright test code"`
}

// loadConfig reads the configuration at path. A missing default config is not an
// error, only the built-in script is available then.
func loadConfig(path string) (*script.Config, error) {
	config, err := script.NewConfig(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		slog.Debug(fmt.Sprintf("no config found at %s, using built-in scripts only", path))
		return script.DefaultConfig()
	}
	return config, err
}

// selectScripts returns the script called name or all scripts if name is empty.
func selectScripts(config *script.Config, name string) ([]*script.Script, error) {
	if name != "" {
		s, err := config.Get(name)
		if err != nil {
			return nil, err
		}
		return []*script.Script{s}, nil
	}
	scripts := make([]*script.Script, 0, len(config.Scripts))
	for _, n := range config.Names() {
		scripts = append(scripts, config.Find(n))
	}
	return scripts, nil
}

type RunCmd struct {
	Config  string `short:"c" default:"./replayr.yaml" help:"The location of the configuration. Can be a directory containing config files or a single config file."`
	Name    string `short:"n" help:"The name of the script to be run, if only one of the configured ones should be run."`
	Session string `short:"s" help:"Override the configured session type (chrome, rod or mock)."`
	Summary bool   `short:"S" help:"Print a summary of all runs at the end."`
}

type result struct {
	name  string
	steps int
	err   error
}

func (rc *RunCmd) Run() error {
	config, err := loadConfig(rc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if rc.Session != "" {
		config.Session.Type = session.Type(rc.Session)
	}

	scripts, err := selectScripts(config, rc.Name)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	r := &runner.Runner{}
	if log.Debug {
		r.DebugDir = config.Session.DebugDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info(fmt.Sprintf("running %d scripts with session type %s", len(scripts), config.Session.Type))
	results, failed := runScripts(ctx, r, &config.Session, scripts)

	if rc.Summary {
		if err := printSummary(os.Stdout, results); err != nil {
			slog.Error(fmt.Sprintf("error while printing summary: %v", err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(scripts))
	}
	if len(results) < len(scripts) {
		return fmt.Errorf("interrupted after %d of %d scripts", len(results), len(scripts))
	}
	return nil
}

// runScripts runs the scripts one after the other. Once ctx is done no further
// script is started.
func runScripts(ctx context.Context, r *runner.Runner, c *session.Config, scripts []*script.Script) ([]result, int) {
	results := make([]result, 0, len(scripts))
	failed := 0
	for i, s := range scripts {
		if ctx.Err() != nil {
			slog.Warn(fmt.Sprintf("interrupted, skipping %d scripts", len(scripts)-i))
			break
		}
		logger := slog.With(slog.String("script", s.Name))
		logger.Info("starting script")
		err := r.RunScript(ctx, c, s)
		if err != nil {
			logger.Error(fmt.Sprintf("%v", err))
			failed++
		} else {
			logger.Info("script succeeded")
		}
		results = append(results, result{name: s.Name, steps: len(s.Actions), err: err})
	}
	return results, failed
}

func printSummary(w io.Writer, results []result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Steps", "Result")
	for _, r := range results {
		status := "ok"
		if r.err != nil {
			status = utils.ShortenString(r.err.Error(), 60)
		}
		if err := table.Append([]string{r.name, strconv.Itoa(r.steps), status}); err != nil {
			return err
		}
	}
	return table.Render()
}

type ListCmd struct {
	Config     string `short:"c" default:"./replayr.yaml" help:"The location of the configuration. Can be a directory containing config files or a single config file."`
	Completion bool   `short:"C" help:"If set to true, only the names are printed and errors are not."`
}

func (lc *ListCmd) Run() error {
	config, err := loadConfig(lc.Config)
	if err != nil {
		if lc.Completion {
			// in completion mode, we just return an empty output on error
			return nil
		}
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	if lc.Completion {
		for _, name := range config.Names() {
			fmt.Println(name)
		}
		return nil
	}
	return printList(os.Stdout, config)
}

func printList(w io.Writer, config *script.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Steps", "Start URL")
	for _, name := range config.Names() {
		s := config.Find(name)
		if err := table.Append([]string{s.Name, strconv.Itoa(len(s.Actions)), s.StartURL()}); err != nil {
			return err
		}
	}
	return table.Render()
}

type ShowCmd struct {
	Config string `short:"c" default:"./replayr.yaml" help:"The location of the configuration. Can be a directory containing config files or a single config file."`
	Name   string `short:"n" help:"The name of the script to show." required:""`
}

func (sc *ShowCmd) Run() error {
	config, err := loadConfig(sc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	s, err := config.Get(sc.Name)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	c := script.Config{
		Session: config.Session,
		Scripts: []script.Script{*s},
	}
	yamlData, err := yaml.Marshal(&c)
	if err != nil {
		slog.Error(fmt.Sprintf("error while marshalling. %v", err))
		return err
	}
	fmt.Print(string(yamlData))
	return nil
}

type ExportCmd struct {
	Config   string `short:"c" default:"./replayr.yaml" help:"The location of the configuration. Can be a directory containing config files or a single config file."`
	Name     string `short:"n" help:"The name of the script to export. All scripts are exported if not set."`
	Language string `short:"l" default:"javascript" help:"The language of the generated test (javascript, typescript, python or java)."`
	OutDir   string `short:"o" help:"The directory the generated tests are written to. If not set they are written to stdout."`
}

func (ec *ExportCmd) Run() error {
	lang, err := export.ParseLanguage(ec.Language)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	config, err := loadConfig(ec.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	scripts, err := selectScripts(config, ec.Name)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	wc := &output.WriterConfig{Type: output.STDOUT_WRITER_TYPE}
	if ec.OutDir != "" {
		wc = &output.WriterConfig{Type: output.FILE_WRITER_TYPE, FileDir: ec.OutDir}
	}
	writer, err := output.NewWriter(wc)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	for _, s := range scripts {
		code, err := export.Render(s, lang)
		if err != nil {
			slog.Error(fmt.Sprintf("%s: %v", s.Name, err))
			return err
		}
		if err := writer.Write(&output.File{Name: export.FileName(s.Name, lang), Content: []byte(code)}); err != nil {
			slog.Error(err.Error())
			return err
		}
	}
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	// session settings can be passed via a .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name("replayr"),
		kong.Description("Replay scripted browser interactions."),
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
