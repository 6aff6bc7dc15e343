// Package script defines replayable scripts and the configuration they are loaded from.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/replayr/internal/session"
	"github.com/jakopako/replayr/internal/types"
	"github.com/jakopako/replayr/internal/utils"
)

// A Script is a named, ordered sequence of actions that is replayed
// against a single page session.
type Script struct {
	Name    string         `yaml:"name"`
	Actions []types.Action `yaml:"actions"`
}

// StartURL returns the url of the first navigate action, if any.
func (s *Script) StartURL() string {
	for _, a := range s.Actions {
		if a.Kind == types.ActionKindNavigate {
			return a.URL
		}
	}
	return ""
}

// Validate checks the script's name and every action.
func (s *Script) Validate() error {
	if s.Name == "" {
		return errors.New("script name cannot be empty")
	}
	if len(s.Actions) == 0 {
		return fmt.Errorf("script %s has no actions", s.Name)
	}
	kinds := make([]string, len(types.ActionKinds))
	for i, k := range types.ActionKinds {
		kinds[i] = string(k)
	}
	for i, a := range s.Actions {
		if a.Kind != "" && !a.Kind.IsValid() {
			if suggestion, ok := utils.ClosestMatch(string(a.Kind), kinds); ok {
				return fmt.Errorf("script %s, action %d: unknown kind '%s', did you mean '%s'?", s.Name, i+1, a.Kind, suggestion)
			}
			return fmt.Errorf("script %s, action %d: unknown kind '%s', must be one of [%s]", s.Name, i+1, a.Kind, strings.Join(kinds, ", "))
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("script %s, action %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// Config defines the overall structure of the replayr configuration.
// Values will be taken from a config yml file or environment variables
// or both.
type Config struct {
	Session session.Config `yaml:"session"`
	Scripts []Script       `yaml:"scripts"`
}

// NewConfig reads the configuration at path. path can be a single yaml file or a
// directory, in which case the scripts of all yaml files in it are merged and the
// session settings are taken from the first file that sets a session type.
// The built-in login-flow script is added unless a script with the same name
// is configured.
func NewConfig(path string) (*Config, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var first *session.Config
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
				continue
			}
			var c Config
			if err := cleanenv.ReadConfig(filepath.Join(path, e.Name()), &c); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", e.Name(), err)
			}
			if first == nil {
				first = &c.Session
			}
			if config.Session.Type == "" && c.Session.Type != "" {
				config.Session = c.Session
			}
			config.Scripts = append(config.Scripts, c.Scripts...)
		}
		if first == nil {
			if err := cleanenv.ReadEnv(&config); err != nil {
				return nil, err
			}
		} else if config.Session.Type == "" {
			config.Session = *first
		}
	} else {
		if err := cleanenv.ReadConfig(path, &config); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return finalize(&config)
}

// DefaultConfig returns a configuration that only contains the built-in script.
// Session settings are read from the environment.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, err
	}
	return finalize(&config)
}

func finalize(config *Config) (*Config, error) {
	if config.Session.Type == "" {
		config.Session.Type = session.DefaultType()
	}
	if config.Find(LoginFlowName) == nil {
		config.Scripts = append(config.Scripts, *LoginFlow())
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks all scripts and makes sure their names are unique.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i := range c.Scripts {
		s := &c.Scripts[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("script %s defined more than once", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Find returns the script with the given name or nil.
func (c *Config) Find(name string) *Script {
	for i := range c.Scripts {
		if c.Scripts[i].Name == name {
			return &c.Scripts[i]
		}
	}
	return nil
}

// Get is like Find but returns an error suggesting the closest name if
// no script is called name.
func (c *Config) Get(name string) (*Script, error) {
	if s := c.Find(name); s != nil {
		return s, nil
	}
	if suggestion, ok := utils.ClosestMatch(name, c.Names()); ok {
		return nil, fmt.Errorf("no script found for name %s, did you mean %s?", name, suggestion)
	}
	return nil, fmt.Errorf("no script found for name %s", name)
}

// Names returns the sorted names of all scripts.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Scripts))
	for _, s := range c.Scripts {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}
