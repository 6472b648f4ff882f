// internal/config/config.go
//
// This package resolves where ctx keeps its state. There are two roots:
// the store home (shared by every workspace, usually ~/.ctxlayer) and the
// working directory that receives a .ctxlayer/ folder with the active
// selection and the task symlinks.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// AppDir names both the store home under the user's home directory and
	// the local folder created in each workspace.
	AppDir = ".ctxlayer"

	// DomainsDir is the store subdirectory holding one folder per domain.
	DomainsDir = "domains"

	// ActiveConfigFile is the line-oriented file recording the active selection.
	ActiveConfigFile = "config.yaml"

	// SettingsFile lives in the store home and tunes ctx behaviour.
	SettingsFile = "settings.yaml"

	// HomeEnv overrides the store home.
	HomeEnv = "CONTEXT_LAYER_HOME"

	// CwdEnv overrides the working directory ctx operates against.
	CwdEnv = "CONTEXT_LAYER_CWD"

	defaultGitBinary  = "git"
	defaultIgnoreFile = ".gitignore"
)

// GitSettings controls the version-control collaborator.
type GitSettings struct {
	Binary       string `yaml:"binary"`
	InitOnCreate *bool  `yaml:"init_on_create,omitempty"`
}

// WorkspaceSettings controls how the local folder is wired into a repository.
type WorkspaceSettings struct {
	IgnoreFile string `yaml:"ignore_file"`
}

// Settings models <home>/settings.yaml.
type Settings struct {
	Version   int               `yaml:"version"`
	Git       GitSettings       `yaml:"git"`
	Workspace WorkspaceSettings `yaml:"workspace"`
}

// Config holds the resolved runtime configuration. It is built once at
// process start and handed to every component.
type Config struct {
	// Home is the store home, e.g. ~/.ctxlayer
	Home string

	// WorkDir is the workspace that receives the local mirror
	WorkDir string

	Settings Settings
}

// Load resolves the configuration from the environment, falling back to the
// user's home directory and the process working directory.
func Load() (*Config, error) {
	home := strings.TrimSpace(os.Getenv(HomeEnv))
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, AppDir)
	}
	workDir := strings.TrimSpace(os.Getenv(CwdEnv))
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: resolve working directory: %w", err)
		}
		workDir = cwd
	}
	return New(home, workDir)
}

// New builds a Config rooted at the given directories and loads settings
// from the store home when present.
func New(home, workDir string) (*Config, error) {
	absHome, err := filepath.Abs(home)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", home, err)
	}
	absWork, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", workDir, err)
	}
	cfg := &Config{
		Home:     absHome,
		WorkDir:  absWork,
		Settings: defaultSettings(),
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreRoot returns the directory holding all domains.
func (c *Config) StoreRoot() string {
	return filepath.Join(c.Home, DomainsDir)
}

// LocalDir returns <workdir>/.ctxlayer
func (c *Config) LocalDir() string {
	return filepath.Join(c.WorkDir, AppDir)
}

// ActiveConfigPath returns the path of the active selection file.
func (c *Config) ActiveConfigPath() string {
	return filepath.Join(c.LocalDir(), ActiveConfigFile)
}

// IgnorePath returns the version-control ignore file that should exclude
// the local folder.
func (c *Config) IgnorePath() string {
	return filepath.Join(c.WorkDir, filepath.FromSlash(c.Settings.Workspace.IgnoreFile))
}

// IgnoreEntry is the line appended to the ignore file.
func (c *Config) IgnoreEntry() string {
	return AppDir
}

// LogPath returns the operation journal location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Home, "logs", "ctxlayer.log")
}

// SettingsPath returns the on-disk location of the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Home, SettingsFile)
}

// GitBinary returns the executable used for passthrough git commands.
func (c *Config) GitBinary() string {
	return c.Settings.Git.Binary
}

// InitReposOnCreate reports whether scratch domains become git repositories.
func (c *Config) InitReposOnCreate() bool {
	if c.Settings.Git.InitOnCreate == nil {
		return true
	}
	return *c.Settings.Git.InitOnCreate
}

func (c *Config) loadSettings() error {
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	c.Settings = parsed
	return nil
}

func defaultSettings() Settings {
	return Settings{
		Version:   1,
		Git:       GitSettings{Binary: defaultGitBinary},
		Workspace: WorkspaceSettings{IgnoreFile: defaultIgnoreFile},
	}
}

func (s *Settings) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
}

func (s *Settings) normalize() {
	s.Git.Binary = strings.TrimSpace(s.Git.Binary)
	if s.Git.Binary == "" {
		s.Git.Binary = defaultGitBinary
	}
	s.Workspace.IgnoreFile = strings.TrimSpace(s.Workspace.IgnoreFile)
	if s.Workspace.IgnoreFile == "" {
		s.Workspace.IgnoreFile = defaultIgnoreFile
	}
	s.Workspace.IgnoreFile = filepath.ToSlash(filepath.Clean(s.Workspace.IgnoreFile))
}

func (s *Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("settings version must be >= 1")
	}
	if filepath.IsAbs(s.Workspace.IgnoreFile) || strings.HasPrefix(s.Workspace.IgnoreFile, "../") {
		return fmt.Errorf("workspace.ignore_file must be relative to the working directory")
	}
	return nil
}
