// Package config handles application configuration: command-line arguments
// parsed with go-arg on top of an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// Exported constants.
const (
	// ProgramName is the name used in help output and for per-user directories.
	ProgramName = "tiff-splitter"
	// ConfigFileName is looked for in the per-user config directory.
	ConfigFileName = "config.toml"
)

// Exported variables.
var (
	ErrFolderRequired      = errors.New("must specify folder to analyze")
	ErrFolderNotFound      = errors.New("must specify a folder that already exists")
	ErrNotADirectory       = errors.New("not a directory")
	ErrInvalidPattern      = errors.New("invalid include pattern")
	ErrHistoryNeedsJournal = errors.New("history needs --journal")
	ErrInvalidHistory      = errors.New("history count must not be negative")
)

// Config holds the application configuration
type Config struct {
	Folder     string `arg:"positional" help:"Folder to split TIFF files in, local or sftp://user@host/path (default: current directory)" toml:"folder"`
	Include    string `arg:"-p,--include" help:"Only split files whose name matches this glob (e.g. 'scan-*.tif')" toml:"include"`
	Codec      string `arg:"-c,--codec" help:"How pages are written: copy|none|deflate" toml:"codec"`
	ConfigFile string `arg:"--config" help:"TOML file with defaults for these options" toml:"-"`
	LogFile    string `arg:"--log-file" help:"Append diagnostics to this file ('stderr' for the terminal)" toml:"log_file"`
	LogLevel   string `arg:"--log-level" help:"debug|info|warn|error" toml:"log_level"`
	LogFormat  string `arg:"--log-format" help:"text|json" toml:"log_format"`
	Journal    string `arg:"--journal" help:"Record every outcome in this SQLite database" toml:"journal"`
	Plain      bool   `arg:"--plain" help:"Print status lines instead of the interactive display" toml:"plain"`
	Verbose    bool   `arg:"-v,--verbose" help:"Also print a line for every page written" toml:"verbose"`
	NoLock     bool   `arg:"--no-lock" help:"Do not lock the folder against other runs" toml:"no_lock"`
	History    int    `arg:"--history" help:"Print the newest N journal entries and exit" toml:"-"`
	HistoryRun string `arg:"--history-run" help:"Print the journal entries of one run and exit" toml:"-"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Splits every multi-page TIFF in a folder into one file per page and moves the original aside"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return ProgramName + " 1.0.0"
}

// Default returns the configuration used when neither a file nor a flag says
// otherwise.
func Default() Config {
	return Config{
		Codec:     "copy",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// ParseFlags parses os.Args and returns configuration. Help, version and
// usage errors are printed and end the process.
func ParseFlags() (*Config, error) {
	cfg, parser, err := Load(os.Args[1:])

	switch {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	case errors.Is(err, arg.ErrVersion):
		_, _ = fmt.Fprintln(os.Stdout, Config{}.Version())
		os.Exit(0)
	case err != nil && parser != nil:
		parser.Fail(err.Error())
	}

	return cfg, err
}

// Load builds the configuration from args. Values come from Default, then
// the TOML file (--config, or the per-user file if it exists), then args.
// The parser is returned so callers can print help.
func Load(args []string) (*Config, *arg.Parser, error) {
	// First pass only locates the config file
	var located Config

	parser, err := newParser(&located)
	if err != nil {
		return nil, nil, err
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, parser, err //nolint:wrapcheck // arg.ErrHelp and arg.ErrVersion are compared by identity
	}

	cfg := Default()

	path, explicit := located.ConfigFile, located.ConfigFile != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	err = LoadFile(path, &cfg, explicit)
	if err != nil {
		return nil, parser, err
	}

	parser, err = newParser(&cfg)
	if err != nil {
		return nil, nil, err
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, parser, err //nolint:wrapcheck // Same as above
	}

	cfg.ConfigFile = path

	processed, err := PostProcessConfig(&cfg)

	return processed, parser, err
}

// DefaultConfigPath returns the per-user config file location, or "" if the
// platform has no config directory.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, ProgramName, ConfigFileName)
}

// LoadFile decodes the TOML file at path over cfg. A missing file is an
// error only when required.
func LoadFile(path string, cfg *Config, required bool) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}

		return fmt.Errorf("open config: %w", err)
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	// No folder given means the folder the tool was started in
	if cfg.Folder == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine current directory: %w", err)
		}

		cfg.Folder = wd
	}

	cfg.Folder = strings.TrimSpace(cfg.Folder)
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))
	cfg.Include = strings.TrimSpace(cfg.Include)

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	if err := ValidateFilePattern(cfg.Include); err != nil {
		return nil, err
	}

	cfg.HistoryRun = strings.TrimSpace(cfg.HistoryRun)
	if err := cfg.ValidateHistory(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ShowHistory reports whether the run only prints journal entries.
func (cfg *Config) ShowHistory() bool {
	return cfg.History > 0 || cfg.HistoryRun != ""
}

// ValidateHistory checks the history options can be served.
func (cfg *Config) ValidateHistory() error {
	if cfg.History < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistory, cfg.History)
	}

	if cfg.ShowHistory() && cfg.Journal == "" {
		return ErrHistoryNeedsJournal
	}

	return nil
}

// ValidatePaths checks the folder is given and, for remote folders, that the
// URL is complete. Whether a local folder exists is left to CheckFolder.
func (cfg *Config) ValidatePaths() error {
	if cfg.Folder == "" {
		return ErrFolderRequired
	}

	_, err := filesystem.ParseLocation(cfg.Folder)
	if err != nil {
		return fmt.Errorf("invalid folder %q: %w", cfg.Folder, err)
	}

	return nil
}

// ValidateFilePattern reports a malformed glob.
func ValidateFilePattern(pattern string) error {
	if pattern == "" || doublestar.ValidatePattern(pattern) {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
}

// CheckFolder verifies that folder exists on fsys and is a directory.
func CheckFolder(fsys filesystem.FileSystem, folder string) error {
	if strings.TrimSpace(folder) == "" {
		return ErrFolderRequired
	}

	info, err := fsys.Stat(folder)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}

	if err != nil {
		return fmt.Errorf("cannot access folder %s: %w", folder, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, folder)
	}

	return nil
}

func newParser(cfg *Config) (*arg.Parser, error) {
	parser, err := arg.NewParser(arg.Config{Program: ProgramName}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	return parser, nil
}
