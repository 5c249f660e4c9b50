package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ScanModeRegular watches the source directory continuously.
const ScanModeRegular = "regular"

// ScanModeScheduled scans the source directory at configured times of day.
const ScanModeScheduled = "scheduled"

// Paths contains directory configuration.
type Paths struct {
	SourceDir      string `toml:"source_dir"`
	DestinationDir string `toml:"destination_dir"`
	LogDir         string `toml:"log_dir"`
}

// Category maps a named category to the file extensions it claims.
// Categories are an ordered list: when extension sets overlap, the first
// match in declaration order wins.
type Category struct {
	Name       string   `toml:"name"`
	Extensions []string `toml:"extensions"`
}

// Sorting contains classification and debounce tunables.
type Sorting struct {
	Exclusions  []string `toml:"exclusions"`
	MinFileSize int64    `toml:"min_file_size"`
	SortDelay   int      `toml:"sort_delay"`
}

// Scan contains watch-mode configuration.
type Scan struct {
	Mode               string   `toml:"mode"`
	ScheduledTimes     []string `toml:"scheduled_times"`
	ScanWhenBackOnline bool     `toml:"scan_when_back_online"`
	PollInterval       int      `toml:"poll_interval"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sortify.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Categories []Category `toml:"categories"`
	Sorting    Sorting    `toml:"sorting"`
	Scan       Scan       `toml:"scan"`
	Logging    Logging    `toml:"logging"`
}

// Default returns the built-in configuration used when no file exists.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	downloads := filepath.Join(home, "Downloads")
	return Config{
		Paths: Paths{
			SourceDir:      downloads,
			DestinationDir: downloads,
			LogDir:         filepath.Join(home, ".local", "share", "sortify"),
		},
		Categories: DefaultCategories(),
		Sorting: Sorting{
			Exclusions:  []string{"partial", ".crdownload", ".part", ".tmp"},
			MinFileSize: 1024,
			SortDelay:   5,
		},
		Scan: Scan{
			Mode:               ScanModeRegular,
			ScheduledTimes:     nil,
			ScanWhenBackOnline: true,
			PollInterval:       5,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// DefaultCategories returns the built-in category list in classification order.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Documents", Extensions: []string{".pdf", ".docx", ".txt", ".xlsx", ".doc", ".ppt", ".pptx", ".odt", ".ods", ".rtf", ".csv"}},
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".bmp", ".tiff", ".webp"}},
		{Name: "Videos", Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}},
		{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{Name: "Programs", Extensions: []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm"}},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sortify/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Array-of-tables entries append to whatever the slice already
		// holds, so slice defaults must be cleared before decoding and
		// restored only when the file leaves them unset.
		cfg.Categories = nil
		cfg.Sorting.Exclusions = nil

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Categories == nil {
			cfg.Categories = DefaultCategories()
		}
		if cfg.Sorting.Exclusions == nil {
			cfg.Sorting.Exclusions = Default().Sorting.Exclusions
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sortify.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return err
	}
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	for i, cat := range c.Categories {
		for j, ext := range cat.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.Categories[i].Extensions[j] = ext
		}
	}
	c.Scan.Mode = strings.ToLower(strings.TrimSpace(c.Scan.Mode))
	if c.Scan.Mode == "" {
		c.Scan.Mode = ScanModeRegular
	}
	return nil
}

// Validate checks configuration invariants that would otherwise surface as
// runtime failures.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir is required")
	}
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		return errors.New("paths.destination_dir is required")
	}
	if c.Scan.Mode != ScanModeRegular && c.Scan.Mode != ScanModeScheduled {
		return fmt.Errorf("scan.mode: unsupported value %q", c.Scan.Mode)
	}
	if c.Sorting.MinFileSize < 0 {
		return errors.New("sorting.min_file_size must not be negative")
	}
	if c.Sorting.SortDelay < 0 {
		return errors.New("sorting.sort_delay must not be negative")
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return errors.New("categories: name is required")
		}
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
// DestinationDir is created on a best-effort basis so the daemon can start
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		_ = os.MkdirAll(c.Paths.DestinationDir, 0o755)
	}
	return nil
}

// StatsDBPath returns the location of the statistics database.
func (c *Config) StatsDBPath() string {
	return filepath.Join(c.Paths.LogDir, "statistics.db")
}

// SocketPath returns the location of the daemon IPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "sortify.sock")
}

// LockPath returns the location of the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "sortifyd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
