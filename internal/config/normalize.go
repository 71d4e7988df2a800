package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArtifacts()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(libraryDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) != "" {
		if c.Paths.LockPath, err = expandPath(strings.TrimSpace(c.Paths.LockPath)); err != nil {
			return fmt.Errorf("paths.lock_path: %w", err)
		}
		if info, statErr := os.Stat(c.Paths.LockPath); statErr == nil && info.IsDir() {
			c.Paths.LockPath = filepath.Join(c.Paths.LockPath, defaultLockFileBasename)
		}
	}
	return nil
}

func (c *Config) normalizeArtifacts() {
	c.Artifacts.Extensions = normalizeExtensions(c.Artifacts.Extensions)
	if len(c.Artifacts.Extensions) == 0 {
		c.Artifacts.Extensions = []string{extensionWildcard}
	}
	c.Artifacts.MediaExtensions = normalizeExtensions(c.Artifacts.MediaExtensions)
	c.Artifacts.Link = strings.ToLower(strings.TrimSpace(c.Artifacts.Link))
	c.Artifacts.RootPolicy = strings.ToLower(strings.TrimSpace(c.Artifacts.RootPolicy))
	if c.Artifacts.RootPolicy == "" {
		c.Artifacts.RootPolicy = defaultRootPolicy
	}
	if c.Artifacts.Workers <= 0 {
		c.Artifacts.Workers = defaultWorkers
	}
}

// normalizeExtensions lowercases, dots, and dedups extension lists. "*" and
// ".*" both become the wildcard.
func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if ext == "*" {
			ext = extensionWildcard
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
