package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}
	if err := c.validateArtifacts(); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}
	if err := c.validateLogging(); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if !filepath.IsAbs(c.Paths.LibraryDir) {
		return fmt.Errorf("paths.library_dir must be absolute, got %q", c.Paths.LibraryDir)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.RootPolicy {
	case RootPolicyNone, RootPolicyAll:
	default:
		return fmt.Errorf("artifacts.root_policy must be %q or %q, got %q", RootPolicyNone, RootPolicyAll, c.Artifacts.RootPolicy)
	}
	if c.Artifacts.Link != "" {
		mode, err := artifact.ParseMode(c.Artifacts.Link)
		if err != nil || (mode != artifact.ModeSymlink && mode != artifact.ModeHardlink) {
			return fmt.Errorf("artifacts.link must be \"symlink\" or \"hardlink\", got %q", c.Artifacts.Link)
		}
		if c.Artifacts.Move {
			return errors.New("artifacts.link and artifacts.move are mutually exclusive")
		}
	}
	for _, ext := range c.Artifacts.MediaExtensions {
		if ext == extensionWildcard {
			return errors.New("artifacts.media_extensions cannot contain a wildcard")
		}
	}
	if c.Artifacts.Workers <= 0 {
		return errors.New("artifacts.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
