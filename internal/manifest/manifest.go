package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"copyartifacts/internal/services"
)

// Item is one imported album or singleton.
type Item struct {
	Source    string   `yaml:"source"`
	Dest      string   `yaml:"dest"`
	Consumed  []string `yaml:"consumed"`
	Singleton bool     `yaml:"singleton"`
}

// Manifest lists what an import run handled, in notification order.
type Manifest struct {
	Roots []string `yaml:"roots"`
	Items []Item   `yaml:"items"`
}

// Recorder receives a replayed manifest. session.Session satisfies it.
type Recorder interface {
	DeclareRoot(path string) error
	OnItemImported(sourceDir, destDir string, consumed []string, singleton bool) error
}

// DestResolver turns a manifest destination into an absolute library path.
type DestResolver func(dest string) (string, error)

// Load reads and validates the manifest at path. Relative roots and sources
// resolve against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes manifest YAML. Unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse", "", err)
	}
	m.normalize(baseDir)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) normalize(baseDir string) {
	for i, root := range m.Roots {
		m.Roots[i] = absolute(root, baseDir)
	}
	for i := range m.Items {
		item := &m.Items[i]
		item.Source = absolute(item.Source, baseDir)
		item.Dest = strings.TrimSpace(item.Dest)
	}
}

func absolute(path, baseDir string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Validate checks that every item names a source and a destination.
func (m *Manifest) Validate() error {
	if len(m.Items) == 0 {
		return services.Wrap(services.ErrValidation, "manifest", "validate", "manifest lists no items", nil)
	}
	for i, root := range m.Roots {
		if root == "" {
			return services.Wrap(services.ErrValidation, "manifest", "validate", fmt.Sprintf("roots[%d] is empty", i), nil)
		}
	}
	for i, item := range m.Items {
		if item.Source == "" {
			return services.Wrap(services.ErrValidation, "manifest", "validate", fmt.Sprintf("items[%d].source is required", i), nil)
		}
		if item.Dest == "" {
			return services.Wrap(services.ErrValidation, "manifest", "validate", fmt.Sprintf("items[%d].dest is required", i), nil)
		}
	}
	return nil
}

// Replay declares the manifest's roots and notifies every item in order.
func (m *Manifest) Replay(rec Recorder, resolveDest DestResolver) error {
	for _, root := range m.Roots {
		if err := rec.DeclareRoot(root); err != nil {
			return fmt.Errorf("declare root %s: %w", root, err)
		}
	}
	for i, item := range m.Items {
		dest := item.Dest
		if resolveDest != nil {
			resolved, err := resolveDest(dest)
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			dest = resolved
		}
		if err := rec.OnItemImported(item.Source, dest, item.Consumed, item.Singleton); err != nil {
			return fmt.Errorf("items[%d] %s: %w", i, item.Source, err)
		}
	}
	return nil
}
