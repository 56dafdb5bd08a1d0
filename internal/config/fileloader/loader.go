package fileloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/orderflow/internal/config"
)

// FileLoader loads configuration from a YAML file on disk, overlaying it on
// the configuration produced by a base loader. Keys absent from the file keep
// their base values; unknown keys are rejected.
type FileLoader struct {
	// path is the filesystem path to the configuration file.
	path string
	base config.Loader
}

// NewFileLoader creates a FileLoader for path on top of config.Default().
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path, base: config.DefaultLoader{}}
}

// NewFileLoaderWithBase creates a FileLoader that overlays path on base.
func NewFileLoaderWithBase(path string, base config.Loader) *FileLoader {
	return &FileLoader{path: path, base: base}
}

// Load reads and parses the configuration file specified in FileLoader.path.
func (l *FileLoader) Load(ctx context.Context) (*config.Config, error) {
	cfg, err := l.base.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", l.path, err)
	}

	return cfg, nil
}
