package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
)

// FileSource loads a manifest from disk on every Load
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a source for path. The format comes from the
// extension.
func NewFileSource(path string) (*FileSource, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: not a manifest file", path)
	}
	return &FileSource{path: path, format: format}, nil
}

// Name returns the manifest path
func (s *FileSource) Name() string {
	return s.path
}

// Load reads, parses and defines the plugin
func (s *FileSource) Load(ctx context.Context) (*plugin.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return m.Definition()
}

// Fingerprint hashes the file contents
func (s *FileSource) Fingerprint() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return utils.Fingerprint(data), nil
}
