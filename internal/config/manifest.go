package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grapholex/grapholex/internal/model"
)

// ImageEntry is one signature scan listed in a manifest.
type ImageEntry struct {
	// Path is the image file, relative to the manifest directory.
	Path string `yaml:"path"`

	// ID overrides the content-derived image ID.
	ID string `yaml:"id,omitempty"`

	// WidthMM and HeightMM are the declared size of the signature.
	WidthMM  float64 `yaml:"width_mm"`
	HeightMM float64 `yaml:"height_mm"`

	// Label is a display name. It defaults to the file name.
	Label string `yaml:"label,omitempty"`
}

// Validate checks that the entry names a file and a positive size.
func (e ImageEntry) Validate() error {
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("%w: missing path", ErrInvalidEntry)
	}
	if e.WidthMM <= 0 || e.HeightMM <= 0 {
		return fmt.Errorf("%w: %s: declared size must be positive", ErrInvalidEntry, e.Path)
	}
	return nil
}

// Manifest describes a project: its reference and questioned signatures
// and optional per-project settings.
//
// Example:
//
//	project: case-2024-017
//	name: Contract signature
//	language: it
//	references:
//	  - path: refs/r1.png
//	    width_mm: 50
//	    height_mm: 15
//	questioned:
//	  - path: questioned.jpg
//	    width_mm: 48
//	    height_mm: 14
type Manifest struct {
	Project string `yaml:"project"`
	Name    string `yaml:"name,omitempty"`

	// Language and Profile override the CLI defaults for this project.
	Language string `yaml:"language,omitempty"`
	Profile  string `yaml:"profile,omitempty"`

	References []ImageEntry `yaml:"references"`
	Questioned []ImageEntry `yaml:"questioned"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Validate checks that the manifest names a project and at least one
// valid image of each role.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Project) == "" {
		return ErrNoProjectID
	}
	if len(m.References) == 0 {
		return ErrNoReferences
	}
	if len(m.Questioned) == 0 {
		return ErrNoQuestioned
	}
	for _, e := range m.References {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, e := range m.Questioned {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns path made absolute against the manifest directory.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}

// ProfilePath returns the resolved profile path, or "" for the built-in
// profile.
func (m *Manifest) ProfilePath() string {
	return m.Resolve(m.Profile)
}

// ToProject reads every listed image and builds the project.
func (m *Manifest) ToProject() (*model.Project, error) {
	p := &model.Project{
		ID:         m.Project,
		Name:       m.Name,
		References: make([]*model.SignatureImage, 0, len(m.References)),
		Questioned: make([]*model.SignatureImage, 0, len(m.Questioned)),
	}
	for _, e := range m.References {
		img, err := m.load(e, model.RoleReference)
		if err != nil {
			return nil, err
		}
		p.References = append(p.References, img)
	}
	for _, e := range m.Questioned {
		img, err := m.load(e, model.RoleQuestioned)
		if err != nil {
			return nil, err
		}
		p.Questioned = append(p.Questioned, img)
	}
	return p, nil
}

func (m *Manifest) load(e ImageEntry, role model.Role) (*model.SignatureImage, error) {
	path := m.Resolve(e.Path)
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from the user's manifest
	if err != nil {
		return nil, fmt.Errorf("read %s image %s: %w", role, e.Path, err)
	}
	img := model.NewSignatureImage(e.ID, data, e.WidthMM, e.HeightMM, role)
	img.Label = e.Label
	if img.Label == "" {
		img.Label = filepath.Base(e.Path)
	}
	return img, nil
}
