// Package metadata produces the packaging manifest of the wrapping
// package: name, authorship, runtime floor and dependency list.
package metadata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/irbem/nativebuild/internal/config"
)

// Package is the manifest handed to downstream packaging tools.
type Package struct {
	Name               string   `json:"name" yaml:"name"`
	Version            string   `json:"version" yaml:"version"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Author             string   `json:"author,omitempty" yaml:"author,omitempty"`
	AuthorEmail        string   `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	URL                string   `json:"url,omitempty" yaml:"url,omitempty"`
	Packages           []string `json:"packages,omitempty" yaml:"packages,omitempty"`
	IncludePackageData bool     `json:"include_package_data" yaml:"include_package_data"`
	PythonRequires     string   `json:"python_requires,omitempty" yaml:"python_requires,omitempty"`
	InstallRequires    []string `json:"install_requires" yaml:"install_requires"`
	Artifact           string   `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// Load builds the manifest from cfg and the requirements file it names.
func Load(cfg *config.Config) (*Package, error) {
	m := cfg.Metadata
	if m.Name == "" {
		return nil, fmt.Errorf("metadata: name is empty")
	}
	if m.PythonRequires != "" {
		if _, err := ParseFloor(m.PythonRequires); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(cfg.RequirementsPath())
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer f.Close()
	reqs, err := ParseRequirements(f)
	if err != nil {
		return nil, fmt.Errorf("metadata: read %s: %w", cfg.RequirementsPath(), err)
	}

	return &Package{
		Name:               m.Name,
		Version:            m.Version,
		Description:        m.Description,
		Author:             m.Author,
		AuthorEmail:        m.AuthorEmail,
		URL:                m.URL,
		Packages:           m.Packages,
		IncludePackageData: true,
		PythonRequires:     m.PythonRequires,
		InstallRequires:    reqs,
		Artifact:           cfg.Artifact,
	}, nil
}

// ParseRequirements reads one requirement per line. Blank lines and
// comments are dropped, as are trailing " # ..." comments.
func ParseRequirements(r io.Reader) ([]string, error) {
	reqs := []string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reqs = append(reqs, line)
	}
	return reqs, sc.Err()
}

// ParseFloor validates a ">=X.Y[.Z]" runtime requirement and returns the
// version as canonical semver ("v3.11.0").
func ParseFloor(spec string) (string, error) {
	v, ok := strings.CutPrefix(strings.TrimSpace(spec), ">=")
	if !ok {
		return "", fmt.Errorf("metadata: runtime requirement %q must have the form >=X.Y", spec)
	}
	v = "v" + strings.TrimSpace(v)
	if !semver.IsValid(v) || semver.Prerelease(v) != "" || semver.Build(v) != "" {
		return "", fmt.Errorf("metadata: runtime requirement %q is not a release version", spec)
	}
	return semver.Canonical(v), nil
}

// Satisfies reports whether runtime version have meets the floor in spec.
func Satisfies(spec, have string) (bool, error) {
	floor, err := ParseFloor(spec)
	if err != nil {
		return false, err
	}
	v := "v" + strings.TrimPrefix(have, "v")
	if !semver.IsValid(v) {
		return false, fmt.Errorf("metadata: invalid version %q", have)
	}
	return semver.Compare(v, floor) >= 0, nil
}

// Format selects the manifest encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// Encode writes p to w in the given format.
func (p *Package) Encode(w io.Writer, format Format) error {
	switch format {
	case YAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	default:
		return fmt.Errorf("metadata: unknown format %q", format)
	}
}
