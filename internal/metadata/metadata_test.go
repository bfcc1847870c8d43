package metadata

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/irbem/nativebuild/internal/config"
)

func TestParseRequirements(t *testing.T) {
	in := "numpy>=1.26\n\n# plotting\nmatplotlib\n  scipy  \npandas # data frames\n"
	got, err := ParseRequirements(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseRequirements failed: %v", err)
	}
	if want := []string{"numpy>=1.26", "matplotlib", "scipy", "pandas"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseRequirementsEmpty(t *testing.T) {
	got, err := ParseRequirements(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestParseFloor(t *testing.T) {
	tests := []struct {
		spec    string
		want    string
		wantErr bool
	}{
		{">=3.11", "v3.11.0", false},
		{">= 3.11.4", "v3.11.4", false},
		{">=3", "v3.0.0", false},
		{"3.11", "", true},
		{"<=3.11", "", true},
		{">=3.11rc1", "", true},
		{">=3.x", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFloor(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFloor(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFloor(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		have string
		want bool
	}{
		{"3.11", true},
		{"3.11.0", true},
		{"3.12.1", true},
		{"3.10.14", false},
		{"2.7", false},
	}
	for _, tt := range tests {
		got, err := Satisfies(">=3.11", tt.have)
		if err != nil {
			t.Fatalf("Satisfies(%q) failed: %v", tt.have, err)
		}
		if got != tt.want {
			t.Errorf("Satisfies(>=3.11, %q) = %v, want %v", tt.have, got, tt.want)
		}
	}
	if _, err := Satisfies(">=3.11", "three"); err == nil {
		t.Error("expected error for invalid version")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "requirements.txt"), []byte("numpy\nscipy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Root:         root,
		Artifact:     "libirbem.so",
		Requirements: "requirements.txt",
		Metadata: config.Metadata{
			Name:           "IRBEM",
			Description:    "Python wrapper for IRBEM",
			Author:         "Mykhaylo Shumko",
			URL:            "https://sourceforge.net/projects/irbem/",
			Packages:       []string{"IRBEM"},
			PythonRequires: ">=3.11",
			Version:        "0.1.0",
		},
	}
}

func TestLoad(t *testing.T) {
	pkg, err := Load(testConfig(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if pkg.Name != "IRBEM" || pkg.Version != "0.1.0" {
		t.Errorf("pkg = %+v", pkg)
	}
	if want := []string{"numpy", "scipy"}; !slices.Equal(pkg.InstallRequires, want) {
		t.Errorf("InstallRequires = %q, want %q", pkg.InstallRequires, want)
	}
	if !pkg.IncludePackageData {
		t.Error("IncludePackageData should be set")
	}
}

func TestLoadErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Requirements = "missing.txt"
	if _, err := Load(cfg); err == nil {
		t.Error("expected error for missing requirements file")
	}

	cfg = testConfig(t)
	cfg.Metadata.PythonRequires = "3.11"
	if _, err := Load(cfg); err == nil {
		t.Error("expected error for malformed runtime floor")
	}

	cfg = testConfig(t)
	cfg.Metadata.Name = ""
	if _, err := Load(cfg); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestEncode(t *testing.T) {
	pkg, err := Load(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := pkg.Encode(&buf, YAML); err != nil {
		t.Fatalf("Encode yaml failed: %v", err)
	}
	if !strings.Contains(buf.String(), "python_requires:") || !strings.Contains(buf.String(), ">=3.11") {
		t.Errorf("yaml output missing python_requires:\n%s", buf.String())
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if fromYAML["name"] != "IRBEM" {
		t.Errorf("name = %v", fromYAML["name"])
	}

	buf.Reset()
	if err := pkg.Encode(&buf, JSON); err != nil {
		t.Fatalf("Encode json failed: %v", err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if fromJSON["artifact"] != "libirbem.so" {
		t.Errorf("artifact = %v", fromJSON["artifact"])
	}

	if err := pkg.Encode(&buf, "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
