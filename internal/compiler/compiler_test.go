package compiler

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"testing"
)

type staticProber []string

func (s staticProber) Commands(prefix string) []string {
	var out []string
	for _, name := range s {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			out = append(out, name)
		}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		found    staticProber
		pattern  string
		fallback string
		want     string
	}{
		{"linux uses build default", "linux", staticProber{"gfortran-13"}, "", "", ""},
		{"windows uses build default", "windows", nil, "", "", ""},
		{"darwin none found", "darwin", nil, "", "", "gfortran"},
		{"darwin custom fallback", "darwin", nil, "", "f95", "f95"},
		{"darwin only default name", "darwin", staticProber{"gfortran"}, "", "", "gfortran"},
		{
			"darwin highest version",
			"darwin",
			staticProber{"gfortran-9", "gfortran-13", "gfortran", "gfortran-12"},
			"", "",
			"gfortran-13",
		},
		{
			"darwin ignores other commands",
			"darwin",
			staticProber{"gcc-14", "gfortran-11"},
			"", "",
			"gfortran-11",
		},
		{"darwin custom pattern", "darwin", staticProber{"flang-17", "flang-new", "gfortran-13"}, "flang", "", "flang-new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.goos, tt.found, tt.pattern, tt.fallback); got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectNilProber(t *testing.T) {
	if got := Select("darwin", nil, "", ""); got != Default {
		t.Errorf("Select() = %q, want %q", got, Default)
	}
}

func writeExe(t *testing.T, dir, name string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode); err != nil {
		t.Fatal(err)
	}
}

func TestPathProber(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits are not meaningful on windows")
	}
	bin1 := t.TempDir()
	bin2 := t.TempDir()
	writeExe(t, bin1, "gfortran-13", 0o755)
	writeExe(t, bin1, "gfortran-notes.txt", 0o644)
	writeExe(t, bin1, "gcc-13", 0o755)
	writeExe(t, bin2, "gfortran-13", 0o755)
	writeExe(t, bin2, "gfortran", 0o755)
	if err := os.Mkdir(filepath.Join(bin2, "gfortran-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := &PathProber{Path: bin1 + string(os.PathListSeparator) + filepath.Join(bin1, "missing") +
		string(os.PathListSeparator) + bin2}
	got := p.Commands("gfortran")
	sort.Strings(got)
	if want := []string{"gfortran", "gfortran-13"}; !slices.Equal(got, want) {
		t.Errorf("Commands = %q, want %q", got, want)
	}

	if got := Select("darwin", p, "gfortran", ""); got != "gfortran-13" {
		t.Errorf("Select = %q, want gfortran-13", got)
	}
}

func TestPathProberEmpty(t *testing.T) {
	p := &PathProber{Path: t.TempDir()}
	if got := p.Commands("gfortran"); len(got) != 0 {
		t.Errorf("Commands = %q, want none", got)
	}
	if got := Select("darwin", p, "", ""); got != Default {
		t.Errorf("Select = %q, want %q", got, Default)
	}
}
