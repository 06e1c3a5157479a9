// Package verify checks that a frontend checkout has what the build and deploy need.
package verify

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var defaultManifest []byte

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
)

// FileCheck is a path that must, or should, exist. Children are only checked when the path
// exists.
type FileCheck struct {
	Path        string      `yaml:"path"`
	Description string      `yaml:"description"`
	Required    bool        `yaml:"required"`
	Children    []FileCheck `yaml:"children"`
}

// Section groups file checks under a heading.
type Section struct {
	Name   string      `yaml:"name"`
	Checks []FileCheck `yaml:"checks"`
}

// PackageRules lists the entries package.json must declare.
type PackageRules struct {
	File            string   `yaml:"file"`
	DevDependencies []string `yaml:"dev_dependencies"`
	Scripts         []string `yaml:"scripts"`
}

// DependencyCheck is the optional installed-dependencies directory.
type DependencyCheck struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
	Hint        string `yaml:"hint"`
}

// Manifest describes a complete verification run.
type Manifest struct {
	Sections     []Section       `yaml:"sections"`
	Package      PackageRules    `yaml:"package"`
	Dependencies DependencyCheck `yaml:"dependencies"`
}

// Result is one reported line.
type Result struct {
	Section     string
	Description string
	Path        string
	Status      Status
}

// Report is the outcome of Run.
type Report struct {
	Results  []Result
	Errors   int
	Warnings int
	// Hints are the follow-up commands suggested by failed optional checks.
	Hints []string
}

// OK reports whether nothing required is missing.
func (r Report) OK() bool {
	return r.Errors == 0
}

// Clean reports whether nothing is missing at all.
func (r Report) Clean() bool {
	return r.Errors == 0 && r.Warnings == 0
}

// DefaultManifest parses the embedded manifest.
func DefaultManifest() (Manifest, error) {
	return ParseManifest(defaultManifest)
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Sections) == 0 {
		return Manifest{}, errors.New("parse manifest: no sections")
	}
	return m, nil
}

// Run checks fsys against m.
func Run(fsys fs.FS, m Manifest) Report {
	var r Report

	for _, section := range m.Sections {
		for _, check := range section.Checks {
			r.checkFile(fsys, section.Name, check)
		}
	}

	if m.Package.File != "" {
		r.checkPackage(fsys, m.Package)
	}

	if dep := m.Dependencies; dep.Path != "" {
		status := StatusPass
		if !exists(fsys, dep.Path) {
			status = StatusWarn
			r.Warnings++
			if dep.Hint != "" {
				r.Hints = append(r.Hints, dep.Hint)
			}
		}
		r.Results = append(r.Results, Result{Section: "Dependencies", Description: dep.Description, Path: dep.Path, Status: status})
	}

	return r
}

func (r *Report) checkFile(fsys fs.FS, section string, check FileCheck) {
	found := exists(fsys, check.Path)
	status := StatusPass
	switch {
	case found:
	case check.Required:
		status = StatusFail
		r.Errors++
	default:
		status = StatusWarn
		r.Warnings++
	}
	r.Results = append(r.Results, Result{Section: section, Description: check.Description, Path: check.Path, Status: status})

	if !found {
		return
	}
	for _, child := range check.Children {
		r.checkFile(fsys, section, child)
	}
}

type packageJSON struct {
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// checkPackage is skipped when the file is missing; the file check already failed for it.
func (r *Report) checkPackage(fsys fs.FS, rules PackageRules) {
	const section = "package.json"

	data, err := fs.ReadFile(fsys, rules.File)
	if err != nil {
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		r.Errors++
		r.Results = append(r.Results, Result{Section: section, Description: "Valid JSON", Path: rules.File, Status: StatusFail})
		return
	}

	for _, dep := range rules.DevDependencies {
		r.require(section, "Dependency "+dep, pkg.DevDependencies[dep] != "")
	}
	for _, script := range rules.Scripts {
		r.require(section, "Script "+script, pkg.Scripts[script] != "")
	}
}

func (r *Report) require(section, description string, ok bool) {
	status := StatusPass
	if !ok {
		status = StatusFail
		r.Errors++
	}
	r.Results = append(r.Results, Result{Section: section, Description: description, Status: status})
}

func exists(fsys fs.FS, path string) bool {
	_, err := fs.Stat(fsys, path)
	return err == nil
}
