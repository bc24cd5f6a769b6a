package composer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/tabletool/errors"
)

// Pipeline is a pipeline definition as kept in a YAML file.
type Pipeline struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Stages      []Stage `yaml:"stages"`
}

// Stage is one operator of a Pipeline. Inputs maps an input flag such as
// "-2" to the sub-pipeline that feeds it. Args go through the token grammar
// unchanged, so a "|", "(" or ")" value must be attached to its flag ("-s=|").
type Stage struct {
	Op     string               `yaml:"op"`
	Args   []string             `yaml:"args,omitempty"`
	Inputs map[string]*Pipeline `yaml:"inputs,omitempty"`
}

// Tokens flattens p into the command-line grammar. Inputs are emitted in
// flag order.
func (p *Pipeline) Tokens() []string {
	var out []string
	for i, s := range p.Stages {
		if i > 0 {
			out = append(out, Pipe)
		}
		out = append(out, s.Op)
		out = append(out, s.Args...)
		flags := make([]string, 0, len(s.Inputs))
		for flag := range s.Inputs {
			flags = append(flags, flag)
		}
		sort.Strings(flags)
		for _, flag := range flags {
			out = append(out, flag, Begin)
			if sub := s.Inputs[flag]; sub != nil {
				out = append(out, sub.Tokens()...)
			}
			out = append(out, End)
		}
	}
	return out
}

// Loader loads pipeline definitions by name.
type Loader interface {
	Load(name string) (*Pipeline, error)
}

// FileLoader loads pipelines from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches dirs for pipeline files.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml in each directory, then in
// its subdirectories. A name that is itself a file path is loaded directly.
func (l *FileLoader) Load(name string) (*Pipeline, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return LoadFile(name)
	}
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadFile(path)
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			if len(matches) > 0 {
				return LoadFile(matches[0])
			}
		}
	}
	return nil, errors.IO(name, fmt.Errorf("pipeline %q not found in %v", name, l.dirs))
}

// LoadFile reads a pipeline definition from path.
func LoadFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Composition(-1, "", fmt.Sprintf("parsing %s: %v", path, err)).WithCause(err)
	}
	if p.Name == "" {
		p.Name = trimExt(filepath.Base(path))
	}
	return &p, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
