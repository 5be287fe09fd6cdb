// Package workflow loads declarative workflow sources and composes them into
// one effective catalog: context-type declarations plus command descriptors,
// merged by precedence with the local workflow winning ties.
package workflow

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/contexts"
)

// Source is one contributor to a composed catalog: the built-in core set, a
// base template, or the local workflow. Precedence is positional; Compose
// processes sources in ascending precedence and the last one wins ties.
type Source struct {
	Origin   string
	Root     string
	Types    []contexts.Type
	Commands []catalog.Descriptor
}

type sourceDoc struct {
	Name     string               `yaml:"name"`
	Root     string               `yaml:"root"`
	Contexts map[string]typeDecl  `yaml:"contexts"`
	Commands []catalog.Descriptor `yaml:"commands"`
}

type typeDecl struct {
	Commands []string `yaml:"commands"`
	Bases    []string `yaml:"bases"`
}

// LoadSource reads one workflow declaration file.
func LoadSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("workflow: open source: %w", err)
	}
	defer f.Close()

	src, err := ParseSource(f, path)
	if err != nil {
		return Source{}, fmt.Errorf("workflow: parse %s: %w", path, err)
	}
	return src, nil
}

// ParseSource decodes a workflow declaration from a reader. Unknown YAML keys
// are rejected so typos in hand-authored files surface at load time.
func ParseSource(r io.Reader, origin string) (Source, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc sourceDoc
	if err := dec.Decode(&doc); err != nil {
		return Source{}, fmt.Errorf("decode: %w", err)
	}

	src := Source{
		Origin:   doc.Name,
		Root:     doc.Root,
		Commands: doc.Commands,
	}
	if src.Origin == "" {
		src.Origin = origin
	}

	names := make([]string, 0, len(doc.Contexts))
	for name := range doc.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		decl := doc.Contexts[name]
		src.Types = append(src.Types, contexts.Type{
			Name:        name,
			OwnCommands: decl.Commands,
			Bases:       decl.Bases,
		})
	}
	return src, nil
}

// LoadSources reads an ordered list of workflow declaration files, lowest
// precedence first.
func LoadSources(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		src, err := LoadSource(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
