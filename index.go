/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package implindex

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/suparena/implindex/models"
)

// Index merges the tables delivered for one capability page. Tables naming a
// library that is already present extend its list; arrival order is kept.
type Index struct {
	mu          sync.RWMutex
	capability  string
	libraries   map[string][]models.ImplementorDescriptor
	submissions int
}

// NewIndex creates an empty index for capability.
func NewIndex(capability string) *Index {
	return &Index{
		capability: capability,
		libraries:  make(map[string][]models.ImplementorDescriptor),
	}
}

// Consume merges table into the index. It satisfies registry.Consumer.
func (x *Index) Consume(table models.LibraryTable) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, lib := range table.Libraries() {
		x.libraries[lib] = append(x.libraries[lib], table[lib]...)
	}
	x.submissions++
	return nil
}

// Capability returns the page this index belongs to.
func (x *Index) Capability() string {
	return x.capability
}

// Submissions returns how many tables have been consumed.
func (x *Index) Submissions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.submissions
}

// Len returns the number of descriptors across all libraries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, descs := range x.libraries {
		n += len(descs)
	}
	return n
}

// Libraries returns the library names seen so far, sorted.
func (x *Index) Libraries() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	libs := make([]string, 0, len(x.libraries))
	for lib := range x.libraries {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// Implementors returns the explicit implementors documented by library.
func (x *Index) Implementors(library string) []models.ImplementorDescriptor {
	return x.filter(library, false)
}

// SyntheticImplementors returns the automatic implementors documented by library.
func (x *Index) SyntheticImplementors(library string) []models.ImplementorDescriptor {
	return x.filter(library, true)
}

func (x *Index) filter(library string, synthetic bool) []models.ImplementorDescriptor {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []models.ImplementorDescriptor
	for _, d := range x.libraries[library] {
		if d.Synthetic() == synthetic {
			out = append(out, d)
		}
	}
	return out
}

// WriteText renders the index as an indented plain text listing.
func (x *Index) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, x.capability); err != nil {
		return err
	}
	for _, lib := range x.Libraries() {
		sections := []struct {
			title string
			descs []models.ImplementorDescriptor
		}{
			{lib, x.Implementors(lib)},
			{lib + " (auto)", x.SyntheticImplementors(lib)},
		}
		for i, s := range sections {
			// a library with no descriptors still gets its heading
			if len(s.descs) == 0 && i > 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", s.title); err != nil {
				return err
			}
			for _, d := range s.descs {
				if _, err := fmt.Fprintf(w, "    %s\n", d.Text()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type indexDocument struct {
	Capability  string            `yaml:"capability"`
	Submissions int               `yaml:"submissions"`
	Libraries   []libraryDocument `yaml:"libraries"`
}

type libraryDocument struct {
	Name         string                `yaml:"name"`
	Implementors []implementorDocument `yaml:"implementors,omitempty"`
	Synthetic    []implementorDocument `yaml:"synthetic,omitempty"`
}

type implementorDocument struct {
	Text  string   `yaml:"text"`
	HTML  string   `yaml:"html"`
	Paths []string `yaml:"paths,omitempty"`
}

func documents(descs []models.ImplementorDescriptor) []implementorDocument {
	out := make([]implementorDocument, 0, len(descs))
	for _, d := range descs {
		out = append(out, implementorDocument{Text: d.Text(), HTML: d.HTML(), Paths: d.Paths()})
	}
	return out
}

// WriteYAML renders the index as a YAML document.
func (x *Index) WriteYAML(w io.Writer) error {
	doc := indexDocument{
		Capability:  x.capability,
		Submissions: x.Submissions(),
		Libraries:   []libraryDocument{},
	}
	for _, lib := range x.Libraries() {
		doc.Libraries = append(doc.Libraries, libraryDocument{
			Name:         lib,
			Implementors: documents(x.Implementors(lib)),
			Synthetic:    documents(x.SyntheticImplementors(lib)),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding index for %s: %w", x.capability, err)
	}
	return enc.Close()
}
