/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fragment

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
)

const (
	filePrefix  = "trait."
	fileSuffix  = ".js"
	rootDirName = "implementors"
	assignment  = "implementors ="
)

// Fragment is one parsed fragment file.
type Fragment struct {
	Path       string
	Capability string
	Table      models.LibraryTable
}

// Sink receives parsed tables; implindex.Pages satisfies it.
type Sink interface {
	Submit(capability string, table models.LibraryTable) error
}

// IsFragmentFile reports whether name looks like a generated fragment.
func IsFragmentFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, filePrefix) && strings.HasSuffix(base, fileSuffix) &&
		len(base) > len(filePrefix)+len(fileSuffix)
}

// Parse extracts the library table from a fragment script. A bare JSON object
// is accepted as well. The table is validated before it is returned.
func Parse(data []byte) (models.LibraryTable, error) {
	payload := bytes.TrimSpace(data)
	if len(payload) == 0 {
		return nil, errors.NewValidationError("fragment", "empty input")
	}
	if payload[0] != '{' {
		i := bytes.Index(payload, []byte(assignment))
		if i < 0 {
			return nil, errors.NewValidationError("fragment", "no implementors assignment found")
		}
		payload = bytes.TrimSpace(payload[i+len(assignment):])
		if len(payload) == 0 || payload[0] != '{' {
			return nil, errors.NewValidationError("fragment", "implementors is not an object literal")
		}
	}

	// the decoder stops after the object, so the script tail is ignored
	var table models.LibraryTable
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&table); err != nil {
		return nil, errors.NewValidationError("fragment", fmt.Sprintf("decoding implementors: %v", err))
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// CapabilityFromPath turns a fragment path into the capability it documents:
// implementors/core/fmt/trait.Debug.js names core::fmt::Debug. Directories up
// to and including the last "implementors" element are ignored.
func CapabilityFromPath(path string) (string, error) {
	if !IsFragmentFile(path) {
		return "", errors.NewValidationError("path", fmt.Sprintf("%q is not a fragment file", path))
	}

	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == rootDirName {
			parts = parts[i+1:]
			break
		}
	}

	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(strings.TrimPrefix(parts[last], filePrefix), fileSuffix)
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", errors.NewValidationError("path", fmt.Sprintf("%q has an invalid module path", path))
		}
	}
	return strings.Join(parts, "::"), nil
}

// ReadFile parses the fragment at path. The capability is derived from the
// path relative to root when root is not empty.
func ReadFile(root, path string) (Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fragment{}, err
	}

	name := path
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			name = rel
		}
	}
	capability, err := CapabilityFromPath(name)
	if err != nil {
		return Fragment{}, err
	}

	table, err := Parse(data)
	if err != nil {
		return Fragment{}, fmt.Errorf("%s: %w", path, err)
	}
	return Fragment{Path: path, Capability: capability, Table: table}, nil
}

// Load reads every fragment below dir, sorted by path. A file that fails to
// parse is reported in the joined error; the others are still returned.
func Load(dir string) ([]Fragment, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsFragmentFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	frags := make([]Fragment, 0, len(paths))
	var errs []error
	for _, path := range paths {
		frag, err := ReadFile(dir, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frags = append(frags, frag)
	}
	return frags, stderrors.Join(errs...)
}

// SubmitAll submits each fragment to sink in order and returns how many were
// accepted. Failures do not stop the remaining submissions.
func SubmitAll(sink Sink, frags []Fragment) (int, error) {
	var errs []error
	n := 0
	for _, frag := range frags {
		if err := sink.Submit(frag.Capability, frag.Table); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", frag.Path, err))
			continue
		}
		n++
	}
	return n, stderrors.Join(errs...)
}
