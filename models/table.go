/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"sort"

	"github.com/suparena/implindex/errors"
)

// LibraryTable maps a library (crate) name to the implementors it documents
// for one capability, in generator order.
type LibraryTable map[string][]ImplementorDescriptor

// Validate checks the shape contract: the table itself must be non-nil, every
// library name non-empty and every implementor list present (it may be empty).
// Libraries are checked in name order so the reported error is deterministic.
func (t LibraryTable) Validate() error {
	if t == nil {
		return errors.NewMalformedSubmissionError("", "table is nil")
	}
	for _, lib := range t.Libraries() {
		if lib == "" {
			return errors.NewMalformedSubmissionError("", "library name is empty")
		}
		if t[lib] == nil {
			return errors.NewMalformedSubmissionError(lib, "implementor list is missing")
		}
	}
	return nil
}

// Libraries returns the library names of the table, sorted.
func (t LibraryTable) Libraries() []string {
	libs := make([]string, 0, len(t))
	for lib := range t {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// Len returns the total number of descriptors across all libraries.
func (t LibraryTable) Len() int {
	n := 0
	for _, descs := range t {
		n += len(descs)
	}
	return n
}
