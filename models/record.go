/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/implindex/errors"
)

// ImplementorRecord is the archived form of a single descriptor: which
// capability page and library it belonged to, and where it sat in the
// delivery order (Seq, then Position inside the library list).
type ImplementorRecord struct {
	ID         string `json:"id"`
	Capability string `json:"capability"`
	Library    string `json:"library"`
	Seq        uint64 `json:"seq"`
	Position   int    `json:"position"`
	Descriptor string `json:"descriptor"`
	Synthetic  bool   `json:"synthetic"`
	// Order is SortKey() captured at archive time so storage can index it.
	Order string `json:"order"`
	// ArchivedAt is an RFC 3339 date-time (strfmt "date-time" format).
	ArchivedAt string `json:"archivedAt"`
}

// SetArchivedAt stamps the record with t in strfmt date-time format.
func (r *ImplementorRecord) SetArchivedAt(t time.Time) {
	r.ArchivedAt = strfmt.DateTime(t.UTC()).String()
}

// ArchivedTime parses ArchivedAt.
func (r ImplementorRecord) ArchivedTime() (time.Time, error) {
	dt, err := strfmt.ParseDateTime(r.ArchivedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing archivedAt %q: %w", r.ArchivedAt, err)
	}
	return time.Time(dt), nil
}

// Validate checks the fields required to key and replay the record.
func (r ImplementorRecord) Validate() error {
	switch {
	case r.ID == "":
		return errors.NewValidationError("ID", "must not be empty")
	case r.Capability == "":
		return errors.NewValidationError("Capability", "must not be empty")
	case r.Library == "":
		return errors.NewValidationError("Library", "must not be empty")
	case r.Position < 0:
		return errors.NewValidationError("Position", "must not be negative")
	case r.ArchivedAt != "" && !strfmt.IsDateTime(r.ArchivedAt):
		return errors.NewValidationError("ArchivedAt", "must be an RFC 3339 date-time")
	}
	return nil
}

// SortKey orders records of one capability in delivery order. Seq and Position
// are zero padded so lexical order equals numeric order.
func (r ImplementorRecord) SortKey() string {
	return fmt.Sprintf("REC#%020d#%s#%06d", r.Seq, r.Library, r.Position)
}

// DescriptorValue returns the archived descriptor.
func (r ImplementorRecord) DescriptorValue() ImplementorDescriptor {
	return ImplementorDescriptor(r.Descriptor)
}
