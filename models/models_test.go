/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/implindex/errors"
)

func TestImplementorDescriptorAccessors(t *testing.T) {
	t.Run("explicit impl", func(t *testing.T) {
		d := ImplementorDescriptor(`["impl <a>Debug</a> for <a>Object</a>"]`)
		assert.Equal(t, "impl <a>Debug</a> for <a>Object</a>", d.HTML())
		assert.False(t, d.Synthetic())
		assert.Empty(t, d.Paths())
		assert.Equal(t, "impl Debug for Object", d.Text())
	})

	t.Run("synthetic impl", func(t *testing.T) {
		d := ImplementorDescriptor(`["impl Sync for Null",1,["rustypub::core::Null"]]`)
		assert.Equal(t, "impl Sync for Null", d.HTML())
		assert.True(t, d.Synthetic())
		assert.Equal(t, []string{"rustypub::core::Null"}, d.Paths())
		assert.Equal(t, "impl Sync for Null", d.Text())
	})

	t.Run("bare string", func(t *testing.T) {
		d := ImplementorDescriptor(`"impl Freeze for Context"`)
		assert.Equal(t, "impl Freeze for Context", d.HTML())
		assert.False(t, d.Synthetic())
		assert.Nil(t, d.Paths())
	})

	t.Run("entities", func(t *testing.T) {
		d := ImplementorDescriptor(`["impl&lt;T: <a>Debug</a>&gt; Debug for <a>Box</a>&lt;T&gt;"]`)
		assert.Equal(t, "impl<T: Debug> Debug for Box<T>", d.Text())
	})
}

func TestImplementorDescriptorJSON(t *testing.T) {
	var table LibraryTable
	payload := `{"rustypub":[["impl Debug for Object"],["impl !Freeze for Actor",1,["rustypub::core::actor::Actor"]]]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &table))
	require.Len(t, table["rustypub"], 2)

	out, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))

	var nilDesc ImplementorDescriptor
	out, err = json.Marshal(nilDesc)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestLibraryTableValidate(t *testing.T) {
	tests := []struct {
		name      string
		table     LibraryTable
		malformed bool
	}{
		{name: "nil table", table: nil, malformed: true},
		{name: "empty table", table: LibraryTable{}},
		{name: "empty list", table: LibraryTable{"libA": {}}},
		{name: "missing list", table: LibraryTable{"libA": nil}, malformed: true},
		{name: "empty library name", table: LibraryTable{"": {}}, malformed: true},
		{name: "populated", table: LibraryTable{"libA": {ImplementorDescriptor(`["x"]`)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.malformed {
				assert.True(t, errors.IsMalformedSubmission(err), "expected malformed, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLibraryTableHelpers(t *testing.T) {
	table := LibraryTable{
		"zeta":  {ImplementorDescriptor(`["a"]`)},
		"alpha": {ImplementorDescriptor(`["b"]`), ImplementorDescriptor(`["c"]`)},
	}
	assert.Equal(t, []string{"alpha", "zeta"}, table.Libraries())
	assert.Equal(t, 3, table.Len())
}

func TestImplementorRecord(t *testing.T) {
	rec := ImplementorRecord{
		ID:         "id-1",
		Capability: "core::fmt::Debug",
		Library:    "rustypub",
		Seq:        7,
		Position:   2,
		Descriptor: `["impl Debug for Object"]`,
	}
	now := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	rec.SetArchivedAt(now)
	require.NoError(t, rec.Validate())

	got, err := rec.ArchivedTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(now))

	assert.Equal(t, "REC#00000000000000000007#rustypub#000002", rec.SortKey())
	assert.Equal(t, "impl Debug for Object", rec.DescriptorValue().HTML())

	rec.ArchivedAt = "yesterday"
	assert.True(t, errors.IsValidationError(rec.Validate()))

	assert.True(t, errors.IsValidationError(ImplementorRecord{}.Validate()))
}

func TestApplyStreamOptions(t *testing.T) {
	opts := ApplyStreamOptions(WithPageSize(5), WithMaxRetries(0), WithBufferSize(1))
	assert.Equal(t, int32(5), opts.PageSize)
	assert.Equal(t, 0, opts.MaxRetries)
	assert.Equal(t, 1, opts.BufferSize)
	assert.Equal(t, time.Second, opts.RetryBackoff)
}
