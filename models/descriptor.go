/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"errors"
	"html"
	"regexp"

	"github.com/tidwall/gjson"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ImplementorDescriptor is one entry of a fragment's implementor list, kept as
// the raw JSON the generator emitted. Generated fragments use an array:
//
//	[html]                       explicit impl
//	[html, 1, ["crate::Path"]]   synthetic (auto) impl with its type path
//
// The registry never looks inside a descriptor; the accessors below exist for
// consumers that render or archive them.
type ImplementorDescriptor []byte

// MarshalJSON returns the raw descriptor unchanged.
func (d ImplementorDescriptor) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores a copy of data.
func (d *ImplementorDescriptor) UnmarshalJSON(data []byte) error {
	if d == nil {
		return errors.New("models.ImplementorDescriptor: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}

// String returns the raw JSON text.
func (d ImplementorDescriptor) String() string {
	return string(d)
}

func (d ImplementorDescriptor) parse() gjson.Result {
	return gjson.ParseBytes(d)
}

// HTML returns the rendering fragment (link/label markup) of the descriptor.
// Older generators emitted bare strings instead of arrays; both are accepted.
func (d ImplementorDescriptor) HTML() string {
	r := d.parse()
	if r.IsArray() {
		return r.Get("0").String()
	}
	return r.String()
}

// Synthetic reports whether the generator flagged the impl as automatic.
func (d ImplementorDescriptor) Synthetic() bool {
	r := d.parse()
	return r.IsArray() && r.Get("1").Int() == 1
}

// Paths returns the fully qualified type paths attached to the descriptor, if any.
func (d ImplementorDescriptor) Paths() []string {
	r := d.parse()
	if !r.IsArray() {
		return nil
	}
	var paths []string
	for _, p := range r.Get("2").Array() {
		paths = append(paths, p.String())
	}
	return paths
}

// Text returns the HTML with markup removed and entities decoded, e.g.
// "impl Debug for Object".
func (d ImplementorDescriptor) Text() string {
	return html.UnescapeString(tagPattern.ReplaceAllString(d.HTML(), ""))
}
