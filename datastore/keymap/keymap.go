/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package keymap

import (
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UnmarshalFunc turns a raw DynamoDB item into a typed object.
type UnmarshalFunc func(item map[string]types.AttributeValue) (interface{}, error)

var (
	mu           sync.RWMutex
	indexMaps    = make(map[reflect.Type]map[string]string)
	typeRegistry = make(map[string]UnmarshalFunc)
	macroPattern = regexp.MustCompile(`{([^}]+)}`)
)

// RegisterIndexMap associates record type T with its key templates, e.g.
//
//	{"PK": "CAP#{Capability}", "SK": "{SortKey}"}
func RegisterIndexMap[T any](idxMap map[string]string) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	indexMaps[t] = idxMap
}

// GetIndexMap retrieves the key templates for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMaps[t]
	return m, ok
}

// RegisterType registers an unmarshal function under an entity type name.
// Registering the same name twice panics.
func RegisterType(name string, fn UnmarshalFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := typeRegistry[name]; exists {
		panic(fmt.Sprintf("keymap: type %q already registered", name))
	}
	typeRegistry[name] = fn
}

// GetUnmarshalFunc returns the unmarshal function registered for name.
func GetUnmarshalFunc(name string) (UnmarshalFunc, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := typeRegistry[name]
	if !ok {
		return nil, fmt.Errorf("keymap: no type registered for %q", name)
	}
	return fn, nil
}

// Expand fills every {Field} macro in the templates from fields. Unknown
// fields expand to the empty string.
func Expand(templates map[string]string, fields map[string]string) map[string]string {
	res := make(map[string]string, len(templates))
	for attr, tmpl := range templates {
		res[attr] = macroPattern.ReplaceAllStringFunc(tmpl, func(macro string) string {
			return fields[macro[1:len(macro)-1]]
		})
	}
	return res
}

// MissingFields lists the macros of template that have no non-empty value
// in fields.
func MissingFields(template string, fields map[string]string) []string {
	var missing []string
	for _, m := range macroPattern.FindAllStringSubmatch(template, -1) {
		if fields[m[1]] == "" {
			missing = append(missing, m[1])
		}
	}
	return missing
}

// ExpandKey replaces every macro in the templates with key. Used for lookups
// by a single string key, where the caller already knows the full value.
func ExpandKey(templates map[string]string, key string) map[string]string {
	res := make(map[string]string, len(templates))
	for attr, tmpl := range templates {
		res[attr] = macroPattern.ReplaceAllLiteralString(tmpl, key)
	}
	return res
}
