/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DataStore interface for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
)

// DataStore is an in-memory datastore.DataStore[T]. Query and Stream return
// entities in key order.
type DataStore[T any] struct {
	mu          sync.RWMutex
	data        map[string]T
	queryFunc   func(ctx context.Context, params *models.QueryParams) ([]interface{}, error)
	filterFunc  func(params *models.QueryParams, entity T) bool
	getKeyFunc  func(entity T) string
	putError    error
	deleteError error
	streamError error
}

// New creates a new mock DataStore
func New[T any]() *DataStore[T] {
	return &DataStore[T]{
		data: make(map[string]T),
	}
}

// WithGetKeyFunc sets a custom function to extract keys from entities
func (m *DataStore[T]) WithGetKeyFunc(f func(T) string) *DataStore[T] {
	m.getKeyFunc = f
	return m
}

// WithQueryFunc replaces the default Query implementation
func (m *DataStore[T]) WithQueryFunc(f func(ctx context.Context, params *models.QueryParams) ([]interface{}, error)) *DataStore[T] {
	m.queryFunc = f
	return m
}

// WithFilterFunc restricts Query and Stream to entities for which f returns true
func (m *DataStore[T]) WithFilterFunc(f func(params *models.QueryParams, entity T) bool) *DataStore[T] {
	m.filterFunc = f
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	m.deleteError = err
	return m
}

// WithStreamError makes Stream emit a single error result
func (m *DataStore[T]) WithStreamError(err error) *DataStore[T] {
	m.streamError = err
	return m
}

// GetOne retrieves an entity by key
func (m *DataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if entity, exists := m.data[key]; exists {
		return &entity, nil
	}

	var zero T
	return nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), key)
}

// Put stores an entity
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	if m.putError != nil {
		return m.putError
	}

	key := m.extractKey(entity)
	if key == "" {
		return errors.NewValidationError("key", "unable to extract key from entity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entity
	return nil
}

// Query returns the matching entities as interface{} values
func (m *DataStore[T]) Query(ctx context.Context, params *models.QueryParams) ([]interface{}, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, params)
	}

	matched := m.matching(params)
	results := make([]interface{}, 0, len(matched))
	for _, v := range matched {
		results = append(results, v)
	}
	return results, nil
}

// Stream returns a channel of the matching entities
func (m *DataStore[T]) Stream(ctx context.Context, params *models.QueryParams, opts ...models.StreamOption) <-chan models.StreamResult[T] {
	options := models.ApplyStreamOptions(opts...)
	resultChan := make(chan models.StreamResult[T], options.BufferSize)

	matched := m.matching(params)
	streamErr := m.streamError

	go func() {
		defer close(resultChan)

		if streamErr != nil {
			select {
			case <-ctx.Done():
			case resultChan <- models.StreamResult[T]{Error: streamErr, Meta: models.StreamMeta{Timestamp: time.Now()}}:
			}
			return
		}

		for i, v := range matched {
			select {
			case <-ctx.Done():
				return
			case resultChan <- models.StreamResult[T]{
				Item: v,
				Meta: models.StreamMeta{
					Index:      int64(i),
					PageNumber: 1,
					Timestamp:  time.Now(),
				},
			}:
			}
		}
	}()

	return resultChan
}

// Delete removes an entity by key
func (m *DataStore[T]) Delete(ctx context.Context, key string) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists {
		var zero T
		return errors.NewNotFoundError(fmt.Sprintf("%T", zero), key)
	}

	delete(m.data, key)
	return nil
}

// Helper methods for testing

// GetData returns a copy of the internal data map
func (m *DataStore[T]) GetData() map[string]T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]T, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

// Count returns the number of stored entities
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]T)
}

// matching snapshots the entities accepted by the filter, in key order.
func (m *DataStore[T]) matching(params *models.QueryParams) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		v := m.data[k]
		if m.filterFunc != nil && !m.filterFunc(params, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (m *DataStore[T]) extractKey(entity T) string {
	if m.getKeyFunc != nil {
		return m.getKeyFunc(entity)
	}
	return fmt.Sprintf("key_%v", entity)
}
