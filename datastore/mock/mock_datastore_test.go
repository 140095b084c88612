/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/suparena/implindex/datastore"
	"github.com/suparena/implindex/datastore/mock"
	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
)

type TestEntity struct {
	ID    string
	Group string
}

var _ datastore.DataStore[TestEntity] = (*mock.DataStore[TestEntity])(nil)

func TestMockDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		mockStore := mock.New[TestEntity]().
			WithGetKeyFunc(func(e TestEntity) string { return e.ID })

		if err := mockStore.Put(ctx, TestEntity{ID: "123", Group: "a"}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		retrieved, err := mockStore.GetOne(ctx, "123")
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if retrieved.ID != "123" || retrieved.Group != "a" {
			t.Fatalf("Retrieved entity mismatch: %+v", retrieved)
		}

		if err := mockStore.Delete(ctx, "123"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := mockStore.GetOne(ctx, "123"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		if err := mockStore.Delete(ctx, "123"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error on second delete, got: %v", err)
		}
	})

	t.Run("EmptyKeyRejected", func(t *testing.T) {
		mockStore := mock.New[TestEntity]().
			WithGetKeyFunc(func(e TestEntity) string { return e.ID })
		if err := mockStore.Put(ctx, TestEntity{}); !errors.IsValidationError(err) {
			t.Fatalf("Expected validation error, got: %v", err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		putErr := errors.NewValidationError("ID", "required")
		deleteErr := stderrors.New("throttled")
		mockStore := mock.New[TestEntity]().WithPutError(putErr).WithDeleteError(deleteErr)

		if err := mockStore.Put(ctx, TestEntity{ID: "1"}); err != putErr {
			t.Fatalf("Expected put error, got: %v", err)
		}
		if err := mockStore.Delete(ctx, "1"); err != deleteErr {
			t.Fatalf("Expected delete error, got: %v", err)
		}
	})

	t.Run("QueryAndStream", func(t *testing.T) {
		mockStore := mock.New[TestEntity]().
			WithGetKeyFunc(func(e TestEntity) string { return e.ID }).
			WithFilterFunc(func(_ *models.QueryParams, e TestEntity) bool { return e.Group == "a" })

		for _, e := range []TestEntity{{"3", "a"}, {"1", "a"}, {"2", "b"}} {
			if err := mockStore.Put(ctx, e); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		results, err := mockStore.Query(ctx, &models.QueryParams{})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}

		streamCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		var ids []string
		for result := range mockStore.Stream(streamCtx, &models.QueryParams{}, models.WithBufferSize(1)) {
			if result.Error != nil {
				t.Fatalf("Stream error: %v", result.Error)
			}
			ids = append(ids, result.Item.ID)
		}
		if len(ids) != 2 || ids[0] != "1" || ids[1] != "3" {
			t.Fatalf("Expected [1 3] in key order, got %v", ids)
		}
	})

	t.Run("StreamError", func(t *testing.T) {
		boom := stderrors.New("stream broke")
		mockStore := mock.New[TestEntity]().WithStreamError(boom)

		var got []error
		for result := range mockStore.Stream(ctx, &models.QueryParams{}) {
			got = append(got, result.Error)
		}
		if len(got) != 1 || got[0] != boom {
			t.Fatalf("Expected one stream error, got %v", got)
		}
	})

	t.Run("HelperMethods", func(t *testing.T) {
		mockStore := mock.New[TestEntity]().
			WithGetKeyFunc(func(e TestEntity) string { return e.ID })
		_ = mockStore.Put(ctx, TestEntity{ID: "x"})

		if mockStore.Count() != 1 || len(mockStore.GetData()) != 1 {
			t.Fatal("Expected one stored entity")
		}
		mockStore.Clear()
		if mockStore.Count() != 0 {
			t.Fatal("Clear should remove all data")
		}
	})
}
