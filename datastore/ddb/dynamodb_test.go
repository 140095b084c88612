/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/implindex/datastore/keymap"
	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
)

type widget struct {
	ID    string `dynamodbav:"ID"`
	Group string `dynamodbav:"Group"`
	Rank  int    `dynamodbav:"Rank"`
}

type gadget struct {
	ID   string `dynamodbav:"ID"`
	Kind string `dynamodbav:"Kind"`
}

type unmapped struct {
	ID string
}

func init() {
	keymap.RegisterIndexMap[widget](map[string]string{
		"PK":     "W#{ID}",
		"SK":     "W#{ID}",
		"GSI1PK": "GROUP#{Group}",
		"GSI1SK": "RANK#{Rank}#{ID}",
	})
	keymap.RegisterIndexMap[gadget](map[string]string{
		"PK": "G#{ID}",
		"SK": "G#{ID}",
	})
	keymap.RegisterType("gadget", func(item map[string]types.AttributeValue) (interface{}, error) {
		var g gadget
		err := attributevalue.UnmarshalMap(item, &g)
		return &g, err
	})
}

// fakeDynamo is an in-memory stand-in for the DynamoDB client. It understands
// equality key conditions on ":pk" against PK, or GSI1PK when an index is named.
type fakeDynamo struct {
	mu         sync.Mutex
	items      map[string]map[string]types.AttributeValue
	queryErrs  []error
	queryCalls int
	putErr     error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemKey(key map[string]types.AttributeValue) string {
	return strAttr(key, "PK") + "|" + strAttr(key, "SK")
}

func (f *fakeDynamo) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[itemKey(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if len(f.queryErrs) > 0 {
		err := f.queryErrs[0]
		f.queryErrs = f.queryErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	pkAttr, skAttr := "PK", "SK"
	if in.IndexName != nil {
		pkAttr, skAttr = "GSI1PK", "GSI1SK"
	}
	want := strAttr(in.ExpressionAttributeValues, ":pk")

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if strAttr(item, pkAttr) == want {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return strAttr(matched[i], skAttr) < strAttr(matched[j], skAttr)
	})

	if in.ExclusiveStartKey != nil {
		after := strAttr(in.ExclusiveStartKey, skAttr)
		for len(matched) > 0 && strAttr(matched[0], skAttr) <= after {
			matched = matched[1:]
		}
	}

	out := &sdk.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK":   last["PK"],
			"SK":   last["SK"],
			pkAttr: last[pkAttr],
			skAttr: last[skAttr],
		}
	}
	out.Items = matched
	return out, nil
}

func groupParams(group string) *models.QueryParams {
	return &models.QueryParams{
		KeyConditionExpression: "GSI1PK = :pk",
		IndexName:              aws.String("GSI1"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "GROUP#" + group},
		},
	}
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := New[widget](fake, "test-table")

	if store.TableName() != "test-table" {
		t.Errorf("Expected table name test-table, got %s", store.TableName())
	}

	w := widget{ID: "w1", Group: "blue", Rank: 2}
	if err := store.Put(ctx, w); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	raw := fake.items["W#w1|W#w1"]
	if raw == nil {
		t.Fatal("Expected item stored under expanded keys")
	}
	if got := strAttr(raw, "GSI1PK"); got != "GROUP#blue" {
		t.Errorf("Expected GSI1PK GROUP#blue, got %s", got)
	}
	if got := strAttr(raw, "GSI1SK"); got != "RANK#2#w1" {
		t.Errorf("Expected numeric field in GSI1SK, got %s", got)
	}
	if got := strAttr(raw, EntityTypeAttribute); got != "widget" {
		t.Errorf("Expected EntityType widget, got %s", got)
	}

	got, err := store.GetOne(ctx, "w1")
	if err != nil {
		t.Fatalf("GetOne failed: %v", err)
	}
	if *got != w {
		t.Errorf("Expected %+v, got %+v", w, *got)
	}

	if err := store.Delete(ctx, "w1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetOne(ctx, "w1"); !errors.IsNotFound(err) {
		t.Errorf("Expected NotFound after delete, got %v", err)
	}
}

func TestEntityTypeOverride(t *testing.T) {
	fake := newFakeDynamo()
	store := New[widget](fake, "t", WithEntityType("Widget"), WithLogger(nil))

	if err := store.Put(context.Background(), widget{ID: "a", Group: "g"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got := strAttr(fake.items["W#a|W#a"], EntityTypeAttribute); got != "Widget" {
		t.Errorf("Expected overridden EntityType, got %s", got)
	}
}

func TestPutWithoutIndexMap(t *testing.T) {
	store := New[unmapped](newFakeDynamo(), "t")

	err := store.Put(context.Background(), unmapped{ID: "x"})
	if !stderrors.Is(err, errors.ErrNoIndexMap) {
		t.Errorf("Expected ErrNoIndexMap, got %v", err)
	}
	if _, err := store.GetOne(context.Background(), "x"); !stderrors.Is(err, errors.ErrNoIndexMap) {
		t.Errorf("Expected ErrNoIndexMap from GetOne, got %v", err)
	}
}

func TestPutMissingKeyField(t *testing.T) {
	store := New[widget](newFakeDynamo(), "t")

	err := store.Put(context.Background(), widget{Group: "g"})
	if !errors.IsValidationError(err) {
		t.Errorf("Expected validation error for empty key, got %v", err)
	}
}

func TestPutError(t *testing.T) {
	fake := newFakeDynamo()
	fake.putErr = stderrors.New("boom")
	store := New[widget](fake, "t")

	if err := store.Put(context.Background(), widget{ID: "a"}); err == nil {
		t.Error("Expected PutItem failure to surface")
	}
}

func TestQueryByIndex(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := New[widget](fake, "t")

	for _, w := range []widget{
		{ID: "c", Group: "blue", Rank: 3},
		{ID: "a", Group: "blue", Rank: 1},
		{ID: "b", Group: "red", Rank: 2},
	} {
		if err := store.Put(ctx, w); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	results, err := store.Query(ctx, groupParams("blue"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	first, ok := results[0].(widget)
	if !ok {
		t.Fatalf("Expected widget, got %T", results[0])
	}
	if first.ID != "a" {
		t.Errorf("Expected results ordered by GSI1SK, got %s first", first.ID)
	}
}

func TestQueryUsesRegisteredType(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	widgets := New[widget](fake, "t")
	gadgets := New[gadget](fake, "t")

	if err := gadgets.Put(ctx, gadget{ID: "g1", Kind: "lever"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// make the gadget visible to a PK query from the widget store
	fake.items["G#g1|G#g1"]["PK"] = &types.AttributeValueMemberS{Value: "SHARED"}

	results, err := widgets.Query(ctx, &models.QueryParams{
		KeyConditionExpression: "PK = :pk",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "SHARED"},
		},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	g, ok := results[0].(*gadget)
	if !ok {
		t.Fatalf("Expected *gadget from the type registry, got %T", results[0])
	}
	if g.Kind != "lever" {
		t.Errorf("Expected Kind lever, got %s", g.Kind)
	}
}

func TestStreamPaginates(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := New[widget](fake, "t")

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		if err := store.Put(ctx, widget{ID: id, Group: "blue", Rank: i}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var progress []models.StreamProgress
	var ids []string
	for res := range store.Stream(ctx, groupParams("blue"),
		models.WithPageSize(2),
		models.WithProgressHandler(func(p models.StreamProgress) { progress = append(progress, p) }),
	) {
		if res.Error != nil {
			t.Fatalf("Unexpected stream error: %v", res.Error)
		}
		if res.Raw == nil {
			t.Error("Expected raw attributes on stream result")
		}
		ids = append(ids, res.Item.ID)
	}

	want := []string{"a", "b", "c", "d", "e"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
	if fake.queryCalls != 3 {
		t.Errorf("Expected 3 pages, got %d", fake.queryCalls)
	}
	if len(progress) == 0 || progress[len(progress)-1].ItemsProcessed != 5 {
		t.Errorf("Expected final progress to report 5 items, got %+v", progress)
	}
}

func TestStreamRetriesThrottling(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := New[widget](fake, "t")
	if err := store.Put(ctx, widget{ID: "a", Group: "blue"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	fake.queryErrs = []error{
		&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")},
		&types.InternalServerError{Message: aws.String("hiccup")},
	}

	var count int
	for res := range store.Stream(ctx, groupParams("blue"), models.WithRetryBackoff(time.Millisecond)) {
		if res.Error != nil {
			t.Fatalf("Unexpected stream error: %v", res.Error)
		}
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 item, got %d", count)
	}
	if fake.queryCalls != 3 {
		t.Errorf("Expected 2 retries before success, got %d calls", fake.queryCalls)
	}
}

func TestStreamStopsOnPermanentError(t *testing.T) {
	fake := newFakeDynamo()
	fake.queryErrs = []error{stderrors.New("access denied")}
	store := New[widget](fake, "t")

	var results []models.StreamResult[widget]
	for res := range store.Stream(context.Background(), groupParams("blue")) {
		results = append(results, res)
	}
	if len(results) != 1 || results[0].Error == nil {
		t.Fatalf("Expected a single error result, got %+v", results)
	}
	if fake.queryCalls != 1 {
		t.Errorf("Expected no retry for a permanent error, got %d calls", fake.queryCalls)
	}
}

func TestStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := newFakeDynamo()
	store := New[widget](fake, "t")
	for i := 0; i < 10; i++ {
		if err := store.Put(ctx, widget{ID: string(rune('a' + i)), Group: "blue", Rank: i}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	results := store.Stream(ctx, groupParams("blue"), models.WithBufferSize(0), models.WithPageSize(1))
	<-results
	cancel()

	// drain; the worker must close the channel after cancellation
	for range results {
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throughput", &types.ProvisionedThroughputExceededException{}, true},
		{"request limit", &types.RequestLimitExceeded{}, true},
		{"internal", &types.InternalServerError{}, true},
		{"wrapped", stderrors.Join(stderrors.New("ctx"), &types.InternalServerError{}), true},
		{"not found", &types.ResourceNotFoundException{}, false},
		{"plain", stderrors.New("nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
