/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/implindex/models"
)

// Stream pages through a query in the background, delivering items of type T
// on the returned channel. The channel is closed when the query is exhausted,
// ctx is cancelled or a page fails for good.
func (d *DynamodbDataStore[T]) Stream(ctx context.Context, params *models.QueryParams, opts ...models.StreamOption) <-chan models.StreamResult[T] {
	options := models.ApplyStreamOptions(opts...)
	resultCh := make(chan models.StreamResult[T], options.BufferSize)
	go d.streamWorker(ctx, params, options, resultCh)
	return resultCh
}

func (d *DynamodbDataStore[T]) streamWorker(
	ctx context.Context,
	params *models.QueryParams,
	options models.StreamOptions,
	resultCh chan<- models.StreamResult[T],
) {
	defer close(resultCh)

	var (
		itemIndex  int64
		pageNumber int
		errs       []error
		startTime  = time.Now()
	)

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress := models.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			LastKey:        lastKey,
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(itemIndex) / elapsed
		}
		options.ProgressHandler(progress)
	}

	send := func(result models.StreamResult[T]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- result:
			return true
		}
	}

	input := d.queryInput(params)
	input.Limit = aws.Int32(options.PageSize)

	for {
		if ctx.Err() != nil {
			return
		}

		out, err := d.queryWithRetry(ctx, input, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errs = append(errs, err)
			if options.ErrorHandler == nil || !options.ErrorHandler(err) {
				send(models.StreamResult[T]{
					Error: fmt.Errorf("query failed: %w", err),
					Meta:  models.StreamMeta{Index: itemIndex, PageNumber: pageNumber, Timestamp: time.Now()},
				})
				return
			}
			// the handler chose to go on; the failed page cannot be resumed
			break
		}

		pageNumber++
		for _, item := range out.Items {
			result := d.processItem(item, itemIndex, pageNumber)
			itemIndex++
			if result.Error != nil {
				errs = append(errs, result.Error)
			}
			if !send(result) {
				return
			}
		}

		reportProgress(out.LastEvaluatedKey)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	reportProgress(nil)
}

// queryWithRetry retries throttling and server errors with linear backoff.
func (d *DynamodbDataStore[T]) queryWithRetry(
	ctx context.Context,
	input *sdk.QueryInput,
	options models.StreamOptions,
) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}
		if attempt == options.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * options.RetryBackoff
		d.logger.Debug("retrying query", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

func (d *DynamodbDataStore[T]) processItem(item map[string]types.AttributeValue, index int64, pageNumber int) models.StreamResult[T] {
	result := models.StreamResult[T]{
		Raw: item,
		Meta: models.StreamMeta{
			Index:      index,
			PageNumber: pageNumber,
			Timestamp:  time.Now(),
		},
	}

	obj, err := d.decodeItem(item)
	if err != nil {
		result.Error = err
		return result
	}

	switch typed := obj.(type) {
	case T:
		result.Item = typed
	case *T:
		result.Item = *typed
	default:
		var zero T
		result.Error = fmt.Errorf("item decoded to %T, want %T", obj, zero)
	}
	return result
}

// isRetryableError reports whether a DynamoDB error is worth another attempt.
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
