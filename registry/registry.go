/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
)

// Consumer renders (or otherwise accepts) one delivered library table.
type Consumer func(table models.LibraryTable) error

// State is the attachment state of a Registry.
type State int

const (
	// AwaitingConsumer is the initial state: submissions are queued.
	AwaitingConsumer State = iota
	// ConsumerAttached is terminal: submissions are forwarded immediately.
	ConsumerAttached
)

func (s State) String() string {
	switch s {
	case AwaitingConsumer:
		return "AwaitingConsumer"
	case ConsumerAttached:
		return "ConsumerAttached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type submission struct {
	seq   uint64
	table models.LibraryTable
}

// Registry collects library tables for one capability page and hands them to a
// single consumer in submission order, whether they arrive before or after the
// consumer is attached.
//
// Submit and Attach are serialized; the consumer runs while the registry lock
// is held, so a consumer must not call back into the same Registry.
type Registry struct {
	mu       sync.Mutex
	name     string
	logger   *zap.Logger
	state    State
	consumer Consumer
	pending  []submission
	nextSeq  uint64
}

// New creates a Registry in the AwaitingConsumer state.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger: zap.NewNop(),
		state:  AwaitingConsumer,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.name != "" {
		r.logger = r.logger.With(zap.String("registry", r.name))
	}
	return r
}

// Name returns the registry name given with WithName (typically the capability).
func (r *Registry) Name() string {
	return r.name
}

// State returns the current attachment state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the number of submissions waiting for a consumer.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Submit hands a library table to the registry. A malformed table is rejected
// and nothing is queued. With a consumer attached the table is delivered
// before Submit returns and the consumer's failure, if any, is returned as a
// ConsumerFailureError; otherwise the table is queued for Attach.
//
// The registry keeps the table as given; callers must not modify it afterwards.
func (r *Registry) Submit(table models.LibraryTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := submission{seq: r.nextSeq, table: table}
	r.nextSeq++

	if r.state == AwaitingConsumer {
		r.pending = append(r.pending, sub)
		r.logger.Debug("submission queued",
			zap.Uint64("seq", sub.seq),
			zap.Strings("libraries", table.Libraries()),
			zap.Int("pending", len(r.pending)))
		return nil
	}

	r.logger.Debug("submission forwarded",
		zap.Uint64("seq", sub.seq),
		zap.Strings("libraries", table.Libraries()))
	return r.deliver(r.consumer, sub)
}

// Attach installs the consumer. Every queued submission is replayed to it in
// submission order, then the registry forwards new submissions directly.
//
// A failing delivery does not stop the replay: the remaining tables are still
// delivered, nothing is retried, and all failures are returned joined. The
// consumer stays attached either way. Attaching a second time returns a
// DoubleAttachError without delivering anything.
func (r *Registry) Attach(consumer Consumer) error {
	if consumer == nil {
		return errors.NewValidationError("consumer", "must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == ConsumerAttached {
		return errors.NewDoubleAttachError(r.name)
	}

	r.logger.Debug("consumer attached, replaying pending submissions",
		zap.Int("pending", len(r.pending)))

	var errs []error
	for _, sub := range r.pending {
		if err := r.deliver(consumer, sub); err != nil {
			errs = append(errs, err)
		}
	}

	r.pending = nil
	r.consumer = consumer
	r.state = ConsumerAttached

	r.logger.Debug("replay finished", zap.Int("failures", len(errs)))
	return stderrors.Join(errs...)
}

// deliver invokes consumer for one submission, converting both returned errors
// and panics into a ConsumerFailureError. Callers hold r.mu.
func (r *Registry) deliver(consumer Consumer, sub submission) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			r.logger.Warn("consumer failed",
				zap.Uint64("seq", sub.seq),
				zap.Strings("libraries", sub.table.Libraries()),
				zap.Error(err))
			err = errors.NewConsumerFailureError(sub.seq, sub.table.Libraries(), err)
		}
	}()
	return consumer(sub.table)
}
