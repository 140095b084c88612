/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import "go.uber.org/zap"

// Option configures a Registry.
type Option func(*Registry)

// WithName names the registry; the name appears in errors and log fields.
func WithName(name string) Option {
	return func(r *Registry) {
		r.name = name
	}
}

// WithLogger sets the logger used for debug tracing of queue and delivery.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger == nil {
			return
		}
		r.logger = logger
	}
}
