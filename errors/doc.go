/*
Package errors provides semantic error types for the implementor index.

The package defines the registry's failure modes as sentinels that can be
checked with the standard errors.Is() function or the provided helpers.

Common Errors:

	var (
	    ErrMalformedSubmission = errors.New("malformed submission")
	    ErrDoubleAttach        = errors.New("consumer already attached")
	    ErrConsumerFailure     = errors.New("consumer failed")
	    ErrNotFound            = errors.New("record not found")
	    ErrInvalidInput        = errors.New("invalid input")
	    ErrNoIndexMap          = errors.New("no index map found for type")
	)

Usage:

	if err := reg.Submit(table); err != nil {
	    if errors.IsMalformedSubmission(err) {
	        // the fragment is broken, nothing was queued
	    }
	    return err
	}

	if err := reg.Attach(render); errors.IsDoubleAttach(err) {
	    // programmer error: the page attached twice
	}

ConsumerFailureError unwraps to the consumer's own error, so callers can
match both the category and the cause:

	var target *MyRenderError
	if errors.IsConsumerFailure(err) && stderrors.As(err, &target) {
	    ...
	}
*/
package errors
