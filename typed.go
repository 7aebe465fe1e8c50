package kumpul

import (
	"encoding/json"
	"fmt"
)

// JSONParser returns a ParseFunc that decodes the response body into T.
func JSONParser[T any]() ParseFunc {
	return func(body []byte) (any, error) {
		var value T
		if err := json.Unmarshal(body, &value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// OnResult adapts a typed handler to a CompletionFunc. The type-erased
// Outcome.Value is resolved back to T at delivery time; a mismatch between
// the registered parser and T surfaces as a Parse failure rather than a
// panic.
func OnResult[T any](fn func(value T, err error)) CompletionFunc {
	return func(out Outcome) {
		var zero T
		if out.Err != nil {
			fn(zero, out.Err)
			return
		}
		value, ok := out.Value.(T)
		if !ok {
			fn(zero, &CoordinatorError{
				Type:    ErrorTypeParse,
				Message: fmt.Sprintf("unexpected result type %T", out.Value),
			})
			return
		}
		fn(value, nil)
	}
}
