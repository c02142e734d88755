// FILE: lixenwraith/layerconf/outcome.go
package layerconf

// DiscoveryOutcome is the result of a fallible search over several sources:
// an optional value plus errors partitioned by whether their source was required.
//
// When Found is true the errors are informational only. When Found is false and
// RequiredErrors is non-empty the caller must fail. When both are empty the caller
// proceeds without the value.
type DiscoveryOutcome[T any] struct {
	Value          T
	Found          bool
	RequiredErrors []error
	OptionalErrors []error
}

// Fatal returns the aggregated required errors, or nil if there are none.
func (o DiscoveryOutcome[T]) Fatal() error {
	return Aggregate(o.RequiredErrors...)
}

// Resolve applies the aggregation rules to the outcome.
// Required errors always win. A found value discards optional errors.
// If nothing was found, the first optional error in discovery order is returned,
// or ErrConfigNotFound when no source reported anything at all.
func (o DiscoveryOutcome[T]) Resolve() (T, error) {
	var zero T
	if err := o.Fatal(); err != nil {
		return zero, err
	}
	if o.Found {
		return o.Value, nil
	}
	if len(o.OptionalErrors) > 0 {
		return zero, o.OptionalErrors[0]
	}
	return zero, ErrConfigNotFound
}

// errorBuffer accumulates errors while speculative sources are tried in order.
type errorBuffer struct {
	required []error
	optional []error
}

// record files err under the required or optional partition
func (b *errorBuffer) record(err error, required bool) {
	if err == nil {
		return
	}
	if required {
		b.required = append(b.required, err)
	} else {
		b.optional = append(b.optional, err)
	}
}

// hasRequired reports whether any required source has failed
func (b *errorBuffer) hasRequired() bool {
	return len(b.required) > 0
}

// found seals the buffer into a successful outcome
func found[T any](b *errorBuffer, value T) DiscoveryOutcome[T] {
	return DiscoveryOutcome[T]{
		Value:          value,
		Found:          true,
		RequiredErrors: b.required,
		OptionalErrors: b.optional,
	}
}

// exhausted seals the buffer into an outcome without a value
func exhausted[T any](b *errorBuffer) DiscoveryOutcome[T] {
	return DiscoveryOutcome[T]{
		RequiredErrors: b.required,
		OptionalErrors: b.optional,
	}
}
