// Package lazy defers decoding an object's payload until one of its fields
// is first read.
//
// A Value starts Proxied, holding only the raw payload. The first Get runs
// the decoder, then the verifier, then drops the raw bytes and becomes
// Materialized. That transition happens at most once. Concurrent callers
// block until the first one finishes and then see its result; a failed
// transition is remembered and returned to every later caller.
//
// Decoders and verifiers must not call Get on the Value they belong to.
package lazy

import (
	"sync"

	"go.uber.org/atomic"
)

// State is the materialization state of a Value.
type State uint32

const (
	Proxied State = iota
	Materialized
)

func (s State) String() string {
	switch s {
	case Proxied:
		return "proxied"
	case Materialized:
		return "materialized"
	default:
		return "unknown"
	}
}

// Decoder parses a raw payload into structured fields.
type Decoder[T any] func(raw []byte) (T, error)

// Verifier checks freshly decoded fields before they are published.
type Verifier[T any] func(fields T) error

// Value holds either a raw payload awaiting decode or the decoded fields.
type Value[T any] struct {
	state atomic.Uint32

	mu     sync.Mutex
	raw    []byte
	decode Decoder[T]
	verify Verifier[T]
	err    error

	fields T
}

// NewProxied returns a Value that will decode raw on first access. verify
// may be nil.
func NewProxied[T any](raw []byte, decode Decoder[T], verify Verifier[T]) *Value[T] {
	return &Value[T]{raw: raw, decode: decode, verify: verify}
}

// NewReady returns a Value that is already materialized.
func NewReady[T any](fields T) *Value[T] {
	v := &Value[T]{fields: fields}
	v.state.Store(uint32(Materialized))
	return v
}

// State reports whether the value has been materialized.
func (v *Value[T]) State() State {
	return State(v.state.Load())
}

// Get returns the decoded fields, materializing the value if needed.
func (v *Value[T]) Get() (T, error) {
	if v.State() == Materialized {
		return v.fields, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.State() == Materialized {
		return v.fields, nil
	}
	if v.err != nil {
		var zero T
		return zero, v.err
	}

	fields, err := v.decode(v.raw)
	if err == nil && v.verify != nil {
		err = v.verify(fields)
	}
	if err != nil {
		v.err = err
		var zero T
		return zero, err
	}

	v.fields = fields
	v.raw = nil
	v.decode = nil
	v.verify = nil
	v.state.Store(uint32(Materialized))
	return v.fields, nil
}

// Raw returns the undecoded payload while the value is still proxied.
func (v *Value[T]) Raw() ([]byte, bool) {
	if v.State() == Materialized {
		return nil, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.State() == Materialized {
		return nil, false
	}
	return v.raw, true
}
