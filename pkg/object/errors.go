package object

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound reports a hash absent from the store. It is
	// recoverable: the object may simply not have been written yet.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCorruptObject reports stored bytes that fail type, length or
	// digest checks, or a decoded object that does not re-hash to its key.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrObjectType reports an object of a kind other than the one required.
	ErrObjectType = errors.New("object type mismatch")
	// ErrInvalidTreeEntry reports a rejected tree mutation.
	ErrInvalidTreeEntry = errors.New("invalid tree entry")

	ErrInvalidHash     = errors.New("invalid object hash")
	ErrAmbiguousHash   = errors.New("ambiguous object hash")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// CorruptObjectError describes why stored or decoded bytes were rejected.
type CorruptObjectError struct {
	Hash   Hash
	Reason string
	Err    error
}

func (e *CorruptObjectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("object %s: %s: %s", e.Hash, ErrCorruptObject, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptObjectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *CorruptObjectError) Is(target error) bool {
	return target == ErrCorruptObject
}

func corruptf(h Hash, format string, args ...any) error {
	return &CorruptObjectError{Hash: h, Reason: fmt.Sprintf(format, args...)}
}

// TypeError reports that an object resolved to the wrong kind.
type TypeError struct {
	Hash Hash
	Got  ObjectType
	Want ObjectType
}

func (e *TypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Want == "" {
		return fmt.Sprintf("%s: unknown type %q", ErrObjectType, e.Got)
	}
	return fmt.Sprintf("object %s: type mismatch: got %q, want %q", e.Hash, e.Got, e.Want)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrObjectType
}

// InvalidTreeEntryError reports a path that cannot be placed in a tree.
type InvalidTreeEntryError struct {
	Path   string
	Reason string
}

func (e *InvalidTreeEntryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidTreeEntry, e.Path, e.Reason)
}

func (e *InvalidTreeEntryError) Is(target error) bool {
	return target == ErrInvalidTreeEntry
}
