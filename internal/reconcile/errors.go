package reconcile

import (
	"errors"
	"fmt"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// ErrRegistryNotSealed is returned by Reconcile when the registry can
// still change. Seal it once declarations are complete.
var ErrRegistryNotSealed = errors.New("reconcile: registry is not sealed")

// ErrorCode categorizes reconciliation errors.
type ErrorCode string

const (
	// ErrCodeRecordNotFound: a lookup value matched no child and the
	// relationship's policy is Raise.
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// ErrCodeRelationAlreadyExists: a payload with no lookup value was
	// submitted to a Single, Owned relationship that already has a child.
	ErrCodeRelationAlreadyExists ErrorCode = "RELATION_ALREADY_EXISTS"

	// ErrCodeInvalidPayloadShape: the payload is not a mapping, a sequence
	// of mappings, or does not fit the relationship's cardinality.
	ErrCodeInvalidPayloadShape ErrorCode = "INVALID_PAYLOAD_SHAPE"
)

// Error is returned for every reconciliation failure the caller can act
// on. All of them are terminal for the current call.
type Error struct {
	Code    ErrorCode
	Message string

	// Parent is the parent record reference ("Person:1"), when known.
	Parent string

	// Relation is the relationship name, when known.
	Relation string

	// LookupValue is the offending lookup value (RecordNotFound only).
	LookupValue string

	// Err is an optional underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Parent != "" && e.Relation != "" {
		msg = fmt.Sprintf("%s (parent=%s, relation=%s)", msg, e.Parent, e.Relation)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsRecordNotFound reports whether err is a RECORD_NOT_FOUND error.
func IsRecordNotFound(err error) bool {
	return hasCode(err, ErrCodeRecordNotFound)
}

// IsRelationAlreadyExists reports whether err is a RELATION_ALREADY_EXISTS error.
func IsRelationAlreadyExists(err error) bool {
	return hasCode(err, ErrCodeRelationAlreadyExists)
}

// IsInvalidPayloadShape reports whether err is an INVALID_PAYLOAD_SHAPE error.
func IsInvalidPayloadShape(err error) bool {
	return hasCode(err, ErrCodeInvalidPayloadShape)
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func newRecordNotFound(d relation.Descriptor, parent ir.Record, lookup string) *Error {
	return &Error{
		Code:        ErrCodeRecordNotFound,
		Message:     fmt.Sprintf("couldn't find %s with %s=%s", d.ChildType, d.LookupKey, lookup),
		Parent:      parent.Ref(),
		Relation:    d.Name,
		LookupValue: lookup,
	}
}

func newRelationAlreadyExists(d relation.Descriptor, parent ir.Record, existing ir.Record) *Error {
	return &Error{
		Code:     ErrCodeRelationAlreadyExists,
		Message:  fmt.Sprintf("%s already has %s; pass its %s to update it", parent.Ref(), existing.Ref(), d.LookupKey),
		Parent:   parent.Ref(),
		Relation: d.Name,
	}
}

func newInvalidPayloadShape(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidPayloadShape,
		Message: fmt.Sprintf(format, args...),
	}
}
