// Package fault classifies every error the loader and interpreter can raise.
//
// Each failure is an *Error carrying a Kind and wrapping one of the package
// sentinels, so callers can branch on either:
//
//	if errors.Is(err, fault.ErrDivideByZero) { ... }
//	if fault.KindOf(err) == fault.Resolution { ... }
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Format
	Index
	TypeMismatch
	Resolution
	Arithmetic
	UnknownInstruction
	StackOverflow
)

func (k Kind) String() string {
	switch k {
	case Format:
		return "FormatError"
	case Index:
		return "IndexError"
	case TypeMismatch:
		return "TypeMismatch"
	case Resolution:
		return "ResolutionError"
	case Arithmetic:
		return "ArithmeticFault"
	case UnknownInstruction:
		return "UnknownInstruction"
	case StackOverflow:
		return "StackOverflow"
	default:
		return "Unknown"
	}
}

var (
	ErrBadMagic            = errors.New("bad magic")
	ErrTrailingData        = errors.New("trailing data")
	ErrTruncated           = errors.New("truncated class file")
	ErrInvalidConstantTag  = errors.New("invalid constant tag")
	ErrMalformedAttribute  = errors.New("malformed attribute")
	ErrMalformedDescriptor = errors.New("malformed descriptor")

	ErrInvalidConstantIndex  = errors.New("invalid constant index")
	ErrLocalOutOfBounds      = errors.New("local variable index out of bounds")
	ErrStackUnderflow        = errors.New("operand stack underflow")
	ErrArrayIndexOutOfBounds = errors.New("array index out of bounds")

	ErrTypeMismatch  = errors.New("type mismatch")
	ErrNullReference = errors.New("null reference")

	ErrClassNotFound            = errors.New("class not found")
	ErrMethodNotFound           = errors.New("method not found")
	ErrFieldNotFound            = errors.New("field not found")
	ErrAmbiguousInterfaceMethod = errors.New("ambiguous interface method")
	ErrUnsupportedMethodKind    = errors.New("unsupported method kind")
	ErrIncompatibleClassChange  = errors.New("incompatible class change")
	ErrClassCircularity         = errors.New("class circularity")

	ErrDivideByZero = errors.New("division by zero")

	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrInvalidJumpTarget  = errors.New("invalid jump target")

	ErrStackOverflow = errors.New("stack overflow")
)

type Error struct {
	Kind   Kind
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Kind, e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, sentinel error, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Err:    sentinel,
		Detail: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
