package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by errors.Is against the structured errors below.
var (
	ErrType             = errors.New("expr: type error")
	ErrArgument         = errors.New("expr: argument error")
	ErrConstantRequired = errors.New("expr: constant required")

	// ErrFeatureRequired is returned when a feature-dependent expression is
	// evaluated without a feature.
	ErrFeatureRequired = errors.New("expr: feature required")

	// ErrNotBound is returned when an expression that needs metadata is
	// evaluated or compiled before Bind.
	ErrNotBound = errors.New("expr: not bound to metadata")

	// ErrNoShader is returned by expressions that only exist on the CPU.
	ErrNoShader = errors.New("expr: expression has no shader form")

	// ErrBlendInFlight is returned when a subtree already has a blend
	// replacement in progress.
	ErrBlendInFlight = errors.New("expr: blend already in flight")

	// ErrUnknownHandle is returned for handles that do not address a live
	// tree slot.
	ErrUnknownHandle = errors.New("expr: unknown handle")
)

// ErrorCode identifies a class of style compilation errors.
type ErrorCode string

// Style compilation error codes.
const (
	CodeTypeMismatch     ErrorCode = "EXPR100"
	CodeBadArgument      ErrorCode = "EXPR200"
	CodeConstantRequired ErrorCode = "EXPR300"
)

// TypeError reports an argument whose resolved type is not accepted by an
// operator. It aborts binding.
type TypeError struct {
	Op       string
	ArgName  string
	ArgIndex int
	Expected []Type
	Actual   Type
}

func (e *TypeError) Error() string {
	exp := make([]string, len(e.Expected))
	for i, t := range e.Expected {
		exp[i] = t.String()
	}
	return fmt.Sprintf("%s: %s(): invalid type of argument %d (%s): expected %s, got %s",
		CodeTypeMismatch, e.Op, e.ArgIndex, e.ArgName, strings.Join(exp, " | "), e.Actual)
}

func (e *TypeError) Is(target error) bool { return target == ErrType }

// ArgumentError reports a malformed argument or overload. It aborts
// construction.
type ArgumentError struct {
	Op       string
	ArgIndex int
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s(): invalid argument %d: %s", CodeBadArgument, e.Op, e.ArgIndex, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }

// ConstantRequiredError reports a feature-dependent expression where a
// constant was required.
type ConstantRequiredError struct {
	Op       string
	ArgIndex int
	Err      error
}

func (e *ConstantRequiredError) Error() string {
	msg := fmt.Sprintf("%s: %s(): argument %d must be a constant expression, it cannot depend on feature properties",
		CodeConstantRequired, e.Op, e.ArgIndex)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstantRequiredError) Is(target error) bool { return target == ErrConstantRequired }

func (e *ConstantRequiredError) Unwrap() error { return e.Err }

func checkType(op, name string, idx int, n Node, expected ...Type) error {
	if oneOf(n.Type(), expected) {
		return nil
	}
	return &TypeError{Op: op, ArgName: name, ArgIndex: idx, Expected: expected, Actual: n.Type()}
}
