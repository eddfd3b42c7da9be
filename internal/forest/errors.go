package forest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition matches every PreconditionError.
	ErrPrecondition = errors.New("precondition violated")
	// ErrParentNotIndexed is returned when a child is placed under a parent without ranges.
	ErrParentNotIndexed = errors.New("parent is not indexed")
	// ErrMoveRangesMissing is returned when a move is requested without the node's pre-move ranges.
	ErrMoveRangesMissing = errors.New("pre-move ranges were not supplied")
	// ErrStaleRanges is returned when the supplied pre-move ranges differ from the stored ones.
	ErrStaleRanges = errors.New("supplied ranges are stale")
	// ErrCycle is returned when a node would become its own ancestor.
	ErrCycle = errors.New("node cannot be placed under its own subtree")
	// ErrNotIndexed is returned when an operation needs ranges the node does not have.
	ErrNotIndexed = errors.New("node is not indexed")
	// ErrNodeFactory is returned when the configured node factory yields no node.
	ErrNodeFactory = errors.New("node factory returned no node")
	// ErrTreeTypeMismatch is returned when a node does not belong to the session's tree type.
	ErrTreeTypeMismatch = errors.New("tree type mismatch")
)

// PreconditionError reports a call that cannot proceed against the current index state.
// It matches ErrPrecondition and its cause with errors.Is.
type PreconditionError struct {
	Op     string
	NodeID int64
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s node %d: %v", e.Op, e.NodeID, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// CorruptionError lists nested-set invariant violations found in one tree type.
type CorruptionError struct {
	TreeType string
	Problems []string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("tree type %s is inconsistent: %s", e.TreeType, strings.Join(e.Problems, "; "))
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
