package engine

import "errors"

var (
	// ErrIncompatiblePattern is returned when a pattern's kind and placeholder shape disagree.
	ErrIncompatiblePattern = errors.New("incompatible pattern")
	// ErrUnclaimed is returned when a rule enqueues an operation whose node it never claimed.
	ErrUnclaimed = errors.New("operation node was not claimed")
	// ErrDuplicateClaim is returned when two operations target the same node.
	ErrDuplicateClaim = errors.New("node targeted by more than one operation")
	// ErrOverlappingEdits is returned when edits from a pass overlap each other.
	ErrOverlappingEdits = errors.New("overlapping edits")
	// ErrDuplicateRule is returned when a rule name is registered twice.
	ErrDuplicateRule = errors.New("duplicate rule name")
	// ErrInvalidPermutation is returned for an argument order that is not a permutation.
	ErrInvalidPermutation = errors.New("invalid argument permutation")
)
