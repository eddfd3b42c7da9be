package content

import (
	"errors"

	"forest-index/internal/forest"
)

var (
	// ErrParentNotIndexed is returned when content is indexed under a parent
	// that has no index node yet. Index parents first or use SaveContent.
	ErrParentNotIndexed = errors.New("parent content is not indexed")
	// ErrTreeTypeMismatch is returned when content and its parent live in different tree types.
	ErrTreeTypeMismatch = forest.ErrTreeTypeMismatch
	// ErrNotIndexed is returned by range queries on content without index ranges.
	ErrNotIndexed = errors.New("content is not indexed")
	// ErrHasChildren is returned when deleting content that still has children.
	ErrHasChildren = errors.New("content has children")
	// ErrContentCycle is returned when a content parent chain loops back on itself.
	ErrContentCycle = errors.New("content parent chain loops")
)
