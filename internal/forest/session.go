package forest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forest-index/internal/storage"
)

// Session is a scoped write handle over one tree type, created by Engine.Update.
// All reads through a session see the session's own writes.
type Session struct {
	engine   *Engine
	tx       storage.IndexTx
	treeType string
	logger   *slog.Logger

	cachePut   map[string]int64
	cacheDrop  []string
	cachePurge bool
}

func newSession(e *Engine, tx storage.IndexTx, treeType string) *Session {
	return &Session{
		engine:   e,
		tx:       tx,
		treeType: treeType,
		cachePut: make(map[string]int64),
	}
}

// TreeType returns the tree type the session is locked on.
func (s *Session) TreeType() string {
	return s.treeType
}

func (s *Session) getLogger(ctx context.Context) *slog.Logger {
	if s.logger == nil {
		s.logger = s.engine.getLogger(ctx).With("tree_type", s.treeType)
	}
	return s.logger
}

// NewNode returns an unindexed node of the session's tree type from the engine's factory.
func (s *Session) NewNode() (*storage.IndexRecord, error) {
	node := s.engine.newNode(s.treeType)
	if node == nil {
		return nil, &PreconditionError{Op: "create", Err: ErrNodeFactory}
	}
	if node.TreeType == "" {
		node.TreeType = s.treeType
	}
	return node, nil
}

// FindByContentID returns the node indexing contentID, or storage.ErrNotFound.
func (s *Session) FindByContentID(ctx context.Context, contentID string) (*storage.IndexRecord, error) {
	return s.tx.GetByContentID(ctx, contentID)
}

// Root returns the structural root, or storage.ErrNotFound.
func (s *Session) Root(ctx context.Context) (*storage.IndexRecord, error) {
	return s.tx.GetRoot(ctx, s.treeType)
}

// EnsureRoot returns the structural root, creating a synthetic anchor when the tree type has none.
func (s *Session) EnsureRoot(ctx context.Context) (*storage.IndexRecord, error) {
	root, err := s.tx.GetRoot(ctx, s.treeType)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, WrapError(err, "failed to find root")
	}

	anchor, err := s.NewNode()
	if err != nil {
		return nil, err
	}
	anchor.ContentID = nil
	anchor.ParentID = nil
	root, err = s.SaveNode(ctx, anchor)
	if err != nil {
		return nil, WrapError(err, "failed to create synthetic root")
	}
	s.getLogger(ctx).DebugContext(ctx, "created synthetic root", "id", root.ID)
	return root, nil
}

// SaveNode persists node and assigns or repairs its ranges.
//
// A new or unindexed node is placed as the structural root when it has no
// parent, or as the right-most child of its parent otherwise. A node whose
// parent is unchanged keeps its stored ranges. A node whose parent changed is
// moved: the caller must pass the node as loaded before the parent was
// changed, so that Lft and Rgt still name the old interval.
func (s *Session) SaveNode(ctx context.Context, node *storage.IndexRecord) (*storage.IndexRecord, error) {
	if err := s.checkTreeType("save", node); err != nil {
		return nil, err
	}

	var stored *storage.IndexRecord
	if node.ID != 0 {
		var err error
		stored, err = s.tx.GetByID(ctx, node.ID)
		if err != nil {
			return nil, WrapError(err, fmt.Sprintf("failed to load index node %d", node.ID))
		}
		if stored.TreeType != node.TreeType {
			return nil, &PreconditionError{Op: "save", NodeID: node.ID, Err: ErrTreeTypeMismatch}
		}
	}

	if stored == nil || sameID(stored.ParentID, node.ParentID) {
		return s.saveInPlace(ctx, node, stored)
	}
	return s.move(ctx, node, stored)
}

// saveInPlace handles a save that does not change the parent.
func (s *Session) saveInPlace(ctx context.Context, node, stored *storage.IndexRecord) (*storage.IndexRecord, error) {
	if stored != nil {
		node.Lft, node.Rgt = stored.Lft, stored.Rgt
	} else {
		node.Lft, node.Rgt = nil, nil
	}

	saved, err := s.tx.Save(ctx, node)
	if err != nil {
		return nil, err
	}
	s.remember(saved)

	if stored != nil && stored.Indexed() {
		return saved, nil
	}
	return s.place(ctx, saved)
}

// move re-lays out node and its subtree under its new parent.
func (s *Session) move(ctx context.Context, node, stored *storage.IndexRecord) (*storage.IndexRecord, error) {
	if stored.Indexed() {
		if !node.Indexed() {
			return nil, &PreconditionError{Op: "move", NodeID: node.ID, Err: ErrMoveRangesMissing}
		}
		if *node.Lft != *stored.Lft || *node.Rgt != *stored.Rgt {
			return nil, &PreconditionError{Op: "move", NodeID: node.ID, Err: ErrStaleRanges}
		}
	}
	if err := s.checkNotDescendant(ctx, node.ID, node.ParentID); err != nil {
		return nil, err
	}

	node.Lft, node.Rgt = nil, nil
	saved, err := s.tx.Save(ctx, node)
	if err != nil {
		return nil, err
	}
	s.remember(saved)

	if stored.Indexed() {
		lft, rgt := *stored.Lft, *stored.Rgt
		if rgt-lft > 1 {
			if err := s.tx.ClearRangesBetween(ctx, s.treeType, lft+1, rgt-1); err != nil {
				return nil, err
			}
		}
		if err := s.tx.CloseGap(ctx, s.treeType, lft, rgt); err != nil {
			return nil, err
		}
	}

	placed, err := s.place(ctx, saved)
	if err != nil {
		return nil, err
	}
	if err := s.placeSubtree(ctx, placed, 0, nil); err != nil {
		return nil, err
	}

	// Descendant placement shifted the node's own rgt.
	moved, err := s.tx.GetByID(ctx, placed.ID)
	if err != nil {
		return nil, err
	}
	s.getLogger(ctx).DebugContext(ctx, "moved index node",
		"id", moved.ID, "previous_parent_id", stored.ParentID, "parent_id", moved.ParentID,
		"descendants", moved.DescendantCount())
	return moved, nil
}

// checkNotDescendant rejects a parent that is the node itself or lies below it.
// The walk follows parent links so it also works on unindexed rows.
func (s *Session) checkNotDescendant(ctx context.Context, nodeID int64, parentID *int64) error {
	seen := make(map[int64]bool)
	for current := parentID; current != nil; {
		if *current == nodeID {
			return &PreconditionError{Op: "move", NodeID: nodeID, Err: ErrCycle}
		}
		if seen[*current] {
			return &PreconditionError{Op: "move", NodeID: nodeID, Err: ErrCycle}
		}
		seen[*current] = true

		next, err := s.tx.GetParentID(ctx, *current)
		if err != nil {
			return WrapError(err, fmt.Sprintf("failed to load parent of index node %d", *current))
		}
		current = next
	}
	return nil
}

// place assigns ranges to an unindexed, persisted node.
func (s *Session) place(ctx context.Context, node *storage.IndexRecord) (*storage.IndexRecord, error) {
	if node.ParentID == nil {
		return s.insertAsRoot(ctx, node)
	}

	parent, err := s.tx.GetByID(ctx, *node.ParentID)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to load parent %d of index node %d", *node.ParentID, node.ID))
	}
	if parent.TreeType != s.treeType {
		return nil, &PreconditionError{Op: "insert", NodeID: node.ID, Err: ErrTreeTypeMismatch}
	}
	return s.insertAsChildLast(ctx, node, parent)
}

// insertAsRoot makes node the structural root. The whole previous forest is
// shifted right by one and the previous root is chained under node.
func (s *Session) insertAsRoot(ctx context.Context, node *storage.IndexRecord) (*storage.IndexRecord, error) {
	if err := s.tx.ShiftForRootInsert(ctx, s.treeType); err != nil {
		return nil, err
	}
	rgt, err := s.tx.UpperBound(ctx, s.treeType)
	if err != nil {
		return nil, err
	}
	if err := s.tx.SetRangeAndParent(ctx, node.ID, 1, rgt, nil); err != nil {
		return nil, err
	}
	node.Lft, node.Rgt, node.ParentID = storage.Int64(1), storage.Int64(rgt), nil

	// Normally at most one previous root exists; stray parentless rows are chained too.
	for {
		previous, err := s.tx.GetOtherRoot(ctx, s.treeType, node.ID)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := s.tx.SetParent(ctx, previous.ID, storage.Int64(node.ID)); err != nil {
			return nil, err
		}
		s.getLogger(ctx).DebugContext(ctx, "chained previous root", "id", node.ID, "previous_root_id", previous.ID)
	}
	return node, nil
}

// insertAsChildLast places node as the right-most child of parent.
func (s *Session) insertAsChildLast(ctx context.Context, node, parent *storage.IndexRecord) (*storage.IndexRecord, error) {
	if !parent.Indexed() {
		return nil, &PreconditionError{Op: "insert", NodeID: node.ID, Err: ErrParentNotIndexed}
	}
	parentRgt := *parent.Rgt

	if err := s.tx.ShiftForChildInsert(ctx, s.treeType, parentRgt); err != nil {
		return nil, err
	}
	if err := s.tx.SetRangeAndParent(ctx, node.ID, parentRgt, parentRgt+1, storage.Int64(parent.ID)); err != nil {
		return nil, err
	}
	node.Lft, node.Rgt, node.ParentID = storage.Int64(parentRgt), storage.Int64(parentRgt+1), storage.Int64(parent.ID)
	return node, nil
}

// placeSubtree places the unindexed children of parent depth-first, pre-order,
// each as the right-most child of its already placed parent. Children that
// still hold ranges, such as a root chained under a moved node, keep them.
func (s *Session) placeSubtree(ctx context.Context, parent *storage.IndexRecord, depth int, stats *RebuildStats) error {
	children, err := s.tx.ListDirectChildren(ctx, parent)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Indexed() {
			continue
		}
		placed, err := s.place(ctx, child)
		if err != nil {
			return err
		}
		if stats != nil {
			stats.Visit(depth + 1)
		}
		if err := s.placeSubtree(ctx, placed, depth+1, stats); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes node and its whole subtree, using the ranges stored now
// rather than the ones node carries. With closeGap false the hole stays:
// ancestors keep their old bounds, so their descendant counts are too high
// until the next Rebuild, while subtree membership queries stay correct.
func (s *Session) DeleteNode(ctx context.Context, node *storage.IndexRecord, closeGap bool) (*storage.IndexRecord, error) {
	if err := s.checkTreeType("delete", node); err != nil {
		return nil, err
	}
	stored, err := s.tx.GetByID(ctx, node.ID)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to load index node %d", node.ID))
	}
	if stored.TreeType != s.treeType {
		return nil, &PreconditionError{Op: "delete", NodeID: node.ID, Err: ErrTreeTypeMismatch}
	}
	if !stored.Indexed() {
		return nil, &PreconditionError{Op: "delete", NodeID: node.ID, Err: ErrNotIndexed}
	}

	lft, rgt := *stored.Lft, *stored.Rgt
	if err := s.tx.DeleteRange(ctx, s.treeType, lft, rgt); err != nil {
		return nil, err
	}
	if closeGap {
		if err := s.tx.CloseGap(ctx, s.treeType, lft, rgt); err != nil {
			return nil, err
		}
	}
	if stored.ContentID != nil {
		s.cacheDrop = append(s.cacheDrop, *stored.ContentID)
	}

	s.getLogger(ctx).DebugContext(ctx, "deleted index subtree",
		"id", stored.ID, "lft", lft, "rgt", rgt, "nodes", stored.DescendantCount()+1, "close_gap", closeGap)
	return stored, nil
}

// Rebuild clears every range of the tree type and recomputes them from
// parent links, starting at the structural root. An empty tree type is a no-op.
func (s *Session) Rebuild(ctx context.Context) (*RebuildStats, error) {
	start := time.Now()
	stats := &RebuildStats{TreeType: s.treeType}

	if err := s.tx.ClearRanges(ctx, s.treeType); err != nil {
		return nil, err
	}

	root, err := s.tx.GetRoot(ctx, s.treeType)
	if errors.Is(err, storage.ErrNotFound) {
		stats.Duration = time.Since(start)
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	placed, err := s.insertAsRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	stats.Visit(0)
	if err := s.placeSubtree(ctx, placed, 0, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	s.getLogger(ctx).InfoContext(ctx, "rebuilt forest index",
		"nodes", stats.Nodes, "depth", stats.Depth, "duration", stats.Duration)
	return stats, nil
}

// ClearIndexes unsets all ranges, keeping rows and parent links for a later Rebuild.
func (s *Session) ClearIndexes(ctx context.Context) error {
	if err := s.tx.ClearRanges(ctx, s.treeType); err != nil {
		return err
	}
	s.getLogger(ctx).InfoContext(ctx, "cleared forest index ranges")
	return nil
}

// DropIndexes removes every row of the tree type.
func (s *Session) DropIndexes(ctx context.Context) error {
	if err := s.tx.DeleteAll(ctx, s.treeType); err != nil {
		return err
	}
	s.cachePurge = true
	s.cachePut = make(map[string]int64)
	s.getLogger(ctx).InfoContext(ctx, "dropped forest index")
	return nil
}

func (s *Session) checkTreeType(op string, node *storage.IndexRecord) error {
	if node.TreeType == "" {
		node.TreeType = s.treeType
	}
	if node.TreeType != s.treeType {
		return &PreconditionError{Op: op, NodeID: node.ID, Err: ErrTreeTypeMismatch}
	}
	return nil
}

// remember queues a content id cache entry, applied once the session commits.
func (s *Session) remember(node *storage.IndexRecord) {
	if node.ContentID != nil {
		s.cachePut[*node.ContentID] = node.ID
	}
}

func (s *Session) flushCache() {
	c := s.engine.cache
	if c == nil {
		return
	}
	if s.cachePurge {
		c.Clear()
	}
	for _, contentID := range s.cacheDrop {
		c.Delete(contentID)
	}
	for contentID, id := range s.cachePut {
		c.Put(contentID, id)
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
