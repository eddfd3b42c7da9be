package forest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forest-index/internal/cache"
	"forest-index/internal/contextutil"
	"forest-index/internal/storage"
)

// NodeFactory creates an empty, unindexed node for a tree type.
type NodeFactory func(treeType string) *storage.IndexRecord

// Option configures an Engine.
type Option func(*Engine)

// WithNodeFactory sets the factory used for new content nodes and synthetic anchors.
func WithNodeFactory(factory NodeFactory) Option {
	return func(e *Engine) {
		e.newNode = factory
	}
}

// WithCache enables the content id lookup cache.
func WithCache(c *cache.NodeIDCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine maintains nested-set ranges over an index store.
// Structural writes run in sessions that hold a per tree type lock and one
// store transaction; reads go straight to the store.
type Engine struct {
	store   storage.IndexStore
	newNode NodeFactory
	cache   *cache.NodeIDCache
	locks   *typeLocks
	logger  *slog.Logger
}

// NewEngine creates a new Engine over store.
func NewEngine(store storage.IndexStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		newNode: storage.NewIndexRecord,
		locks:   newTypeLocks(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// getLogger extracts logger from context or returns the engine logger.
func (e *Engine) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx, e.logger)
}

// Update runs fn in a session over treeType. The session commits when fn
// returns nil and rolls back on an error or panic; nothing fn wrote is kept
// unless the whole session commits.
func (e *Engine) Update(ctx context.Context, treeType string, fn func(s *Session) error) error {
	treeType = storage.NormalizeTreeType(treeType)

	unlock := e.locks.lock(treeType)
	defer unlock()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	s := newSession(e, tx, treeType)
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index session: %w", err)
	}
	committed = true

	s.flushCache()
	return nil
}

// SaveNode persists node and keeps its ranges consistent, see Session.SaveNode.
func (e *Engine) SaveNode(ctx context.Context, node *storage.IndexRecord) (*storage.IndexRecord, error) {
	var saved *storage.IndexRecord
	err := e.Update(ctx, node.TreeType, func(s *Session) error {
		var err error
		saved, err = s.SaveNode(ctx, node)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteNode removes node and its subtree, see Session.DeleteNode.
func (e *Engine) DeleteNode(ctx context.Context, node *storage.IndexRecord, closeGap bool) error {
	return e.Update(ctx, node.TreeType, func(s *Session) error {
		_, err := s.DeleteNode(ctx, node, closeGap)
		return err
	})
}

// Rebuild recomputes every range of treeType from parent links.
func (e *Engine) Rebuild(ctx context.Context, treeType string) (*RebuildStats, error) {
	var stats *RebuildStats
	err := e.Update(ctx, treeType, func(s *Session) error {
		var err error
		stats, err = s.Rebuild(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearIndexes unsets all ranges of treeType, keeping rows and parent links.
func (e *Engine) ClearIndexes(ctx context.Context, treeType string) error {
	return e.Update(ctx, treeType, func(s *Session) error {
		return s.ClearIndexes(ctx)
	})
}

// DropIndexes removes all rows of treeType.
func (e *Engine) DropIndexes(ctx context.Context, treeType string) error {
	return e.Update(ctx, treeType, func(s *Session) error {
		return s.DropIndexes(ctx)
	})
}

// FindByContentID returns the node indexing contentID, or storage.ErrNotFound.
// Cached row ids are checked against the store before use.
func (e *Engine) FindByContentID(ctx context.Context, contentID string) (*storage.IndexRecord, error) {
	if e.cache != nil {
		if id, ok := e.cache.Get(contentID); ok {
			node, err := e.store.GetByID(ctx, id)
			if err == nil && node.ContentID != nil && *node.ContentID == contentID {
				return node, nil
			}
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			e.cache.Delete(contentID)
		}
	}

	node, err := e.store.GetByContentID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Put(contentID, node.ID)
	}
	return node, nil
}

// Root returns the structural root of treeType, or storage.ErrNotFound.
func (e *Engine) Root(ctx context.Context, treeType string) (*storage.IndexRecord, error) {
	return e.store.GetRoot(ctx, treeType)
}

// ListDescendants returns the nodes inside node's interval in lft order.
func (e *Engine) ListDescendants(ctx context.Context, node *storage.IndexRecord, page storage.Page) (storage.Result[*storage.IndexRecord], error) {
	return e.store.ListDescendants(ctx, node, page)
}

// Verify checks every nested-set invariant of treeType and returns a
// *CorruptionError listing the violations. A delete that left its gap open
// is reported here until the next Rebuild.
func (e *Engine) Verify(ctx context.Context, treeType string) error {
	treeType = storage.NormalizeTreeType(treeType)
	start := time.Now()

	nodes, err := e.store.ListByTreeType(ctx, treeType)
	if err != nil {
		return WrapError(err, "failed to list index nodes")
	}

	problems := checkInvariants(nodes)
	logger := e.getLogger(ctx)
	if len(problems) > 0 {
		logger.WarnContext(ctx, "forest index inconsistent", "tree_type", treeType, "problems", len(problems))
		return &CorruptionError{TreeType: treeType, Problems: problems}
	}

	logger.DebugContext(ctx, "forest index verified", "tree_type", treeType, "nodes", len(nodes), "duration", time.Since(start))
	return nil
}
