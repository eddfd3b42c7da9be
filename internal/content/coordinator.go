package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forest-index/internal/contextutil"
	"forest-index/internal/forest"
	"forest-index/internal/storage"
)

// Coordinator keeps the forest index in step with hierarchical content.
// Content ids map to index nodes one to one; content roots hang under the
// tree type's structural root, a synthetic anchor created on demand.
type Coordinator struct {
	engine   *forest.Engine
	contents storage.ContentStore
	logger   *slog.Logger
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(engine *forest.Engine, contents storage.ContentStore) *Coordinator {
	return &Coordinator{
		engine:   engine,
		contents: contents,
		logger:   slog.Default(),
	}
}

// getLogger extracts logger from context or returns default logger.
func (c *Coordinator) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx, c.logger)
}

// Index creates or updates the index node of contentID. A nil
// parentContentID attaches the content to the structural root. Indexing
// existing content under a different parent moves its whole subtree.
func (c *Coordinator) Index(ctx context.Context, treeType, contentID string, parentContentID *string) (*storage.IndexRecord, error) {
	var saved *storage.IndexRecord
	err := c.engine.Update(ctx, treeType, func(s *forest.Session) error {
		var err error
		saved, err = c.index(ctx, s, contentID, parentContentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (c *Coordinator) index(ctx context.Context, s *forest.Session, contentID string, parentContentID *string) (*storage.IndexRecord, error) {
	var parent *storage.IndexRecord
	if parentContentID != nil {
		var err error
		parent, err = s.FindByContentID(ctx, *parentContentID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrParentNotIndexed, *parentContentID)
		}
		if err != nil {
			return nil, err
		}
		if parent.TreeType != s.TreeType() {
			return nil, fmt.Errorf("%w: parent %s is in %s", ErrTreeTypeMismatch, *parentContentID, parent.TreeType)
		}
		if !parent.Indexed() {
			return nil, fmt.Errorf("%w: %s", ErrParentNotIndexed, *parentContentID)
		}
	} else {
		var err error
		parent, err = s.EnsureRoot(ctx)
		if err != nil {
			return nil, err
		}
	}

	node, err := s.FindByContentID(ctx, contentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		node, err = s.NewNode()
		if err != nil {
			return nil, err
		}
		node.ContentID = storage.String(contentID)
	case err != nil:
		return nil, err
	case node.TreeType != s.TreeType():
		return nil, fmt.Errorf("%w: content %s is indexed in %s", ErrTreeTypeMismatch, contentID, node.TreeType)
	}

	// Content that is itself the structural root stays where it is.
	if node.ID == 0 || node.ID != parent.ID {
		node.ParentID = storage.Int64(parent.ID)
	}
	return s.SaveNode(ctx, node)
}

// DropIndex removes the index subtree of contentID and closes the gap.
// It returns the removed node, or nil when the content was not indexed.
func (c *Coordinator) DropIndex(ctx context.Context, contentID string) (*storage.IndexRecord, error) {
	node, err := c.engine.FindByContentID(ctx, contentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var removed *storage.IndexRecord
	err = c.engine.Update(ctx, node.TreeType, func(s *forest.Session) error {
		current, err := s.FindByContentID(ctx, contentID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed, err = s.DeleteNode(ctx, current, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// RebuildIndexes drops every index row of treeType and re-indexes the
// content hierarchy from the content store, roots first, in one session.
func (c *Coordinator) RebuildIndexes(ctx context.Context, treeType string) (*forest.RebuildStats, error) {
	treeType = storage.NormalizeTreeType(treeType)
	logger := c.getLogger(ctx).With("tree_type", treeType)
	start := time.Now()
	stats := &forest.RebuildStats{TreeType: treeType}

	err := c.engine.Update(ctx, treeType, func(s *forest.Session) error {
		if err := s.DropIndexes(ctx); err != nil {
			return err
		}

		roots, err := c.contents.FindRoots(ctx, treeType, storage.Unpaged)
		if err != nil {
			return forest.WrapError(err, "failed to list content roots")
		}
		if len(roots.Items) == 0 {
			return nil
		}

		anchor, err := s.EnsureRoot(ctx)
		if err != nil {
			return err
		}
		stats.Visit(0)

		seen := make(map[string]bool)
		for _, root := range roots.Items {
			if err := c.indexSubtree(ctx, s, root, anchor, 1, stats, seen); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	logger.InfoContext(ctx, "rebuilt forest index from content",
		"nodes", stats.Nodes, "depth", stats.Depth, "duration", stats.Duration)
	return stats, nil
}

// indexSubtree indexes record under parent, then its children depth-first.
func (c *Coordinator) indexSubtree(ctx context.Context, s *forest.Session, record *storage.ContentRecord, parent *storage.IndexRecord, depth int, stats *forest.RebuildStats, seen map[string]bool) error {
	if seen[record.ID] {
		return fmt.Errorf("%w: %s", ErrContentCycle, record.ID)
	}
	seen[record.ID] = true

	node, err := s.NewNode()
	if err != nil {
		return err
	}
	node.ContentID = storage.String(record.ID)
	node.ParentID = storage.Int64(parent.ID)
	saved, err := s.SaveNode(ctx, node)
	if err != nil {
		return forest.WrapError(err, fmt.Sprintf("failed to index content %s", record.ID))
	}
	stats.Visit(depth)

	children, err := c.contents.FindDirectChildren(ctx, record.ID, storage.Unpaged)
	if err != nil {
		return forest.WrapError(err, fmt.Sprintf("failed to list children of content %s", record.ID))
	}
	for _, child := range children.Items {
		if storage.NormalizeTreeType(child.TreeType) != s.TreeType() {
			c.getLogger(ctx).WarnContext(ctx, "skipping child in another tree type",
				"content_id", child.ID, "parent_content_id", record.ID, "child_tree_type", child.TreeType)
			continue
		}
		if err := c.indexSubtree(ctx, s, child, saved, depth+1, stats, seen); err != nil {
			return err
		}
	}
	return nil
}

// FindRoots returns the content roots of treeType.
func (c *Coordinator) FindRoots(ctx context.Context, treeType string, page storage.Page) (storage.Result[*storage.ContentRecord], error) {
	return c.contents.FindRoots(ctx, treeType, page)
}

// FindDirectChildren returns the content whose parent is contentID.
func (c *Coordinator) FindDirectChildren(ctx context.Context, contentID string, page storage.Page) (storage.Result[*storage.ContentRecord], error) {
	return c.contents.FindDirectChildren(ctx, contentID, page)
}

// FindAllChildren returns every content record below contentID, in index order.
func (c *Coordinator) FindAllChildren(ctx context.Context, contentID string, page storage.Page) (storage.Result[*storage.ContentRecord], error) {
	node, err := c.indexedNode(ctx, contentID)
	if err != nil {
		return storage.Result[*storage.ContentRecord]{}, err
	}
	if node.DescendantCount() == 0 {
		return storage.Result[*storage.ContentRecord]{}, nil
	}
	return c.contents.FindAllChildren(ctx, node.TreeType, *node.Lft+1, *node.Rgt-1, page)
}

// FindAllParents returns every content record above contentID. Synthetic
// anchors are not content and never appear.
func (c *Coordinator) FindAllParents(ctx context.Context, contentID string, sort storage.Sort) ([]*storage.ContentRecord, error) {
	node, err := c.indexedNode(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return c.contents.FindAllParents(ctx, node.TreeType, *node.Lft, *node.Rgt, sort)
}

func (c *Coordinator) indexedNode(ctx context.Context, contentID string) (*storage.IndexRecord, error) {
	node, err := c.engine.FindByContentID(ctx, contentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, contentID)
	}
	if err != nil {
		return nil, err
	}
	if !node.Indexed() {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, contentID)
	}
	return node, nil
}

// SaveContent stores record and indexes it under its parent content,
// indexing any unindexed ancestors first. A changed parent moves the
// record's index subtree.
func (c *Coordinator) SaveContent(ctx context.Context, record *storage.ContentRecord) (*storage.IndexRecord, error) {
	record.TreeType = storage.NormalizeTreeType(record.TreeType)
	if err := c.contents.Save(ctx, record); err != nil {
		return nil, err
	}

	if err := c.indexAncestors(ctx, record, map[string]bool{record.ID: true}); err != nil {
		return nil, err
	}
	node, err := c.Index(ctx, record.TreeType, record.ID, record.ParentID)
	if err != nil {
		return nil, err
	}

	c.getLogger(ctx).DebugContext(ctx, "saved content",
		"content_id", record.ID, "tree_type", record.TreeType, "index_id", node.ID)
	return node, nil
}

// indexAncestors indexes the unindexed ancestors of record, topmost first.
func (c *Coordinator) indexAncestors(ctx context.Context, record *storage.ContentRecord, seen map[string]bool) error {
	if record.ParentID == nil {
		return nil
	}
	parentID := *record.ParentID
	if seen[parentID] {
		return fmt.Errorf("%w: %s", ErrContentCycle, parentID)
	}
	seen[parentID] = true

	if _, err := c.engine.FindByContentID(ctx, parentID); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	parent, err := c.contents.GetByID(ctx, parentID)
	if err != nil {
		return forest.WrapError(err, fmt.Sprintf("failed to load parent content %s", parentID))
	}
	if err := c.indexAncestors(ctx, parent, seen); err != nil {
		return err
	}
	_, err = c.Index(ctx, storage.NormalizeTreeType(parent.TreeType), parent.ID, parent.ParentID)
	return err
}

// DeleteContent removes a childless content record and its index node.
func (c *Coordinator) DeleteContent(ctx context.Context, contentID string) error {
	children, err := c.contents.FindDirectChildren(ctx, contentID, storage.Page{Size: 1})
	if err != nil {
		return err
	}
	if children.Total > 0 {
		return fmt.Errorf("%w: %s", ErrHasChildren, contentID)
	}

	if _, err := c.DropIndex(ctx, contentID); err != nil {
		return err
	}
	return c.contents.Delete(ctx, contentID)
}
