package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_content_store.go -package=mocks forest-index/internal/storage ContentStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentStore defines the interface for content storage operations.
// Range predicates are evaluated against the forest index joined on content id.
type ContentStore interface {
	// GetByID gets a content record by id. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ContentRecord, error)
	// Save inserts or updates a content record, generating a UUID for new records.
	Save(ctx context.Context, content *ContentRecord) error
	// Delete removes a content record. Returns ErrNotFound if not found.
	Delete(ctx context.Context, id string) error
	// FindRoots returns the content records without a parent in a tree type.
	FindRoots(ctx context.Context, treeType string, page Page) (Result[*ContentRecord], error)
	// FindDirectChildren returns the content records whose parent is parentID.
	FindDirectChildren(ctx context.Context, parentID string, page Page) (Result[*ContentRecord], error)
	// FindAllChildren returns the content records whose index lft lies in [lft, rgt].
	FindAllChildren(ctx context.Context, treeType string, lft, rgt int64, page Page) (Result[*ContentRecord], error)
	// FindAllParents returns the content records whose index interval encloses (lft, rgt).
	FindAllParents(ctx context.Context, treeType string, lft, rgt int64, sort Sort) ([]*ContentRecord, error)
}

const contentColumns = "c.id, c.parent_id, c.tree_type, c.name, c.created_at"

// ContentRepo provides methods for content operations.
// It implements the ContentStore interface.
type ContentRepo struct {
	db *sql.DB
}

// Ensure ContentRepo implements ContentStore
var _ ContentStore = (*ContentRepo)(nil)

// NewContentRepo creates a new ContentRepo.
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// DB returns the underlying database handle.
func (r *ContentRepo) DB() *sql.DB {
	return r.db
}

func scanContentRecord(s rowScanner) (*ContentRecord, error) {
	var content ContentRecord
	var parentID, name sql.NullString
	var createdAtStr string

	if err := s.Scan(&content.ID, &parentID, &content.TreeType, &name, &createdAtStr); err != nil {
		return nil, err
	}
	if parentID.Valid {
		content.ParentID = String(parentID.String)
	}
	content.Name = name.String

	createdAt, err := parseTimestamp(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	content.CreatedAt = createdAt

	return &content, nil
}

// parseTimestamp parses a SQLite DATETIME value.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		// Try alternative format (SQLite might use different format)
		return time.Parse(time.RFC3339, value)
	}
	return t, nil
}

func (r *ContentRepo) queryPage(ctx context.Context, countQuery, selectQuery string, page Page, args ...any) (Result[*ContentRecord], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return Result[*ContentRecord]{}, fmt.Errorf("failed to count content: %w", err)
	}

	items, err := r.queryMany(ctx, selectQuery+page.limitClause(), args...)
	if err != nil {
		return Result[*ContentRecord]{}, err
	}

	return Result[*ContentRecord]{Items: items, Total: total}, nil
}

func (r *ContentRepo) queryMany(ctx context.Context, query string, args ...any) ([]*ContentRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var contents []*ContentRecord
	for rows.Next() {
		content, err := scanContentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return contents, nil
}

// GetByID gets a content record by id. Returns ErrNotFound if not found.
func (r *ContentRepo) GetByID(ctx context.Context, id string) (*ContentRecord, error) {
	content, err := scanContentRecord(r.db.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM forest_content c WHERE c.id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	return content, nil
}

// Save inserts a new content record or updates an existing one.
// A record without an ID gets a new UUID. Updates keep created_at.
func (r *ContentRepo) Save(ctx context.Context, content *ContentRecord) error {
	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	content.TreeType = NormalizeTreeType(content.TreeType)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forest_content (id, parent_id, tree_type, name, created_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET
		 parent_id = excluded.parent_id, tree_type = excluded.tree_type, name = excluded.name`,
		content.ID, content.ParentID, content.TreeType, content.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// Delete removes a content record by id.
func (r *ContentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM forest_content WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return requireAffected(result)
}

// FindRoots returns the parentless content records of a tree type in insertion order.
func (r *ContentRepo) FindRoots(ctx context.Context, treeType string, page Page) (Result[*ContentRecord], error) {
	treeType = NormalizeTreeType(treeType)
	return r.queryPage(ctx,
		"SELECT COUNT(*) FROM forest_content c WHERE c.parent_id IS NULL AND c.tree_type = ?",
		"SELECT "+contentColumns+" FROM forest_content c WHERE c.parent_id IS NULL AND c.tree_type = ? ORDER BY c.rowid",
		page, treeType,
	)
}

// FindDirectChildren returns the children of parentID in insertion order.
func (r *ContentRepo) FindDirectChildren(ctx context.Context, parentID string, page Page) (Result[*ContentRecord], error) {
	return r.queryPage(ctx,
		"SELECT COUNT(*) FROM forest_content c WHERE c.parent_id = ?",
		"SELECT "+contentColumns+" FROM forest_content c WHERE c.parent_id = ? ORDER BY c.rowid",
		page, parentID,
	)
}

// FindAllChildren returns the content records whose index lft lies in [lft, rgt], in lft order.
func (r *ContentRepo) FindAllChildren(ctx context.Context, treeType string, lft, rgt int64, page Page) (Result[*ContentRecord], error) {
	treeType = NormalizeTreeType(treeType)
	return r.queryPage(ctx,
		`SELECT COUNT(*) FROM forest_content c JOIN forest_index i ON i.content_id = c.id
		 WHERE i.tree_type = ? AND i.lft BETWEEN ? AND ?`,
		`SELECT `+contentColumns+` FROM forest_content c JOIN forest_index i ON i.content_id = c.id
		 WHERE i.tree_type = ? AND i.lft BETWEEN ? AND ? ORDER BY i.lft`,
		page, treeType, lft, rgt,
	)
}

// FindAllParents returns the content records whose index interval encloses (lft, rgt).
// Synthetic anchors have no content and are never returned.
func (r *ContentRepo) FindAllParents(ctx context.Context, treeType string, lft, rgt int64, sort Sort) ([]*ContentRecord, error) {
	return r.queryMany(ctx,
		`SELECT `+contentColumns+` FROM forest_content c JOIN forest_index i ON i.content_id = c.id
		 WHERE i.tree_type = ? AND i.lft < ? AND i.rgt > ? ORDER BY i.lft `+sort.orderKeyword(),
		NormalizeTreeType(treeType), lft, rgt,
	)
}
