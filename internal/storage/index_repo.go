package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// IndexReader defines the read primitives of the index store.
// All range reads are scoped to one tree type.
type IndexReader interface {
	// GetByID gets an index row by id. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*IndexRecord, error)
	// GetByContentID gets the index row referencing a content record.
	// Returns ErrNotFound if not found.
	GetByContentID(ctx context.Context, contentID string) (*IndexRecord, error)
	// GetParentID returns the stored parent id of a row (nil for a root).
	// Returns ErrNotFound if the row does not exist.
	GetParentID(ctx context.Context, id int64) (*int64, error)
	// GetRoot returns the row without a parent. Returns ErrNotFound if none.
	GetRoot(ctx context.Context, treeType string) (*IndexRecord, error)
	// GetOtherRoot returns a parentless row other than excludeID.
	// Returns ErrNotFound if none.
	GetOtherRoot(ctx context.Context, treeType string, excludeID int64) (*IndexRecord, error)
	// ListDirectChildren returns the rows whose parent is node, ordered by id.
	ListDirectChildren(ctx context.Context, node *IndexRecord) ([]*IndexRecord, error)
	// ListDescendants returns the rows whose lft lies strictly inside node's interval, ordered by lft.
	ListDescendants(ctx context.Context, node *IndexRecord, page Page) (Result[*IndexRecord], error)
	// ListByTreeType returns every row of a tree type, indexed rows first in lft order.
	ListByTreeType(ctx context.Context, treeType string) ([]*IndexRecord, error)
	// UpperBound returns the right bound a new root receives: max(rgt) + 1, or 2 on an empty tree type.
	UpperBound(ctx context.Context, treeType string) (int64, error)
	// Count returns the number of rows of a tree type.
	Count(ctx context.Context, treeType string) (int64, error)
}

// IndexWriter defines the write primitives of the index store.
type IndexWriter interface {
	// Save inserts a row when ID is zero and updates it by id otherwise.
	Save(ctx context.Context, node *IndexRecord) (*IndexRecord, error)
	// SetRangeAndParent assigns both bounds and the parent of a row.
	SetRangeAndParent(ctx context.Context, id, lft, rgt int64, parentID *int64) error
	// SetParent changes only the parent of a row.
	SetParent(ctx context.Context, id int64, parentID *int64) error
	// ShiftForRootInsert increments both bounds of every indexed row by one.
	ShiftForRootInsert(ctx context.Context, treeType string) error
	// ShiftForChildInsert opens a two-wide slot at thresholdRgt.
	ShiftForChildInsert(ctx context.Context, treeType string, thresholdRgt int64) error
	// DeleteRange removes every row whose lft lies in [lft, rgt].
	DeleteRange(ctx context.Context, treeType string, lft, rgt int64) error
	// CloseGap shifts surviving bounds left to remove the hole [lft, rgt].
	CloseGap(ctx context.Context, treeType string, lft, rgt int64) error
	// ClearRanges unsets both bounds of every row of a tree type.
	ClearRanges(ctx context.Context, treeType string) error
	// ClearRangesBetween unsets both bounds of rows whose lft lies in [lft, rgt].
	ClearRangesBetween(ctx context.Context, treeType string, lft, rgt int64) error
	// DeleteAll removes every row of a tree type.
	DeleteAll(ctx context.Context, treeType string) error
}

// IndexTx is a transaction scoped handle over the index store.
// Writes are visible to later reads through the same handle.
type IndexTx interface {
	IndexReader
	IndexWriter
	Commit() error
	Rollback() error
}

// IndexStore defines the interface for index storage operations.
// Reads go straight to the database; writes need a transaction from BeginTx.
type IndexStore interface {
	IndexReader
	BeginTx(ctx context.Context) (IndexTx, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const indexColumns = "id, content_id, parent_id, tree_type, lft, rgt"

// IndexRepo provides methods for forest index operations.
// It implements the IndexStore interface.
type IndexRepo struct {
	db *sql.DB
	q  querier
}

// Ensure IndexRepo implements IndexStore
var _ IndexStore = (*IndexRepo)(nil)

// NewIndexRepo creates a new IndexRepo.
func NewIndexRepo(db *sql.DB) *IndexRepo {
	return &IndexRepo{db: db, q: db}
}

// DB returns the underlying database handle.
func (r *IndexRepo) DB() *sql.DB {
	return r.db
}

// BeginTx starts a write transaction. The caller must Commit or Rollback it.
func (r *IndexRepo) BeginTx(ctx context.Context) (IndexTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin index transaction: %w", err)
	}
	return &indexTx{IndexRepo: IndexRepo{db: r.db, q: tx}, tx: tx}, nil
}

// indexTx implements IndexTx on top of a *sql.Tx.
type indexTx struct {
	IndexRepo
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ IndexTx = (*indexTx)(nil)

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}

func scanIndexRecord(s rowScanner) (*IndexRecord, error) {
	var rec IndexRecord
	var contentID sql.NullString
	var parentID, lft, rgt sql.NullInt64

	if err := s.Scan(&rec.ID, &contentID, &parentID, &rec.TreeType, &lft, &rgt); err != nil {
		return nil, err
	}
	if contentID.Valid {
		rec.ContentID = String(contentID.String)
	}
	if parentID.Valid {
		rec.ParentID = Int64(parentID.Int64)
	}
	if lft.Valid {
		rec.Lft = Int64(lft.Int64)
	}
	if rgt.Valid {
		rec.Rgt = Int64(rgt.Int64)
	}
	return &rec, nil
}

func (r *IndexRepo) queryOne(ctx context.Context, query string, args ...any) (*IndexRecord, error) {
	rec, err := scanIndexRecord(r.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index row: %w", err)
	}
	return rec, nil
}

func (r *IndexRepo) queryMany(ctx context.Context, query string, args ...any) ([]*IndexRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index rows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*IndexRecord
	for rows.Next() {
		rec, err := scanIndexRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// GetByID gets an index row by id. Returns ErrNotFound if not found.
func (r *IndexRepo) GetByID(ctx context.Context, id int64) (*IndexRecord, error) {
	return r.queryOne(ctx, "SELECT "+indexColumns+" FROM forest_index WHERE id = ?", id)
}

// GetByContentID gets the index row referencing contentID. Returns ErrNotFound if not found.
func (r *IndexRepo) GetByContentID(ctx context.Context, contentID string) (*IndexRecord, error) {
	return r.queryOne(ctx, "SELECT "+indexColumns+" FROM forest_index WHERE content_id = ?", contentID)
}

// GetParentID returns the stored parent id of a row.
func (r *IndexRepo) GetParentID(ctx context.Context, id int64) (*int64, error) {
	var parentID sql.NullInt64
	err := r.q.QueryRowContext(ctx, "SELECT parent_id FROM forest_index WHERE id = ?", id).Scan(&parentID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query parent id: %w", err)
	}
	if !parentID.Valid {
		return nil, nil
	}
	return Int64(parentID.Int64), nil
}

// GetRoot returns the parentless row of a tree type.
// If several exist transiently the oldest one wins.
func (r *IndexRepo) GetRoot(ctx context.Context, treeType string) (*IndexRecord, error) {
	return r.queryOne(ctx,
		"SELECT "+indexColumns+" FROM forest_index WHERE parent_id IS NULL AND tree_type = ? ORDER BY id LIMIT 1",
		NormalizeTreeType(treeType),
	)
}

// GetOtherRoot returns a parentless row of a tree type other than excludeID.
func (r *IndexRepo) GetOtherRoot(ctx context.Context, treeType string, excludeID int64) (*IndexRecord, error) {
	return r.queryOne(ctx,
		"SELECT "+indexColumns+" FROM forest_index WHERE parent_id IS NULL AND tree_type = ? AND id <> ? ORDER BY id LIMIT 1",
		NormalizeTreeType(treeType), excludeID,
	)
}

// ListDirectChildren returns the rows whose parent is node, ordered by id.
func (r *IndexRepo) ListDirectChildren(ctx context.Context, node *IndexRecord) ([]*IndexRecord, error) {
	return r.queryMany(ctx,
		"SELECT "+indexColumns+" FROM forest_index WHERE parent_id = ? AND tree_type = ? ORDER BY id",
		node.ID, NormalizeTreeType(node.TreeType),
	)
}

// ListDescendants returns the rows whose lft lies strictly inside node's interval.
// An unindexed node has no descendants by range.
func (r *IndexRepo) ListDescendants(ctx context.Context, node *IndexRecord, page Page) (Result[*IndexRecord], error) {
	if !node.Indexed() {
		return Result[*IndexRecord]{}, nil
	}
	treeType := NormalizeTreeType(node.TreeType)

	var total int64
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM forest_index WHERE tree_type = ? AND lft > ? AND lft < ?",
		treeType, *node.Lft, *node.Rgt,
	).Scan(&total)
	if err != nil {
		return Result[*IndexRecord]{}, fmt.Errorf("failed to count descendants: %w", err)
	}

	items, err := r.queryMany(ctx,
		"SELECT "+indexColumns+" FROM forest_index WHERE tree_type = ? AND lft > ? AND lft < ? ORDER BY lft"+page.limitClause(),
		treeType, *node.Lft, *node.Rgt,
	)
	if err != nil {
		return Result[*IndexRecord]{}, err
	}

	return Result[*IndexRecord]{Items: items, Total: total}, nil
}

// ListByTreeType returns every row of a tree type, indexed rows first in lft order.
func (r *IndexRepo) ListByTreeType(ctx context.Context, treeType string) ([]*IndexRecord, error) {
	return r.queryMany(ctx,
		"SELECT "+indexColumns+" FROM forest_index WHERE tree_type = ? ORDER BY lft IS NULL, lft, id",
		NormalizeTreeType(treeType),
	)
}

// UpperBound returns max(rgt) + 1 over the indexed rows of a tree type, or 2 when none are indexed.
func (r *IndexRepo) UpperBound(ctx context.Context, treeType string) (int64, error) {
	var bound int64
	err := r.q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(rgt), 1) + 1 FROM forest_index WHERE tree_type = ?",
		NormalizeTreeType(treeType),
	).Scan(&bound)
	if err != nil {
		return 0, fmt.Errorf("failed to query upper bound: %w", err)
	}
	return bound, nil
}

// Count returns the number of rows of a tree type.
func (r *IndexRepo) Count(ctx context.Context, treeType string) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM forest_index WHERE tree_type = ?",
		NormalizeTreeType(treeType),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count index rows: %w", err)
	}
	return count, nil
}

// Save inserts a new row when node.ID is zero, otherwise updates the row by id.
// The assigned id is written back to node.
func (r *IndexRepo) Save(ctx context.Context, node *IndexRecord) (*IndexRecord, error) {
	node.TreeType = NormalizeTreeType(node.TreeType)

	if node.ID == 0 {
		result, err := r.q.ExecContext(ctx,
			"INSERT INTO forest_index (content_id, parent_id, tree_type, lft, rgt) VALUES (?, ?, ?, ?, ?)",
			node.ContentID, node.ParentID, node.TreeType, node.Lft, node.Rgt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert index row: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read inserted index id: %w", err)
		}
		node.ID = id
		return node, nil
	}

	result, err := r.q.ExecContext(ctx,
		"UPDATE forest_index SET content_id = ?, parent_id = ?, tree_type = ?, lft = ?, rgt = ? WHERE id = ?",
		node.ContentID, node.ParentID, node.TreeType, node.Lft, node.Rgt, node.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update index row: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return node, nil
}

// SetRangeAndParent assigns both bounds and the parent of a row.
func (r *IndexRepo) SetRangeAndParent(ctx context.Context, id, lft, rgt int64, parentID *int64) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE forest_index SET lft = ?, rgt = ?, parent_id = ? WHERE id = ?",
		lft, rgt, parentID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update index range: %w", err)
	}
	return requireAffected(result)
}

// SetParent changes the parent of a row.
func (r *IndexRepo) SetParent(ctx context.Context, id int64, parentID *int64) error {
	result, err := r.q.ExecContext(ctx, "UPDATE forest_index SET parent_id = ? WHERE id = ?", parentID, id)
	if err != nil {
		return fmt.Errorf("failed to update index parent: %w", err)
	}
	return requireAffected(result)
}

// ShiftForRootInsert makes room for a new root at position 1.
func (r *IndexRepo) ShiftForRootInsert(ctx context.Context, treeType string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE forest_index SET lft = lft + 1, rgt = rgt + 1 WHERE tree_type = ? AND lft IS NOT NULL AND rgt IS NOT NULL",
		NormalizeTreeType(treeType),
	)
	if err != nil {
		return fmt.Errorf("failed to shift for root insert: %w", err)
	}
	return nil
}

// ShiftForChildInsert adds two to every lft above thresholdRgt and every rgt at or above it.
func (r *IndexRepo) ShiftForChildInsert(ctx context.Context, treeType string, thresholdRgt int64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE forest_index SET
			lft = CASE WHEN lft > ? THEN lft + 2 ELSE lft END,
			rgt = CASE WHEN rgt >= ? THEN rgt + 2 ELSE rgt END
		 WHERE tree_type = ? AND rgt >= ? AND lft IS NOT NULL`,
		thresholdRgt, thresholdRgt, NormalizeTreeType(treeType), thresholdRgt,
	)
	if err != nil {
		return fmt.Errorf("failed to shift for child insert: %w", err)
	}
	return nil
}

// DeleteRange removes every row whose lft lies in [lft, rgt].
func (r *IndexRepo) DeleteRange(ctx context.Context, treeType string, lft, rgt int64) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM forest_index WHERE tree_type = ? AND lft BETWEEN ? AND ?",
		NormalizeTreeType(treeType), lft, rgt,
	)
	if err != nil {
		return fmt.Errorf("failed to delete index range: %w", err)
	}
	return nil
}

// CloseGap subtracts the width of [lft, rgt] from every bound above lft.
// Unset bounds stay unset.
func (r *IndexRepo) CloseGap(ctx context.Context, treeType string, lft, rgt int64) error {
	width := rgt - lft + 1
	_, err := r.q.ExecContext(ctx,
		`UPDATE forest_index SET
			lft = CASE WHEN lft > ? THEN lft - ? ELSE lft END,
			rgt = CASE WHEN rgt > ? THEN rgt - ? ELSE rgt END
		 WHERE tree_type = ? AND (lft > ? OR rgt > ?)`,
		lft, width, lft, width, NormalizeTreeType(treeType), lft, lft,
	)
	if err != nil {
		return fmt.Errorf("failed to close index gap: %w", err)
	}
	return nil
}

// ClearRanges unsets both bounds of every row of a tree type.
func (r *IndexRepo) ClearRanges(ctx context.Context, treeType string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE forest_index SET lft = NULL, rgt = NULL WHERE tree_type = ?",
		NormalizeTreeType(treeType),
	)
	if err != nil {
		return fmt.Errorf("failed to clear index ranges: %w", err)
	}
	return nil
}

// ClearRangesBetween unsets both bounds of the rows whose lft lies in [lft, rgt].
func (r *IndexRepo) ClearRangesBetween(ctx context.Context, treeType string, lft, rgt int64) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE forest_index SET lft = NULL, rgt = NULL WHERE tree_type = ? AND lft BETWEEN ? AND ?",
		NormalizeTreeType(treeType), lft, rgt,
	)
	if err != nil {
		return fmt.Errorf("failed to clear index ranges: %w", err)
	}
	return nil
}

// DeleteAll removes every row of a tree type.
func (r *IndexRepo) DeleteAll(ctx context.Context, treeType string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM forest_index WHERE tree_type = ?", NormalizeTreeType(treeType))
	if err != nil {
		return fmt.Errorf("failed to delete index rows: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
