package storage

import "time"

// DefaultTreeType is used when a record does not name a tree type.
const DefaultTreeType = "default"

// IndexRecord is one row of the forest index.
// A nil ContentID marks a synthetic anchor, a nil ParentID the structural root
// of its tree type, and nil Lft/Rgt an unindexed row.
type IndexRecord struct {
	ID        int64   // Store-assigned, never reused
	ContentID *string // Reference to the indexed content record
	ParentID  *int64  // Parent row id
	TreeType  string  // Forest partition key
	Lft       *int64
	Rgt       *int64
}

// NewIndexRecord returns an empty, unindexed record of the given tree type.
func NewIndexRecord(treeType string) *IndexRecord {
	return &IndexRecord{TreeType: NormalizeTreeType(treeType)}
}

// Indexed reports whether both bounds are assigned.
func (r *IndexRecord) Indexed() bool {
	return r.Lft != nil && r.Rgt != nil
}

// DescendantCount returns the number of nodes below r, derived from its bounds.
// Unindexed records report zero.
func (r *IndexRecord) DescendantCount() int64 {
	if !r.Indexed() {
		return 0
	}
	return (*r.Rgt - *r.Lft) / 2
}

// Contains reports whether other lies strictly inside r's interval.
func (r *IndexRecord) Contains(other *IndexRecord) bool {
	if !r.Indexed() || !other.Indexed() {
		return false
	}
	return *r.Lft < *other.Lft && *other.Rgt < *r.Rgt
}

// ContentRecord is a hierarchical content row owned by the content store.
type ContentRecord struct {
	ID        string  // UUID
	ParentID  *string // Parent content id, nil for a content root
	TreeType  string
	Name      string
	CreatedAt time.Time
}

// NormalizeTreeType maps the empty tree type to DefaultTreeType.
func NormalizeTreeType(treeType string) string {
	if treeType == "" {
		return DefaultTreeType
	}
	return treeType
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}
