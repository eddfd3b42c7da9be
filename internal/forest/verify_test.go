package forest

import (
	"strings"
	"testing"

	"forest-index/internal/storage"
)

func rec(id int64, parent int64, lft, rgt int64) *storage.IndexRecord {
	r := &storage.IndexRecord{ID: id, TreeType: storage.DefaultTreeType}
	if parent != 0 {
		r.ParentID = storage.Int64(parent)
	}
	if lft != 0 {
		r.Lft, r.Rgt = storage.Int64(lft), storage.Int64(rgt)
	}
	return r
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*storage.IndexRecord
		want  []string
	}{
		{
			name: "empty",
		},
		{
			name: "consistent tree",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 8), rec(2, 1, 2, 5), rec(3, 2, 3, 4), rec(4, 1, 6, 7),
			},
		},
		{
			name: "two roots",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 2), rec(2, 0, 3, 4),
			},
			want: []string{"expected one root, found 2", "root 2 starts at 3"},
		},
		{
			name: "gap left by a delete",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 8), rec(2, 1, 2, 3),
			},
			want: []string{"node 1 [1, 8] holds 1 descendants, bounds claim 3"},
		},
		{
			name: "child outside parent",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 4), rec(2, 1, 2, 3), rec(3, 2, 5, 6),
			},
			want: []string{"node 3 lies outside its parent 2"},
		},
		{
			name: "unindexed row",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 2), rec(2, 1, 0, 0),
			},
			want: []string{"node 2 has no ranges"},
		},
		{
			name: "missing parent",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 4), rec(2, 9, 2, 3),
			},
			want: []string{"node 2 references missing parent 9"},
		},
		{
			name: "overlapping siblings",
			nodes: []*storage.IndexRecord{
				rec(1, 0, 1, 8), rec(2, 1, 2, 5), rec(3, 1, 4, 7),
			},
			want: []string{"children 2 and 3 of node 1 overlap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkInvariants(tt.nodes)
			if len(tt.want) == 0 {
				if len(got) != 0 {
					t.Errorf("checkInvariants() = %v, want none", got)
				}
				return
			}
			joined := strings.Join(got, "\n")
			for _, want := range tt.want {
				if !strings.Contains(joined, want) {
					t.Errorf("checkInvariants() = %v, missing %q", got, want)
				}
			}
		})
	}
}
