package forest

import (
	"fmt"
	"sort"

	"forest-index/internal/storage"
)

// checkInvariants inspects every row of one tree type and describes each
// nested-set violation found. nodes must be ordered with indexed rows first,
// by lft.
func checkInvariants(nodes []*storage.IndexRecord) []string {
	if len(nodes) == 0 {
		return nil
	}

	var problems []string
	byID := make(map[int64]*storage.IndexRecord, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	indexed := make([]*storage.IndexRecord, 0, len(nodes))
	roots := 0
	for _, n := range nodes {
		if n.ParentID == nil {
			roots++
		}
		if !n.Indexed() {
			problems = append(problems, fmt.Sprintf("node %d has no ranges", n.ID))
			continue
		}
		if *n.Lft >= *n.Rgt {
			problems = append(problems, fmt.Sprintf("node %d has lft %d not below rgt %d", n.ID, *n.Lft, *n.Rgt))
			continue
		}
		indexed = append(indexed, n)
	}
	if roots != 1 {
		problems = append(problems, fmt.Sprintf("expected one root, found %d", roots))
	}

	for _, n := range indexed {
		if n.ParentID == nil {
			if *n.Lft != 1 {
				problems = append(problems, fmt.Sprintf("root %d starts at %d", n.ID, *n.Lft))
			}
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			problems = append(problems, fmt.Sprintf("node %d references missing parent %d", n.ID, *n.ParentID))
			continue
		}
		if parent.Indexed() && !parent.Contains(n) {
			problems = append(problems, fmt.Sprintf("node %d lies outside its parent %d", n.ID, parent.ID))
		}
	}

	// The interval of a node holds exactly the nodes its bounds claim.
	for i, n := range indexed {
		end := sort.Search(len(indexed), func(j int) bool {
			return *indexed[j].Lft > *n.Rgt
		})
		inside := int64(end - i - 1)
		if inside != n.DescendantCount() {
			problems = append(problems, fmt.Sprintf("node %d [%d, %d] holds %d descendants, bounds claim %d",
				n.ID, *n.Lft, *n.Rgt, inside, n.DescendantCount()))
		}
		if i > 0 {
			prev := indexed[i-1]
			if *prev.Lft == *n.Lft {
				problems = append(problems, fmt.Sprintf("nodes %d and %d share lft %d", prev.ID, n.ID, *n.Lft))
			}
		}
	}

	// Siblings are disjoint.
	lastChild := make(map[int64]*storage.IndexRecord)
	for _, n := range indexed {
		if n.ParentID == nil {
			continue
		}
		if prev, ok := lastChild[*n.ParentID]; ok && *n.Lft <= *prev.Rgt {
			problems = append(problems, fmt.Sprintf("children %d and %d of node %d overlap",
				prev.ID, n.ID, *n.ParentID))
		}
		lastChild[*n.ParentID] = n
	}

	return problems
}
