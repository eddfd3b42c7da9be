package forest

import "time"

// RebuildStats describes one rebuild of a tree type.
type RebuildStats struct {
	// TreeType is the rebuilt forest.
	TreeType string `json:"tree_type"`
	// Nodes is the number of rows that received ranges.
	Nodes int `json:"nodes"`
	// Depth is the number of levels below the structural root.
	Depth int `json:"depth"`
	// Duration is the wall time spent inside the session.
	Duration time.Duration `json:"duration"`
}

// Visit records a node placed at the given depth.
func (s *RebuildStats) Visit(depth int) {
	s.Nodes++
	if depth > s.Depth {
		s.Depth = depth
	}
}
