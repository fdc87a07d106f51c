package store

import "github.com/OFFIS-RIT/lexgraph/pkg/common"

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize elements. A non-positive chunkSize means a single window.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// CloneAnalysis returns a deep copy of a, so stored values cannot be changed
// through the caller's slices and maps.
func CloneAnalysis(a common.Analysis) common.Analysis {
	out := a
	out.Tokens = append([]string(nil), a.Tokens...)
	out.References = append([]common.Reference(nil), a.References...)
	out.Graph.Nodes = append([]string(nil), a.Graph.Nodes...)
	out.Graph.Edges = append([]common.Edge(nil), a.Graph.Edges...)
	if a.Graph.Meta != nil {
		out.Graph.Meta = make(map[string]common.NodeMeta, len(a.Graph.Meta))
		for k, v := range a.Graph.Meta {
			out.Graph.Meta[k] = v
		}
	}
	return out
}
