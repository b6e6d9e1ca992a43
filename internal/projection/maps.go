// Package projection implements the alignment-space mapper and the
// per-metric computers: the projection from ungapped base-space (and,
// where needed, pulse-space) values into gapped alignment-space columns.
package projection

// BaseToAlignmentMap walks a gapped aligned sequence and returns, for each
// ungapped base position k, the alignment-space column it occupies. Its
// length equals the ungapped length (query-end - query-start).
func BaseToAlignmentMap(aligned []byte) []int32 {
	m := make([]int32, 0, len(aligned))
	for c, ch := range aligned {
		if ch != '-' {
			m = append(m, int32(c))
		}
	}
	return m
}
