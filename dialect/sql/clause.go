package sql

// ClauseKind records which clause was most recently appended to a Selector.
// It drives the adjacency rules of clauses whose legality depends on call
// order.
type ClauseKind uint8

// Clause kinds.
const (
	ClauseNone ClauseKind = iota
	ClauseProjection
	ClauseSource
	ClauseIndexHint
	ClauseFilter
	ClauseGrouping
	ClausePostFilter
	ClauseOrdering
	ClausePagination
)

// String returns the clause kind name.
func (k ClauseKind) String() string {
	switch k {
	case ClauseNone:
		return "none"
	case ClauseProjection:
		return "projection"
	case ClauseSource:
		return "source"
	case ClauseIndexHint:
		return "index hint"
	case ClauseFilter:
		return "filter"
	case ClauseGrouping:
		return "grouping"
	case ClausePostFilter:
		return "post-filter"
	case ClauseOrdering:
		return "ordering"
	case ClausePagination:
		return "pagination"
	default:
		return "unknown"
	}
}

// allowsJoin reports whether a join may directly follow this clause.
func (k ClauseKind) allowsJoin() bool {
	switch k {
	case ClauseSource, ClauseIndexHint:
		return true
	case ClauseNone, ClauseProjection, ClauseFilter, ClauseGrouping,
		ClausePostFilter, ClauseOrdering, ClausePagination:
		return false
	default:
		return false
	}
}

// allowsHaving reports whether HAVING may directly follow this clause.
func (k ClauseKind) allowsHaving() bool {
	switch k {
	case ClauseGrouping, ClausePostFilter:
		return true
	case ClauseNone, ClauseProjection, ClauseSource, ClauseIndexHint,
		ClauseFilter, ClauseOrdering, ClausePagination:
		return false
	default:
		return false
	}
}
