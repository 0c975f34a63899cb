package request

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return 20
	}
	if p.PerPage > 100 {
		return 100
	}
	return p.PerPage
}

// ListInconsistenciesRequest pages through reconciliation records, newest
// first. Resolved records are hidden unless IncludeResolved is set.
type ListInconsistenciesRequest struct {
	PaginatedRequest
	IncludeResolved bool `json:"include_resolved"`
}
