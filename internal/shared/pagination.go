package shared

// DefaultPerPage is used when a listing does not ask for a page size.
const DefaultPerPage = 10

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	PrevPage   int  `json:"prev_page,omitempty"`
	NextPage   int  `json:"next_page,omitempty"`
}

// NewPagination computes pagination metadata. TotalPages is never below one
// and the requested page is clamped into [1, TotalPages].
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)
	p := Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
	if page > 1 {
		p.PrevPage = page - 1
	}
	if page < totalPages {
		p.HasNext = true
		p.NextPage = page + 1
	}
	return p
}

// Bounds returns the half-open slice window [start, end) for the page.
func (p Pagination) Bounds() (int, int) {
	start := (p.Page - 1) * p.PerPage
	if start > p.Total {
		start = p.Total
	}
	end := min(start+p.PerPage, p.Total)
	return start, end
}
