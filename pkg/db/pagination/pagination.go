package pagination

// Pagination is the page-numbered request contract used by list endpoints.
type Pagination struct {
	Page    int `form:"page,default=1" validate:"gte=1"`
	PerPage int `form:"per_page,default=20" validate:"gte=1,lte=250"` // Min 1, Max 250
}

type PageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

func (p Pagination) Normalize() Pagination {
	out := p
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PerPage < 1 {
		out.PerPage = 20
	}
	if out.PerPage > 250 {
		out.PerPage = 250
	}
	return out
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

func BuildPageInfo(p Pagination, totalCount int64) PageInfo {
	n := p.Normalize()
	totalPages := int((totalCount + int64(n.PerPage) - 1) / int64(n.PerPage))
	return PageInfo{
		Page:       n.Page,
		PerPage:    n.PerPage,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
