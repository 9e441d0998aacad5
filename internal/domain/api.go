package domain

// APIResponse là envelope chung cho mọi response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type PageQuery struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
	Days    int `form:"days"`
}

// Normalize đặt giá trị mặc định cho tham số phân trang
func (q PageQuery) Normalize(defaultDays int) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		q.PerPage = 20
	}
	if q.Days < 1 {
		q.Days = defaultDays
	}
	return q
}

type PageDTO struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

func NewPage(total, page, perPage int) PageDTO {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return PageDTO{Total: total, Page: page, PerPage: perPage, Pages: pages}
}
