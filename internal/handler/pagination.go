package handler

import "gorm.io/gorm"

// PaginationMeta describes which slice of a collection a list endpoint
// returned, e.g. one page of the admin question bank.
type PaginationMeta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// PaginatedResponse wraps one page of results together with its metadata.
type PaginatedResponse[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// NewPaginatedResponse assembles the envelope for an already-fetched page.
func NewPaginatedResponse[T any](data []T, totalItems int64, page, limit int) PaginatedResponse[T] {
	if limit <= 0 {
		limit = 1
	}
	return PaginatedResponse[T]{
		Data: data,
		Meta: PaginationMeta{
			TotalItems:  totalItems,
			TotalPages:  int((totalItems + int64(limit) - 1) / int64(limit)),
			CurrentPage: page,
			PageSize:    limit,
		},
	}
}

// Paginate counts the filtered set and fetches one page of it. The query
// carries the filters and ordering; only offset and limit are applied here.
func Paginate[T any](query *gorm.DB, page, limit int) (*PaginatedResponse[T], error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := query.Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []T
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	response := NewPaginatedResponse(rows, total, page, limit)
	return &response, nil
}
