// Package model holds the types shared between the HTTP, service and
// repository layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

type Base struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type BaseWithID struct {
	ID uuid.UUID `json:"id" db:"id"`
	Base
}

// PaginatedResponse is the envelope of every list endpoint.
type PaginatedResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPaginatedResponse fills TotalPages and keeps Items a JSON array when
// there are no rows.
func NewPaginatedResponse[T any](items []T, total, page, limit int) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &PaginatedResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
