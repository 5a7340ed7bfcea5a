package province

import (
	"time"

	"github.com/google/uuid"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model"
)

// Province is a first-level administrative division.
//
// Code is the numeric code from the national registry and is unique among
// provinces that are not deleted.
type Province struct {
	model.BaseWithID

	Name      string     `json:"name" db:"name"`
	Codename  string     `json:"codename" db:"codename"`
	Code      int        `json:"code" db:"code"`
	Type      string     `json:"type" db:"type"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by" db:"updated_by"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
	DeletedBy *uuid.UUID `json:"-" db:"deleted_by"`
}

// CreateProvinceCommand is everything the write path needs to persist one
// province.
type CreateProvinceCommand struct {
	Name         string
	Codename     string
	Code         int
	DivisionType string
	ActingUserID uuid.UUID
}

// UpdateProvinceCommand carries a partial update; nil fields are left as is.
type UpdateProvinceCommand struct {
	Name         *string
	Codename     *string
	Code         *int
	DivisionType *string
	ActingUserID uuid.UUID
}

// IsEmpty reports whether the command would not change anything.
func (c UpdateProvinceCommand) IsEmpty() bool {
	return c.Name == nil && c.Codename == nil && c.Code == nil && c.DivisionType == nil
}

// ListFilter narrows a province listing. Name and Codename match
// case-insensitively on substrings; Type matches exactly.
type ListFilter struct {
	Name     string
	Codename string
	Type     string
	Limit    int
	Offset   int
}
