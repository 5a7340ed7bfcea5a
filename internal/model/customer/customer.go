package customer

import (
	"time"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// Customer is an end user of the bus service. Staff and admins are customers
// with an elevated role.
type Customer struct {
	model.BaseWithID

	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        *string    `json:"phone" db:"phone"`
	Role         Role       `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

type CreateCustomerParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         Role
}
