package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

// CustomerEmailConstraint guards one account per email address.
const CustomerEmailConstraint = "customers_email_key"

const customerColumns = `
	id, email, password_hash, full_name, phone, role,
	created_at, updated_at, last_login_at`

type CustomerRepository struct {
	server *server.Server
}

func NewCustomerRepository(server *server.Server) *CustomerRepository {
	return &CustomerRepository{server: server}
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, params customer.CreateCustomerParams) (*customer.Customer, error) {
	stmt := `
		INSERT INTO customers (email, password_hash, full_name, phone, role)
		VALUES (@email, @password_hash, @full_name, @phone, @role)
		RETURNING` + customerColumns

	rows, err := r.server.DB.Pool.Query(ctx, stmt, pgx.NamedArgs{
		"email":         params.Email,
		"password_hash": params.PasswordHash,
		"full_name":     params.FullName,
		"phone":         params.Phone,
		"role":          params.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute create customer query: %w", err)
	}

	c, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[customer.Customer])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:customers: %w", err)
	}

	return &c, nil
}

func (r *CustomerRepository) GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	stmt := `SELECT` + customerColumns + ` FROM customers WHERE email = @email`

	rows, err := r.server.DB.Pool.Query(ctx, stmt, pgx.NamedArgs{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get customer by email query: %w", err)
	}

	c, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[customer.Customer])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:customers: %w", err)
	}

	return &c, nil
}

func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	stmt := `SELECT` + customerColumns + ` FROM customers WHERE id = @id`

	rows, err := r.server.DB.Pool.Query(ctx, stmt, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get customer by id query for id=%s: %w", id, err)
	}

	c, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[customer.Customer])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:customers: id=%s: %w", id, err)
	}

	return &c, nil
}

func (r *CustomerRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	stmt := `UPDATE customers SET last_login_at = now() WHERE id = @id`

	if _, err := r.server.DB.Pool.Exec(ctx, stmt, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("failed to update last login for id=%s: %w", id, err)
	}
	return nil
}
