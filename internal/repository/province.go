package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

// ProvinceCodeConstraint is the partial unique index over live province codes.
const ProvinceCodeConstraint = "uq_provinces_code_active"

const provinceColumns = `
	id, name, codename, code, type,
	created_at, updated_at, created_by, updated_by, deleted_at, deleted_by`

type ProvinceRepository struct {
	server *server.Server
}

func NewProvinceRepository(server *server.Server) *ProvinceRepository {
	return &ProvinceRepository{server: server}
}

func (r *ProvinceRepository) CreateProvince(ctx context.Context, cmd province.CreateProvinceCommand) (*province.Province, error) {
	stmt := `
		INSERT INTO provinces (name, codename, code, type, created_by)
		VALUES (@name, @codename, @code, @type, @created_by)
		RETURNING` + provinceColumns

	rows, err := r.server.DB.Pool.Query(ctx, stmt, pgx.NamedArgs{
		"name":       cmd.Name,
		"codename":   cmd.Codename,
		"code":       cmd.Code,
		"type":       cmd.DivisionType,
		"created_by": cmd.ActingUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute create province query for code=%d: %w", cmd.Code, err)
	}

	p, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[province.Province])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:provinces: code=%d: %w", cmd.Code, err)
	}

	return &p, nil
}

func (r *ProvinceRepository) GetProvinceByID(ctx context.Context, id uuid.UUID) (*province.Province, error) {
	stmt := `SELECT` + provinceColumns + `
		FROM provinces
		WHERE id = @id AND deleted_at IS NULL`

	return r.getOne(ctx, stmt, pgx.NamedArgs{"id": id}, fmt.Sprintf("id=%s", id))
}

func (r *ProvinceRepository) GetProvinceByCode(ctx context.Context, code int) (*province.Province, error) {
	stmt := `SELECT` + provinceColumns + `
		FROM provinces
		WHERE code = @code AND deleted_at IS NULL`

	return r.getOne(ctx, stmt, pgx.NamedArgs{"code": code}, fmt.Sprintf("code=%d", code))
}

func (r *ProvinceRepository) getOne(ctx context.Context, stmt string, args pgx.NamedArgs, key string) (*province.Province, error) {
	rows, err := r.server.DB.Pool.Query(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute get province query for %s: %w", key, err)
	}

	p, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[province.Province])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:provinces: %s: %w", key, err)
	}

	return &p, nil
}

type provinceWithTotal struct {
	province.Province
	TotalCount int `db:"total_count"`
}

// ListProvinces returns one page of live provinces ordered by code, and the
// total number of matches.
func (r *ProvinceRepository) ListProvinces(ctx context.Context, filter province.ListFilter) ([]province.Province, int, error) {
	stmt := `SELECT` + provinceColumns + `,
			COUNT(*) OVER() AS total_count
		FROM provinces
		WHERE deleted_at IS NULL`

	args := pgx.NamedArgs{
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Name != "" {
		stmt += ` AND name ILIKE @name`
		args["name"] = "%" + filter.Name + "%"
	}
	if filter.Codename != "" {
		stmt += ` AND codename ILIKE @codename`
		args["codename"] = "%" + filter.Codename + "%"
	}
	if filter.Type != "" {
		stmt += ` AND type = @type`
		args["type"] = filter.Type
	}
	stmt += ` ORDER BY code ASC LIMIT @limit OFFSET @offset`

	rows, err := r.server.DB.Pool.Query(ctx, stmt, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute list provinces query: %w", err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[provinceWithTotal])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to collect rows from table:provinces: %w", err)
	}

	provinces := make([]province.Province, 0, len(found))
	total := 0
	for _, row := range found {
		provinces = append(provinces, row.Province)
		total = row.TotalCount
	}

	// An offset past the end returns no rows and therefore no window count.
	if len(found) == 0 && filter.Offset > 0 {
		total, err = r.countProvinces(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
	}

	return provinces, total, nil
}

func (r *ProvinceRepository) countProvinces(ctx context.Context, filter province.ListFilter) (int, error) {
	stmt := `SELECT COUNT(*) FROM provinces WHERE deleted_at IS NULL`
	args := pgx.NamedArgs{}
	if filter.Name != "" {
		stmt += ` AND name ILIKE @name`
		args["name"] = "%" + filter.Name + "%"
	}
	if filter.Codename != "" {
		stmt += ` AND codename ILIKE @codename`
		args["codename"] = "%" + filter.Codename + "%"
	}
	if filter.Type != "" {
		stmt += ` AND type = @type`
		args["type"] = filter.Type
	}

	var total int
	if err := r.server.DB.Pool.QueryRow(ctx, stmt, args).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count provinces: %w", err)
	}
	return total, nil
}

func (r *ProvinceRepository) UpdateProvinceByID(ctx context.Context, id uuid.UUID, cmd province.UpdateProvinceCommand) (*province.Province, error) {
	return r.update(ctx, `id = @id`, pgx.NamedArgs{"id": id}, cmd, fmt.Sprintf("id=%s", id))
}

func (r *ProvinceRepository) UpdateProvinceByCode(ctx context.Context, code int, cmd province.UpdateProvinceCommand) (*province.Province, error) {
	return r.update(ctx, `code = @target_code`, pgx.NamedArgs{"target_code": code}, cmd, fmt.Sprintf("code=%d", code))
}

func (r *ProvinceRepository) update(
	ctx context.Context,
	where string,
	args pgx.NamedArgs,
	cmd province.UpdateProvinceCommand,
	key string,
) (*province.Province, error) {
	stmt := `
		UPDATE provinces
		SET
			name = COALESCE(@name::text, name),
			codename = COALESCE(@codename::text, codename),
			code = COALESCE(@code::int, code),
			type = COALESCE(@type::text, type),
			updated_at = now(),
			updated_by = @updated_by
		WHERE ` + where + ` AND deleted_at IS NULL
		RETURNING` + provinceColumns

	args["name"] = cmd.Name
	args["codename"] = cmd.Codename
	args["code"] = cmd.Code
	args["type"] = cmd.DivisionType
	args["updated_by"] = cmd.ActingUserID

	rows, err := r.server.DB.Pool.Query(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute update province query for %s: %w", key, err)
	}

	p, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[province.Province])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:provinces: %s: %w", key, err)
	}

	return &p, nil
}

func (r *ProvinceRepository) DeleteProvinceByID(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID) error {
	n, err := r.softDelete(ctx, `id = @id`, pgx.NamedArgs{"id": id}, actingUserID)
	if err != nil {
		return fmt.Errorf("failed to delete province id=%s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("table:provinces: id=%s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *ProvinceRepository) DeleteProvinceByCode(ctx context.Context, code int, actingUserID uuid.UUID) error {
	n, err := r.softDelete(ctx, `code = @code`, pgx.NamedArgs{"code": code}, actingUserID)
	if err != nil {
		return fmt.Errorf("failed to delete province code=%d: %w", code, err)
	}
	if n == 0 {
		return fmt.Errorf("table:provinces: code=%d: %w", code, pgx.ErrNoRows)
	}
	return nil
}

// DeleteProvincesByIDs soft deletes every live province in ids and reports
// how many rows changed. Unknown ids are ignored.
func (r *ProvinceRepository) DeleteProvincesByIDs(ctx context.Context, ids []uuid.UUID, actingUserID uuid.UUID) (int64, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	n, err := r.softDelete(ctx, `id = ANY(@ids::uuid[])`, pgx.NamedArgs{"ids": keys}, actingUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d provinces by id: %w", len(ids), err)
	}
	return n, nil
}

func (r *ProvinceRepository) DeleteProvincesByCodes(ctx context.Context, codes []int, actingUserID uuid.UUID) (int64, error) {
	n, err := r.softDelete(ctx, `code = ANY(@codes::int[])`, pgx.NamedArgs{"codes": codes}, actingUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d provinces by code: %w", len(codes), err)
	}
	return n, nil
}

func (r *ProvinceRepository) softDelete(ctx context.Context, where string, args pgx.NamedArgs, actingUserID uuid.UUID) (int64, error) {
	stmt := `
		UPDATE provinces
		SET deleted_at = now(), deleted_by = @deleted_by, updated_at = now()
		WHERE ` + where + ` AND deleted_at IS NULL`

	args["deleted_by"] = actingUserID

	tag, err := r.server.DB.Pool.Exec(ctx, stmt, args)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
