package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/errs"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/utils"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/sqlerr"
)

type provinceRepository interface {
	CreateProvince(ctx context.Context, cmd province.CreateProvinceCommand) (*province.Province, error)
	GetProvinceByID(ctx context.Context, id uuid.UUID) (*province.Province, error)
	GetProvinceByCode(ctx context.Context, code int) (*province.Province, error)
	ListProvinces(ctx context.Context, filter province.ListFilter) ([]province.Province, int, error)
	UpdateProvinceByID(ctx context.Context, id uuid.UUID, cmd province.UpdateProvinceCommand) (*province.Province, error)
	UpdateProvinceByCode(ctx context.Context, code int, cmd province.UpdateProvinceCommand) (*province.Province, error)
	DeleteProvinceByID(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID) error
	DeleteProvinceByCode(ctx context.Context, code int, actingUserID uuid.UUID) error
	DeleteProvincesByIDs(ctx context.Context, ids []uuid.UUID, actingUserID uuid.UUID) (int64, error)
	DeleteProvincesByCodes(ctx context.Context, codes []int, actingUserID uuid.UUID) (int64, error)
}

type importQueue interface {
	EnqueueProvinceImport(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error)
}

type ProvinceService struct {
	repo   provinceRepository
	queue  importQueue
	logger *zerolog.Logger
}

func NewProvinceService(repo provinceRepository, queue importQueue, logger *zerolog.Logger) *ProvinceService {
	return &ProvinceService{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

// CreateProvince is the single write path for new provinces, used by both
// the API and the importer. It returns ErrDuplicateCode when a live province
// already has cmd.Code and ErrInvalidProvince for an incomplete command.
func (s *ProvinceService) CreateProvince(ctx context.Context, cmd province.CreateProvinceCommand) (uuid.UUID, error) {
	p, err := s.create(ctx, cmd)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *ProvinceService) create(ctx context.Context, cmd province.CreateProvinceCommand) (*province.Province, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Codename = strings.TrimSpace(cmd.Codename)
	cmd.DivisionType = strings.TrimSpace(cmd.DivisionType)

	switch {
	case cmd.Name == "":
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidProvince)
	case cmd.Codename == "":
		return nil, fmt.Errorf("%w: codename is empty", ErrInvalidProvince)
	case cmd.DivisionType == "":
		return nil, fmt.Errorf("%w: division type is empty", ErrInvalidProvince)
	case cmd.Code <= 0:
		return nil, fmt.Errorf("%w: code must be positive, got %d", ErrInvalidProvince, cmd.Code)
	case cmd.ActingUserID == uuid.Nil:
		return nil, fmt.Errorf("%w: acting user is missing", ErrInvalidProvince)
	}

	p, err := s.repo.CreateProvince(ctx, cmd)
	if err != nil {
		if sqlerr.IsUniqueViolation(err, repository.ProvinceCodeConstraint) {
			return nil, fmt.Errorf("%w: code %d", ErrDuplicateCode, cmd.Code)
		}
		return nil, err
	}

	return p, nil
}

// Create handles POST /province.
func (s *ProvinceService) Create(ctx context.Context, payload *province.CreateProvincePayload, actingUserID uuid.UUID) (*province.Province, error) {
	p, err := s.create(ctx, province.CreateProvinceCommand{
		Name:         payload.Name,
		Codename:     payload.Codename,
		Code:         payload.Code,
		DivisionType: payload.Type,
		ActingUserID: actingUserID,
	})
	if err != nil {
		return nil, provinceHTTPError(err, payload.Code)
	}

	s.logger.Info().
		Str("event", "province_created").
		Str("province_id", p.ID.String()).
		Int("code", p.Code).
		Msg("province created")

	return p, nil
}

func (s *ProvinceService) GetByID(ctx context.Context, id uuid.UUID) (*province.Province, error) {
	return s.repo.GetProvinceByID(ctx, id)
}

func (s *ProvinceService) GetByCode(ctx context.Context, code int) (*province.Province, error) {
	return s.repo.GetProvinceByCode(ctx, code)
}

func (s *ProvinceService) List(ctx context.Context, query *province.GetProvincesQuery) (*model.PaginatedResponse[province.Province], error) {
	page, limit, offset := utils.Pagination(query.Page, query.Limit)

	filter := province.ListFilter{Limit: limit, Offset: offset}
	if query.Name != nil {
		filter.Name = strings.TrimSpace(*query.Name)
	}
	if query.Codename != nil {
		filter.Codename = strings.TrimSpace(*query.Codename)
	}
	if query.Type != nil {
		filter.Type = strings.TrimSpace(*query.Type)
	}

	items, total, err := s.repo.ListProvinces(ctx, filter)
	if err != nil {
		return nil, err
	}

	return model.NewPaginatedResponse(items, total, page, limit), nil
}

func updateCommand(fields province.UpdateProvinceFields, actingUserID uuid.UUID) (province.UpdateProvinceCommand, error) {
	cmd := province.UpdateProvinceCommand{
		Name:         fields.Name,
		Codename:     fields.Codename,
		Code:         fields.Code,
		DivisionType: fields.Type,
		ActingUserID: actingUserID,
	}
	if cmd.IsEmpty() {
		return cmd, errs.NewBadRequestError("At least one field must be provided", true, errs.Code("EMPTY_UPDATE"), nil, nil)
	}
	return cmd, nil
}

func (s *ProvinceService) UpdateByID(ctx context.Context, id uuid.UUID, fields province.UpdateProvinceFields, actingUserID uuid.UUID) (*province.Province, error) {
	cmd, err := updateCommand(fields, actingUserID)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateProvinceByID(ctx, id, cmd)
	if err != nil {
		return nil, s.updateError(err, fields.Code)
	}
	return p, nil
}

func (s *ProvinceService) UpdateByCode(ctx context.Context, code int, fields province.UpdateProvinceFields, actingUserID uuid.UUID) (*province.Province, error) {
	cmd, err := updateCommand(fields, actingUserID)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateProvinceByCode(ctx, code, cmd)
	if err != nil {
		return nil, s.updateError(err, fields.Code)
	}
	return p, nil
}

func (s *ProvinceService) updateError(err error, newCode *int) error {
	if newCode != nil && sqlerr.IsUniqueViolation(err, repository.ProvinceCodeConstraint) {
		return provinceHTTPError(fmt.Errorf("%w: %w", ErrDuplicateCode, err), *newCode)
	}
	return err
}

func (s *ProvinceService) DeleteByID(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID) error {
	return s.repo.DeleteProvinceByID(ctx, id, actingUserID)
}

func (s *ProvinceService) DeleteByCode(ctx context.Context, code int, actingUserID uuid.UUID) error {
	return s.repo.DeleteProvinceByCode(ctx, code, actingUserID)
}

func (s *ProvinceService) DeleteManyByIDs(ctx context.Context, ids []string, actingUserID uuid.UUID) (*province.DeleteManyResponse, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errs.NewBadRequestError("Invalid province id", true, nil,
				[]errs.FieldError{{Field: "ids", Error: "must contain valid UUIDs"}}, nil)
		}
		parsed = append(parsed, id)
	}

	n, err := s.repo.DeleteProvincesByIDs(ctx, parsed, actingUserID)
	if err != nil {
		return nil, err
	}
	return &province.DeleteManyResponse{Deleted: n}, nil
}

func (s *ProvinceService) DeleteManyByCodes(ctx context.Context, codes []int, actingUserID uuid.UUID) (*province.DeleteManyResponse, error) {
	n, err := s.repo.DeleteProvincesByCodes(ctx, codes, actingUserID)
	if err != nil {
		return nil, err
	}
	return &province.DeleteManyResponse{Deleted: n}, nil
}

// QueueImport schedules an import on the job queue.
func (s *ProvinceService) QueueImport(ctx context.Context, requestedBy uuid.UUID) (*province.CrawlQueuedResponse, error) {
	info, err := s.queue.EnqueueProvinceImport(ctx, requestedBy.String())
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil, errs.NewConflictError("A province import is already queued", true, errs.Code("IMPORT_ALREADY_QUEUED"))
		}
		return nil, fmt.Errorf("failed to enqueue province import: %w", err)
	}

	s.logger.Info().
		Str("event", "province_import_queued").
		Str("task_id", info.ID).
		Str("requested_by", requestedBy.String()).
		Msg("province import queued")

	return &province.CrawlQueuedResponse{TaskID: info.ID, Queue: info.Queue}, nil
}

func provinceHTTPError(err error, code int) error {
	switch {
	case errors.Is(err, ErrDuplicateCode):
		return errs.NewConflictError(
			fmt.Sprintf("A province with code %d already exists", code),
			true,
			errs.Code("PROVINCE_ALREADY_EXISTS"),
		)
	case errors.Is(err, ErrInvalidProvince):
		return errs.NewBadRequestError(err.Error(), true, nil, nil, nil)
	default:
		return err
	}
}
