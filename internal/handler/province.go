package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/errs"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/provinces"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/middleware"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

type provinceImporter interface {
	Run(ctx context.Context) (*province.ImportSummary, error)
}

type importQueuer interface {
	QueueImport(ctx context.Context, requestedBy uuid.UUID) (*province.CrawlQueuedResponse, error)
}

type ProvinceHandler struct {
	Handler
	provinceService *service.ProvinceService
	importer        provinceImporter
	queue           importQueuer
}

func NewProvinceHandler(s *server.Server, provinceService *service.ProvinceService, importer provinceImporter) *ProvinceHandler {
	return &ProvinceHandler{
		Handler:         NewHandler(s),
		provinceService: provinceService,
		importer:        importer,
		queue:           provinceService,
	}
}

func actingUser(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.GetUserUUID(c)
	if !ok {
		return uuid.Nil, errs.NewUnauthorizedError("Unauthorized", false)
	}
	return id, nil
}

func parseID(raw string) uuid.UUID {
	// Payload validation has already checked the format.
	return uuid.MustParse(raw)
}

func (h *ProvinceHandler) CreateProvince(c echo.Context, payload *province.CreateProvincePayload) (*province.Province, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.provinceService.Create(c.Request().Context(), payload, userID)
}

func (h *ProvinceHandler) GetProvinces(c echo.Context, query *province.GetProvincesQuery) (*model.PaginatedResponse[province.Province], error) {
	return h.provinceService.List(c.Request().Context(), query)
}

func (h *ProvinceHandler) GetProvinceByID(c echo.Context, payload *province.GetProvinceByIDPayload) (*province.Province, error) {
	return h.provinceService.GetByID(c.Request().Context(), parseID(payload.ID))
}

func (h *ProvinceHandler) GetProvinceByCode(c echo.Context, payload *province.GetProvinceByCodePayload) (*province.Province, error) {
	return h.provinceService.GetByCode(c.Request().Context(), payload.Code)
}

func (h *ProvinceHandler) UpdateProvinceByID(c echo.Context, payload *province.UpdateProvinceByIDPayload) (*province.Province, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.provinceService.UpdateByID(c.Request().Context(), parseID(payload.ID), payload.UpdateProvinceFields, userID)
}

func (h *ProvinceHandler) UpdateProvinceByCode(c echo.Context, payload *province.UpdateProvinceByCodePayload) (*province.Province, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.provinceService.UpdateByCode(c.Request().Context(), payload.TargetCode, payload.UpdateProvinceFields, userID)
}

func (h *ProvinceHandler) DeleteProvinceByID(c echo.Context, payload *province.DeleteProvinceByIDPayload) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}
	return h.provinceService.DeleteByID(c.Request().Context(), parseID(payload.ID), userID)
}

func (h *ProvinceHandler) DeleteProvinceByCode(c echo.Context, payload *province.DeleteProvinceByCodePayload) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}
	return h.provinceService.DeleteByCode(c.Request().Context(), payload.Code, userID)
}

func (h *ProvinceHandler) DeleteProvincesByIDs(c echo.Context, payload *province.DeleteProvincesByIDsPayload) (*province.DeleteManyResponse, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.provinceService.DeleteManyByIDs(c.Request().Context(), payload.IDs, userID)
}

func (h *ProvinceHandler) DeleteProvincesByCodes(c echo.Context, payload *province.DeleteProvincesByCodesPayload) (*province.DeleteManyResponse, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.provinceService.DeleteManyByCodes(c.Request().Context(), payload.Codes, userID)
}

// CrawlProvinces imports the remote province list. The synchronous run
// answers 200 with the summary even when every record failed; only an
// unreachable source is an error.
func (h *ProvinceHandler) CrawlProvinces(c echo.Context, payload *province.CrawlProvincesPayload) (StatusResult, error) {
	userID, err := actingUser(c)
	if err != nil {
		return StatusResult{}, err
	}

	if payload.Async {
		queued, err := h.queue.QueueImport(c.Request().Context(), userID)
		if err != nil {
			return StatusResult{}, err
		}
		return StatusResult{Status: http.StatusAccepted, Body: queued}, nil
	}

	middleware.GetLogger(c).Info().
		Str("event", "province_import_started").
		Str("requested_by", userID.String()).
		Msg("province import requested")

	summary, err := h.importer.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, provinces.ErrSourceUnavailable) {
			return StatusResult{}, errs.NewBadGatewayError("Province source is unavailable", errs.Code("SOURCE_UNAVAILABLE"))
		}
		return StatusResult{}, err
	}

	return StatusResult{Status: http.StatusOK, Body: summary}, nil
}
