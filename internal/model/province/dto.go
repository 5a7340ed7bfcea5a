package province

import (
	"github.com/go-playground/validator/v10"
)

// ------------------------------------------------------------

type CreateProvincePayload struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Codename string `json:"codename" validate:"required,min=1,max=255"`
	Code     int    `json:"code" validate:"required,min=1"`
	Type     string `json:"type" validate:"required,min=1,max=100"`
}

func (p *CreateProvincePayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

type GetProvincesQuery struct {
	Page     *int    `query:"page" validate:"omitempty,min=1"`
	Limit    *int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Name     *string `query:"name" validate:"omitempty,max=255"`
	Codename *string `query:"codename" validate:"omitempty,max=255"`
	Type     *string `query:"type" validate:"omitempty,max=100"`
}

func (q *GetProvincesQuery) Validate() error {
	validate := validator.New()
	if err := validate.Struct(q); err != nil {
		return err
	}

	if q.Page == nil {
		defaultPage := 1
		q.Page = &defaultPage
	}
	if q.Limit == nil {
		defaultLimit := 10
		q.Limit = &defaultLimit
	}

	return nil
}

// ------------------------------------------------------------

type GetProvinceByIDPayload struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (p *GetProvinceByIDPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

type GetProvinceByCodePayload struct {
	Code int `param:"code" validate:"required,min=1"`
}

func (p *GetProvinceByCodePayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

type UpdateProvinceFields struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Codename *string `json:"codename" validate:"omitempty,min=1,max=255"`
	Code     *int    `json:"code" validate:"omitempty,min=1"`
	Type     *string `json:"type" validate:"omitempty,min=1,max=100"`
}

type UpdateProvinceByIDPayload struct {
	ID string `param:"id" validate:"required,uuid"`
	UpdateProvinceFields
}

func (p *UpdateProvinceByIDPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

type UpdateProvinceByCodePayload struct {
	TargetCode int `param:"code" validate:"required,min=1"`
	UpdateProvinceFields
}

func (p *UpdateProvinceByCodePayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

type DeleteProvinceByIDPayload struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (p *DeleteProvinceByIDPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

type DeleteProvinceByCodePayload struct {
	Code int `param:"code" validate:"required,min=1"`
}

func (p *DeleteProvinceByCodePayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

type DeleteProvincesByIDsPayload struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

func (p *DeleteProvincesByIDsPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

type DeleteProvincesByCodesPayload struct {
	Codes []int `json:"codes" validate:"required,min=1,max=100,dive,min=1"`
}

func (p *DeleteProvincesByCodesPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// DeleteManyResponse reports how many live provinces were soft deleted.
type DeleteManyResponse struct {
	Deleted int64 `json:"deleted"`
}

// ------------------------------------------------------------

// CrawlProvincesPayload triggers an import. With Async the run is queued
// and only the task id is returned.
type CrawlProvincesPayload struct {
	Async bool `query:"async"`
}

func (p *CrawlProvincesPayload) Validate() error {
	return nil
}

// CrawlQueuedResponse is returned for an async import.
type CrawlQueuedResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}
