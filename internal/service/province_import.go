package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/provinces"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
)

// DefaultImportConcurrency bounds in-flight creates when none is configured.
const DefaultImportConcurrency = 10

// ProvinceWriter persists a single province. It returns ErrDuplicateCode
// when the code is taken.
type ProvinceWriter interface {
	CreateProvince(ctx context.Context, cmd province.CreateProvinceCommand) (uuid.UUID, error)
}

type ImportOptions struct {
	// ActingUserID is recorded as the creator of every imported province.
	ActingUserID uuid.UUID
	// Concurrency is the maximum number of creates in flight.
	Concurrency int
}

// ProvinceImporter copies the remote province list into the database.
//
// A run fetches the list once, then submits every record as its own create.
// One record failing never stops the others; every outcome is reported in
// the returned ImportSummary. Re-running an import is safe: records already
// present fail with DuplicateCode.
type ProvinceImporter struct {
	source provinces.Source
	writer ProvinceWriter
	opts   ImportOptions
	logger *zerolog.Logger
}

func NewProvinceImporter(source provinces.Source, writer ProvinceWriter, opts ImportOptions, logger *zerolog.Logger) *ProvinceImporter {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultImportConcurrency
	}
	return &ProvinceImporter{
		source: source,
		writer: writer,
		opts:   opts,
		logger: logger,
	}
}

// Run performs one import.
//
// The only error it returns wraps provinces.ErrSourceUnavailable, in which
// case nothing was submitted. Cancelling ctx aborts the fetch, but creates
// already submitted are allowed to finish.
func (i *ProvinceImporter) Run(ctx context.Context) (*province.ImportSummary, error) {
	logger := i.loggerFrom(ctx)

	fetchSegment := newrelic.FromContext(ctx).StartSegment("province_import.fetch")
	items, err := i.source.Fetch(ctx)
	fetchSegment.End()
	if err != nil {
		if !errors.Is(err, provinces.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", provinces.ErrSourceUnavailable, err)
		}
		logger.Error().Err(err).Msg("province source unavailable, nothing imported")
		return nil, err
	}

	logger.Info().Int("records", len(items)).Msg("fetched province list")

	submitCtx := context.WithoutCancel(ctx)

	// One slot per record, nil meaning success. Each slot is written by
	// exactly one goroutine and read only after Wait.
	results := make([]*province.ImportFailure, len(items))

	submitSegment := newrelic.FromContext(ctx).StartSegment("province_import.submit")
	g := new(errgroup.Group)
	g.SetLimit(i.opts.Concurrency)

	for idx, raw := range items {
		idx, raw := idx, raw
		rec, err := province.DecodeImportRecord(raw)
		if err != nil {
			results[idx] = failed(raw, province.ReasonDecodeError, err)
			continue
		}

		cmd := province.CreateProvinceCommand{
			Name:         *rec.Name,
			Codename:     *rec.Codename,
			Code:         *rec.Code,
			DivisionType: *rec.DivisionType,
			ActingUserID: i.opts.ActingUserID,
		}

		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[idx] = failed(raw, province.ReasonWriteRejected, fmt.Errorf("panic: %v", r))
				}
			}()

			_, err := i.writer.CreateProvince(submitCtx, cmd)
			results[idx] = classify(raw, err)
			return nil
		})
	}

	// Tasks never return an error; failures live in results.
	_ = g.Wait()
	submitSegment.End()

	summary := province.NewImportSummary()
	for _, f := range results {
		if f == nil {
			summary.AddSuccess()
			continue
		}
		summary.AddFailure(*f)

		logger.Debug().
			RawJSON("input", f.Input).
			Str("reason", string(f.Reason)).
			Str("detail", f.Detail).
			Msg("province not imported")
	}

	logger.Info().
		Int("total_seen", summary.TotalSeen).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("province import finished")

	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute("import.total_seen", summary.TotalSeen)
		txn.AddAttribute("import.succeeded", summary.Succeeded)
		txn.AddAttribute("import.failed", summary.Failed)
	}

	return summary, nil
}

func classify(raw json.RawMessage, err error) *province.ImportFailure {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateCode):
		return failed(raw, province.ReasonDuplicateCode, err)
	default:
		return failed(raw, province.ReasonWriteRejected, err)
	}
}

func failed(raw json.RawMessage, reason province.FailureReason, err error) *province.ImportFailure {
	return &province.ImportFailure{
		Input:  raw,
		Reason: reason,
		Detail: err.Error(),
	}
}

// loggerFrom prefers the request logger carried by ctx.
func (i *ProvinceImporter) loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return i.logger
}
