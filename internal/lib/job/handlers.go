package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
)

type emailSender interface {
	SendWelcomeEmail(ctx context.Context, to, fullName string) error
	SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error
}

// ProvinceImporter runs one province import.
type ProvinceImporter interface {
	Run(ctx context.Context) (*province.ImportSummary, error)
}

func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("processing welcome email task")

	if err := j.emails.SendWelcomeEmail(ctx, p.To, p.FullName); err != nil {
		j.logger.Error().
			Str("type", "welcome").
			Str("to", p.To).
			Err(err).
			Msg("failed to send welcome email")
		return err
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("successfully sent welcome email")

	return nil
}

func (j *JobService) handleOTPEmailTask(ctx context.Context, t *asynq.Task) error {
	var p OTPEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal otp email payload: %v: %w", err, asynq.SkipRetry)
	}

	// The code itself is never logged.
	j.logger.Info().
		Str("type", "otp").
		Str("to", p.To).
		Msg("processing otp email task")

	if err := j.emails.SendOTPEmail(ctx, p.To, p.Code, time.Duration(p.ExpiresIn)*time.Second); err != nil {
		j.logger.Error().
			Str("type", "otp").
			Str("to", p.To).
			Err(err).
			Msg("failed to send otp email")
		return err
	}

	return nil
}

// handleProvinceImportTask runs an import. An unreachable source fails the
// task so asynq retries it; per-record failures are part of a successful
// run and are stored in the task result.
func (j *JobService) handleProvinceImportTask(ctx context.Context, t *asynq.Task) error {
	var p ProvinceImportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal province import payload: %v: %w", err, asynq.SkipRetry)
	}
	if j.importer == nil {
		return fmt.Errorf("province importer not configured: %w", asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("type", "province_import").
		Str("requested_by", p.RequestedBy).
		Logger()
	logger.Info().Msg("processing province import task")

	summary, err := j.importer.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("province import failed")
		return err
	}

	logger.Info().
		Int("total_seen", summary.TotalSeen).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("province import finished")

	if w := t.ResultWriter(); w != nil {
		result, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to marshal import summary: %w", err)
		}
		if _, err := w.Write(result); err != nil {
			logger.Warn().Err(err).Msg("failed to store import summary")
		}
	}

	return nil
}
