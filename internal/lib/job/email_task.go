package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskWelcome = "email:welcome"
	TaskOTP     = "email:otp"
)

type WelcomeEmailPayload struct {
	To       string `json:"to"`
	FullName string `json:"full_name"`
}

func NewWelcomeEmailTask(to, fullName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:       to,
		FullName: fullName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

type OTPEmailPayload struct {
	To        string `json:"to"`
	Code      string `json:"code"`
	ExpiresIn int64  `json:"expires_in"`
}

// NewOTPEmailTask expires together with the code: a code delivered after
// it stopped being valid is useless.
func NewOTPEmailTask(to, code string, expiresIn time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(OTPEmailPayload{
		To:        to,
		Code:      code,
		ExpiresIn: int64(expiresIn.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskOTP,
		payload,
		asynq.MaxRetry(2),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
		asynq.Deadline(time.Now().Add(expiresIn)),
	), nil
}

// EnqueueWelcomeEmail queues the welcome email of a new customer.
func (j *JobService) EnqueueWelcomeEmail(ctx context.Context, to, fullName string) error {
	task, err := NewWelcomeEmailTask(to, fullName)
	if err != nil {
		return err
	}
	_, err = j.Client.EnqueueContext(ctx, task)
	return err
}

// EnqueueOTPEmail queues delivery of a registration code.
func (j *JobService) EnqueueOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	task, err := NewOTPEmailTask(to, code, expiresIn)
	if err != nil {
		return err
	}
	_, err = j.Client.EnqueueContext(ctx, task)
	return err
}
