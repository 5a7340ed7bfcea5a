package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/provinces"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
)

type mockEmails struct {
	mock.Mock
}

func (m *mockEmails) SendWelcomeEmail(ctx context.Context, to, fullName string) error {
	return m.Called(ctx, to, fullName).Error(0)
}

func (m *mockEmails) SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	return m.Called(ctx, to, code, expiresIn).Error(0)
}

type importerFunc func(ctx context.Context) (*province.ImportSummary, error)

func (f importerFunc) Run(ctx context.Context) (*province.ImportSummary, error) {
	return f(ctx)
}

func newTestJobService() *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger}
}

func TestHandleWelcomeEmailTask(t *testing.T) {
	emails := new(mockEmails)
	emails.On("SendWelcomeEmail", mock.Anything, "an@citybus.vn", "Nguyen Van An").Return(nil).Once()

	j := newTestJobService()
	j.emails = emails

	task, err := NewWelcomeEmailTask("an@citybus.vn", "Nguyen Van An")
	require.NoError(t, err)
	assert.Equal(t, TaskWelcome, task.Type())

	require.NoError(t, j.handleWelcomeEmailTask(context.Background(), task))
	emails.AssertExpectations(t)
}

func TestHandleOTPEmailTask(t *testing.T) {
	emails := new(mockEmails)
	emails.On("SendOTPEmail", mock.Anything, "an@citybus.vn", "123456", 5*time.Minute).
		Return(errors.New("provider down")).Once()

	j := newTestJobService()
	j.emails = emails

	task, err := NewOTPEmailTask("an@citybus.vn", "123456", 5*time.Minute)
	require.NoError(t, err)

	err = j.handleOTPEmailTask(context.Background(), task)
	assert.ErrorContains(t, err, "provider down")
	emails.AssertExpectations(t)
}

func TestHandleTask_BadPayloadSkipsRetry(t *testing.T) {
	j := newTestJobService()

	err := j.handleWelcomeEmailTask(context.Background(), asynq.NewTask(TaskWelcome, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = j.handleProvinceImportTask(context.Background(), asynq.NewTask(TaskProvinceImport, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleProvinceImportTask(t *testing.T) {
	calls := 0
	j := newTestJobService()
	j.importer = importerFunc(func(ctx context.Context) (*province.ImportSummary, error) {
		calls++
		s := province.NewImportSummary()
		s.AddSuccess()
		s.AddFailure(province.ImportFailure{Input: json.RawMessage(`{}`), Reason: province.ReasonDecodeError})
		return s, nil
	})

	task, err := NewProvinceImportTask("scheduler")
	require.NoError(t, err)

	require.NoError(t, j.handleProvinceImportTask(context.Background(), task))
	assert.Equal(t, 1, calls)
}

func TestHandleProvinceImportTask_SourceUnavailableRetries(t *testing.T) {
	j := newTestJobService()
	j.importer = importerFunc(func(ctx context.Context) (*province.ImportSummary, error) {
		return nil, provinces.ErrSourceUnavailable
	})

	task, err := NewProvinceImportTask("cli")
	require.NoError(t, err)

	err = j.handleProvinceImportTask(context.Background(), task)
	assert.ErrorIs(t, err, provinces.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestMux_RoutesEveryTask(t *testing.T) {
	emails := new(mockEmails)
	emails.On("SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	j := newTestJobService()
	j.emails = emails

	task, err := NewWelcomeEmailTask("an@citybus.vn", "An")
	require.NoError(t, err)

	require.NoError(t, j.Mux().ProcessTask(context.Background(), task))
	emails.AssertNumberOfCalls(t, "SendWelcomeEmail", 1)
}
