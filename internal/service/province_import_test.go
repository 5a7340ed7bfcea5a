package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/provinces"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
)

var importActor = uuid.MustParse("4af43f97-b4c7-452f-8ece-bcdf00b57acb")

type staticSource struct {
	items []json.RawMessage
	err   error
	calls atomic.Int32
}

func (s *staticSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	s.calls.Add(1)
	return s.items, s.err
}

// memoryWriter mimics the database: one live province per code.
type memoryWriter struct {
	mu       sync.Mutex
	byCode   map[int]province.CreateProvinceCommand
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	fail     func(cmd province.CreateProvinceCommand) error
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{byCode: map[int]province.CreateProvinceCommand{}}
}

func (w *memoryWriter) CreateProvince(ctx context.Context, cmd province.CreateProvinceCommand) (uuid.UUID, error) {
	w.calls.Add(1)
	n := w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	for {
		p := w.peak.Load()
		if n <= p || w.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if ctx.Err() != nil {
		return uuid.Nil, ctx.Err()
	}
	if w.fail != nil {
		if err := w.fail(cmd); err != nil {
			return uuid.Nil, err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byCode[cmd.Code]; ok {
		return uuid.Nil, fmt.Errorf("%w: code %d", ErrDuplicateCode, cmd.Code)
	}
	w.byCode[cmd.Code] = cmd
	return uuid.New(), nil
}

func (w *memoryWriter) stored() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byCode)
}

func record(name, codename string, code int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"name":%q,"code":%d,"division_type":"tỉnh","codename":%q,"phone_code":%d,"districts":[]}`,
		name, code, codename, code,
	))
}

func validRecords(n int) []json.RawMessage {
	items := make([]json.RawMessage, n)
	for i := range items {
		items[i] = record(fmt.Sprintf("Province %d", i+1), fmt.Sprintf("province_%d", i+1), i+1)
	}
	return items
}

func newTestImporter(source provinces.Source, writer ProvinceWriter, concurrency int) *ProvinceImporter {
	logger := zerolog.Nop()
	return NewProvinceImporter(source, writer, ImportOptions{
		ActingUserID: importActor,
		Concurrency:  concurrency,
	}, &logger)
}

func assertConsistent(t *testing.T, s *province.ImportSummary) {
	t.Helper()
	assert.Equal(t, s.TotalSeen, s.Succeeded+s.Failed)
	assert.Len(t, s.Failures, s.Failed)
}

func TestProvinceImporter_AllValid(t *testing.T) {
	writer := newMemoryWriter()
	importer := newTestImporter(&staticSource{items: validRecords(63)}, writer, 10)

	summary, err := importer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 63, summary.TotalSeen)
	assert.Equal(t, 63, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, 63, writer.stored())
	assertConsistent(t, summary)

	for _, cmd := range writer.byCode {
		assert.Equal(t, importActor, cmd.ActingUserID)
	}
}

func TestProvinceImporter_MapsFields(t *testing.T) {
	writer := newMemoryWriter()
	items := []json.RawMessage{record("Thành phố Hà Nội", "thanh_pho_ha_noi", 1)}

	_, err := newTestImporter(&staticSource{items: items}, writer, 1).Run(context.Background())
	require.NoError(t, err)

	cmd := writer.byCode[1]
	assert.Equal(t, "Thành phố Hà Nội", cmd.Name)
	assert.Equal(t, "thanh_pho_ha_noi", cmd.Codename)
	assert.Equal(t, "tỉnh", cmd.DivisionType)
	assert.Equal(t, 1, cmd.Code)
}

func TestProvinceImporter_DecodeErrors(t *testing.T) {
	items := []json.RawMessage{
		record("Hà Giang", "ha_giang", 2),
		json.RawMessage(`{"name":"Cao Bằng","code":4,"division_type":"tỉnh"}`),
		json.RawMessage(`{"name":"Bắc Kạn","code":"six","division_type":"tỉnh","codename":"bac_kan"}`),
		json.RawMessage(`"not an object"`),
	}
	writer := newMemoryWriter()

	summary, err := newTestImporter(&staticSource{items: items}, writer, 4).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalSeen)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	assertConsistent(t, summary)
	assert.Equal(t, int32(1), writer.calls.Load(), "undecodable records are never submitted")

	for _, f := range summary.Failures {
		assert.Equal(t, province.ReasonDecodeError, f.Reason)
		assert.NotEmpty(t, f.Detail)
	}
	assert.JSONEq(t, string(items[1]), string(summary.Failures[0].Input), "failures keep the input as received")
	assert.Contains(t, summary.Failures[0].Detail, "codename")
}

func TestProvinceImporter_DuplicateInPayload(t *testing.T) {
	items := []json.RawMessage{
		record("Hanoi", "ha_noi", 1),
		record("HaNoiDup", "ha_noi_dup", 1),
	}
	writer := newMemoryWriter()

	summary, err := newTestImporter(&staticSource{items: items}, writer, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSeen)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, province.ReasonDuplicateCode, summary.Failures[0].Reason)
	assert.Equal(t, 1, writer.stored())
}

func TestProvinceImporter_RerunIsIdempotent(t *testing.T) {
	source := &staticSource{items: validRecords(5)}
	writer := newMemoryWriter()
	importer := newTestImporter(source, writer, 3)

	first, err := importer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, first.Succeeded)

	second, err := importer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, second.TotalSeen)
	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, 5, second.Failed)
	for _, f := range second.Failures {
		assert.Equal(t, province.ReasonDuplicateCode, f.Reason)
	}
	assert.Equal(t, 5, writer.stored())
}

func TestProvinceImporter_SourceUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "already classified", err: fmt.Errorf("%w: status 503", provinces.ErrSourceUnavailable)},
		{name: "connection refused", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &staticSource{err: tt.err}
			writer := newMemoryWriter()

			summary, err := newTestImporter(source, writer, 2).Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, provinces.ErrSourceUnavailable)
			assert.Nil(t, summary)
			assert.Equal(t, int32(0), writer.calls.Load())
			assert.Equal(t, int32(1), source.calls.Load(), "the source is fetched once, without retries")
		})
	}
}

func TestProvinceImporter_EmptyPayload(t *testing.T) {
	writer := newMemoryWriter()

	summary, err := newTestImporter(&staticSource{items: []json.RawMessage{}}, writer, 2).Run(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalSeen":0,"succeeded":0,"failed":0,"failures":[]}`, string(out))
	assert.Equal(t, int32(0), writer.calls.Load())
}

func TestProvinceImporter_UnexpectedWriteError(t *testing.T) {
	writer := newMemoryWriter()
	writer.fail = func(cmd province.CreateProvinceCommand) error {
		if cmd.Code == 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	}

	summary, err := newTestImporter(&staticSource{items: validRecords(4)}, writer, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, province.ReasonWriteRejected, summary.Failures[0].Reason)
	assert.Equal(t, "connection reset by peer", summary.Failures[0].Detail)
	assertConsistent(t, summary)
}

func TestProvinceImporter_PanickingWriteIsContained(t *testing.T) {
	writer := newMemoryWriter()
	writer.fail = func(cmd province.CreateProvinceCommand) error {
		if cmd.Code == 2 {
			panic("driver bug")
		}
		return nil
	}

	summary, err := newTestImporter(&staticSource{items: validRecords(3)}, writer, 3).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, province.ReasonWriteRejected, summary.Failures[0].Reason)
	assert.Contains(t, summary.Failures[0].Detail, "driver bug")
}

func TestProvinceImporter_BoundsConcurrency(t *testing.T) {
	writer := newMemoryWriter()
	writer.delay = 5 * time.Millisecond

	summary, err := newTestImporter(&staticSource{items: validRecords(40)}, writer, 4).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, summary.Succeeded)
	assert.LessOrEqual(t, writer.peak.Load(), int32(4))
	assert.Greater(t, writer.peak.Load(), int32(1), "creates run in parallel")
}

func TestProvinceImporter_CancelledCallerStillCompletes(t *testing.T) {
	writer := newMemoryWriter()
	writer.delay = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	source := &cancellingSource{items: validRecords(10), cancel: cancel}

	summary, err := newTestImporter(source, writer, 2).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Succeeded, "submitted creates ignore the caller's cancellation")
	assert.Equal(t, 10, writer.stored())
}

// cancellingSource cancels the caller's context right after returning.
type cancellingSource struct {
	items  []json.RawMessage
	cancel context.CancelFunc
}

func (s *cancellingSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	defer s.cancel()
	return s.items, nil
}

func TestNewProvinceImporter_DefaultConcurrency(t *testing.T) {
	importer := newTestImporter(&staticSource{}, newMemoryWriter(), 0)
	assert.Equal(t, DefaultImportConcurrency, importer.opts.Concurrency)
}
