package province

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FailureReason classifies why a single record of an import failed.
type FailureReason string

const (
	ReasonDecodeError   FailureReason = "DecodeError"
	ReasonDuplicateCode FailureReason = "DuplicateCode"
	ReasonWriteRejected FailureReason = "WriteRejected"
)

// ImportRecord is one administrative division as published by the remote
// source. Pointer fields distinguish a missing key from a zero value.
type ImportRecord struct {
	Name         *string `json:"name"`
	Codename     *string `json:"codename"`
	Code         *int    `json:"code"`
	DivisionType *string `json:"division_type"`
}

// DecodeImportRecord decodes one raw element of the remote payload. Every
// field is required; a missing field or a value of the wrong JSON type is an
// error.
func DecodeImportRecord(raw json.RawMessage) (*ImportRecord, error) {
	var rec ImportRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	var missing []error
	if rec.Name == nil {
		missing = append(missing, errors.New("missing field name"))
	}
	if rec.Codename == nil {
		missing = append(missing, errors.New("missing field codename"))
	}
	if rec.Code == nil {
		missing = append(missing, errors.New("missing field code"))
	}
	if rec.DivisionType == nil {
		missing = append(missing, errors.New("missing field division_type"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	return &rec, nil
}

// ImportFailure describes one record that was not persisted. Input is the
// record exactly as received.
type ImportFailure struct {
	Input  json.RawMessage `json:"input"`
	Reason FailureReason   `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}

// ImportSummary is the outcome of one import run.
//
// TotalSeen == Succeeded + Failed, and len(Failures) == Failed.
type ImportSummary struct {
	TotalSeen int             `json:"totalSeen"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []ImportFailure `json:"failures"`
}

// NewImportSummary returns an empty summary whose Failures encodes as [].
func NewImportSummary() *ImportSummary {
	return &ImportSummary{Failures: []ImportFailure{}}
}

// AddSuccess records a persisted record.
func (s *ImportSummary) AddSuccess() {
	s.TotalSeen++
	s.Succeeded++
}

// AddFailure records a rejected record.
func (s *ImportSummary) AddFailure(f ImportFailure) {
	s.TotalSeen++
	s.Failed++
	s.Failures = append(s.Failures, f)
}
