package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "studiobook/pkg/errors"
)

func TestWriteError(t *testing.T) {
	start := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:       "slot already booked",
			err:        apperrors.SlotAlreadyBooked(start, start.Add(time.Hour)),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeSlotAlreadyBooked,
		},
		{
			name:       "invalid time format",
			err:        apperrors.InvalidTimeFormat("start_at", "yesterday"),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidTimeFormat,
		},
		{
			name:        "plain error is opaque",
			err:         errors.New("mongo: connection refused on 10.0.0.5"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    apperrors.CodeInternal,
			wantMessage: internalErrorMessage,
		},
		{
			name:        "internal app error hides message",
			err:         apperrors.Internal("failed to insert into Reservations", errors.New("boom")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    apperrors.CodeInternal,
			wantMessage: internalErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError() error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if strings.Contains(rec.Body.String(), "10.0.0.5") {
				t.Errorf("response leaked internal error: %s", rec.Body.String())
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Status string `json:"status"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"status":"confirmed"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"state":"confirmed"}`, wantErr: true},
		{name: "two objects", body: `{"status":"a"}{"status":"b"}`, wantErr: true},
		{name: "malformed", body: `{"status":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSON(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := Actor(req); got != AnonymousActor {
		t.Errorf("Actor() = %s, want %s", got, AnonymousActor)
	}
	req.Header.Set(HeaderActor, " admin@studio ")
	if got := Actor(req); got != "admin@studio" {
		t.Errorf("Actor() = %s, want admin@studio", got)
	}
}
