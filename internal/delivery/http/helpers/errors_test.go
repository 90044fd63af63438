package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"communityevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"not found", fmt.Errorf("get event: %w", domain.ErrNotFound), http.StatusNotFound, ErrCodeNotFound, "get event: not found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "forbidden"},
		{"invalid input", fmt.Errorf("%w: title is required", domain.ErrInvalidInput), http.StatusBadRequest, ErrCodeBadRequest, "invalid input: title is required"},
		{"capacity", domain.ErrCapacityExceeded, http.StatusConflict, ErrCodeConflict, domain.ErrCapacityExceeded.Error()},
		{"already published", domain.ErrAlreadyPublished, http.StatusConflict, ErrCodeConflict, domain.ErrAlreadyPublished.Error()},
		{"forbidden transition", fmt.Errorf("%w: cannot publish", domain.ErrForbiddenTransition), http.StatusConflict, ErrCodeConflict, domain.ErrForbiddenTransition.Error() + ": cannot publish"},
		{"duplicate", domain.ErrDuplicateRequest, http.StatusConflict, ErrCodeConflict, domain.ErrDuplicateRequest.Error()},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, ErrCodeInternalError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/events/1", nil)

			WriteServiceError(rr, req, logger, tt.err)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var envelope APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			assert.Nil(t, envelope.Data)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.Equal(t, tt.wantMessage, envelope.Error.Message)
		})
	}
}

type sampleRequest struct {
	Name string `json:"name"`
}

func (s sampleRequest) Validate() []string {
	if s.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantCode int
	}{
		{"valid", `{"name":"x"}`, true, http.StatusOK},
		{"validation failure", `{"name":""}`, false, http.StatusBadRequest},
		{"unknown field", `{"name":"x","extra":1}`, false, http.StatusBadRequest},
		{"malformed", `{`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest sampleRequest

			ok := DecodeAndValidate(rr, req, &dest)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query   string
		want    domain.PaginationParams
		wantErr bool
	}{
		{query: "", want: domain.PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}},
		{query: "page=3&page_size=5", want: domain.PaginationParams{Page: 3, PageSize: 5}},
		{query: "page_size=100", want: domain.PaginationParams{Page: DefaultPage, PageSize: MaxPageSize}},
		{query: "page=0", wantErr: true},
		{query: "page_size=1000", wantErr: true},
		{query: "page=abc", wantErr: true},
		{query: "page_size=-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me/events?"+tt.query, nil)
			got, err := ParsePagination(req)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
