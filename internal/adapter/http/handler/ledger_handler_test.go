package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

type ledgerServiceStub struct {
	report *usecase.LedgerReport
	err    error
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.LedgerReport, error) {
	return s.report, s.err
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		stub       *ledgerServiceStub
		wantCode   int
		wantStatus string
	}{
		{
			name:       "consistent",
			stub:       &ledgerServiceStub{report: &usecase.LedgerReport{TotalBalance: decimal.NewFromInt(5), TotalDeposits: decimal.NewFromInt(5), Consistent: true}},
			wantCode:   http.StatusOK,
			wantStatus: "consistent",
		},
		{
			name: "inconsistent",
			stub: &ledgerServiceStub{
				report: &usecase.LedgerReport{TotalBalance: decimal.NewFromInt(6), TotalDeposits: decimal.NewFromInt(5)},
				err:    usecase.ErrInconsistentLedger,
			},
			wantCode:   http.StatusConflict,
			wantStatus: "inconsistent",
		},
		{
			name:     "repository failure",
			stub:     &ledgerServiceStub{err: errors.New("db down")},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewLedgerHandler(tt.stub).CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/consistency", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantStatus == "" {
				return
			}
			var resp dto.LedgerReportResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}
