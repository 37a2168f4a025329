package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type walletServiceStub struct {
	provisionFn func(ctx context.Context, userID string) (*domain.Wallet, bool, error)
	balanceFn   func(ctx context.Context, userID string) (*domain.Wallet, error)
	detailsFn   func(ctx context.Context, userID string) (*usecase.WalletDetails, error)
	listFn      func(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

func (s *walletServiceStub) ProvisionWallet(ctx context.Context, userID string) (*domain.Wallet, bool, error) {
	return s.provisionFn(ctx, userID)
}

func (s *walletServiceStub) GetBalance(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.balanceFn(ctx, userID)
}

func (s *walletServiceStub) GetDetails(ctx context.Context, userID string) (*usecase.WalletDetails, error) {
	return s.detailsFn(ctx, userID)
}

func (s *walletServiceStub) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	return s.listFn(ctx, userID, limit, offset)
}

func testWallet() *domain.Wallet {
	return &domain.Wallet{
		ID:           "w-1",
		WalletNumber: "1000000001",
		UserID:       "alice",
		Balance:      decimal.RequireFromString("150.5"),
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestWalletHandler_Provision(t *testing.T) {
	for _, created := range []bool{true, false} {
		handler := NewWalletHandler(&walletServiceStub{
			provisionFn: func(ctx context.Context, userID string) (*domain.Wallet, bool, error) {
				return testWallet(), created, nil
			},
		})

		rec := httptest.NewRecorder()
		handler.Provision(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet", nil), "alice"))

		want := http.StatusOK
		if created {
			want = http.StatusCreated
		}
		if rec.Code != want {
			t.Fatalf("created=%v: expected %d, got %d", created, want, rec.Code)
		}

		var resp dto.WalletResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.WalletNumber != "1000000001" || resp.Balance != "150.50" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}
}

func TestWalletHandler_Balance(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{
		balanceFn: func(ctx context.Context, userID string) (*domain.Wallet, error) {
			if userID != "alice" {
				return nil, domain.ErrWalletNotFound
			}
			return testWallet(), nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Balance(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil), "alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"balance\":\"150.50\"}\n" {
		t.Fatalf("unexpected body %q", body)
	}

	rec = httptest.NewRecorder()
	handler.Balance(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil), "bob"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for user without wallet, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Balance(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}
}

func TestWalletHandler_Details(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{
		detailsFn: func(ctx context.Context, userID string) (*usecase.WalletDetails, error) {
			return &usecase.WalletDetails{Wallet: testWallet(), OwnerName: "Alice", OwnerEmail: "alice@example.com"}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Details(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/details", nil), "alice"))

	var resp dto.WalletDetailsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OwnerName != "Alice" || resp.OwnerEmail != "alice@example.com" || resp.WalletNumber != "1000000001" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWalletHandler_Transactions(t *testing.T) {
	var gotLimit, gotOffset int
	handler := NewWalletHandler(&walletServiceStub{
		listFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Transaction{
				{Reference: "WS_2", Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusSuccess, Amount: decimal.NewFromInt(3)},
				{Reference: "WS_1", Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusPending, Amount: decimal.NewFromInt(5)},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Transactions(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions?offset=10", nil), "alice"))

	if gotLimit != domain.DefaultPageSize || gotOffset != 10 {
		t.Fatalf("unexpected pagination limit=%d offset=%d", gotLimit, gotOffset)
	}

	var resp []dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].Reference != "WS_2" || resp[1].Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
