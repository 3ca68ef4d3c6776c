package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgersync/internal/application/port"
	"ledgersync/internal/domain"
)

func TestListPortfoliosMapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/u1/portfolios" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "p1", "user_id": "u1", "name": "Dividends",
			"total_value": "1234.56",
			"created_at": "2026-01-02T03:04:05Z",
			"updated_at": "2026-01-03T03:04:05Z"
		}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	ps, err := c.ListPortfolios(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListPortfolios failed: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("expected 1 portfolio, got %d", len(ps))
	}
	if !ps[0].TotalValue.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("total_value mapped wrong: %s", ps[0].TotalValue)
	}
	want := time.Date(2026, 1, 3, 3, 4, 5, 0, time.UTC)
	if !ps[0].UpdatedAt.Equal(want) {
		t.Errorf("updated_at mapped wrong: %s", ps[0].UpdatedAt)
	}
}

func TestCreateHoldingRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/holdings" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{
			"id": "h1", "portfolio_id": "p1", "user_id": "u1",
			"ticker": "SCHD", "shares": "10", "cost_basis": "250.00",
			"created_at": "2026-01-02T00:00:00Z",
			"updated_at": "2026-01-02T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	h, err := c.CreateHolding(context.Background(), domain.Holding{Ticker: "SCHD", Shares: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("CreateHolding failed: %v", err)
	}
	if h.ID != "h1" || !h.Shares.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected holding: %+v", h)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		want   port.ErrorKind
	}{
		{http.StatusUnauthorized, port.KindAuth},
		{http.StatusForbidden, port.KindAuth},
		{http.StatusBadRequest, port.KindValidation},
		{http.StatusNotFound, port.KindValidation},
		{http.StatusUnprocessableEntity, port.KindValidation},
		{http.StatusInternalServerError, port.KindTransport},
		{http.StatusBadGateway, port.KindTransport},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClient(srv.URL, "tok")
		err := c.DeleteExpense(context.Background(), "e1")
		srv.Close()

		var re *port.RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("status %d: expected RemoteError, got %v", tc.status, err)
		}
		if re.Kind != tc.want {
			t.Errorf("status %d: expected kind %s, got %s", tc.status, tc.want, re.Kind)
		}
	}
}

func TestUnreachableServerIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "tok")
	_, err := c.ListExpenses(context.Background(), "u1")
	if port.KindOf(err) != port.KindTransport {
		t.Errorf("expected transport kind, got %v", err)
	}
}

func TestMalformedAmountIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"e1","amount":"not-a-number"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.ListExpenses(context.Background(), "u1")
	if port.KindOf(err) != port.KindValidation {
		t.Errorf("expected validation kind, got %v", err)
	}
}
