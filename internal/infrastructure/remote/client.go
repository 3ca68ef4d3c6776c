// Package remote implements the cloud-side CRUD client for the finance
// dashboard's REST API. The server is treated as a black box: it may be
// slow, unreachable or reject a payload, and every failure is classified
// into the transport/auth/validation taxonomy the coordinator acts on.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ledgersync/internal/application/port"
	"ledgersync/internal/domain"
)

// Client talks to the remote store's REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a REST client. An empty token sends unauthenticated
// requests, which the server rejects with an auth error.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do runs one request/response round trip. A nil out discards the body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &port.RemoteError{Kind: port.KindValidation, Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &port.RemoteError{Kind: port.KindValidation, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &port.RemoteError{Kind: port.KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &port.RemoteError{
			Kind: classify(resp.StatusCode),
			Op:   op,
			Err:  fmt.Errorf("api error: %d %s", resp.StatusCode, string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &port.RemoteError{Kind: port.KindTransport, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify maps HTTP status to an error kind. 404 counts as validation:
// retrying an operation on a record the server does not know cannot
// succeed without user intervention.
func classify(status int) port.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return port.KindAuth
	case status >= 400 && status < 500:
		return port.KindValidation
	default:
		return port.KindTransport
	}
}

// --- portfolios ---

func (c *Client) ListPortfolios(ctx context.Context, ownerID string) ([]domain.Portfolio, error) {
	var dtos []portfolioDTO
	if err := c.do(ctx, "list portfolios", http.MethodGet, "/v1/users/"+ownerID+"/portfolios", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Portfolio, 0, len(dtos))
	for _, d := range dtos {
		p, err := d.toDomain()
		if err != nil {
			return nil, &port.RemoteError{Kind: port.KindValidation, Op: "list portfolios", Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) CreatePortfolio(ctx context.Context, p domain.Portfolio) (domain.Portfolio, error) {
	var dto portfolioDTO
	if err := c.do(ctx, "create portfolio", http.MethodPost, "/v1/portfolios", fromPortfolio(p), &dto); err != nil {
		return domain.Portfolio{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Portfolio{}, &port.RemoteError{Kind: port.KindValidation, Op: "create portfolio", Err: err}
	}
	return out, nil
}

func (c *Client) UpdatePortfolio(ctx context.Context, id string, p domain.Portfolio) (domain.Portfolio, error) {
	var dto portfolioDTO
	if err := c.do(ctx, "update portfolio", http.MethodPut, "/v1/portfolios/"+id, fromPortfolio(p), &dto); err != nil {
		return domain.Portfolio{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Portfolio{}, &port.RemoteError{Kind: port.KindValidation, Op: "update portfolio", Err: err}
	}
	return out, nil
}

func (c *Client) DeletePortfolio(ctx context.Context, id string) error {
	return c.do(ctx, "delete portfolio", http.MethodDelete, "/v1/portfolios/"+id, nil, nil)
}

// --- holdings ---

func (c *Client) ListHoldings(ctx context.Context, ownerID string) ([]domain.Holding, error) {
	var dtos []holdingDTO
	if err := c.do(ctx, "list holdings", http.MethodGet, "/v1/users/"+ownerID+"/holdings", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Holding, 0, len(dtos))
	for _, d := range dtos {
		h, err := d.toDomain()
		if err != nil {
			return nil, &port.RemoteError{Kind: port.KindValidation, Op: "list holdings", Err: err}
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *Client) CreateHolding(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	var dto holdingDTO
	if err := c.do(ctx, "create holding", http.MethodPost, "/v1/holdings", fromHolding(h), &dto); err != nil {
		return domain.Holding{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Holding{}, &port.RemoteError{Kind: port.KindValidation, Op: "create holding", Err: err}
	}
	return out, nil
}

func (c *Client) UpdateHolding(ctx context.Context, id string, h domain.Holding) (domain.Holding, error) {
	var dto holdingDTO
	if err := c.do(ctx, "update holding", http.MethodPut, "/v1/holdings/"+id, fromHolding(h), &dto); err != nil {
		return domain.Holding{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Holding{}, &port.RemoteError{Kind: port.KindValidation, Op: "update holding", Err: err}
	}
	return out, nil
}

func (c *Client) DeleteHolding(ctx context.Context, id string) error {
	return c.do(ctx, "delete holding", http.MethodDelete, "/v1/holdings/"+id, nil, nil)
}

// --- expenses ---

func (c *Client) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	var dtos []expenseDTO
	if err := c.do(ctx, "list expenses", http.MethodGet, "/v1/users/"+ownerID+"/expenses", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Expense, 0, len(dtos))
	for _, d := range dtos {
		e, err := d.toDomain()
		if err != nil {
			return nil, &port.RemoteError{Kind: port.KindValidation, Op: "list expenses", Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	var dto expenseDTO
	if err := c.do(ctx, "create expense", http.MethodPost, "/v1/expenses", fromExpense(e), &dto); err != nil {
		return domain.Expense{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Expense{}, &port.RemoteError{Kind: port.KindValidation, Op: "create expense", Err: err}
	}
	return out, nil
}

func (c *Client) UpdateExpense(ctx context.Context, id string, e domain.Expense) (domain.Expense, error) {
	var dto expenseDTO
	if err := c.do(ctx, "update expense", http.MethodPut, "/v1/expenses/"+id, fromExpense(e), &dto); err != nil {
		return domain.Expense{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Expense{}, &port.RemoteError{Kind: port.KindValidation, Op: "update expense", Err: err}
	}
	return out, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, "delete expense", http.MethodDelete, "/v1/expenses/"+id, nil, nil)
}

// --- profile ---

func (c *Client) FetchProfile(ctx context.Context, ownerID string) (domain.Profile, error) {
	var dto profileDTO
	if err := c.do(ctx, "fetch profile", http.MethodGet, "/v1/users/"+ownerID+"/profile", nil, &dto); err != nil {
		return domain.Profile{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Profile{}, &port.RemoteError{Kind: port.KindValidation, Op: "fetch profile", Err: err}
	}
	return out, nil
}

func (c *Client) SaveProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	var dto profileDTO
	if err := c.do(ctx, "save profile", http.MethodPut, "/v1/users/"+p.UserID+"/profile", fromProfile(p), &dto); err != nil {
		return domain.Profile{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return domain.Profile{}, &port.RemoteError{Kind: port.KindValidation, Op: "save profile", Err: err}
	}
	return out, nil
}

var _ port.RemoteStore = (*Client)(nil)
