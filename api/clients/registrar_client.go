package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ruteri/registrar-controller/api"
	"github.com/ruteri/registrar-controller/interfaces"
)

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registrar API returned error %d: %s", e.StatusCode, e.Message)
}

// RegistrarClient talks to a registrar API server.
type RegistrarClient struct {
	// ServerAddr is the base URL of the server, e.g. http://127.0.0.1:8080
	ServerAddr string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Price returns the rent price of name for duration seconds.
func (c *RegistrarClient) Price(ctx context.Context, name string, duration uint64) (*api.PriceResponse, error) {
	path := fmt.Sprintf("/api/names/%s/price?duration=%s", url.PathEscape(name), strconv.FormatUint(duration, 10))
	var resp api.PriceResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Valid reports whether the controller accepts name.
func (c *RegistrarClient) Valid(ctx context.Context, name string) (bool, error) {
	var resp api.ValidityResponse
	if err := c.do(ctx, http.MethodGet, "/api/names/"+url.PathEscape(name)+"/valid", nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Available reports whether name can be registered.
func (c *RegistrarClient) Available(ctx context.Context, name string) (bool, error) {
	var resp api.AvailabilityResponse
	if err := c.do(ctx, http.MethodGet, "/api/names/"+url.PathEscape(name)+"/available", nil, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// CommitmentAges returns the controller's reveal window.
func (c *RegistrarClient) CommitmentAges(ctx context.Context) (*api.CommitmentAgesResponse, error) {
	var resp api.CommitmentAgesResponse
	if err := c.do(ctx, http.MethodGet, "/api/commitment-ages", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MakeCommitment computes a commitment on the server.
func (c *RegistrarClient) MakeCommitment(ctx context.Context, req api.CommitmentRequest) (*api.CommitmentResponse, error) {
	var resp api.CommitmentResponse
	if err := c.do(ctx, http.MethodPost, "/api/commitments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commit requests an unsigned commit transaction.
func (c *RegistrarClient) Commit(ctx context.Context, req api.CommitRequest) (*interfaces.TransactionDescriptor, error) {
	return c.transaction(ctx, "/api/tx/commit", req)
}

// Register requests an unsigned register transaction.
func (c *RegistrarClient) Register(ctx context.Context, req api.RegisterRequest) (*interfaces.TransactionDescriptor, error) {
	return c.transaction(ctx, "/api/tx/register", req)
}

// Renew requests an unsigned renew transaction.
func (c *RegistrarClient) Renew(ctx context.Context, req api.RenewRequest) (*interfaces.TransactionDescriptor, error) {
	return c.transaction(ctx, "/api/tx/renew", req)
}

// Withdraw requests an unsigned withdraw transaction.
func (c *RegistrarClient) Withdraw(ctx context.Context, req api.WithdrawRequest) (*interfaces.TransactionDescriptor, error) {
	return c.transaction(ctx, "/api/tx/withdraw", req)
}

func (c *RegistrarClient) transaction(ctx context.Context, path string, req interface{}) (*interfaces.TransactionDescriptor, error) {
	var tx interfaces.TransactionDescriptor
	if err := c.do(ctx, http.MethodPost, path, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *RegistrarClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.ServerAddr, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse %s response: %w", path, err)
	}
	return nil
}
