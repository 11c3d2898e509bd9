// Package client posts calculation requests to the tax calculation service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
)

var ErrDecode = errors.New("malformed calculation response")

// StatusError is returned for any non-2xx reply of the service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("calculation service returned %d", e.StatusCode)
	}

	return fmt.Sprintf("calculation service returned %d: %s", e.StatusCode, e.Detail)
}

type errorBody struct {
	Detail  interface{} `json:"detail"`
	Message string      `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CalculateTax posts req to /api/calculate-tax.
func (c *Client) CalculateTax(ctx context.Context, req calcapi.CalculateTaxRequest) (calcapi.CalculateTaxResponse, error) {
	var resp calcapi.CalculateTaxResponse

	if err := c.post(ctx, calcapi.PathCalculateTax, req, &resp); err != nil {
		return calcapi.CalculateTaxResponse{}, err
	}

	return resp, nil
}

// Calculate posts req to the legacy /api/calculate.
func (c *Client) Calculate(ctx context.Context, req calcapi.CalculateRequest) (calcapi.CalculateResponse, error) {
	var resp calcapi.CalculateResponse

	if err := c.post(ctx, calcapi.PathCalculate, req, &resp); err != nil {
		return calcapi.CalculateResponse{}, err
	}

	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &StatusError{StatusCode: response.StatusCode, Detail: detail(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}

func detail(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch d := parsed.Detail.(type) {
		case string:
			return d
		case nil:
			if parsed.Message != "" {
				return parsed.Message
			}
		default:
			if raw, err := json.Marshal(d); err == nil {
				return string(raw)
			}
		}
	}

	return strings.TrimSpace(string(body))
}
