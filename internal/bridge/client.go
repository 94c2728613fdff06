package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// DeliveryRequest is the wire payload posted to the main backend for one batch.
type DeliveryRequest struct {
	BatchID        uuid.UUID                `json:"batch_id"`
	TenantID       uuid.UUID                `json:"tenant_id"`
	FlowType       enums.FlowType           `json:"flow_type"`
	OperatorEmail  string                   `json:"operator_email"`
	TotalScans     int                      `json:"total_scans"`
	InsertedScans  int                      `json:"inserted_scans"`
	DuplicateScans int                      `json:"duplicate_scans"`
	SubmittedAt    time.Time                `json:"submitted_at"`
	Items          []scans.BatchPayloadItem `json:"items"`
}

// Client posts one batch to the configured main backend endpoint.
type Client interface {
	Send(ctx context.Context, req DeliveryRequest) error
}

type httpClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
}

// NewClient builds the HTTP bridge client from the bridge configuration.
func NewClient(cfg config.BridgeConfig) Client {
	return &httpClient{
		endpoint: cfg.MainBackendURL,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		http:     &http.Client{},
	}
}

func (c *httpClient) Send(ctx context.Context, req DeliveryRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode delivery request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", req.TenantID.String())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("main backend returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}

// IsTimeout reports whether a delivery error is a transport timeout, the only
// failure class that earns a retry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
