package central

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

const (
	pathDeviceToken = "/api/v1/devices/token"
	pathSync        = "/api/v1/attendance/sync"
	pathShifts      = "/api/v1/roster/shifts"
	pathEmployees   = "/api/v1/roster/employees"

	// tokenRefreshMargin renews the bearer token this long before it expires.
	tokenRefreshMargin = time.Minute
)

type Config struct {
	BaseURL      string
	DeviceID     string
	DeviceSecret string
	Timeout      time.Duration
}

// Client talks to the central API on behalf of one device.
type Client struct {
	baseURL    string
	deviceID   string
	secret     string
	httpClient *http.Client

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		deviceID:   cfg.DeviceID,
		secret:     cfg.DeviceSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ attendance.CentralStore = (*Client)(nil)

// APIError is a non-2xx answer from the central API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("central API error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// UpsertBatch implements attendance.CentralStore. Every failure to obtain per-record
// results is reported as attendance.ErrTransientSync so the batch stays pending.
func (c *Client) UpsertBatch(ctx context.Context, deviceID string, records []attendance.AttendanceRecord) ([]attendance.SyncResult, error) {
	req := attendance.SyncBatchRequest{
		DeviceID: deviceID,
		Records:  make([]attendance.RecordPayload, 0, len(records)),
	}
	for _, r := range records {
		req.Records = append(req.Records, attendance.NewRecordPayload(r))
	}

	var resp attendance.SyncBatchResponse
	if err := c.authorized(ctx, http.MethodPost, pathSync, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", attendance.ErrTransientSync, err)
	}
	return resp.Results, nil
}

// FetchShifts downloads the central shift catalog.
func (c *Client) FetchShifts(ctx context.Context) ([]shift.Shift, error) {
	var resp []shift.ShiftResponse
	if err := c.authorized(ctx, http.MethodGet, pathShifts, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch shifts: %w", err)
	}

	shifts := make([]shift.Shift, 0, len(resp))
	for _, r := range resp {
		s, err := r.ToShift()
		if err != nil {
			return nil, fmt.Errorf("fetch shifts: shift %d: %w", r.ID, err)
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

// FetchEmployees downloads the central roster, inactive entries included.
func (c *Client) FetchEmployees(ctx context.Context) ([]employee.Employee, error) {
	var resp []employee.EmployeeResponse
	if err := c.authorized(ctx, http.MethodGet, pathEmployees, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch employees: %w", err)
	}

	employees := make([]employee.Employee, 0, len(resp))
	for _, r := range resp {
		employees = append(employees, r.ToEmployee())
	}
	return employees, nil
}

// authorized performs an authenticated call, renewing the token once on 401.
func (c *Client) authorized(ctx context.Context, method, path string, body, out any) error {
	token, err := c.bearer(ctx, false)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, path, token, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if token, err = c.bearer(ctx, true); err != nil {
			return err
		}
		err = c.do(ctx, method, path, token, body, out)
	}
	return err
}

func (c *Client) bearer(ctx context.Context, renew bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !renew && c.token != "" && time.Now().Add(tokenRefreshMargin).Before(c.tokenExpiresAt) {
		return c.token, nil
	}

	var resp device.TokenResponse
	req := device.TokenRequest{DeviceID: c.deviceID, Secret: c.secret}
	if err := c.do(ctx, http.MethodPost, pathDeviceToken, "", req, &resp); err != nil {
		return "", fmt.Errorf("obtain device token: %w", err)
	}

	c.token = resp.AccessToken
	c.tokenExpiresAt = time.Unix(resp.ExpiresAt, 0)
	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		if res.StatusCode >= 300 {
			return &APIError{StatusCode: res.StatusCode, Code: http.StatusText(res.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if res.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
