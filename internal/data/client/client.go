// Package client talks to the portal REST API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/semaphore"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	DefaultBaseURL       = "https://apimedidores.apidev.info/ariztia"
	DefaultToken         = "paico2021"
	DefaultTimeout       = 10 * time.Second
	DefaultMaxConcurrent = 6

	// AppName identifies this dashboard to the login endpoint.
	AppName = "APP-DASHBOARD_SSGG"
	// ResponsibleFilter is the only responsible team shown in downtime data.
	ResponsibleFilter = "SSGG"
)

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected status code")
)

// Config configures a Client.
type Config struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	MaxConcurrent int
}

// Client issues authenticated requests to the portal. At most
// MaxConcurrent requests are in flight at any time. Timeout bounds each
// request from the moment it is sent; waiting for a slot does not count.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	sem        *semaphore.Weighted
}

// New creates a client, filling unset configuration with defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sem: semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do sends a request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, target string, body interface{}, out interface{}) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	util.LoggerFor(ctx).Debugf("Client: %s %s -> %d (%d bytes, %s)",
		method, target, resp.StatusCode, len(data), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", target, err)
	}
	return nil
}

type waterResponse struct {
	Data struct {
		Data []model.RawReading `json:"data"`
	} `json:"data"`
}

// FetchWater returns the raw readings of a series between start and end
// (epoch milliseconds, inclusive).
func (c *Client) FetchWater(ctx context.Context, series model.SeriesID, sensor string, iv model.Interval) ([]model.RawReading, error) {
	target := c.endpoint("getconsumoshidricos_ts", string(series), sensor,
		strconv.FormatInt(iv.Start, 10), strconv.FormatInt(iv.End, 10))

	var resp waterResponse
	if err := c.do(ctx, http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Data == nil {
		return []model.RawReading{}, nil
	}
	return resp.Data.Data, nil
}

type downtimeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Data []model.DowntimeRecord `json:"data"`
	} `json:"data"`
}

// FetchDowntime returns the SSGG stoppages of one month. monthName is the
// three letter Spanish abbreviation ("Ene".."Dic").
func (c *Client) FetchDowntime(ctx context.Context, year, monthName string) ([]model.DowntimeRecord, error) {
	var resp downtimeResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("getdetenciones_mes_annio", year, monthName), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return []model.DowntimeRecord{}, nil
	}

	out := make([]model.DowntimeRecord, 0, len(resp.Data.Data))
	for _, rec := range resp.Data.Data {
		if strings.TrimSpace(rec.Responsible) != ResponsibleFilter {
			continue
		}
		out = append(out, parser.NormalizeDowntime(rec))
	}
	return out, nil
}

type rowsResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// FetchContact returns the direct-contact survey rows.
func (c *Client) FetchContact(ctx context.Context) ([]map[string]interface{}, error) {
	var resp rowsResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("contacto_directo_indirecto"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []map[string]interface{}{}, nil
	}
	return resp.Data, nil
}

type nonConformityResponse struct {
	Data []model.NonConformity `json:"data"`
}

// FetchNonConformities returns every registered non-conformity.
func (c *Client) FetchNonConformities(ctx context.Context) ([]model.NonConformity, error) {
	var resp nonConformityResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("no_conformidades"), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.NonConformity, 0, len(resp.Data))
	for _, nc := range resp.Data {
		out = append(out, parser.NormalizeNonConformity(nc))
	}
	return out, nil
}

// nonConformityRequest is the create/edit payload. OriginalFolio is only
// sent on edits.
type nonConformityRequest struct {
	User          string `json:"USUARIO"`
	Folio         string `json:"N_FOLIO"`
	Month         string `json:"MES"`
	Year          string `json:"ANNIO"`
	Detected      string `json:"FECHA_DETECCION"`
	Area          string `json:"AREA"`
	Type          string `json:"TIPO_NC"`
	Observation   string `json:"OBSERVACION"`
	State         string `json:"ESTADO"`
	OriginalFolio string `json:"N_FOLIO_ORIGINAL,omitempty"`
}

// SaveNonConformity creates a record, or updates the one identified by
// originalFolio when it is not empty.
func (c *Client) SaveNonConformity(ctx context.Context, nc model.NonConformity, originalFolio string) error {
	req := nonConformityRequest{
		User:          nc.User,
		Folio:         strings.TrimSpace(string(nc.Folio)),
		Month:         strings.TrimSpace(string(nc.Month)),
		Year:          strings.TrimSpace(string(nc.Year)),
		Detected:      nc.Detected,
		Area:          strings.TrimSpace(nc.Area),
		Type:          strings.TrimSpace(nc.Type),
		Observation:   strings.TrimSpace(nc.Observation),
		State:         strings.TrimSpace(nc.State),
		OriginalFolio: originalFolio,
	}
	return c.do(ctx, http.MethodPost, c.endpoint("no_conformidades_crud"), req, nil)
}

type loginRequest struct {
	User     string `json:"USER"`
	Password string `json:"PASSWORD"`
	AppName  string `json:"NAMEAPP"`
}

type loginResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Role    string `json:"ROL"`
		Name    string `json:"NAME"`
		Company string `json:"EMPRESA"`
		Error   string `json:"error"`
	} `json:"data"`
}

// Login authenticates against the portal and returns the session.
func (c *Client) Login(ctx context.Context, user, password string) (model.Session, error) {
	var resp loginResponse
	body := loginRequest{User: user, Password: password, AppName: AppName}
	if err := c.do(ctx, http.MethodPost, c.endpoint("login_app_ssgg"), body, &resp); err != nil {
		if errors.Is(err, ErrStatus) {
			return model.Session{}, err
		}
		return model.Session{}, fmt.Errorf("Error de conexion con el servidor: %w", err)
	}
	if !resp.Success {
		msg := resp.Data.Error
		if msg == "" {
			return model.Session{}, model.ErrUnauthorized
		}
		return model.Session{}, fmt.Errorf("%w: %s", model.ErrUnauthorized, msg)
	}
	return model.NewSession(resp.Data.Name, resp.Data.Company, resp.Data.Role), nil
}
