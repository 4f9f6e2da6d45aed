// Package gateway is the JSON-over-HTTP client for the correction backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/logging"
	"github.com/colonyops/gramcheck/pkg/iojson"
)

// Backend routes.
const (
	PathCheckGrammar    = "/check_grammar"
	PathShowSheet       = "/show_sheet"
	PathShowCell        = "/show_sheet_cell"
	PathChangeCell      = "/change_sheet_cell"
	PathSetRejectStatus = "/set_correction_reject_status"
	PathPostCell        = "/post_cell"
	PathDownload        = "/download_excel"
)

const defaultTimeout = 30 * time.Second

// ErrNilHTTPClient is returned by New when WithHTTPClient is given nil.
var ErrNilHTTPClient = errors.New("nil http client")

// HeaderRequestID carries a per-call identifier the backend echoes into its logs.
const HeaderRequestID = "X-Request-ID"

const maxErrorBody = 4 << 10

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Code, e.Body)
}

// Client talks to a correction backend. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
}

var _ correction.Gateway = (*Client)(nil)

type options struct {
	httpClient *http.Client
	clientSet  bool
	timeout    time.Duration
	timeoutSet bool
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient makes the client send requests with a copy of hc. The
// caller's client is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
		o.clientSet = true
	}
}

// WithTimeout sets the per-request timeout. It applies to the client given
// to WithHTTPClient too, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
		o.timeoutSet = true
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	o := options{timeout: defaultTimeout, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{Timeout: o.timeout}
	if o.clientSet {
		if o.httpClient == nil {
			return nil, ErrNilHTTPClient
		}
		cp := *o.httpClient
		if o.timeoutSet {
			cp.Timeout = o.timeout
		}
		hc = &cp
	}

	return &Client{baseURL: u, http: hc, logger: o.logger}, nil
}

// CheckGrammar scans a sheet and returns the view and fresh proposals.
func (c *Client) CheckGrammar(ctx context.Context, sheetName string) (correction.CheckResult, error) {
	var resp correction.CheckGrammarResponse
	if err := c.post(ctx, PathCheckGrammar, correction.CheckGrammarRequest{SheetName: sheetName}, &resp); err != nil {
		return correction.CheckResult{}, err
	}
	return correction.CheckResult{View: correction.ViewFragment(resp.IFrame), Records: resp.Results}, nil
}

// ShowSheet selects sheetName and returns its stored corrections.
func (c *Client) ShowSheet(ctx context.Context, sheetName string) (correction.CheckResult, error) {
	var resp correction.ShowSheetResponse
	if err := c.post(ctx, PathShowSheet, correction.ShowSheetRequest{SheetName: sheetName}, &resp); err != nil {
		return correction.CheckResult{}, err
	}
	return correction.CheckResult{View: correction.ViewFragment(resp.IFrame), Records: resp.CorrectionResults}, nil
}

// ShowCell returns a view focused on cell.
func (c *Client) ShowCell(ctx context.Context, cell string) (correction.ViewFragment, error) {
	var resp correction.ViewResponse
	if err := c.post(ctx, PathShowCell, correction.ShowCellRequest{Cell: cell}, &resp); err != nil {
		return "", err
	}
	return correction.ViewFragment(resp.IFrame), nil
}

// ChangeCell writes newValue into cell.
func (c *Client) ChangeCell(ctx context.Context, cell, oldValue, newValue string) (correction.ViewFragment, error) {
	req := correction.ChangeCellRequest{Cell: cell, OldValue: oldValue, NewValue: newValue}
	var resp correction.ViewResponse
	if err := c.post(ctx, PathChangeCell, req, &resp); err != nil {
		return "", err
	}
	return correction.ViewFragment(resp.IFrame), nil
}

// SetRejectStatus flags or unflags cell and returns the backend's list.
func (c *Client) SetRejectStatus(ctx context.Context, cell string, status bool) ([]correction.Record, error) {
	var resp correction.SetRejectStatusResponse
	req := correction.SetRejectStatusRequest{Cell: cell, Status: status}
	if err := c.post(ctx, PathSetRejectStatus, req, &resp); err != nil {
		return nil, err
	}
	return resp.CorrectionResults, nil
}

// PostCell acknowledges a cell selection.
func (c *Client) PostCell(ctx context.Context, sheetName string, row, col int) (map[string]any, error) {
	var resp map[string]any
	req := correction.PostCellRequest{SheetName: sheetName, Row: row, Col: col}
	if err := c.post(ctx, PathPostCell, req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DownloadWorkbook copies the backend's workbook file into w and returns
// the file name the backend suggested, if any.
func (c *Client) DownloadWorkbook(ctx context.Context, w io.Writer) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, PathDownload, nil)
	if err != nil {
		return "", err
	}
	defer c.close(ctx, PathDownload, resp)

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read %s response: %w", PathDownload, err)
	}

	var name string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return name, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer c.close(ctx, path, resp)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// do sends one request and turns non-2xx answers into a StatusError. The
// caller closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	reqID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set(HeaderRequestID, reqID)

	ctx = logging.WithRequestID(ctx, reqID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Ctx(ctx).Err(err).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}

	c.logger.Debug().
		Ctx(ctx).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer c.close(ctx, path, resp)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(snippet))
		if e, ok := iojson.ParseError(snippet); ok {
			msg = e.Message
		}
		return nil, &StatusError{Path: path, Code: resp.StatusCode, Body: msg}
	}
	return resp, nil
}

func (c *Client) close(ctx context.Context, path string, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Debug().Ctx(ctx).Err(err).Str("path", path).Msg("close response body")
	}
}
