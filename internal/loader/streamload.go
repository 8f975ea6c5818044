package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tenantetl/internal/errs"
	"tenantetl/internal/frame"
	"tenantetl/pkg/idempotency"
)

// StreamLoadConfig configures one HTTP Stream Load request, grounded on
// spec.md §4.5.4 and cross-checked against the original stream-load client
// (original_source/core/loaders/starrocks_stream_loader.py) for the header
// contract.
type StreamLoadConfig struct {
	FEHost           string
	FEHTTPPort       int
	Database         string
	Table            string
	User             string
	Password         string
	TimeoutSeconds   int
	MaxFilterRatio   float64
	StrictMode       bool
	ColumnSeparator  byte
	SendColumnsHeader bool
}

// LoadResult is the decoded Stream Load JSON response body.
type LoadResult struct {
	Status             string `json:"Status"`
	Message            string `json:"Message"`
	NumberTotalRows    int64  `json:"NumberTotalRows"`
	NumberLoadedRows   int64  `json:"NumberLoadedRows"`
	NumberFilteredRows int64  `json:"NumberFilteredRows"`
	NumberUnselectedRows int64 `json:"NumberUnselectedRows"`
	ErrorURL           string `json:"ErrorURL"`
}

// Success reports the "OK" / "Success" Stream Load status strings.
func (r LoadResult) Success() bool {
	return strings.EqualFold(r.Status, "Success") || strings.EqualFold(r.Status, "OK")
}

// StreamLoadClient issues HTTP PUT Stream Load requests with retry,
// grounded on the teacher's httpds.Client: an *http.Client wrapper with
// injectable sleep and exponential backoff, generalized from GET/POST/PUT
// convenience wrappers to this one StarRocks-specific call shape.
type StreamLoadClient struct {
	httpClient *http.Client
	sleep      func(time.Duration)
}

// NewStreamLoadClient builds a client with the given base timeout.
func NewStreamLoadClient(timeout time.Duration) *StreamLoadClient {
	return &StreamLoadClient{
		httpClient: &http.Client{Timeout: timeout, CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return nil // Stream Load's 307 redirect to the owning backend must be followed.
		}},
		sleep: time.Sleep,
	}
}

// SetSleepForTest overrides the backoff sleep function. Exposed so tests
// can exercise the retry path without incurring real wall-clock delay.
func (c *StreamLoadClient) SetSleepForTest(sleep func(time.Duration)) { c.sleep = sleep }

// Submit serializes one already-reordered chunk and PUTs it to StarRocks,
// deriving an idempotency label from (tenantSlug, table, chunkOrdinal,
// wallClockDate). cfg.Table must already equal the chunk's target table.
func (c *StreamLoadClient) Submit(ctx context.Context, cfg StreamLoadConfig, chunk *frame.Frame, tenantSlug string, chunkOrdinal int, wallClockDate string, maxAttempts int) (LoadResult, error) {
	label := idempotency.Label(tenantSlug, cfg.Table, chunkOrdinal, wallClockDate)
	body := serializeCSV(chunk, cfg.ColumnSeparator)
	return c.submit(ctx, cfg, label, body, "csv", chunk.Columns, maxAttempts)
}

// SubmitRaw PUTs an already-encoded blob (e.g. a Parquet file's bytes)
// straight to Stream Load without going through frame serialization, for
// the LoadRawFile passthrough path. columns is omitted from the request
// when empty, since Parquet carries its own embedded schema.
func (c *StreamLoadClient) SubmitRaw(ctx context.Context, cfg StreamLoadConfig, body []byte, format, tenantSlug string, chunkOrdinal int, wallClockDate string, maxAttempts int) (LoadResult, error) {
	label := idempotency.Label(tenantSlug, cfg.Table, chunkOrdinal, wallClockDate)
	return c.submit(ctx, cfg, label, body, format, nil, maxAttempts)
}

func (c *StreamLoadClient) submit(ctx context.Context, cfg StreamLoadConfig, label string, body []byte, format string, columns []string, maxAttempts int) (LoadResult, error) {
	var lastResult LoadResult
	var lastErr error
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}
		result, err := c.doPut(ctx, cfg, label, body, format, columns)
		if err == nil && result.Success() {
			return result, nil
		}
		if err == nil && isLabelAlreadyExists(result) {
			// Same tuple submitted before (e.g. a prior attempt's response was
			// lost to a network error after StarRocks had already committed
			// it) — treat as idempotent success rather than a fatal collision.
			return result, nil
		}
		lastResult, lastErr = result, err
		if attempt+1 < maxAttempts {
			if sleepErr := sleepWithContext(ctx, c.sleep, backoffDuration(attempt)); sleepErr != nil {
				return LoadResult{}, sleepErr
			}
		}
	}
	if lastErr != nil {
		return LoadResult{}, errs.New(errs.KindLoad, errs.ReasonStreamLoadFail, cfg.Table, label, lastErr)
	}
	return LoadResult{}, errs.New(errs.KindLoad, errs.ReasonStreamLoadFail, cfg.Table, fmt.Sprintf("%s: %s", label, lastResult.Message), nil)
}

func (c *StreamLoadClient) doPut(ctx context.Context, cfg StreamLoadConfig, label string, body []byte, format string, columns []string) (LoadResult, error) {
	url := fmt.Sprintf("http://%s:%d/api/%s/%s/_stream_load", cfg.FEHost, cfg.FEHTTPPort, cfg.Database, cfg.Table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return LoadResult{}, err
	}
	req.SetBasicAuth(cfg.User, cfg.Password)
	req.Header.Set("label", label)
	req.Header.Set("format", format)
	req.Header.Set("column_separator", columnSeparatorHeader(cfg.ColumnSeparator))
	req.Header.Set("max_filter_ratio", strconv.FormatFloat(cfg.MaxFilterRatio, 'f', -1, 64))
	req.Header.Set("strict_mode", strconv.FormatBool(cfg.StrictMode))
	if cfg.TimeoutSeconds > 0 {
		req.Header.Set("timeout", strconv.Itoa(cfg.TimeoutSeconds))
	}
	if cfg.SendColumnsHeader && len(columns) > 0 {
		req.Header.Set("columns", strings.Join(columns, ","))
	}
	req.Header.Set("Expect", "100-continue")
	req.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loader: stream load request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loader: read stream load response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return LoadResult{}, fmt.Errorf("loader: stream load returned %d: %s", resp.StatusCode, string(data))
	}
	var result LoadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return LoadResult{}, fmt.Errorf("loader: decode stream load response: %w", err)
	}
	return result, nil
}

// isLabelAlreadyExists recognizes StarRocks's documented "Label Already
// Exists" Status value first; Message is checked only as a fallback for
// older StarRocks versions that don't set Status on this path.
func isLabelAlreadyExists(result LoadResult) bool {
	if strings.EqualFold(result.Status, "Label Already Exists") {
		return true
	}
	return strings.Contains(strings.ToLower(result.Message), "label already exists")
}

func columnSeparatorHeader(sep byte) string {
	if sep == 0 {
		sep = 0x01
	}
	return fmt.Sprintf("\\x%02X", sep)
}

func serializeCSV(f *frame.Frame, sep byte) []byte {
	if sep == 0 {
		sep = 0x01
	}
	var buf bytes.Buffer
	for _, row := range f.Rows {
		for i, v := range row {
			if i > 0 {
				buf.WriteByte(sep)
			}
			buf.WriteString(csvCellText(v))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func csvCellText(v any) string {
	switch t := v.(type) {
	case nil:
		return "\\N"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func backoffDuration(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		return 5 * time.Second
	}
	return d
}

func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) error {
	done := make(chan struct{})
	go func() {
		sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
