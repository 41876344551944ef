// Package writer buffers analytics rows per table and streams them to BigQuery.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// ErrRejected means BigQuery refused a batch for a reason retrying cannot fix.
// The batch is dropped from the buffer.
var ErrRejected = errors.New("bigquery rejected rows")

type Config struct {
	ProjectFinanceTable string
	QuoteActivityTable  string
	BatchSize           int
	RetryPolicy         RetryPolicy
}

func ConfigFromBigQuery(cfg config.BigQueryConfig) Config {
	return Config{
		ProjectFinanceTable: cfg.ProjectFinanceTable,
		QuoteActivityTable:  cfg.QuoteActivityTable,
		BatchSize:           cfg.BatchSize,
	}
}

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = defaultMaxAttempts
	}
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = defaultInitialBackoff
	}
	if r.MaximumBackoff <= 0 {
		r.MaximumBackoff = defaultMaximumBackoff
	}
	r.MaximumBackoff = max(r.MaximumBackoff, r.InitialBackoff)
	return r
}

// TableInserter is the subset of the BigQuery client the writer needs.
type TableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type BigQueryWriter struct {
	client    TableInserter
	batchSize int
	retry     RetryPolicy

	mu             sync.Mutex
	projectFinance *tableBuffer
	quoteActivity  *tableBuffer
}

func New(client TableInserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	financeTable := strings.TrimSpace(cfg.ProjectFinanceTable)
	if financeTable == "" {
		return nil, errors.New("project finance table is required")
	}
	quoteTable := strings.TrimSpace(cfg.QuoteActivityTable)
	if quoteTable == "" {
		return nil, errors.New("quote activity table is required")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BigQueryWriter{
		client:         client,
		batchSize:      batchSize,
		retry:          cfg.RetryPolicy.withDefaults(),
		projectFinance: newTableBuffer(financeTable),
		quoteActivity:  newTableBuffer(quoteTable),
	}, nil
}

func (w *BigQueryWriter) InsertProjectFinance(ctx context.Context, row types.ProjectFinanceRow) error {
	return w.add(ctx, w.projectFinance, row.EventID, row)
}

func (w *BigQueryWriter) InsertQuoteActivity(ctx context.Context, row types.QuoteActivityRow) error {
	return w.add(ctx, w.quoteActivity, row.EventID, row)
}

// add buffers row under insertID and flushes the table once the batch is full.
// A redelivered event replaces its buffered row instead of doubling it.
func (w *BigQueryWriter) add(ctx context.Context, buf *tableBuffer, insertID string, row any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf.put(insertID, row)
	if buf.len() < w.batchSize {
		return nil
	}
	return w.flush(ctx, buf)
}

// Flush writes every buffered row now.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.flush(ctx, w.projectFinance), w.flush(ctx, w.quoteActivity))
}

// Pending reports how many rows are buffered across both tables.
func (w *BigQueryWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projectFinance.len() + w.quoteActivity.len()
}

func (w *BigQueryWriter) flush(ctx context.Context, buf *tableBuffer) error {
	if buf.len() == 0 {
		return nil
	}
	err := w.insertWithRetry(ctx, buf.table, buf.savers())
	switch {
	case err == nil:
		buf.reset()
		return nil
	case errors.Is(err, ErrRejected):
		buf.reset()
	}
	return err
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	backoff := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.client.InsertRows(ctx, table, rows)
		switch {
		case err == nil:
			return nil
		case !isRetryable(err):
			return fmt.Errorf("%w: insert %s: %w", ErrRejected, table, err)
		case attempt >= w.retry.MaxAttempts:
			return fmt.Errorf("insert %s after %d attempts: %w", table, attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

// tableBuffer keeps rows in arrival order, one per insert id.
type tableBuffer struct {
	table string
	rows  []bufferedRow
	index map[string]int
}

type bufferedRow struct {
	insertID string
	row      any
}

func newTableBuffer(table string) *tableBuffer {
	return &tableBuffer{table: table, index: map[string]int{}}
}

func (b *tableBuffer) put(insertID string, row any) {
	if i, ok := b.index[insertID]; ok && insertID != "" {
		b.rows[i].row = row
		return
	}
	if insertID != "" {
		b.index[insertID] = len(b.rows)
	}
	b.rows = append(b.rows, bufferedRow{insertID: insertID, row: row})
}

func (b *tableBuffer) len() int { return len(b.rows) }

func (b *tableBuffer) reset() {
	b.rows = b.rows[:0]
	clear(b.index)
}

// savers tags each row with its insert id so BigQuery drops retried duplicates.
func (b *tableBuffer) savers() []any {
	out := make([]any, len(b.rows))
	for i, r := range b.rows {
		out[i] = &cbigquery.StructSaver{Struct: r.row, InsertID: r.insertID}
	}
	return out
}

// isRetryable is true only when every wrapped failure is transient.
func isRetryable(err error) bool {
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return len(multi) > 0 && all(multi, isRetryable)
	}
	var putErr cbigquery.PutMultiError
	if errors.As(err, &putErr) {
		return len(putErr) > 0 && all(putErr, func(e cbigquery.RowInsertionError) bool {
			return isRetryable(e.Errors)
		})
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableHTTP[apiErr.Code]
	}
	var grpcErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &grpcErr) {
		return retryableGRPC[grpcErr.GRPCStatus().Code()]
	}
	return false
}

func all[T any](items []T, ok func(T) bool) bool {
	for _, item := range items {
		if !ok(item) {
			return false
		}
	}
	return true
}

var retryableHTTP = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusRequestTimeout:      true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var retryableGRPC = map[codes.Code]bool{
	codes.Aborted:           true,
	codes.DeadlineExceeded:  true,
	codes.Internal:          true,
	codes.ResourceExhausted: true,
	codes.Unavailable:       true,
}

// EncodeJSON turns a payload into a BigQuery JSON column value. Empty input is NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		raw = value
	case []byte:
		raw = value
	default:
		marshaled, err := json.Marshal(payload)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
		}
		raw = marshaled
	}
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
