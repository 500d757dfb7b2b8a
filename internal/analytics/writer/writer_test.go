package writer

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/plasa/shopper-settlement/internal/analytics/types"
	pkgbigquery "github.com/plasa/shopper-settlement/pkg/bigquery"
)

func TestNewWriterValidation(t *testing.T) {
	if _, err := New(nil, Config{SettlementTable: "settlement_events"}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := New(&pkgbigquery.Client{}, Config{SettlementTable: " "}); err == nil {
		t.Fatal("expected error when table missing")
	}
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"orderId": "o-1"})
	if err != nil {
		t.Fatalf("unexpected error encoding json: %v", err)
	}
	if !nj.Valid {
		t.Fatal("expected json to be marked valid")
	}

	nj, err = EncodeJSON(nil)
	if err != nil {
		t.Fatalf("unexpected error for nil json: %v", err)
	}
	if nj.Valid {
		t.Fatal("expected nil json to be invalid")
	}

	raw := json.RawMessage(`{"amount":"25.00"}`)
	nj, err = EncodeJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error encoding raw json: %v", err)
	}
	if nj.JSONVal != string(raw) {
		t.Fatalf("expected raw json passed through, got %s", nj.JSONVal)
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "settlement_events" {
		t.Fatalf("expected settlement table on retry, got %s", fake.calls[1].table)
	}
	if len(writer.buffer) != 0 {
		t.Fatal("expected buffer to be empty after success")
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "1"}); err == nil {
		t.Fatal("expected error for bad request")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("permanent errors must not retry, got %d attempts", len(fake.calls))
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	unavailable := status.Error(codes.Unavailable, "try later")
	fake.responses = []error{unavailable, unavailable, unavailable, unavailable}

	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "1"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(fake.calls) != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, len(fake.calls))
	}
}

func TestWriterBatching(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 2

	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no insert before batch full, got %d", len(fake.calls))
	}
	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "2"}); err != nil {
		t.Fatalf("unexpected error on second insert: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0].rowCount != 2 {
		t.Fatalf("expected one insert of two rows, got %+v", fake.calls)
	}
}

func TestWriterFlush(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 10
	if err := writer.InsertSettlement(context.Background(), types.SettlementEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected flush to insert once, got %d", len(fake.calls))
	}
	if len(writer.buffer) != 0 {
		t.Fatalf("expected buffer to be empty after flush, got %d", len(writer.buffer))
	}
}

func TestRetryableRowErrors(t *testing.T) {
	transient := cbigquery.PutMultiError{
		{RowIndex: 0, Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusServiceUnavailable}}},
	}
	if !isRetryableBigQueryError(transient) {
		t.Fatal("expected transient row errors to be retryable")
	}
	mixed := cbigquery.PutMultiError{
		{RowIndex: 0, Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusServiceUnavailable}}},
		{RowIndex: 1, Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadRequest}}},
	}
	if isRetryableBigQueryError(mixed) {
		t.Fatal("a permanent row error must stop retries")
	}
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	writer, err := New(&pkgbigquery.Client{}, Config{
		SettlementTable: "settlement_events",
		RetryPolicy:     RetryPolicy{InitialBackoff: time.Millisecond, MaximumBackoff: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}

	fake := &fakeInserter{}
	writer.client = fake
	return writer, fake
}
