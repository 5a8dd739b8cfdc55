package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"customer_insights/internal/customers"
)

const remoteTimeout = 30 * time.Second

// Remote loads worksheets from a sheet-export service that answers
// GET {base}/sheets/{name}/records with a JSON array of header-keyed records.
type Remote struct {
	client *resty.Client
	logger *zap.Logger
}

// NewRemote creates a Remote for the service at baseURL.
func NewRemote(baseURL string, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(remoteTimeout).
		SetHeader("Accept", "application/json")
	return &Remote{client: client, logger: logger}
}

// Load fetches the records of worksheet name.
func (r *Remote) Load(ctx context.Context, name string) ([]customers.Transaction, error) {
	var records []map[string]json.RawMessage
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(&records).
		Get("/sheets/{name}/records")
	if err != nil {
		return nil, fmt.Errorf("fetch worksheet %q: %w", name, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("worksheet %q: %w", name, customers.ErrSourceNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("worksheet %q: sheet service returned unexpected status: %d", name, resp.StatusCode())
	}

	flat := make([]map[string]string, len(records))
	for i, rec := range records {
		flat[i] = make(map[string]string, len(rec))
		for k, v := range rec {
			flat[i][k] = rawText(v)
		}
	}
	txs, err := recordTransactions(flat)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", name, err)
	}
	r.logger.Debug("remote worksheet loaded", zap.String("sheet", name), zap.Int("rows", len(txs)))
	return txs, nil
}

// Close releases the underlying HTTP client.
func (r *Remote) Close() error {
	return r.client.Close()
}

// rawText keeps JSON numbers verbatim so "75.00" stays "75.00".
func rawText(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}
