package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"customer_insights/internal/customers"
)

func InitRoutesTests(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	src := customers.NewMemorySource()
	require.NoError(t, src.Set("Cafe", []customers.Transaction{
		{PaidDate: "10/01/24 9:00 AM", Amount: "25.00", Type: "Credit", CardDigits: "1234"},
		{PaidDate: "09/15/24 2:00 PM", Amount: "50.00", Type: "Credit", CardDigits: "5678"},
	}))
	require.NoError(t, src.Set("Bakery", []customers.Transaction{
		{PaidDate: "08/20/24 5:00 PM", Amount: "75.00", Type: "Cash"},
	}))

	InitRoutes(router, Options{
		Source:   src,
		Sheets:   []string{"Cafe", "Bakery"},
		Defaults: customers.Params{ReferenceMonth: time.October, TopPercent: 10},
		Logger:   zaptest.NewLogger(t),
	})
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) customers.Report {
	t.Helper()
	var r customers.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r), "Expected no error unmarshalling report response")
	return r
}

// TestAnalysis_FullFlow exercises every analysis endpoint on the happy path.
func TestAnalysis_FullFlow(t *testing.T) {
	router := InitRoutesTests(t)

	t.Run("POST_Analysis", func(t *testing.T) {
		w := postJSON(router, "/analysis", map[string]interface{}{
			"reference_month": 10,
			"top_percent":     40,
			"transactions": []map[string]interface{}{
				{"paid_date": "10/01/24 9:00 AM", "amount": 1500, "type": "Credit", "card_digits": "1111"},
				{"paid_date": "10/01/24 9:10 AM", "amount": "800", "type": "Credit", "card_digits": 2222},
				{"paid_date": "10/01/24 9:20 AM", "amount": "300", "type": "Credit", "card_digits": "3333"},
				{"paid_date": "10/01/24 9:30 AM", "amount": "50", "type": "Credit", "card_digits": "4444"},
				{"paid_date": "10/01/24 9:40 AM", "amount": "1200", "type": "Credit", "card_digits": "5555"},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		report := decodeReport(t, w)
		assert.Equal(t, 5, report.Customers, "Expected five distinct customers")
		assert.Equal(t, 5, report.Segments[customers.ActiveOccasional])
		require.Len(t, report.TopSpenders, 2, "Expected 40% of five customers")
		assert.Equal(t, "1111", report.TopSpenders[0].CustomerID)
		assert.Equal(t, customers.ActionVIP, report.ActionPlan[0].Action)
		assert.Equal(t, 2, report.ActionCounts[customers.ActionVIP])
	})

	t.Run("POST_Analysis_CompositeIdentity", func(t *testing.T) {
		w := postJSON(router, "/analysis", map[string]interface{}{
			"transactions": []json.RawMessage{
				json.RawMessage(`{"paid_date": "2024-08-20 17:00:00", "amount": 75.00, "type": "Cash", "card_digits": null}`),
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		report := decodeReport(t, w)
		require.Len(t, report.Monetary, 1)
		assert.Equal(t, "2024-08-20 17:00:00|75.00|Cash", report.Monetary[0].CustomerID)
		assert.Equal(t, time.October, report.ReferenceMonth, "Expected configured default month")
	})

	t.Run("POST_Analysis_Empty", func(t *testing.T) {
		w := postJSON(router, "/analysis", map[string]interface{}{"transactions": []interface{}{}})
		require.Equal(t, http.StatusOK, w.Code)

		report := decodeReport(t, w)
		assert.Equal(t, customers.NewSegmentCounts(), report.Segments)
		assert.Empty(t, report.Monetary)
	})

	t.Run("POST_Export", func(t *testing.T) {
		w := postJSON(router, "/analysis/export", map[string]interface{}{
			"transactions": []map[string]interface{}{
				{"paid_date": "10/01/24 9:00 AM", "amount": "25.00", "type": "Credit", "card_digits": "1234"},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Action Plan")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("GET_ConfiguredSources", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analysis?top_percent=100", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		report := decodeReport(t, w)
		assert.Equal(t, 3, report.Transactions)
		assert.Equal(t, 3, report.Customers)
		assert.Len(t, report.TopSpenders, 3)
		assert.Equal(t, 1, report.Segments[customers.ActiveOccasional])
		assert.Equal(t, 2, report.Segments[customers.InactiveOccasional])
	})

	t.Run("GET_Ping", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	})
}

func TestAnalysis_Workbook(t *testing.T) {
	router := InitRoutesTests(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Paid Date", "Amount", "Type", "Last 4 Card Digits"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"08/02/24 9:00 AM", "12.50", "Credit", "4321"}))
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("workbook", "sales.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("reference_month", "8"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analysis/workbook", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decodeReport(t, w)
	assert.Equal(t, time.August, report.ReferenceMonth)
	assert.Equal(t, 1, report.Segments[customers.ActiveOccasional])
	assert.Equal(t, "4321", report.Monetary[0].CustomerID)
}

func TestAnalysis_Errors(t *testing.T) {
	router := InitRoutesTests(t)

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"bad month", jsonRequest(`{"reference_month": 13, "transactions": []}`), http.StatusBadRequest},
		{"bad percent", jsonRequest(`{"top_percent": 120, "transactions": []}`), http.StatusBadRequest},
		{"bad amount", jsonRequest(`{"transactions": [{"amount": true}]}`), http.StatusBadRequest},
		{"malformed body", jsonRequest(`{`), http.StatusBadRequest},
		{"unknown sheet", httptest.NewRequest(http.MethodGet, "/analysis?sheet=Diner", nil), http.StatusNotFound},
		{"non numeric month", httptest.NewRequest(http.MethodGet, "/analysis?reference_month=oct", nil), http.StatusBadRequest},
		{"missing upload", httptest.NewRequest(http.MethodPost, "/analysis/workbook", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCellText(t *testing.T) {
	var row transactionRow
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 12.50, "card_digits": "0042"}`), &row))
	assert.Equal(t, cellText("12.50"), row.Amount)
	assert.Equal(t, cellText("0042"), row.CardDigits)

	assert.Error(t, json.Unmarshal([]byte(`{"amount": {}}`), &row))
}
