package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"customer_insights/internal/customers"
	"customer_insights/internal/report"
	"customer_insights/internal/sheets"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// cellText accepts a JSON string or number and keeps its text verbatim.
type cellText string

func (c *cellText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cellText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*c = cellText(b)
	return nil
}

type transactionRow struct {
	PaidDate   string   `json:"paid_date"`
	Amount     cellText `json:"amount"`
	Type       string   `json:"type"`
	CardDigits cellText `json:"card_digits"`
}

type analysisRequest struct {
	ReferenceMonth *int             `json:"reference_month"`
	TopPercent     *float64         `json:"top_percent"`
	Transactions   []transactionRow `json:"transactions"`
}

func (r analysisRequest) transactions() []customers.Transaction {
	txs := make([]customers.Transaction, len(r.Transactions))
	for i, row := range r.Transactions {
		txs[i] = customers.Transaction{
			PaidDate:   row.PaidDate,
			Amount:     string(row.Amount),
			Type:       row.Type,
			CardDigits: string(row.CardDigits),
		}
	}
	return txs
}

// analysisHandler implements HTTP handlers for customer analyses.
type analysisHandler struct {
	service  *customers.Service
	defaults customers.Params
	sheets   []string
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service *customers.Service, defaults customers.Params, sheetNames []string, logger *zap.Logger) *analysisHandler {
	return &analysisHandler{
		service:  service,
		defaults: defaults,
		sheets:   sheetNames,
		logger:   logger,
	}
}

func (h *analysisHandler) params(month *int, percent *float64) customers.Params {
	p := h.defaults
	if month != nil {
		p.ReferenceMonth = time.Month(*month)
	}
	if percent != nil {
		p.TopPercent = *percent
	}
	return p
}

func formValue(ctx *gin.Context, key string) (string, bool) {
	if v, ok := ctx.GetPostForm(key); ok {
		return v, true
	}
	return ctx.GetQuery(key)
}

// formParams reads reference_month and top_percent from form or query values.
func (h *analysisHandler) formParams(ctx *gin.Context) (customers.Params, error) {
	var month *int
	var percent *float64
	if v, ok := formValue(ctx, "reference_month"); ok {
		m, err := strconv.Atoi(v)
		if err != nil {
			return customers.Params{}, fmt.Errorf("%w: %q", customers.ErrInvalidReferenceMonth, v)
		}
		month = &m
	}
	if v, ok := formValue(ctx, "top_percent"); ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return customers.Params{}, fmt.Errorf("%w: %q", customers.ErrInvalidPercent, v)
		}
		percent = &p
	}
	return h.params(month, percent), nil
}

// handleAnalyze handles the POST /analysis endpoint.
func (h *analysisHandler) handleAnalyze(ctx *gin.Context) {
	var req analysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := h.service.AnalyzeTransactions(h.params(req.ReferenceMonth, req.TopPercent), req.transactions())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// handleExport handles the POST /analysis/export endpoint.
func (h *analysisHandler) handleExport(ctx *gin.Context) {
	var req analysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := h.service.AnalyzeTransactions(h.params(req.ReferenceMonth, req.TopPercent), req.transactions())
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, result); err != nil {
		h.logger.Error("failed to render workbook", zap.String("run_id", result.RunID.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render workbook"})
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="customer-analysis-%s.xlsx"`, result.RunID))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleWorkbook handles the POST /analysis/workbook endpoint. Without any
// sheet field every worksheet of the upload is analyzed.
func (h *analysisHandler) handleWorkbook(ctx *gin.Context) {
	params, err := h.formParams(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	fh, err := ctx.FormFile("workbook")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "workbook file is required"})
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.logger.Error("failed to open upload", zap.String("filename", fh.Filename), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	wb, err := sheets.ReadWorkbook(file, h.logger)
	if err != nil {
		h.logger.Warn("invalid workbook upload", zap.String("filename", fh.Filename), zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid workbook"})
		return
	}
	defer wb.Close()

	names := ctx.PostFormArray("sheet")
	if len(names) == 0 {
		names = wb.Sheets()
	}

	result, err := customers.NewService(wb, h.logger).Analyze(ctx.Request.Context(), params, names...)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// handleSources handles the GET /analysis endpoint, analyzing the configured
// source. Query "sheet" may repeat to override the configured sheet list.
func (h *analysisHandler) handleSources(ctx *gin.Context) {
	params, err := h.formParams(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	names := ctx.QueryArray("sheet")
	if len(names) == 0 {
		names = h.sheets
	}

	result, err := h.service.Analyze(ctx.Request.Context(), params, names...)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *analysisHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, customers.ErrInvalidReferenceMonth),
		errors.Is(err, customers.ErrInvalidPercent),
		errors.Is(err, customers.ErrNoSources):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, customers.ErrSourceNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, customers.ErrIngestion):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("analysis failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
