package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

type stockRequest struct {
	Symbol string `json:"symbol"`
}

// -----------------------------------------------------------------------------
// Error Responses
// -----------------------------------------------------------------------------

func statusFor(err error) int {
	var invalid *helpers.ValidationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, helpers.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request %s failed: %v", GetRequestID(c), err)
		message = "internal server error"
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"status":     "error",
		"error":      message,
		"request_id": GetRequestID(c),
	})
}

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

type dashboardPage struct {
	Stocks    []models.MStockListing
	ForwardPE string
	MA50      string
	MA200     string
	Error     string
}

func (s *DashboardServer) getDashboard(c *gin.Context) {
	page := dashboardPage{
		ForwardPE: c.Query("forward_pe"),
		MA50:      c.Query("ma50"),
		MA200:     c.Query("ma200"),
	}

	filter, err := ParseRecordFilter(c)
	if err != nil {
		page.Error = err.Error()
		c.HTML(statusFor(err), "dashboard", page)
		return
	}

	records, err := s.Store.List(c.Request.Context(), filter)
	if err != nil {
		s.Logger.Error("Listing failed: %v", err)
		page.Error = "could not load stocks"
		c.HTML(http.StatusInternalServerError, "dashboard", page)
		return
	}

	page.Stocks = s.Market.Annotate(records)
	c.HTML(http.StatusOK, "dashboard", page)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) listStocks(c *gin.Context) {
	filter, err := ParseRecordFilter(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	records, err := s.Store.List(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stocks": s.Market.Annotate(records),
		"filter": filter,
		"count":  len(records),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, helpers.NewValidationError("invalid stock id %q", c.Param("id")))
		return
	}

	record, err := s.Store.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Market.Annotate([]models.MStockRecord{*record})[0])
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// createStock stores the symbol and schedules its fetch. A rejected job does
// not fail the request; the record is marked failed instead.
func (s *DashboardServer) createStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, helpers.NewValidationError("invalid request body: %v", err))
		return
	}

	symbol, err := NormalizeSymbol(req.Symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	record, err := s.Store.Create(ctx, symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := gin.H{
		"status": "ok",
		"id":     record.ID,
		"symbol": record.Symbol,
	}

	jobID, err := s.Jobs.Submit(*record)
	if err != nil {
		s.Logger.Warning("Fetch for %s not scheduled: %v", symbol, err)
		if markErr := s.Store.MarkFetchFailed(ctx, record.ID, err.Error(), time.Now().UTC()); markErr != nil {
			s.Logger.Error("Failed to mark %s as failed: %v", symbol, markErr)
		}
		resp["fetch_status"] = models.FetchStatusFailed
		resp["fetch_error"] = err.Error()
	} else {
		resp["job_id"] = jobID
		resp["fetch_status"] = models.FetchStatusPending
	}

	c.JSON(http.StatusAccepted, resp)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) deleteStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, helpers.NewValidationError("invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()
	if strings.TrimSpace(req.Symbol) == DeleteAllSymbol {
		n, err := s.Store.DeleteAll(ctx)
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.Logger.Info("Deleted all %d stocks", n)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": n})
		return
	}

	symbol, err := NormalizeSymbol(req.Symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.Store.Delete(ctx, symbol); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": 1})
}

// -----------------------------------------------------------------------------
// Status
// -----------------------------------------------------------------------------

func (s *DashboardServer) getJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.Jobs.Stats())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if err := s.Store.Ping(c.Request.Context()); err != nil {
		s.Logger.Warning("Store ping failed: %v", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"connections": s.clientCount.Load(),
		"jobs":        s.Jobs.Stats(),
		"timestamp":   time.Now().Unix(),
	})
}
