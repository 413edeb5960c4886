package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/optimistic"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/pricethreshold"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/middleware"
)

// PriceSetter lets the operator feed prices by hand when no live price
// source is configured.
type PriceSetter interface {
	SetPrice(ticker string, price decimal.Decimal, observedAt time.Time)
}

// OracleAdapters are the adapters managed through the API. Any of them can
// be nil if the daemon runs without it.
type OracleAdapters struct {
	PriceThreshold *pricethreshold.Adapter
	PriceSetter    PriceSetter
	Optimistic     *optimistic.Adapter
	Manual         *manual.Adapter
}

type OracleHandler struct {
	oracleSvc application.OracleService
	adapters  OracleAdapters
}

func NewOracleHandler(
	oracleSvc application.OracleService, adapters OracleAdapters,
) *OracleHandler {
	return &OracleHandler{oracleSvc, adapters}
}

type PriceConditionRequest struct {
	ID          string `json:"id" binding:"required"`
	Ticker      string `json:"ticker" binding:"required"`
	Target      string `json:"target" binding:"required"`
	Comparison  string `json:"comparison" binding:"required"`
	Deadline    int64  `json:"deadline" binding:"required"`
	Description string `json:"description"`
}

type PriceRequest struct {
	Ticker     string `json:"ticker" binding:"required"`
	Price      string `json:"price" binding:"required"`
	ObservedAt int64  `json:"observed_at"`
}

type ConditionRequest struct {
	ID                     string `json:"id" binding:"required"`
	Description            string `json:"description"`
	ExpectedResolutionTime int64  `json:"expected_resolution_time"`
}

type AssertRequest struct {
	Outcome *bool  `json:"outcome" binding:"required"`
	Bond    uint64 `json:"bond"`
}

// ListOracles returns the registered oracles.
// GET /v1/oracles
func (h *OracleHandler) ListOracles(c *gin.Context) {
	oracles := h.oracleSvc.ListOracles(c.Request.Context())
	resp := make([]OracleJSON, 0, len(oracles))
	for _, o := range oracles {
		resp = append(resp, OracleJSON{o.ID, o.Kind.String()})
	}
	c.JSON(http.StatusOK, gin.H{"oracles": resp})
}

// GetCondition returns the metadata and, if resolved, the outcome of an
// oracle condition.
// GET /v1/oracles/:oracle_id/conditions/:condition_id
func (h *OracleHandler) GetCondition(c *gin.Context) {
	info, err := h.oracleSvc.GetCondition(
		c.Request.Context(), c.Param("oracle_id"), c.Param("condition_id"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConditionJSON(*info))
}

// AddPriceCondition registers a price-threshold condition.
// POST /v1/oracles/price/conditions
func (h *OracleHandler) AddPriceCondition(c *gin.Context) {
	if h.adapters.PriceThreshold == nil {
		writeUnavailable(c, "price-threshold")
		return
	}
	var req PriceConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	target, err := decimal.NewFromString(req.Target)
	if err != nil {
		writeBadRequest(c, fmt.Errorf("invalid target price: %s", err))
		return
	}
	comparison, ok := pricethreshold.ComparisonFromString(req.Comparison)
	if !ok {
		writeBadRequest(c, fmt.Errorf("unknown comparison %s", req.Comparison))
		return
	}

	if err := h.adapters.PriceThreshold.AddCondition(pricethreshold.Condition{
		ID:          req.ID,
		Ticker:      req.Ticker,
		Target:      target,
		Comparison:  comparison,
		Deadline:    time.Unix(req.Deadline, 0),
		Description: req.Description,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// SetPrice stores a price reading for the price-threshold oracle.
// POST /v1/oracles/price/prices
func (h *OracleHandler) SetPrice(c *gin.Context) {
	if h.adapters.PriceSetter == nil {
		writeUnavailable(c, "static price source")
		return
	}
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		writeBadRequest(c, fmt.Errorf("price must be a positive decimal"))
		return
	}
	observedAt := time.Now()
	if req.ObservedAt > 0 {
		observedAt = time.Unix(req.ObservedAt, 0)
	}

	h.adapters.PriceSetter.SetPrice(req.Ticker, price, observedAt)
	c.JSON(http.StatusOK, gin.H{})
}

// ResolvePriceCondition settles a price-threshold condition with the latest
// price.
// POST /v1/oracles/price/conditions/:condition_id/resolve
func (h *OracleHandler) ResolvePriceCondition(c *gin.Context) {
	if h.adapters.PriceThreshold == nil {
		writeUnavailable(c, "price-threshold")
		return
	}

	outcome, err := h.adapters.PriceThreshold.Resolve(
		c.Request.Context(), c.Param("condition_id"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOracleOutcomeJSON(outcome))
}

// AddOptimisticCondition registers a question for the optimistic oracle.
// POST /v1/oracles/optimistic/conditions
func (h *OracleHandler) AddOptimisticCondition(c *gin.Context) {
	if h.adapters.Optimistic == nil {
		writeUnavailable(c, "optimistic-assertion")
		return
	}
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	if err := h.adapters.Optimistic.AddCondition(
		req.ID, req.Description, unixOrZero(req.ExpectedResolutionTime),
	); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// Assert proposes the outcome of an optimistic condition.
// POST /v1/oracles/optimistic/conditions/:condition_id/assert
func (h *OracleHandler) Assert(c *gin.Context) {
	if h.adapters.Optimistic == nil {
		writeUnavailable(c, "optimistic-assertion")
		return
	}
	var req AssertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	condition, err := h.adapters.Optimistic.Assert(
		c.Request.Context(), c.Param("condition_id"), middleware.Caller(c),
		*req.Outcome, req.Bond,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssertionJSON(*condition))
}

// Dispute escalates the assertion of an optimistic condition.
// POST /v1/oracles/optimistic/conditions/:condition_id/dispute
func (h *OracleHandler) Dispute(c *gin.Context) {
	if h.adapters.Optimistic == nil {
		writeUnavailable(c, "optimistic-assertion")
		return
	}

	condition, err := h.adapters.Optimistic.Dispute(
		c.Request.Context(), c.Param("condition_id"), middleware.Caller(c),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssertionJSON(*condition))
}

// SettleAssertion settles an undisputed assertion once its liveness is over.
// POST /v1/oracles/optimistic/conditions/:condition_id/settle
func (h *OracleHandler) SettleAssertion(c *gin.Context) {
	if h.adapters.Optimistic == nil {
		writeUnavailable(c, "optimistic-assertion")
		return
	}

	condition, err := h.adapters.Optimistic.Settle(
		c.Request.Context(), c.Param("condition_id"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssertionJSON(*condition))
}

// SettleEscalation settles a disputed assertion with the escalation
// verdict.
// POST /v1/oracles/optimistic/conditions/:condition_id/escalation
func (h *OracleHandler) SettleEscalation(c *gin.Context) {
	if h.adapters.Optimistic == nil {
		writeUnavailable(c, "optimistic-assertion")
		return
	}
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	condition, err := h.adapters.Optimistic.SettleEscalation(
		c.Request.Context(), c.Param("condition_id"), *req.Outcome,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssertionJSON(*condition))
}

// AddManualCondition registers a condition settled by attesters.
// POST /v1/oracles/manual/conditions
func (h *OracleHandler) AddManualCondition(c *gin.Context) {
	if h.adapters.Manual == nil {
		writeUnavailable(c, "manual")
		return
	}
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	if err := h.adapters.Manual.AddCondition(
		req.ID, req.Description, unixOrZero(req.ExpectedResolutionTime),
	); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// Attest records the vote of the caller on a manual condition.
// POST /v1/oracles/manual/conditions/:condition_id/attest
func (h *OracleHandler) Attest(c *gin.Context) {
	if h.adapters.Manual == nil {
		writeUnavailable(c, "manual")
		return
	}
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	condition, err := h.adapters.Manual.Attest(
		c.Request.Context(), c.Param("condition_id"), middleware.Caller(c),
		*req.Outcome,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            condition.ID,
		"votes":         len(condition.Votes),
		"resolved":      condition.Resolved,
		"outcome":       condition.Outcome,
		"confidence_bp": condition.ConfidenceBp,
	})
}

type AssertionJSON struct {
	ID               string `json:"id"`
	Asserter         string `json:"asserter,omitempty"`
	AssertedOutcome  bool   `json:"asserted_outcome"`
	Bond             uint64 `json:"bond"`
	LivenessDeadline int64  `json:"liveness_deadline,omitempty"`
	Disputer         string `json:"disputer,omitempty"`
	Settled          bool   `json:"settled"`
	Outcome          bool   `json:"outcome"`
	ConfidenceBp     uint16 `json:"confidence_bp"`
}

func newAssertionJSON(c optimistic.Condition) AssertionJSON {
	assertion := AssertionJSON{
		ID:              c.ID,
		Asserter:        c.Asserter,
		AssertedOutcome: c.AssertedOutcome,
		Bond:            c.Bond,
		Disputer:        c.Disputer,
		Settled:         c.Settled,
		Outcome:         c.Outcome,
		ConfidenceBp:    c.ConfidenceBp,
	}
	if !c.LivenessDeadline.IsZero() {
		assertion.LivenessDeadline = c.LivenessDeadline.Unix()
	}
	return assertion
}

func unixOrZero(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

func writeUnavailable(c *gin.Context, oracle string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: fmt.Sprintf("%s oracle is not enabled", oracle),
	})
}
