package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/middleware"
)

type MarketHandler struct {
	marketSvc     application.MarketService
	resolutionSvc application.ResolutionService
	oracleSvc     application.OracleService
	claimSvc      application.ClaimService
}

func NewMarketHandler(
	marketSvc application.MarketService,
	resolutionSvc application.ResolutionService,
	oracleSvc application.OracleService,
	claimSvc application.ClaimService,
) *MarketHandler {
	return &MarketHandler{marketSvc, resolutionSvc, oracleSvc, claimSvc}
}

// CreateMarket opens a new market on behalf of the caller.
// POST /v1/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	var req CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	args, err := req.toArgs(middleware.Caller(c))
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	market, err := h.marketSvc.CreateMarket(c.Request.Context(), args)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMarketJSON(*market))
}

// GetMarket returns a market along with its escrow.
// GET /v1/markets/:id
func (h *MarketHandler) GetMarket(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	info, err := h.marketSvc.GetMarket(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketInfoJSON(*info))
}

// ListMarkets returns all markets, optionally filtered by a comma separated
// list of statuses.
// GET /v1/markets?status=ACTIVE,CHALLENGED
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	statuses := make([]domain.MarketStatus, 0)
	if query := c.Query("status"); query != "" {
		for _, str := range strings.Split(query, ",") {
			status, ok := domain.MarketStatusFromString(strings.TrimSpace(str))
			if !ok {
				writeBadRequest(c, fmt.Errorf("unknown market status %s", str))
				return
			}
			statuses = append(statuses, status)
		}
	}

	markets, err := h.marketSvc.ListMarkets(c.Request.Context(), statuses...)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]MarketJSON, 0, len(markets))
	for _, m := range markets {
		resp = append(resp, newMarketJSON(m))
	}
	c.JSON(http.StatusOK, gin.H{"markets": resp})
}

// Accept locks the stake of the caller.
// POST /v1/markets/:id/accept
func (h *MarketHandler) Accept(c *gin.Context) {
	id, req, ok := parseAmountRequest(c)
	if !ok {
		return
	}

	market, err := h.marketSvc.Accept(
		c.Request.Context(), id, middleware.Caller(c), req.Amount,
	)
	if market != nil && err != nil {
		// The market has been refunded because the instrument could not be
		// deployed.
		c.JSON(StatusOf(err), gin.H{
			"error":  err.Error(),
			"market": newMarketJSON(*market),
		})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// CancelExpired refunds a market whose acceptance deadline passed.
// POST /v1/markets/:id/cancel
func (h *MarketHandler) CancelExpired(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	market, err := h.marketSvc.CancelExpired(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// ProposeOutcome opens the challenge window for the given outcome.
// POST /v1/markets/:id/propose
func (h *MarketHandler) ProposeOutcome(c *gin.Context) {
	id, outcome, ok := parseOutcomeRequest(c)
	if !ok {
		return
	}

	market, err := h.resolutionSvc.ProposeOutcome(
		c.Request.Context(), id, middleware.Caller(c), outcome,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// Challenge disputes the pending proposal posting the bond.
// POST /v1/markets/:id/challenge
func (h *MarketHandler) Challenge(c *gin.Context) {
	id, req, ok := parseAmountRequest(c)
	if !ok {
		return
	}

	market, err := h.resolutionSvc.Challenge(
		c.Request.Context(), id, middleware.Caller(c), req.Amount,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// FinalizeResolution settles an unchallenged proposal once the window
// elapsed.
// POST /v1/markets/:id/finalize
func (h *MarketHandler) FinalizeResolution(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	market, err := h.resolutionSvc.FinalizeResolution(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// ResolveDispute settles a challenged market with the adjudicator verdict.
// POST /v1/markets/:id/adjudicate
func (h *MarketHandler) ResolveDispute(c *gin.Context) {
	id, outcome, ok := parseOutcomeRequest(c)
	if !ok {
		return
	}

	market, err := h.resolutionSvc.ResolveDispute(
		c.Request.Context(), id, middleware.Caller(c), outcome,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// PegToOracleCondition binds the market to an oracle condition.
// POST /v1/markets/:id/peg
func (h *MarketHandler) PegToOracleCondition(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	var req PegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	market, err := h.oracleSvc.PegToOracleCondition(
		c.Request.Context(), id, middleware.Caller(c), req.OracleID, req.ConditionID,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// ResolveFromOracle settles a pegged market with the oracle outcome.
// POST /v1/markets/:id/oracle-settle
func (h *MarketHandler) ResolveFromOracle(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	market, err := h.oracleSvc.ResolveFromOracle(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMarketJSON(*market))
}

// Claim pays out the entitlement of the caller.
// POST /v1/markets/:id/claim
func (h *MarketHandler) Claim(c *gin.Context) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	result, err := h.claimSvc.Claim(c.Request.Context(), id, middleware.Caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ClaimJSON{result.MarketID, result.Party, result.Amount})
}

func parseAmountRequest(c *gin.Context) (uint64, AmountRequest, bool) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return 0, AmountRequest{}, false
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return 0, AmountRequest{}, false
	}
	return id, req, true
}

func parseOutcomeRequest(c *gin.Context) (uint64, bool, bool) {
	id, err := parseMarketID(c)
	if err != nil {
		writeBadRequest(c, err)
		return 0, false, false
	}
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return 0, false, false
	}
	return id, *req.Outcome, true
}
