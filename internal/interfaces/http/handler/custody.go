package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ledger is the custody view exposed through the API.
type Ledger interface {
	NativeAsset() string
	Credit(party, asset string, amount uint64) error
	Balance(party, asset string) uint64
}

type CustodyHandler struct {
	ledger Ledger
}

func NewCustodyHandler(ledger Ledger) *CustodyHandler {
	return &CustodyHandler{ledger}
}

type CreditRequest struct {
	Party  string `json:"party" binding:"required"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount" binding:"required"`
}

// Credit funds the balance of a party.
// POST /v1/custody/credit
func (h *CustodyHandler) Credit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	asset := req.Asset
	if asset == "" {
		asset = h.ledger.NativeAsset()
	}

	if err := h.ledger.Credit(req.Party, asset, req.Amount); err != nil {
		writeBadRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"party":   req.Party,
		"asset":   asset,
		"balance": h.ledger.Balance(req.Party, asset),
	})
}

// GetBalance returns the balance of a party, for the native asset if not
// specified.
// GET /v1/custody/balances/:party?asset=lbtc
func (h *CustodyHandler) GetBalance(c *gin.Context) {
	party := c.Param("party")
	asset := c.DefaultQuery("asset", h.ledger.NativeAsset())

	c.JSON(http.StatusOK, gin.H{
		"party":   party,
		"asset":   asset,
		"balance": h.ledger.Balance(party, asset),
	})
}
