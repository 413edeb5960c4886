package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tdex-network/wager-daemon/internal/core/application"
)

type WebhookHandler struct {
	pubsubSvc application.PubSubService
}

func NewWebhookHandler(pubsubSvc application.PubSubService) *WebhookHandler {
	return &WebhookHandler{pubsubSvc}
}

type AddWebhookRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Endpoint string `json:"endpoint" binding:"required"`
	Secret   string `json:"secret"`
}

type WebhookJSON struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secured  bool   `json:"secured"`
}

// AddWebhook subscribes an endpoint to the market events of a topic.
// POST /v1/webhooks
func (h *WebhookHandler) AddWebhook(c *gin.Context) {
	var req AddWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	id, err := h.pubsubSvc.AddWebhook(
		c.Request.Context(), req.Topic, req.Endpoint, req.Secret,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RemoveWebhook ...
// DELETE /v1/webhooks/:id
func (h *WebhookHandler) RemoveWebhook(c *gin.Context) {
	if err := h.pubsubSvc.RemoveWebhook(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ListWebhooks returns the webhooks subscribed to a topic, all topics if
// not specified.
// GET /v1/webhooks?topic=MARKET_RESOLVED
func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	topic := c.DefaultQuery("topic", application.TopicAll)

	hooks, err := h.pubsubSvc.ListWebhooks(c.Request.Context(), topic)
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	resp := make([]WebhookJSON, 0, len(hooks))
	for _, hook := range hooks {
		resp = append(resp, WebhookJSON{
			hook.Id, hook.Topic, hook.Endpoint, hook.Secured,
		})
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": resp})
}
