package webhookpubsub

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

type Webhook struct {
	ID         string
	ActionType WebhookAction
	Endpoint   string
	Secret     string
}

func NewWebhook(actionType WebhookAction, endpoint, secret string) (*Webhook, error) {
	if _, ok := actionToString[actionType]; !ok {
		return nil, ErrUnknownWebhookAction
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, ErrInvalidEndpoint
	}
	id := uuid.New().String()
	return &Webhook{id, actionType, endpoint, secret}, nil
}

func (h *Webhook) Topic() ports.Topic {
	return h.ActionType
}

func (h *Webhook) Id() string {
	return h.ID
}

func (h *Webhook) NotifyAt() string {
	return h.Endpoint
}

func (h *Webhook) IsSecured() bool {
	return len(h.Secret) > 0
}
