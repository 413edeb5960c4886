package application

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

const (
	TopicMarketCreated     = "MARKET_CREATED"
	TopicMarketActivated   = "MARKET_ACTIVATED"
	TopicMarketRefunded    = "MARKET_REFUNDED"
	TopicMarketCancelled   = "MARKET_CANCELLED"
	TopicOutcomeProposed   = "OUTCOME_PROPOSED"
	TopicOutcomeChallenged = "OUTCOME_CHALLENGED"
	TopicMarketResolved    = "MARKET_RESOLVED"
	TopicStakeClaimed      = "STAKE_CLAIMED"
	TopicAll               = "*"
)

// MarketEvent is the payload published for every market transition.
type MarketEvent struct {
	Topic     string `json:"topic"`
	MarketID  uint64 `json:"market_id"`
	Status    string `json:"status"`
	Party     string `json:"party,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Outcome   *bool  `json:"outcome,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type WebhookInfo struct {
	Id       string
	Topic    string
	Endpoint string
	Secured  bool
}

// PubSubService manages the webhooks notified for market events.
type PubSubService interface {
	AddWebhook(ctx context.Context, topic, endpoint, secret string) (string, error)
	RemoveWebhook(ctx context.Context, id string) error
	ListWebhooks(ctx context.Context, topic string) ([]WebhookInfo, error)

	publish(event MarketEvent)
}

type pubsubService struct {
	pubsub ports.PubSub
}

func NewPubSubService(pubsub ports.PubSub) PubSubService {
	return &pubsubService{pubsub}
}

func (s *pubsubService) AddWebhook(
	_ context.Context, topic, endpoint, secret string,
) (string, error) {
	if s.pubsub == nil {
		return "", ErrPubSubNotInitialized
	}
	return s.pubsub.Subscribe(topic, endpoint, secret)
}

func (s *pubsubService) RemoveWebhook(_ context.Context, id string) error {
	if s.pubsub == nil {
		return ErrPubSubNotInitialized
	}
	return s.pubsub.Unsubscribe(id)
}

func (s *pubsubService) ListWebhooks(
	_ context.Context, topic string,
) ([]WebhookInfo, error) {
	if s.pubsub == nil {
		return nil, ErrPubSubNotInitialized
	}
	if _, ok := s.pubsub.TopicsByLabel()[topic]; !ok {
		return nil, fmt.Errorf("unknown topic %s", topic)
	}

	subs := s.pubsub.ListSubscriptionsForTopic(topic)
	hooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		hooks = append(hooks, WebhookInfo{
			Id:       sub.Id(),
			Topic:    sub.Topic().Label(),
			Endpoint: sub.NotifyAt(),
			Secured:  sub.IsSecured(),
		})
	}
	return hooks, nil
}

// publish notifies the given event in background. Errors are only logged.
func (s *pubsubService) publish(event MarketEvent) {
	if s.pubsub == nil {
		return
	}

	message, _ := json.Marshal(event)
	go func() {
		if err := s.pubsub.Publish(event.Topic, string(message)); err != nil {
			log.WithError(err).Warnf(
				"pubsub: failed to publish %s event for market %d",
				event.Topic, event.MarketID,
			)
		}
	}()
}

func newMarketEvent(topic string, market *domain.Market, now int64) MarketEvent {
	return MarketEvent{
		Topic:     topic,
		MarketID:  market.ID,
		Status:    market.Status.String(),
		Timestamp: now,
	}
}

func newResolvedEvent(market *domain.Market) MarketEvent {
	outcome := market.Resolution.Outcome
	event := newMarketEvent(TopicMarketResolved, market, market.Resolution.ResolvedAt)
	event.Party = market.Resolution.Winner
	event.Outcome = &outcome
	return event
}
