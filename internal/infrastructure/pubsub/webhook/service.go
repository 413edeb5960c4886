package webhookpubsub

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/tdex-network/wager-daemon/pkg/circuitbreaker"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 15 * time.Second
	tokenExpiry           = 5 * time.Minute
)

// Claims are the claims of the token signed with the webhook secret and
// attached to every notification of a secured webhook.
type Claims struct {
	Topic string `json:"topic"`
	jwt.RegisteredClaims
}

// Service is a ports.PubSub that must be closed once done.
type Service interface {
	ports.PubSub
	Close() error
}

type webhookService struct {
	store      *webhookStore
	httpClient *client
	cb         *gobreaker.CircuitBreaker
}

// NewWebhookPubSubService returns a pubsub service notifying market events
// to http endpoints. Webhooks are persisted in the given datadir, or kept in
// memory if it's empty.
func NewWebhookPubSubService(
	datadir string, requestTimeout time.Duration, logger badger.Logger,
) (Service, error) {
	store, err := newWebhookStore(datadir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening webhook db: %w", err)
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &webhookService{
		store:      store,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
	}, nil
}

func (ws *webhookService) Subscribe(topic, endpoint, secret string) (string, error) {
	actionType, ok := WebhookActionFromString(topic)
	if !ok {
		return "", ErrUnknownWebhookAction
	}

	hook, err := NewWebhook(actionType, endpoint, secret)
	if err != nil {
		return "", err
	}

	if err := ws.store.add(hook); err != nil {
		return "", err
	}
	return hook.ID, nil
}

func (ws *webhookService) Unsubscribe(id string) error {
	return ws.store.remove(id)
}

func (ws *webhookService) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	actionType, ok := WebhookActionFromString(topic)
	if !ok {
		return nil
	}

	hooks := ws.listWebhooksForAction(actionType)
	subs := make([]ports.Subscription, 0, len(hooks))
	for i := range hooks {
		hook := hooks[i]
		subs = append(subs, &hook)
	}
	return subs
}

// Publish makes a POST request to every webhook endpoint registered for the
// given topic or for all topics. Requests go through a circuit breaker.
func (ws *webhookService) Publish(topic string, message string) error {
	actionType, ok := WebhookActionFromString(topic)
	if !ok {
		return ErrUnknownWebhookAction
	}

	hooks := ws.listWebhooksForAction(actionType)

	eg, ctx := errgroup.WithContext(context.Background())
	for i := range hooks {
		hook := hooks[i]
		eg.Go(func() error { return ws.doRequest(ctx, hook, message) })
	}
	return eg.Wait()
}

func (ws *webhookService) TopicsByLabel() map[string]ports.Topic {
	topics := make(map[string]ports.Topic)
	for label, action := range stringToAction {
		topics[label] = action
	}
	return topics
}

func (ws *webhookService) Close() error {
	return ws.store.close()
}

func (ws *webhookService) listWebhooksForAction(actionType WebhookAction) []Webhook {
	hooks, _ := ws.store.listForAction(actionType)
	if actionType != AllActions {
		hooksForAllActions, _ := ws.store.listForAction(AllActions)
		hooks = append(hooks, hooksForAllActions...)
	}
	return hooks
}

func (ws *webhookService) doRequest(
	ctx context.Context, hook Webhook, payload string,
) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if hook.IsSecured() {
			tokenString, err := signToken(hook.Secret, hook.ActionType.String())
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(ctx, hook.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("webhook %s: %d %s", hook.ID, status, resp)
		}
		return nil, nil
	})

	return err
}

func signToken(secret, topic string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Topic: topic,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
