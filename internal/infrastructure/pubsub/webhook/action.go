package webhookpubsub

// webhook action types
const (
	MarketCreated WebhookAction = iota
	MarketActivated
	MarketRefunded
	MarketCancelled
	OutcomeProposed
	OutcomeChallenged
	MarketResolved
	StakeClaimed
	AllActions
)

var (
	actionToString = map[WebhookAction]string{
		MarketCreated:     "MARKET_CREATED",
		MarketActivated:   "MARKET_ACTIVATED",
		MarketRefunded:    "MARKET_REFUNDED",
		MarketCancelled:   "MARKET_CANCELLED",
		OutcomeProposed:   "OUTCOME_PROPOSED",
		OutcomeChallenged: "OUTCOME_CHALLENGED",
		MarketResolved:    "MARKET_RESOLVED",
		StakeClaimed:      "STAKE_CLAIMED",
		AllActions:        "*",
	}
	stringToAction = map[string]WebhookAction{
		"MARKET_CREATED":     MarketCreated,
		"MARKET_ACTIVATED":   MarketActivated,
		"MARKET_REFUNDED":    MarketRefunded,
		"MARKET_CANCELLED":   MarketCancelled,
		"OUTCOME_PROPOSED":   OutcomeProposed,
		"OUTCOME_CHALLENGED": OutcomeChallenged,
		"MARKET_RESOLVED":    MarketResolved,
		"STAKE_CLAIMED":      StakeClaimed,
		"*":                  AllActions,
	}
)

type WebhookAction int

func WebhookActionFromString(actionStr string) (WebhookAction, bool) {
	action, ok := stringToAction[actionStr]
	return action, ok
}

func (wa WebhookAction) String() string {
	actionStr, ok := actionToString[wa]
	if !ok {
		actionStr = "UNKNOWN"
	}
	return actionStr
}

func (wa WebhookAction) Code() int {
	return int(wa)
}

func (wa WebhookAction) Label() string {
	return wa.String()
}
