package ports

// Topic is an event kind clients can subscribe to.
type Topic interface {
	Code() int
	Label() string
}

type Subscription interface {
	Topic() Topic
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// PubSub defines the methods of the service notifying market events to
// subscribed clients.
type PubSub interface {
	// Subscribe adds a new subscription for the requested topic.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes some client defined by its id.
	Unsubscribe(id string) error
	// ListSubscriptionsForTopic returns the info of all clients subscribed
	// for a certain topic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish publishes a message for a certain topic. All clients subscribed
	// for such topic will receive the message.
	Publish(topic string, message string) error
	// TopicsByLabel returns all the topics supported by the service mapped by
	// their label.
	TopicsByLabel() map[string]Topic
}
