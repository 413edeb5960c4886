package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	custodyinmemory "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/inmemory"
)

// **** Instrument deployer ****

type mockDeployer struct {
	mock.Mock
}

func (m *mockDeployer) Deploy(
	ctx context.Context, spec ports.InstrumentSpec,
) (string, error) {
	args := m.Called(ctx, spec)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

// **** Oracle adapter ****

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Kind() ports.OracleKind {
	args := m.Called()
	return args.Get(0).(ports.OracleKind)
}

func (m *mockOracle) IsConditionSupported(
	ctx context.Context, conditionID string,
) (bool, error) {
	args := m.Called(ctx, conditionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockOracle) IsConditionResolved(
	ctx context.Context, conditionID string,
) (bool, error) {
	args := m.Called(ctx, conditionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockOracle) GetOutcome(
	ctx context.Context, conditionID string,
) (ports.OracleOutcome, error) {
	args := m.Called(ctx, conditionID)

	var res ports.OracleOutcome
	if a := args.Get(0); a != nil {
		res = a.(ports.OracleOutcome)
	}
	return res, args.Error(1)
}

func (m *mockOracle) GetConditionMetadata(
	ctx context.Context, conditionID string,
) (ports.ConditionMetadata, error) {
	args := m.Called(ctx, conditionID)

	var res ports.ConditionMetadata
	if a := args.Get(0); a != nil {
		res = a.(ports.ConditionMetadata)
	}
	return res, args.Error(1)
}

// **** Asset custody ****

// testCustody wraps the in-memory custody to make disbursements fail on
// demand or to run a hook from within a disbursement.
type testCustody struct {
	*custodyinmemory.Custody

	lock            sync.Mutex
	failDisburse    bool
	onDisburse      func(ctx context.Context) error
	onDisburseError error
}

func newTestCustody() *testCustody {
	return &testCustody{Custody: custodyinmemory.NewCustody(asset)}
}

func (c *testCustody) setFailDisburse(fail bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failDisburse = fail
}

func (c *testCustody) setOnDisburse(hook func(ctx context.Context) error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.onDisburse = hook
}

func (c *testCustody) hookError() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.onDisburseError
}

func (c *testCustody) Disburse(
	ctx context.Context, transfers []ports.Transfer,
) error {
	c.lock.Lock()
	fail := c.failDisburse
	hook := c.onDisburse
	c.lock.Unlock()

	if fail {
		return fmt.Errorf("transfer rejected by custody")
	}
	if hook != nil {
		err := hook(ctx)
		c.lock.Lock()
		c.onDisburseError = err
		c.lock.Unlock()
	}
	return c.Custody.Disburse(ctx, transfers)
}

// **** PubSub ****

type publishedEvent struct {
	topic   string
	message string
}

type recordingPubSub struct {
	lock   sync.Mutex
	events []publishedEvent
}

func (p *recordingPubSub) Subscribe(string, string, string) (string, error) {
	return "", nil
}

func (p *recordingPubSub) Unsubscribe(string) error {
	return nil
}

func (p *recordingPubSub) ListSubscriptionsForTopic(string) []ports.Subscription {
	return nil
}

func (p *recordingPubSub) Publish(topic string, message string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, publishedEvent{topic, message})
	return nil
}

func (p *recordingPubSub) TopicsByLabel() map[string]ports.Topic {
	return nil
}

func (p *recordingPubSub) topics() []string {
	p.lock.Lock()
	defer p.lock.Unlock()

	topics := make([]string, 0, len(p.events))
	for _, e := range p.events {
		topics = append(topics, e.topic)
	}
	return topics
}
