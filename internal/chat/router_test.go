package chat_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courio/courio/internal/chat"
	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/pubsub"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// routerFixture wires a service, registry and router over the real in-memory
// bus, the way the server does.
type routerFixture struct {
	svc      *chat.Service
	registry *chat.Registry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	registry := chat.NewRegistry()
	router := chat.NewRouter(registry, bus)
	require.NoError(t, router.Start(context.Background()))

	return &routerFixture{
		svc:      chat.NewService(newMemStore(), bus),
		registry: registry,
	}
}

func decodeEnvelope(t *testing.T, payload []byte) chat.Envelope {
	t.Helper()
	var env chat.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func TestRouterTargetsBothParties(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	bob := &fakeChannel{}
	carol := &fakeChannel{}
	fix.registry.Register("alice", alice)
	fix.registry.Register("bob", bob)
	fix.registry.Register("carol", carol)

	msg, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "bob", Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(bob.pushed()) == 1 && len(alice.pushed()) == 1
	}, waitFor, tick, "receiver and sender should both get the created message")

	env := decodeEnvelope(t, bob.pushed()[0])
	assert.Equal(t, chat.EventMessageReceived, env.Type)

	var received domain.Message
	require.NoError(t, json.Unmarshal(env.Payload, &received))
	assert.Equal(t, msg.ID, received.ID)
	assert.Equal(t, domain.StatusSent, received.Status)

	// An uninvolved party never receives events for this conversation.
	assert.Empty(t, carol.pushed())
}

func TestRouterStatusChangeReachesBothParties(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	bob := &fakeChannel{}
	fix.registry.Register("alice", alice)
	fix.registry.Register("bob", bob)

	msg, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "bob", Content: "hi"})
	require.NoError(t, err)

	_, err = fix.svc.Acknowledge(context.Background(), "bob", msg.ID, domain.AckDelivered)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(alice.pushed()) == 2 && len(bob.pushed()) == 2
	}, waitFor, tick)

	env := decodeEnvelope(t, alice.pushed()[1])
	assert.Equal(t, chat.EventStatusChanged, env.Type)

	var change chat.StatusChange
	require.NoError(t, json.Unmarshal(env.Payload, &change))
	assert.Equal(t, msg.ID, change.MessageID)
	assert.Equal(t, domain.StatusDelivered, change.Status)
}

func TestRouterStatusNotificationsArriveInCommitOrder(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	fix.registry.Register("alice", alice)

	msg, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "bob", Content: "hi"})
	require.NoError(t, err)

	_, err = fix.svc.Acknowledge(context.Background(), "bob", msg.ID, domain.AckDelivered)
	require.NoError(t, err)
	_, err = fix.svc.Acknowledge(context.Background(), "bob", msg.ID, domain.AckSeen)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(alice.pushed()) == 3 }, waitFor, tick)

	var first, second chat.StatusChange
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, alice.pushed()[1]).Payload, &first))
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, alice.pushed()[2]).Payload, &second))
	assert.Equal(t, domain.StatusDelivered, first.Status)
	assert.Equal(t, domain.StatusSeen, second.Status)
}

func TestRouterDropsEventsForUnboundIdentities(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	fix.registry.Register("alice", alice)

	// Bob is disconnected: the message persists, the push is dropped.
	msg, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "bob", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)

	require.Eventually(t, func() bool { return len(alice.pushed()) == 1 }, waitFor, tick,
		"sender still gets the echo copy")
}

func TestRouterSelfMessageIsSingleDelivery(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	fix.registry.Register("alice", alice)

	_, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "alice", Content: "note to self"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(alice.pushed()) == 1 }, waitFor, tick)

	// Give the fan-out loop a moment to prove no duplicate arrives.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, alice.pushed(), 1)
}

func TestRouterSurvivesDisconnectMidFlight(t *testing.T) {
	fix := newRouterFixture(t)
	alice := &fakeChannel{}
	bob := &fakeChannel{}
	fix.registry.Register("alice", alice)
	fix.registry.Register("bob", bob)

	msg, err := fix.svc.Send(context.Background(), "alice", chat.SendRequest{ReceiverID: "bob", Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(bob.pushed()) == 1 }, waitFor, tick)

	// Alice drops before the status event lands.
	fix.registry.Unregister("alice", alice)

	_, err = fix.svc.Acknowledge(context.Background(), "bob", msg.ID, domain.AckSeen)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(bob.pushed()) == 2 }, waitFor, tick)
	assert.Len(t, alice.pushed(), 1, "the unbound identity silently misses the event")
}
