package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New(nil, nil)
	var got interface{}
	var gotSender string
	b.Subscribe("chan-a", func(message interface{}, sender string) {
		got = message
		gotSender = sender
	})

	b.Publish("chan-a", "hello", "sender-1")
	assert.Equal(t, "hello", got)
	assert.Equal(t, "sender-1", gotSender)
}

func TestPublishOrderAcrossSubscribers(t *testing.T) {
	b := New(nil, nil)
	var order []string
	b.Subscribe("chan-a", func(message interface{}, sender string) { order = append(order, "first") })
	b.Subscribe("chan-a", func(message interface{}, sender string) { order = append(order, "second") })

	b.Publish("chan-a", nil, "")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubscribeOnceFiresOnce(t *testing.T) {
	b := New(nil, nil)
	calls := 0
	b.SubscribeOnce("chan-a", func(message interface{}, sender string) { calls++ })

	b.Publish("chan-a", nil, "")
	b.Publish("chan-a", nil, "")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.GetSubscriberCount("chan-a"))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil, nil)
	calls := 0
	unsub := b.Subscribe("chan-a", func(message interface{}, sender string) { calls++ })
	unsub()

	b.Publish("chan-a", nil, "")
	assert.Equal(t, 0, calls)
}

func TestPublishRecoversPanickingSubscriber(t *testing.T) {
	b := New(nil, nil)
	ranAfter := false
	b.Subscribe("chan-a", func(message interface{}, sender string) { panic("boom") })
	b.Subscribe("chan-a", func(message interface{}, sender string) { ranAfter = true })

	require.NotPanics(t, func() { b.Publish("chan-a", nil, "") })
	assert.True(t, ranAfter)
}

func TestRequestSuccess(t *testing.T) {
	b := New(nil, nil)
	b.RegisterMethod("app-a", "ping", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		return "pong", nil
	})

	value, err := b.Request(context.Background(), "app-a", "ping", nil, "caller", 0)
	require.NoError(t, err)
	assert.Equal(t, "pong", value)
}

func TestRequestUnknownMethod(t *testing.T) {
	b := New(nil, nil)
	_, err := b.Request(context.Background(), "app-a", "missing", nil, "caller", 0)
	require.Error(t, err)
	var unknown *kernelerrors.UnknownMethodError
	require.ErrorAs(t, err, &unknown)
}

func TestRequestTimeout(t *testing.T) {
	b := New(nil, nil)
	b.RegisterMethod("app-a", "slow", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := b.Request(context.Background(), "app-a", "slow", nil, "caller", 5*time.Millisecond)
	require.Error(t, err)
	var timeout *kernelerrors.RequestTimeoutError
	require.ErrorAs(t, err, &timeout)
}

func TestRequestUnregisterStopsDelivery(t *testing.T) {
	b := New(nil, nil)
	unregister := b.RegisterMethod("app-a", "ping", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		return "pong", nil
	})
	unregister()

	_, err := b.Request(context.Background(), "app-a", "ping", nil, "caller", 0)
	require.Error(t, err)
	var unknown *kernelerrors.UnknownMethodError
	require.ErrorAs(t, err, &unknown)
}

func TestRequestBreakerTripsAfterConsecutiveTimeouts(t *testing.T) {
	b := New(nil, nil)
	b.RegisterMethod("app-a", "slow", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	for i := 0; i < 3; i++ {
		_, err := b.Request(context.Background(), "app-a", "slow", nil, "caller", 5*time.Millisecond)
		var timeout *kernelerrors.RequestTimeoutError
		require.ErrorAs(t, err, &timeout)
	}

	_, err := b.Request(context.Background(), "app-a", "slow", nil, "caller", 5*time.Millisecond)
	var timeout *kernelerrors.RequestTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestRequestApplicationErrorsDoNotTripBreaker(t *testing.T) {
	b := New(nil, nil)
	boom := errors.New("invalid argument")
	b.RegisterMethod("app-a", "fails", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		return nil, boom
	})

	for i := 0; i < 5; i++ {
		_, err := b.Request(context.Background(), "app-a", "fails", nil, "caller", 0)
		require.ErrorIs(t, err, boom)
	}
}

func TestClearResetsSubsAndMethods(t *testing.T) {
	b := New(nil, nil)
	calls := 0
	b.Subscribe("chan-a", func(message interface{}, sender string) { calls++ })
	b.RegisterMethod("app-a", "ping", func(ctx context.Context, payload interface{}, sender string) (interface{}, error) {
		return "pong", nil
	})

	b.Clear()
	b.Publish("chan-a", nil, "")
	assert.Equal(t, 0, calls)

	_, err := b.Request(context.Background(), "app-a", "ping", nil, "caller", 0)
	require.Error(t, err)
	var unknown *kernelerrors.UnknownMethodError
	require.ErrorAs(t, err, &unknown)
}
