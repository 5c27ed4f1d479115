package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/resilience"
	"github.com/openclaw/snapper/internal/shared/id"
	"go.uber.org/zap"
)

// MethodHandler answers an RPC request and returns a response value or an
// error.
type MethodHandler func(ctx context.Context, payload interface{}, sender string) (interface{}, error)

// methodTable is a call table keyed by (app, method), resolving a
// Request directly rather than round-tripping through pub/sub.
type methodTable struct {
	mu      sync.RWMutex
	methods map[string]map[string]MethodHandler
}

func newMethodTable() *methodTable {
	return &methodTable{methods: make(map[string]map[string]MethodHandler)}
}

func (t *methodTable) register(appID, method string, handler MethodHandler) func() {
	t.mu.Lock()
	if t.methods[appID] == nil {
		t.methods[appID] = make(map[string]MethodHandler)
	}
	t.methods[appID][method] = handler
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.methods[appID], method)
		t.mu.Unlock()
	}
}

func (t *methodTable) lookup(appID, method string) (MethodHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.methods[appID][method]
	return h, ok
}

func (t *methodTable) clear() {
	t.mu.Lock()
	t.methods = make(map[string]map[string]MethodHandler)
	t.mu.Unlock()
}

const defaultRequestTimeout = 5000 * time.Millisecond

// RegisterMethod stores handler under (appID, method) and returns an
// unregister closure.
func (b *Bus) RegisterMethod(appID, method string, handler MethodHandler) (unregister func()) {
	return b.methods.register(appID, method, handler)
}

// Request invokes the method registered under (targetApp, method) with
// payload and sender, waiting at most timeout (default 5000ms; pass 0 to
// use the default). It returns *kernelerrors.UnknownMethodError if no
// handler is registered, or *kernelerrors.RequestTimeoutError if the
// handler has not returned within the deadline, including when the
// breaker for (targetApp, method) is open. A handler's own error is
// returned unchanged and never counts as a breaker failure.
func (b *Bus) Request(ctx context.Context, targetApp, method string, payload interface{}, sender string, timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	handler, ok := b.methods.lookup(targetApp, method)
	if !ok {
		return nil, &kernelerrors.UnknownMethodError{App: targetApp, Method: method}
	}

	if b.metrics != nil {
		b.metrics.BusRequestsTotal.WithLabelValues(targetApp, method).Inc()
	}

	reqID := id.NewRequestID()
	br := b.breakerFor(targetApp, method)

	outcome, breakerErr := br.Execute(func() (interface{}, error) {
		value, err := b.call(ctx, reqID, handler, targetApp, method, payload, sender, timeout)
		var timeoutErr *kernelerrors.RequestTimeoutError
		if errors.As(err, &timeoutErr) {
			// Only a genuine timeout should count as a breaker failure; an
			// application-level error from a responsive handler must not.
			return nil, err
		}
		return callResult{value: value, err: err}, nil
	})
	if breakerErr == resilience.ErrCircuitOpen || breakerErr == resilience.ErrTooManyRequests {
		b.logger.Warn("bus request rejected by open circuit",
			zap.String("request_id", reqID.String()), zap.String("target", targetApp), zap.String("method", method))
		return nil, &kernelerrors.RequestTimeoutError{App: targetApp, Method: method, Timeout: timeout.String()}
	}
	if breakerErr != nil {
		return nil, breakerErr
	}
	res := outcome.(callResult)
	return res.value, res.err
}

type callResult struct {
	value interface{}
	err   error
}

func (b *Bus) call(ctx context.Context, reqID id.RequestID, handler MethodHandler, targetApp, method string, payload interface{}, sender string, timeout time.Duration) (interface{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := handler(callCtx, payload, sender)
		done <- result{value, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-callCtx.Done():
		if b.metrics != nil {
			b.metrics.BusTimeoutsTotal.WithLabelValues(targetApp, method).Inc()
		}
		b.logger.Warn("bus request timed out",
			zap.String("request_id", reqID.String()), zap.String("target", targetApp), zap.String("method", method))
		return nil, &kernelerrors.RequestTimeoutError{App: targetApp, Method: method, Timeout: timeout.String()}
	}
}
