/*
Package resilience provides a circuit breaker used to stop the Message Bus
from hammering an app method that is already timing out.

# Overview

The Message Bus's Request call invokes a handler registered by a loaded
app; a misbehaving or suspended app can make every Request to it time out
at the full RequestTimeoutError deadline. The circuit breaker trips after
a run of consecutive timeouts for a given (app, method) pair and fails
subsequent requests immediately until a half-open probe succeeds, instead
of making every caller wait out the full timeout against a target known to
be stuck.

# States

- Closed: requests pass through to the handler.
- Open: requests fail immediately with ErrCircuitOpen.
- Half-Open: up to Settings.MaxRequests probe requests are allowed through;
  MaxRequests consecutive successes close the breaker, a failure reopens it.
*/
package resilience
