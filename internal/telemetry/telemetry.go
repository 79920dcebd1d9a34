// Package telemetry implements an executor.Observer that streams task state
// transitions to a socket.io dashboard, grounded on the teacher's
// modules/socketio_client connection-setup pattern and modules/socketio_request's
// emit pattern. It is purely diagnostic: Dial returns its connection error to
// the caller, and once connected, OnTaskState reports nothing back to the
// executor, which calls it synchronously from its workers.
package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/dagflow/internal/executor"
)

// Emitter emits executor.Task state transitions as socket.io "task-state"
// events for a connected dashboard.
type Emitter struct {
	io     *socket.Socket
	logger *slog.Logger
}

// Dial connects to a socket.io server at rawURL and returns a ready
// Emitter. insecureSkipVerify disables TLS certificate verification, for
// talking to a local dashboard over a self-signed endpoint during
// development.
func Dial(ctx context.Context, rawURL string, insecureSkipVerify bool) (*Emitter, error) {
	logger := slog.Default().With("component", "telemetry", "url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("telemetry: parsing url: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsed.Path)
	if insecureSkipVerify {
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) { connected <- nil })
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("connect_error")
	})

	io.Connect()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("telemetry: connecting to %s: %w", rawURL, err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(15 * time.Second):
		io.Disconnect()
		return nil, fmt.Errorf("telemetry: timed out connecting to %s", rawURL)
	}

	logger.Info("Connected to telemetry dashboard.", "sid", io.Id())
	return &Emitter{io: io, logger: logger}, nil
}

// Close disconnects the underlying socket.
func (e *Emitter) Close() {
	e.io.Disconnect()
}

// OnTaskState implements executor.Observer.
func (e *Emitter) OnTaskState(t executor.Task, s executor.State, err error) {
	payload := map[string]any{
		"node":  t.NodeID,
		"batch": t.BatchID,
		"state": s.String(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	e.io.Emit("task-state", payload)
}
