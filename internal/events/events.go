// Package events forwards job lifecycle transitions to a socket.io server so
// that a dashboard can follow a batch while it runs.
package events

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/scheduler"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event every transition is emitted as.
const EventName = "job_state"

// Publisher observes a batch and can be shut down.
type Publisher interface {
	scheduler.Observer
	Close() error
}

// Nop drops every event. It is used when no events URL is configured.
type Nop struct{}

func (Nop) Observe(scheduler.Event) {}
func (Nop) Close() error            { return nil }

// Payload is the message sent for one transition.
func Payload(runID string, e scheduler.Event) map[string]any {
	p := map[string]any{
		"run_id": runID,
		"index":  e.Index,
		"job":    e.Job.Name,
		"input":  e.Job.Input,
		"state":  e.State.String(),
		"time":   e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Err != nil {
		p["error"] = e.Err.Error()
		if c := fault.CategoryOf(e.Err); c != fault.CategoryNone {
			p["category"] = string(c)
		}
	}
	return p
}

// Options configures Dial.
type Options struct {
	// Namespace defaults to "/".
	Namespace          string
	InsecureSkipVerify bool
	// Timeout bounds the connection handshake. Zero means 15s.
	Timeout time.Duration
}

// SocketIO publishes events over a socket.io connection.
type SocketIO struct {
	client *socket.Socket
	runID  string
}

// Dial connects to rawURL and waits for the handshake.
func Dial(ctx context.Context, rawURL, runID string, o Options) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", rawURL)
	logger.Info("Connecting event publisher...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q needs a scheme and a host", rawURL)
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event publisher connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{client: io, runID: runID}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Observe emits e. Delivery is best effort; a dropped connection never
// affects the batch.
func (p *SocketIO) Observe(e scheduler.Event) {
	if !p.client.Connected() {
		return
	}
	p.client.Emit(EventName, Payload(p.runID, e))
}

func (p *SocketIO) Close() error {
	p.client.Disconnect()
	return nil
}
