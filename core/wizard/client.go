// Package wizard keeps a local view of one wizard console session in sync by
// polling it, and submits the user's utterances to it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 10 * time.Second

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleWizard    = "wizard"
)

// ErrSessionNotFound is what the console answers before the first message of
// a session arrives. Polling treats it as an empty session.
var ErrSessionNotFound = errors.New("wizard: session not found")

// Message is one entry of the remote session log. Index is its position in
// that log.
type Message struct {
	Role  string
	Text  string
	Index int
}

type ClientOptions struct {
	PollInterval time.Duration
	HTTPClient   *http.Client

	MessageCallback      func(Message)
	ConnectivityCallback func(connected bool)
}

type ClientOption func(*ClientOptions)

func WithPollInterval(interval time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.PollInterval = interval
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.HTTPClient = client
	}
}

// WithTimeout bounds every request to the console.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.HTTPClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
}

// WithMessageCallback is called from the poll goroutine, in log order, for
// every new assistant or wizard message.
func WithMessageCallback(callback func(Message)) ClientOption {
	return func(o *ClientOptions) {
		o.MessageCallback = callback
	}
}

// WithConnectivityCallback is called whenever reachability of the console
// changes, and once with false on Disconnect.
func WithConnectivityCallback(callback func(connected bool)) ClientOption {
	return func(o *ClientOptions) {
		o.ConnectivityCallback = callback
	}
}

type Client struct {
	baseURL   string
	sessionID string
	options   ClientOptions

	mu        sync.Mutex
	watermark int
	connected *bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewClient(baseURL, sessionID string, opts ...ClientOption) *Client {
	options := ClientOptions{
		PollInterval:         DefaultPollInterval,
		MessageCallback:      func(Message) {},
		ConnectivityCallback: func(bool) {},
	}
	WithTimeout(DefaultTimeout)(&options)
	for _, opt := range opts {
		opt(&options)
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		options:   options,
	}
}

func (c *Client) SessionID() string { return c.sessionID }

// Watermark is the number of session log entries already observed.
func (c *Client) Watermark() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermark
}

// Connect probes the console and starts the poll loop. It never blocks on the
// network; results arrive through the callbacks. Polling stops when ctx is
// cancelled or Disconnect is called. Calling Connect on a connected client
// does nothing.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.probe(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.pollLoop(ctx)
	}()

	return nil
}

// Disconnect stops polling, waits for an in-flight poll to settle and reports
// the client as disconnected. It is safe to call more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.connected = nil
	c.mu.Unlock()
	c.options.ConnectivityCallback(false)
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	if c.cancel == nil || (c.connected != nil && *c.connected == connected) {
		c.mu.Unlock()
		return
	}
	c.connected = &connected
	c.mu.Unlock()

	c.options.ConnectivityCallback(connected)
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s%s", c.baseURL, path)
}
