// Package tubecli is the Go client for the warptube daemon: typed
// JSON-RPC calls over a WebSocket plus dispatch of pushed events.
package tubecli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/spf13/afero"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/secret"
)

// Options selects the daemon to talk to. Zero fields are filled from the
// environment.
type Options struct {
	// Addr is host:port of the daemon.
	Addr   string
	Secret string
	// Spawn starts a background daemon when none answers on Addr.
	Spawn bool
}

type Client struct {
	rpc  *jrpc2.Client
	d    *Dispatcher
	done chan struct{}
	err  error
}

// NewClient connects with addresses and credentials from the environment,
// spawning a daemon if needed.
func NewClient(ctx context.Context) (*Client, error) {
	return Dial(ctx, &Options{Spawn: true})
}

// Dial connects to the daemon's WebSocket endpoint.
func Dial(ctx context.Context, opts *Options) (*Client, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.Spawn {
		if err := ensureDaemon(o.Addr); err != nil {
			return nil, err
		}
		if o.Secret == "" {
			// A freshly spawned daemon has just written its secret.
			if o.Secret, err = loadSecret(); err != nil {
				return nil, err
			}
		}
	}
	url := "ws://" + o.Addr + common.WSPath
	conn, _, err := cws.Dial(ctx, url, &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + o.Secret}},
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	c := &Client{
		d:    NewDispatcher(),
		done: make(chan struct{}),
	}
	// The channel must outlive ctx, which only bounds the handshake.
	ch := &wsChannel{conn: conn, ctx: context.Background()}
	c.rpc = jrpc2.NewClient(ch, &jrpc2.ClientOptions{
		OnNotify: c.d.dispatch,
		OnStop: func(_ *jrpc2.Client, err error) {
			c.err = err
			close(c.done)
		},
	})
	return c, nil
}

func resolveOptions(opts *Options) (Options, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Addr == "" {
		o.Addr = envAddr()
	}
	if o.Secret == "" && !o.Spawn {
		s, err := loadSecret()
		if err != nil {
			return o, err
		}
		o.Secret = s
	}
	return o, nil
}

func envAddr() string {
	port, _ := strconv.Atoi(os.Getenv(common.PortEnv))
	return common.Addr(os.Getenv(common.HostEnv), port)
}

func loadSecret() (string, error) {
	s, _, err := secret.New(afero.NewOsFs(), common.ConfigDir()).Load(os.Getenv(common.SecretEnv))
	return s, err
}

// Dispatcher returns the notification dispatcher for registering handlers.
func (c *Client) Dispatcher() *Dispatcher { return c.d }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Listen blocks until the connection ends or ctx is done. A close by
// Disconnect is not an error.
func (c *Client) Listen(ctx context.Context) error {
	select {
	case <-ctx.Done():
		c.Close()
		return ctx.Err()
	case <-c.done:
	}
	if c.err == nil || errors.Is(c.err, jrpc2.ErrConnClosed) {
		return nil
	}
	return c.err
}

// Disconnect ends the connection; a blocked Listen returns nil.
func (c *Client) Disconnect() { c.Close() }

func (c *Client) Close() error {
	return c.rpc.Close()
}

func invoke[T any](ctx context.Context, c *Client, method string, params any) (*T, error) {
	var out T
	if err := c.rpc.CallResult(ctx, method, params, &out); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	return &out, nil
}

// ErrorMessage returns the daemon's message for a failed call, without
// the JSON-RPC code.
func ErrorMessage(err error) string {
	var e *jrpc2.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ErrorCode returns the JSON-RPC error code of a failed call, or 0.
func ErrorCode(err error) int {
	var e *jrpc2.Error
	if errors.As(err, &e) {
		return int(e.Code)
	}
	return 0
}

// ErrorInfo is the structured data attached to daemon errors.
type ErrorInfo struct {
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
	Action    string `json:"action,omitempty"`
}

// ErrorDetails decodes the structured data of a failed call.
func ErrorDetails(err error) (ErrorInfo, bool) {
	var e *jrpc2.Error
	if !errors.As(err, &e) || len(e.Data) == 0 {
		return ErrorInfo{}, false
	}
	var info ErrorInfo
	if json.Unmarshal(e.Data, &info) != nil {
		return ErrorInfo{}, false
	}
	return info, true
}
