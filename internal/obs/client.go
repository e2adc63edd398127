// Package obs is a minimal obs-websocket v5 client covering the three
// things the sync daemon needs from the scene switcher: read the current
// program scene, set it, and observe CurrentProgramSceneChanged events.
//
// One goroutine owns all reads from the connection; request responses are
// routed to waiting callers by request id, events are delivered to the
// registered handler. Writes are serialized by a dedicated mutex so
// callers may issue requests from any goroutine.
package obs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	requestTimeout   = 10 * time.Second
	writeWait        = 10 * time.Second
)

// ErrClosed is returned by requests issued after the connection is gone.
var ErrClosed = errors.New("obs: connection closed")

// Client is a connected, identified obs-websocket session.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]chan requestResponsePayload
	onScene   func(string)
	closeErr  error
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to obs-websocket at host:port and completes the Hello /
// Identify handshake. An empty password is only accepted when the server
// does not require authentication.
func Dial(ctx context.Context, host string, port int, password string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: "/"}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("obs: dial %s: %w", u.Host, err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan requestResponsePayload),
		done:    make(chan struct{}),
	}

	if err := c.identify(password); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// identify performs the v5 handshake on a fresh connection: read Hello,
// answer with Identify (solving the auth challenge when one is posed),
// and wait for Identified.
func (c *Client) identify(password string) error {
	var env envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("obs: read hello: %w", err)
	}
	if env.Op != opHello {
		return fmt.Errorf("obs: expected hello, got op %d", env.Op)
	}
	var hello helloPayload
	if err := unmarshalPayload(env.D, &hello); err != nil {
		return fmt.Errorf("obs: decode hello: %w", err)
	}

	ident := identifyPayload{
		RPCVersion:         rpcVersion,
		EventSubscriptions: eventSubscriptionScenes,
	}
	if hello.Authentication != nil {
		if password == "" {
			return errors.New("obs: server requires authentication but no password is configured")
		}
		ident.Authentication = authToken(password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}
	if err := c.writeEnvelope(opIdentify, ident); err != nil {
		return fmt.Errorf("obs: send identify: %w", err)
	}

	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("obs: authentication failed: %w", err)
	}
	if env.Op != opIdentified {
		return fmt.Errorf("obs: expected identified, got op %d", env.Op)
	}

	slog.Info("obs connected", "version", hello.OBSWebSocketVersion)
	return nil
}

// CurrentScene returns the current program scene name.
func (c *Client) CurrentScene() (string, error) {
	resp, err := c.call("GetCurrentProgramScene", nil)
	if err != nil {
		return "", err
	}
	var data struct {
		CurrentProgramSceneName string `json:"currentProgramSceneName"`
		SceneName               string `json:"sceneName"`
	}
	if err := unmarshalPayload(resp.ResponseData, &data); err != nil {
		return "", fmt.Errorf("obs: decode current scene: %w", err)
	}
	// Servers from 5.4 on also send sceneName; the original field wins
	// when both are present.
	if data.CurrentProgramSceneName != "" {
		return data.CurrentProgramSceneName, nil
	}
	return data.SceneName, nil
}

// SetScene switches the program output to the named scene.
func (c *Client) SetScene(name string) error {
	_, err := c.call("SetCurrentProgramScene", map[string]any{"sceneName": name})
	return err
}

// OnSceneChange registers the handler for CurrentProgramSceneChanged
// events. Must be called before events are expected; the handler runs on
// the read loop goroutine.
func (c *Client) OnSceneChange(fn func(scene string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onScene = fn
}

// Close tears down the connection. Pending requests fail with ErrClosed.
func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErr = cause
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.done)
		c.conn.Close()
	})
}

// call issues one request and blocks for its response.
func (c *Client) call(requestType string, data any) (requestResponsePayload, error) {
	id := uuid.Must(uuid.NewV7()).String()
	ch := make(chan requestResponsePayload, 1)

	c.mu.Lock()
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		return requestResponsePayload{}, err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	req := requestPayload{RequestType: requestType, RequestID: id, RequestData: data}
	if err := c.writeEnvelope(opRequest, req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return requestResponsePayload{}, fmt.Errorf("obs: send %s: %w", requestType, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return requestResponsePayload{}, ErrClosed
		}
		if !resp.RequestStatus.Result {
			return requestResponsePayload{}, &RequestError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}
		}
		return resp, nil
	case <-time.After(requestTimeout):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return requestResponsePayload{}, fmt.Errorf("obs: %s timed out", requestType)
	}
}

func (c *Client) writeEnvelope(op int, d any) error {
	data, err := marshalEnvelope(op, d)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop owns all reads after the handshake, demultiplexing responses
// and events until the connection dies.
func (c *Client) readLoop() {
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
			default:
				slog.Warn("obs connection lost", "error", err)
			}
			c.shutdown(fmt.Errorf("obs: connection lost: %w", err))
			return
		}

		switch env.Op {
		case opRequestResponse:
			var resp requestResponsePayload
			if err := unmarshalPayload(env.D, &resp); err != nil {
				slog.Warn("obs response undecodable", "error", err)
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[resp.RequestID]
			if ok {
				delete(c.pending, resp.RequestID)
			}
			c.mu.Unlock()
			if ok {
				ch <- resp
			}

		case opEvent:
			var ev eventPayload
			if err := unmarshalPayload(env.D, &ev); err != nil {
				slog.Warn("obs event undecodable", "error", err)
				continue
			}
			if ev.EventType != eventCurrentProgramSceneChanged {
				continue
			}
			var data struct {
				SceneName string `json:"sceneName"`
			}
			if err := unmarshalPayload(ev.EventData, &data); err != nil {
				slog.Warn("obs scene event undecodable", "error", err)
				continue
			}
			c.mu.Lock()
			fn := c.onScene
			c.mu.Unlock()
			if fn != nil {
				fn(data.SceneName)
			}
		}
	}
}
