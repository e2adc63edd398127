// Package tm is the Tournament Manager fieldset client. It binds to one
// fieldset over a websocket and exposes the audience display surface the
// sync daemon needs: read the overview, read the live match state, set
// the display, and observe pushed overview updates.
//
// The connection discipline matches the scene switcher client: one
// goroutine owns all reads and routes responses to waiting callers by
// request id; writes are serialized by a mutex.
package tm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
)

const (
	handshakeTimeout = 10 * time.Second
	requestTimeout   = 10 * time.Second
	writeWait        = 10 * time.Second
)

// ErrClosed is returned by requests issued after the connection is gone.
var ErrClosed = errors.New("tm: connection closed")

// Client is a fieldset session bound to one fieldset.
type Client struct {
	conn     *websocket.Conn
	fieldset string

	writeMu sync.Mutex

	mu         sync.Mutex
	pending    map[string]chan message
	onOverview func(fieldset.Overview)
	closeErr   error
	closeOnce  sync.Once
	done       chan struct{}
}

// Dial connects to Tournament Manager at host and binds to the fieldset
// with the given title. The bind fails when no fieldset with that title
// exists for the competition.
func Dial(ctx context.Context, host string, competition Competition, fieldsetTitle string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/fieldsets/ws"}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("tm: dial %s: %w", host, err)
	}

	c := &Client{
		conn:     conn,
		fieldset: fieldsetTitle,
		pending:  make(map[string]chan message),
		done:     make(chan struct{}),
	}

	if err := c.bind(competition, fieldsetTitle); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// bind claims the fieldset on a fresh connection, before the read loop
// exists, so it reads the response inline.
func (c *Client) bind(competition Competition, fieldsetTitle string) error {
	req := message{
		Type:        msgBind,
		Competition: string(competition),
		Fieldset:    fieldsetTitle,
	}
	if err := c.write(req); err != nil {
		return fmt.Errorf("tm: send bind: %w", err)
	}

	var resp message
	if err := c.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("tm: read bind response: %w", err)
	}
	if resp.Type != msgResponse {
		return fmt.Errorf("tm: expected bind response, got %q", resp.Type)
	}
	if resp.Error != "" {
		return fmt.Errorf("tm: bind fieldset %q: %s", fieldsetTitle, resp.Error)
	}

	slog.Info("tm fieldset bound", "fieldset", fieldsetTitle, "competition", competition)
	return nil
}

// Overview returns the fieldset's current audience display and field.
func (c *Client) Overview() (fieldset.Overview, error) {
	resp, err := c.call(message{Type: msgRequest, Command: cmdOverview})
	if err != nil {
		return fieldset.Overview{}, err
	}
	if resp.Overview == nil {
		return fieldset.Overview{}, errors.New("tm: overview response missing payload")
	}
	return resp.Overview.toOverview(), nil
}

// MatchState returns the live state of the fieldset's active match.
func (c *Client) MatchState() (fieldset.MatchState, error) {
	resp, err := c.call(message{Type: msgRequest, Command: cmdMatchState})
	if err != nil {
		return fieldset.MatchDisabled, err
	}
	state, ok := matchStateNames[resp.MatchState]
	if !ok {
		return fieldset.MatchDisabled, fmt.Errorf("tm: unknown match state %q", resp.MatchState)
	}
	return state, nil
}

// SetDisplay switches the fieldset's audience display.
func (c *Client) SetDisplay(d fieldset.Display) error {
	_, err := c.call(message{Type: msgRequest, Command: cmdSetDisplay, Display: d.String()})
	return err
}

// OnOverviewChange registers the handler for pushed overview updates.
// Must be called before updates are expected; the handler runs on the
// read loop goroutine.
func (c *Client) OnOverviewChange(fn func(fieldset.Overview)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOverview = fn
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
func (c *Client) call(req message) (message, error) {
	req.ID = uuid.Must(uuid.NewV7()).String()
	ch := make(chan message, 1)

	c.mu.Lock()
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		return message{}, err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	if err := c.write(req); err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return message{}, fmt.Errorf("tm: send %s: %w", req.Command, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return message{}, ErrClosed
		}
		if resp.Error != "" {
			return message{}, &CommandError{Command: req.Command, Reason: resp.Error}
		}
		return resp, nil
	case <-time.After(requestTimeout):
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return message{}, fmt.Errorf("tm: %s timed out", req.Command)
	}
}

func (c *Client) write(m message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(m)
}

// readLoop owns all reads after the bind, demultiplexing responses and
// pushed overviews until the connection dies.
func (c *Client) readLoop() {
	for {
		var m message
		if err := c.conn.ReadJSON(&m); err != nil {
			select {
			case <-c.done:
			default:
				slog.Warn("tm connection lost", "fieldset", c.fieldset, "error", err)
			}
			c.shutdown(fmt.Errorf("tm: connection lost: %w", err))
			return
		}

		switch m.Type {
		case msgResponse:
			c.mu.Lock()
			ch, ok := c.pending[m.ID]
			if ok {
				delete(c.pending, m.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- m
			}

		case msgOverview:
			if m.Overview == nil {
				slog.Warn("tm overview push missing payload")
				continue
			}
			c.mu.Lock()
			fn := c.onOverview
			c.mu.Unlock()
			if fn != nil {
				fn(m.Overview.toOverview())
			}
		}
	}
}
