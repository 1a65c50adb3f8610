// Package realtime maintains the live credit balance subscription: a socket
// connection scoped to the signed-in account, joined to the account topic,
// listening for balance pushes. The subscription is a scoped resource: the
// caller iterates Events and calls Close on teardown; there is no automatic
// reconnect loop (reopening the chat is the retry).
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ai-companion-chat/client/pkg/logger"
)

// State is the connection indicator surfaced to the UI. It is derived and
// non-authoritative; the balance itself lives in the store.
type State string

const (
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateOffline    State = "offline"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next frame; heartbeats keep it fresh
	readWait = 60 * time.Second

	// Heartbeat period, must be less than readWait
	heartbeatPeriod = 30 * time.Second

	joinTimeout = 10 * time.Second
)

// ErrJoinRejected is returned when the server refuses the account topic
var ErrJoinRejected = errors.New("realtime: topic join rejected")

// CreditEvent is one balance push, already coerced to a number
type CreditEvent struct {
	Credit float64
}

// frame is the channel wire format: every message carries its topic, an
// event name, a payload and an optional reply reference.
type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

const (
	eventJoin   = "phx_join"
	eventLeave  = "phx_leave"
	eventReply  = "phx_reply"
	eventCredit = "credit_update"
	joinRef     = "1"
)

// Subscription is a live account-topic subscription
type Subscription struct {
	conn   *websocket.Conn
	topic  string
	events chan CreditEvent
	log    *logger.Logger

	mu      sync.Mutex
	state   State
	closed  bool
	writeMu sync.Mutex
}

// Subscribe dials the socket with the bearer token, joins the account topic
// and starts the read loop. A failed dial or join degrades to offline and
// returns an error; no retry storm.
func Subscribe(ctx context.Context, socketURL, token, accountID string, log *logger.Logger) (*Subscription, error) {
	log = log.WithComponent("realtime").WithAccountID(accountID)

	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	sub := &Subscription{
		topic:  "account:" + accountID,
		events: make(chan CreditEvent, 16),
		state:  StateConnecting,
		log:    log,
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		sub.setState(StateOffline)
		close(sub.events)
		return nil, err
	}
	sub.conn = conn

	if err := sub.join(); err != nil {
		sub.setState(StateOffline)
		conn.Close()
		close(sub.events)
		return nil, err
	}
	sub.setState(StateConnected)

	go sub.readLoop()
	go sub.heartbeatLoop()

	return sub, nil
}

// Events is the stream of balance pushes; closed when the subscription dies
func (s *Subscription) Events() <-chan CreditEvent {
	return s.events
}

// State returns the current connection indicator
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscription) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Close leaves the topic and tears the socket down. Idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.conn != nil {
		s.writeFrame(frame{Topic: s.topic, Event: eventLeave, Payload: json.RawMessage(`{}`)})
		s.conn.Close()
	}
	s.setState(StateOffline)
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// join sends the topic join frame and waits for the acknowledging reply
func (s *Subscription) join() error {
	if err := s.writeFrame(frame{
		Topic:   s.topic,
		Event:   eventJoin,
		Payload: json.RawMessage(`{}`),
		Ref:     joinRef,
	}); err != nil {
		return err
	}

	s.conn.SetReadDeadline(time.Now().Add(joinTimeout))
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			return err
		}
		if f.Event != eventReply || f.Ref != joinRef {
			continue
		}
		var reply struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(f.Payload, &reply); err != nil {
			return err
		}
		if reply.Status != "ok" {
			s.log.Warn("topic join rejected", "topic", s.topic, "status", reply.Status)
			return ErrJoinRejected
		}
		return nil
	}
}

func (s *Subscription) writeFrame(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

// readLoop pumps frames until the socket dies, forwarding credit pushes.
// Any read error ends the subscription; the events channel closing is the
// teardown signal for the consumer.
func (s *Subscription) readLoop() {
	defer func() {
		s.setState(StateOffline)
		close(s.events)
	}()

	for {
		s.conn.SetReadDeadline(time.Now().Add(readWait))
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			if !s.isClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.LogError(err, "realtime socket error")
			}
			return
		}

		if f.Topic != s.topic || f.Event != eventCredit {
			continue
		}

		credit, ok := decodeCredit(f.Payload)
		if !ok {
			s.log.Warn("discarding malformed credit push", "payload", string(f.Payload))
			continue
		}

		select {
		case s.events <- CreditEvent{Credit: credit}:
		default:
			// a stalled consumer only ever needs the latest balance
			select {
			case <-s.events:
			default:
			}
			s.events <- CreditEvent{Credit: credit}
		}
	}
}

// heartbeatLoop keeps the connection's read deadline satisfied
func (s *Subscription) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if s.isClosed() {
			return
		}
		if err := s.writeFrame(frame{
			Topic:   "phoenix",
			Event:   "heartbeat",
			Payload: json.RawMessage(`{}`),
		}); err != nil {
			return
		}
	}
}

// decodeCredit coerces the push payload's credit field, which may arrive as
// a number or a numeric string, to float64.
func decodeCredit(payload json.RawMessage) (float64, bool) {
	// json.Number tolerates both the bare and the quoted form
	var body struct {
		Credit json.Number `json:"credit"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Credit == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(body.Credit.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
