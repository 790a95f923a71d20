package bitquery

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/constants"
)

// Subscription ids carried in start/stop/data frames.
const (
	SubIDNewTokens    = constants.SubIDNewTokens
	SubIDFinalStretch = constants.SubIDFinalStretch
	SubIDMigrated     = constants.SubIDMigrated
)

var subscriptionIDs = []string{SubIDNewTokens, SubIDFinalStretch, SubIDMigrated}

// DataHandler receives the data payload of one inbound frame, tagged with the
// subscription id it was routed from.
type DataHandler func(subID string, data json.RawMessage)

// MultiplexerConfig configures the streaming connection.
type MultiplexerConfig struct {
	WSURL       string
	Token       string
	BaseDelay   time.Duration // linear backoff unit; delay = BaseDelay * attempt
	MaxAttempts int
	DialTimeout time.Duration
	Logger      *logrus.Logger
}

// Multiplexer owns at most one live socket to the streaming endpoint and fans
// inbound data frames out to the registered handler. It is built once at the
// composition root and shared by reference; Connect is idempotent, so callers
// cannot open a second socket by re-requesting a connection.
type Multiplexer struct {
	cfg MultiplexerConfig
	log *logrus.Entry

	mu      sync.Mutex
	fsm     *connFSM
	conn    *websocket.Conn
	handler DataHandler
	// gen invalidates readers and timers belonging to superseded dials.
	gen int
}

// NewMultiplexer creates a disconnected multiplexer.
func NewMultiplexer(cfg MultiplexerConfig) *Multiplexer {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = constants.ReconnectBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = constants.MaxReconnectAttempts
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Multiplexer{
		cfg: cfg,
		log: cfg.Logger.WithField("component", "bitquery-stream"),
		fsm: newConnFSM(cfg.BaseDelay, cfg.MaxAttempts),
	}
}

// Connect registers onData and opens the socket if none is live. While a
// connection is open or in progress only the handler is swapped; no second
// socket is dialed. A multiplexer parked in Failed is revived by this call.
func (m *Multiplexer) Connect(onData DataHandler) {
	m.mu.Lock()
	m.handler = onData
	if !m.fsm.ConnectRequested() {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	go m.dial(gen)
}

// Disconnect sends stop frames for all three subscriptions, closes the socket
// and returns the multiplexer to Idle. The instance stays usable; a later
// Connect starts over.
func (m *Multiplexer) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		for _, id := range subscriptionIDs {
			m.writeLocked(wsMessage{Type: frameStop, ID: id})
		}
		_ = m.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = m.conn.Close()
		m.conn = nil
	}
	m.gen++
	m.fsm.DisconnectRequested()
}

// State reports the current lifecycle state.
func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.State()
}

func (m *Multiplexer) dial(gen int) {
	u, err := url.Parse(m.cfg.WSURL)
	if err != nil {
		m.log.WithError(err).Error("invalid stream url")
		m.connLost(gen)
		return
	}
	if m.cfg.Token != "" {
		q := u.Query()
		q.Set("token", m.cfg.Token)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{
		Subprotocols:     []string{"graphql-ws"},
		HandshakeTimeout: m.cfg.DialTimeout,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		m.log.WithError(err).Warn("stream dial failed")
		m.connLost(gen)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		// A Disconnect or newer Connect superseded this dial.
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.writeLocked(wsMessage{Type: frameConnectionInit})
	m.mu.Unlock()

	m.readLoop(gen, conn)
}

// readLoop processes frames in socket-delivery order until the connection
// drops. It never returns an error to callers; everything is logged.
func (m *Multiplexer) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stale := gen != m.gen
			m.mu.Unlock()
			if !stale {
				m.log.WithError(err).Warn("stream read failed")
				m.connLost(gen)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			m.log.WithError(err).Debug("dropping malformed frame")
			continue
		}

		switch msg.Type {
		case frameConnectionAck:
			m.onAck(gen)
		case frameData:
			m.onData(gen, msg)
		case frameKeepAlive:
			// no-op
		case frameError:
			// Server-side subscription error; the connection stays up.
			m.log.WithField("payload", string(msg.Payload)).Warn("stream error frame")
		default:
			m.log.WithField("type", msg.Type).Debug("ignoring unexpected frame")
		}
	}
}

// onAck starts the three subscriptions once the server acknowledges the
// handshake.
func (m *Multiplexer) onAck(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.conn == nil {
		return
	}
	m.fsm.Opened()
	m.log.Info("stream connected, starting subscriptions")
	for _, id := range subscriptionIDs {
		payload, err := json.Marshal(startPayload{Query: SubscriptionFor(id)})
		if err != nil {
			continue
		}
		m.writeLocked(wsMessage{Type: frameStart, ID: id, Payload: payload})
	}
}

// onData routes one data frame to the handler by subscription id.
func (m *Multiplexer) onData(gen int, msg wsMessage) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	handler := m.handler
	m.mu.Unlock()

	if handler == nil || msg.ID == "" {
		return
	}
	var dp dataPayload
	if err := json.Unmarshal(msg.Payload, &dp); err != nil || len(dp.Data) == 0 {
		m.log.WithField("id", msg.ID).Debug("dropping data frame without payload")
		return
	}
	handler(msg.ID, dp.Data)
}

// connLost applies the backoff policy after a dial failure or socket drop.
func (m *Multiplexer) connLost(gen int) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	retry, delay := m.fsm.ConnLost()
	attempt := m.fsm.Attempt()
	m.mu.Unlock()

	if !retry {
		m.log.WithField("attempts", attempt-1).Error("stream reconnect budget exhausted, giving up")
		return
	}

	m.log.WithFields(logrus.Fields{
		"attempt": attempt,
		"max":     m.cfg.MaxAttempts,
		"delay":   delay,
	}).Info("scheduling stream reconnect")

	time.AfterFunc(delay, func() {
		m.mu.Lock()
		stale := gen != m.gen || m.fsm.State() != StateReconnecting
		m.mu.Unlock()
		if stale {
			return
		}
		m.dial(gen)
	})
}

// writeLocked sends one frame; the caller holds m.mu. Write failures are
// swallowed, the read side notices the dead socket and drives reconnection.
func (m *Multiplexer) writeLocked(msg wsMessage) {
	if m.conn == nil {
		return
	}
	_ = m.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := m.conn.WriteJSON(msg); err != nil {
		m.log.WithError(err).Debug("stream write failed")
	}
}
