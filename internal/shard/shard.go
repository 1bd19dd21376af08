// Package shard drives a single gateway connection.
package shard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/internal/protocol"
	"github.com/luciancaetano/shardnet/internal/session"
	"github.com/luciancaetano/shardnet/model"
)

const (
	writeWait = 10 * time.Second
	closeWait = time.Second
)

type frame struct {
	typ  int
	data []byte
	err  error
}

type disconnectKind int

const (
	// disconnectResume closes with a non-1000 code so the session stays resumable.
	disconnectResume disconnectKind = iota
	// disconnectFresh closes normally and discards the session.
	disconnectFresh
)

// Shard is one gateway connection and the state needed to keep it alive.
//
// NextMessage, NextEvent, Command, Send and Close must be called from the same goroutine.
// Status, Session, Latency and Sender may be used from anywhere.
type Shard struct {
	cfg      *Config
	id       shardnet.ShardID
	logger   *slog.Logger
	metrics  *Metrics
	queue    shardnet.Queue
	dialer   *websocket.Dialer
	gate     *CommandGate
	backoff  *backoff.ExponentialBackOff
	inflater *protocol.Inflater
	sendCh   chan outbound
	// pending was taken off sendCh but refused by the gate. It goes out before sendCh.
	pending *outbound

	mu         sync.RWMutex
	status     shardnet.Status
	session    *session.Session
	latency    session.Latency
	closeFrame *protocol.CloseFrame

	resumeURL string
	attempts  int

	// Per connection. Replaced on every connect.
	conn       *websocket.Conn
	connID     string
	connCtx    context.Context
	connCancel context.CancelFunc
	frames     chan frame
	identifyCh chan error
	heartbeat  *session.Heartbeat
	nextBeat   time.Time
}

var _ shardnet.Shard = (*Shard)(nil)

// New returns a disconnected shard. The first read connects.
func New(cfg *Config) *Shard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := cfg.Queue
	if queue == nil {
		queue = NewLocalQueue(1)
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	b := backoff.NewExponentialBackOff()
	if cfg.Reconnect.InitialInterval > 0 {
		b.InitialInterval = cfg.Reconnect.InitialInterval
	}
	if cfg.Reconnect.MaxInterval > 0 {
		b.MaxInterval = cfg.Reconnect.MaxInterval
	}

	return &Shard{
		cfg:       cfg,
		id:        cfg.ShardID,
		logger:    logger.With("shard", cfg.ShardID.Number, "shards", cfg.ShardID.Total),
		metrics:   cfg.Metrics,
		queue:     queue,
		dialer:    dialer,
		gate:      NewCommandGate(cfg.CommandGate),
		backoff:   b,
		inflater:  protocol.NewInflater(),
		sendCh:    make(chan outbound, sendBufferSize),
		status:    shardnet.Disconnected,
		session:   cfg.Session.Clone(),
		resumeURL: cfg.ResumeURL,
	}
}

// ID returns the shard this connection serves.
func (s *Shard) ID() shardnet.ShardID {
	return s.id
}

// Status returns the current connection state.
func (s *Shard) Status() shardnet.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Session returns a copy of the current session, nil if none is established.
func (s *Shard) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// Latency returns the heartbeat round trips of the current session.
func (s *Shard) Latency() session.Latency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latency
}

// ResumeURL returns the gateway URL to resume the current session on.
func (s *Shard) ResumeURL() string {
	return s.resumeURL
}

// Sender returns a handle for queueing payloads from other goroutines.
func (s *Shard) Sender() MessageSender {
	return MessageSender{ch: s.sendCh}
}

// CommandAllowance returns how many commands fit in one rate limit window after the
// heartbeat reservation, zero when the limit is disabled.
func (s *Shard) CommandAllowance() int {
	return s.gate.Allowance()
}

// NextMessage returns the next complete text or close message.
func (s *Shard) NextMessage(ctx context.Context) (shardnet.Message, error) {
	for {
		msg, _, ok, err := s.poll(ctx)
		if err != nil || ok {
			return msg, err
		}
	}
}

// NextEvent returns the next decoded gateway event. A close is returned as
// protocol.GatewayClose.
func (s *Shard) NextEvent(ctx context.Context) (protocol.GatewayEvent, error) {
	for {
		_, event, ok, err := s.poll(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return event, nil
		}
	}
}

// Command encodes cmd and sends it once the rate limit allows.
func (s *Shard) Command(ctx context.Context, cmd protocol.Command) error {
	payload, err := protocol.Encode(cmd)
	if err != nil {
		return &SendError{Kind: SendSerializing, Err: err}
	}
	return s.Send(ctx, payload)
}

// Send writes payload once the rate limit allows.
func (s *Shard) Send(ctx context.Context, payload []byte) error {
	if s.conn == nil {
		return &SendError{Kind: SendSending, Err: fmt.Errorf(shardnet.ErrConnectionClosed)}
	}
	if err := s.gate.Wait(ctx); err != nil {
		return &SendError{Kind: SendSending, Err: err}
	}
	return s.write(payload)
}

// Close sends frame to the gateway. If frame allows resuming, the session is returned and
// kept; otherwise it is discarded. The connection is torn down once the gateway echoes the
// close on the next read.
func (s *Shard) Close(ctx context.Context, frame protocol.CloseFrame) (*session.Session, error) {
	var sess *session.Session
	if frame.Resumable() {
		sess = s.Session()
	} else {
		s.setSession(nil)
		s.resumeURL = ""
	}

	if s.conn == nil {
		return sess, nil
	}

	deadline := time.Now().Add(closeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	msg := websocket.FormatCloseMessage(int(frame.Code), frame.Reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		return sess, &SendError{Kind: SendSending, Err: err}
	}
	s.logger.Info("closing connection", "conn_id", s.connID, "code", frame.Code)
	return sess, nil
}

// poll runs the state machine until one message has been read, or something internal
// (a heartbeat, a passthrough send, a dropped message) happened. ok is false in the
// latter case.
func (s *Shard) poll(ctx context.Context) (shardnet.Message, protocol.GatewayEvent, bool, error) {
	switch s.Status() {
	case shardnet.FatallyClosed:
		s.mu.RLock()
		closeFrame := s.closeFrame
		s.mu.RUnlock()
		return shardnet.Message{}, nil, false, &ReceiveMessageError{Kind: ReceiveFatallyClosed, Close: closeFrame}
	case shardnet.Disconnected:
		if err := s.connect(ctx); err != nil {
			return shardnet.Message{}, nil, false, err
		}
	}

	var heartbeatC, gateC <-chan time.Time
	if s.heartbeat != nil {
		timer := time.NewTimer(time.Until(s.nextBeat))
		defer timer.Stop()
		heartbeatC = timer.C
	}

	// Queued payloads are only written on an established session, and only when a
	// token is free; otherwise wake up when one will be.
	var sendCh <-chan outbound
	if s.Status() == shardnet.Connected {
		if delay := s.gate.Delay(); delay == 0 {
			if msg := s.pending; msg != nil {
				s.pending = nil
				s.passthrough(ctx, *msg)
				return shardnet.Message{}, nil, false, nil
			}
			sendCh = s.sendCh
		} else {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			gateC = timer.C
		}
	}

	select {
	case <-ctx.Done():
		return shardnet.Message{}, nil, false, ctx.Err()
	case f := <-s.frames:
		return s.handleFrame(ctx, f)
	case <-heartbeatC:
		s.beat()
	case <-gateC:
	case msg := <-sendCh:
		s.passthrough(ctx, msg)
	case err := <-s.identifyCh:
		s.identify(ctx, err)
	}
	return shardnet.Message{}, nil, false, nil
}

func (s *Shard) connect(ctx context.Context) error {
	if s.attempts > 0 {
		if limit := s.cfg.Reconnect.MaxAttempts; limit > 0 && s.attempts >= limit {
			return &ReceiveMessageError{Kind: ReceiveReconnect, Err: ErrReconnectExhausted}
		}

		delay := s.backoff.NextBackOff()
		s.logger.Info("waiting to reconnect", "attempt", s.attempts, "delay", delay)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	base := s.cfg.GatewayURL
	if s.session != nil && s.resumeURL != "" {
		base = s.resumeURL
	}
	url := protocol.ConnectURL(base, s.cfg.APIVersion, protocol.EncodingJSON, s.cfg.Compress)

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.attempts++
		s.metrics.connectFailed(s.id)
		s.logger.Warn("connecting to gateway failed", "url", url, "attempt", s.attempts, "error", err)
		return &ReceiveMessageError{Kind: ReceiveReconnect, Err: err}
	}
	s.attempts = 0
	s.backoff.Reset()

	s.conn = conn
	s.connID = uuid.New().String()
	s.connCtx, s.connCancel = context.WithCancel(context.Background())
	s.frames = make(chan frame)
	s.identifyCh = make(chan error, 1)
	s.heartbeat = nil
	s.inflater.Reset()

	go readPump(conn, s.frames, s.connCtx.Done())

	if s.session != nil {
		s.setStatus(shardnet.Resuming)
	} else {
		s.setStatus(shardnet.Identifying)
	}
	s.metrics.connected(s.id)
	s.logger.Info("connected to gateway", "conn_id", s.connID, "url", url)
	return nil
}

// readPump pumps messages from the websocket connection to the shard until reading fails.
// The final error, including a close frame, is delivered like any message.
func readPump(conn *websocket.Conn, frames chan<- frame, done <-chan struct{}) {
	for {
		typ, data, err := conn.ReadMessage()
		select {
		case frames <- frame{typ: typ, data: data, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Shard) handleFrame(ctx context.Context, f frame) (shardnet.Message, protocol.GatewayEvent, bool, error) {
	if f.err != nil {
		return s.handleReadError(f.err)
	}

	data := f.data
	if f.typ == websocket.BinaryMessage {
		s.inflater.Clear()
		s.inflater.Extend(f.data)
		msg, err := s.inflater.Message()
		if err != nil {
			s.logger.Warn("decompressing message failed", "conn_id", s.connID, "error", err)
			s.disconnect(disconnectResume, "decompress")
			return shardnet.Message{}, nil, false, &ReceiveMessageError{Kind: ReceiveCompression, Err: err}
		}
		if msg == nil {
			return shardnet.Message{}, nil, false, nil
		}
		s.metrics.compressionRatio(s.id, s.inflater.Ratio())
		data = msg
	}

	event, err := s.process(ctx, data)
	if err != nil || event == nil {
		return shardnet.Message{}, nil, false, err
	}
	return shardnet.Message{Kind: shardnet.MessageText, Data: data}, event, true, nil
}

func (s *Shard) handleReadError(err error) (shardnet.Message, protocol.GatewayEvent, bool, error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		frame := protocol.CloseFrame{Code: protocol.CloseCode(closeErr.Code), Reason: closeErr.Text}
		s.onClose(frame)
		return shardnet.Message{Kind: shardnet.MessageClose, Close: &frame}, protocol.GatewayClose{Frame: &frame}, true, nil
	}

	s.logger.Warn("reading from gateway failed", "conn_id", s.connID, "error", err)
	s.teardown("read_error")
	return shardnet.Message{}, nil, false, &ReceiveMessageError{Kind: ReceiveIO, Err: err}
}

func (s *Shard) onClose(frame protocol.CloseFrame) {
	s.logger.Info("gateway closed connection", "conn_id", s.connID, "code", frame.Code, "reason", frame.Reason)
	s.teardown("closed")

	switch {
	case frame.Code.Fatal():
		s.logger.Error("close code is fatal, not reconnecting", "code", frame.Code)
		s.mu.Lock()
		s.closeFrame = &frame
		s.mu.Unlock()
		s.setStatus(shardnet.FatallyClosed)
	case frame.Code.InvalidatesSession():
		s.setSession(nil)
		s.resumeURL = ""
	}
}

// process applies one decompressed payload to the shard state. It returns nil, nil when
// the payload must not reach the caller.
func (s *Shard) process(ctx context.Context, data []byte) (protocol.GatewayEvent, error) {
	env, err := protocol.ScanEnvelope(data)
	if err != nil {
		s.logger.Warn("scanning payload failed", "conn_id", s.connID, "error", err)
		return nil, &ReceiveMessageError{Kind: ReceiveDeserializing, Err: err}
	}
	s.metrics.received(s.id, env.Op.String())

	if env.Op == protocol.OpDispatch && env.HasSequence && s.session != nil {
		last := s.session.Sequence()
		if env.Sequence > last+1 {
			s.logger.Warn("dispatch sequence skipped ahead, resuming",
				"conn_id", s.connID, "expected", last+1, "received", env.Sequence, "event", env.EventType())
			s.metrics.sequenceGap(s.id)
			s.disconnect(disconnectResume, "sequence_gap")
			return nil, nil
		}
		if env.Sequence > last {
			s.mu.Lock()
			s.session.SetSequence(env.Sequence)
			s.mu.Unlock()
		}
	}

	event, err := protocol.DecodeEnvelope(&env)
	if err != nil {
		s.logger.Warn("decoding payload failed", "conn_id", s.connID, "op", env.Op, "event", env.EventType(), "error", err)
		return nil, &ReceiveMessageError{Kind: ReceiveDeserializing, Err: err}
	}

	switch ev := event.(type) {
	case protocol.Hello:
		if err := s.onHello(ctx, ev); err != nil {
			return nil, err
		}
	case protocol.HeartbeatRequest:
		if err := s.sendHeartbeat(); err != nil {
			return nil, &ReceiveMessageError{Kind: ReceiveProcess, Err: err}
		}
	case protocol.HeartbeatAck:
		s.onHeartbeatAck()
	case protocol.InvalidateSession:
		s.logger.Info("session invalidated", "conn_id", s.connID, "resumable", ev.Resumable)
		if ev.Resumable {
			s.disconnect(disconnectResume, "invalid_session")
		} else {
			s.disconnect(disconnectFresh, "invalid_session")
		}
	case protocol.Reconnect:
		s.logger.Info("gateway requested reconnect", "conn_id", s.connID)
		s.disconnect(disconnectResume, "reconnect")
	case protocol.Dispatch:
		switch d := ev.Event.(type) {
		case *model.Ready:
			s.mu.Lock()
			s.session = session.New(d.SessionID, env.Sequence)
			s.latency = session.Latency{}
			s.mu.Unlock()
			s.resumeURL = d.ResumeGatewayURL
			s.setStatus(shardnet.Connected)
			s.logger.Info("session established", "conn_id", s.connID, "session_id", d.SessionID, "guilds", len(d.Guilds))
		case *model.Resumed:
			s.setStatus(shardnet.Connected)
			s.logger.Info("session resumed", "conn_id", s.connID, "sequence", env.Sequence)
		}
	}
	return event, nil
}

func (s *Shard) onHello(ctx context.Context, hello protocol.Hello) error {
	if hello.HeartbeatInterval == 0 {
		return &ReceiveMessageError{Kind: ReceiveDeserializing, Err: fmt.Errorf(shardnet.ErrInvalidHello)}
	}

	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
	s.heartbeat = session.NewHeartbeat(interval)
	// Spread the first heartbeat so that shards started together do not beat together.
	s.nextBeat = time.Now().Add(time.Duration(rand.Float64() * float64(interval)))
	s.gate.Reset(interval)
	s.logger.Debug("received hello", "conn_id", s.connID, "heartbeat_interval", interval)

	if s.session == nil {
		s.setStatus(shardnet.Identifying)
		ch, connCtx, id := s.identifyCh, s.connCtx, s.id
		go func() {
			ch <- s.queue.Request(connCtx, id)
		}()
		return nil
	}

	s.setStatus(shardnet.Resuming)
	resume := protocol.Resume{
		Token:     s.cfg.Token,
		SessionID: s.session.ID(),
		Sequence:  s.session.Sequence(),
	}
	if err := s.Command(ctx, resume); err != nil {
		return &ReceiveMessageError{Kind: ReceiveProcess, Err: err}
	}
	s.logger.Debug("sent resume", "conn_id", s.connID, "sequence", resume.Sequence)
	return nil
}

func (s *Shard) identify(ctx context.Context, queueErr error) {
	if queueErr != nil {
		s.logger.Warn("waiting for identify queue failed", "conn_id", s.connID, "error", queueErr)
		s.disconnect(disconnectResume, "identify_queue")
		return
	}

	identify := protocol.Identify{
		Token:          s.cfg.Token,
		Properties:     s.cfg.Properties,
		LargeThreshold: s.cfg.LargeThreshold,
		Shard:          s.id.Array(),
		Presence:       s.cfg.Presence,
		Intents:        s.cfg.Intents,
	}
	if err := s.Command(ctx, identify); err != nil {
		s.logger.Warn("sending identify failed", "conn_id", s.connID, "error", err)
		return
	}
	s.logger.Debug("sent identify", "conn_id", s.connID)
}

// beat runs when a heartbeat is due. If the previous one was never acknowledged the
// connection is a zombie and is replaced.
func (s *Shard) beat() {
	if !s.heartbeat.Acked() {
		s.logger.Warn("heartbeat not acknowledged, reconnecting", "conn_id", s.connID, "last_sent", s.heartbeat.LastSent())
		s.disconnect(disconnectResume, "zombie")
		return
	}
	if err := s.sendHeartbeat(); err != nil {
		s.logger.Warn("sending heartbeat failed", "conn_id", s.connID, "error", err)
	}
}

// sendHeartbeat writes a heartbeat past the command gate.
func (s *Shard) sendHeartbeat() error {
	var seq *uint64
	if s.session != nil {
		v := s.session.Sequence()
		seq = &v
	}
	payload, err := protocol.Encode(protocol.Heartbeat{Sequence: seq})
	if err != nil {
		return err
	}
	if err := s.write(payload); err != nil {
		return err
	}

	if s.heartbeat != nil {
		now := time.Now()
		s.heartbeat.Sent(now)
		s.nextBeat = s.heartbeat.Next()
	}
	return nil
}

func (s *Shard) onHeartbeatAck() {
	if s.heartbeat == nil {
		return
	}
	now := time.Now()
	rtt, ok := s.heartbeat.Ack(now)
	if !ok {
		s.logger.Debug("unexpected heartbeat ack", "conn_id", s.connID)
		return
	}

	s.mu.Lock()
	s.latency.Track(rtt, now)
	s.mu.Unlock()
	s.metrics.heartbeatAcked(s.id, rtt)
}

func (s *Shard) passthrough(ctx context.Context, msg outbound) {
	if msg.close != nil {
		if _, err := s.Close(ctx, *msg.close); err != nil {
			s.logger.Warn("sending queued close failed", "conn_id", s.connID, "error", err)
		}
		return
	}

	if !s.gate.Allow() {
		s.pending = &msg
		return
	}
	if err := s.write(msg.payload); err != nil {
		s.logger.Warn("sending queued payload failed", "conn_id", s.connID, "error", err)
	}
}

func (s *Shard) write(payload []byte) error {
	if s.conn == nil {
		return &SendError{Kind: SendSending, Err: fmt.Errorf(shardnet.ErrConnectionClosed)}
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Warn("writing to gateway failed", "conn_id", s.connID, "error", err)
		s.disconnect(disconnectResume, "write_error")
		return &SendError{Kind: SendSending, Err: err}
	}
	s.metrics.sent(s.id)
	return nil
}

// disconnect closes the connection from our side. A resumable disconnect uses a close
// code other than 1000, which the gateway would treat as ending the session.
func (s *Shard) disconnect(kind disconnectKind, reason string) {
	if s.conn != nil {
		code := protocol.CloseUnknownError
		if kind == disconnectFresh {
			code = protocol.CloseNormal
		}
		msg := websocket.FormatCloseMessage(int(code), "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	}
	if kind == disconnectFresh {
		s.setSession(nil)
		s.resumeURL = ""
	}
	s.teardown(reason)
}

// teardown drops the current connection and everything scoped to it.
func (s *Shard) teardown(reason string) {
	if s.connCancel != nil {
		s.connCancel()
	}
	if s.conn != nil {
		s.conn.Close()
		s.metrics.disconnected(s.id, reason)
		s.logger.Debug("connection dropped", "conn_id", s.connID, "reason", reason)
	}

	s.conn = nil
	s.connCancel = nil
	s.frames = nil
	s.identifyCh = nil
	s.heartbeat = nil
	s.setStatus(shardnet.Disconnected)
}

func (s *Shard) setStatus(status shardnet.Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed {
		s.metrics.statusChanged(s.id, status)
	}
}

func (s *Shard) setSession(sess *session.Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}
