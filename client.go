package fortress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"

	"github.com/cenkalti/backoff/v4"
)

// checkpointEvery is how many heartbeats go by between alive checkpoints.
const checkpointEvery = 900

// Client keeps an authenticated session with the panel, decodes its status
// pushes and reconnects on any failure until stopped.
type Client struct {
	cfg  Config
	addr string
	log  Logger

	mu       sync.Mutex
	notifyMu sync.Mutex
	pending  []func()

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	state   State
	epoch   uint64

	conn       *Conn
	healthy    bool
	status     ArmStatus
	alarm      Alarm
	heartbeats int

	heartbeat *Deadline
	liveness  *Deadline
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:    cfg,
		addr:   net.JoinHostPort(cfg.Host, cfg.Port),
		log:    cfg.Logger,
		state:  StateDisconnected,
		status: ArmStatusUnknown,
	}
	c.heartbeat = NewDeadline(clientLocker{c})
	c.liveness = NewDeadline(clientLocker{c})
	return c
}

// Start begins connecting in the background.
func (c *Client) Start() error {
	c.lock()
	defer c.unlock()
	if c.started && c.state != StateStopped {
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.beginConnect()
	return nil
}

// Stop tears the session down for good. A stopped client may be started
// again.
func (c *Client) Stop() error {
	c.lock()
	defer c.unlock()
	if c.state == StateStopped {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.fail(ErrInterrupted)
	return nil
}

// SendCommand sends cmd to the panel without waiting for any reply.
// The new arm status shows up in a later status push.
func (c *Client) SendCommand(cmd Command) error {
	c.lock()
	defer c.unlock()
	if !c.state.connected() {
		return fmt.Errorf("could not send %s: %w", cmd, ErrNotConnected)
	}
	c.log.Info("command", "cmd", cmd)
	if err := c.conn.Send(makeCommand(cmd)); err != nil {
		err = fmt.Errorf("could not send %s: %w", cmd, err)
		c.fail(err)
		return err
	}
	return nil
}

func (c *Client) Status() ArmStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) Alarm() Alarm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alarm
}

func (c *Client) IsAlarming() bool {
	return c.Alarm().Alarming
}

// IsAllGood reports whether the session is up and within its liveness window.
func (c *Client) IsAllGood() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// beginConnect must be called with the lock held.
func (c *Client) beginConnect() {
	if err := c.transition(StateConnecting); err != nil {
		c.log.Debug("not connecting", "err", err)
		return
	}
	go c.connect(c.ctx, c.epoch)
}

func (c *Client) connect(ctx context.Context, epoch uint64) {
	c.log.Info("connecting", "addr", c.addr)
	conn, err := Dial(ctx, c.addr, c.cfg.Timeout)

	c.lock()
	defer c.unlock()
	if c.epoch != epoch {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.fail(err)
		return
	}

	c.conn = conn
	for _, frame := range [][]byte{handshakeFrame, bindFrame} {
		if err := conn.Send(frame); err != nil {
			c.fail(fmt.Errorf("could not bind: %w", err))
			return
		}
	}
	if err := c.transition(StateBound); err != nil {
		c.fail(err)
		return
	}
	c.log.Info("connected", "addr", c.addr)
	c.setHealth(true)
	c.rearmLiveness()
	c.armHeartbeat()
	go c.receiveLoop(epoch, conn)
}

func (c *Client) receiveLoop(epoch uint64, conn *Conn) {
	for {
		buf, err := conn.Receive(c.cfg.LivenessTimeout)
		if !c.handleReceive(epoch, buf, err) {
			return
		}
	}
}

func (c *Client) handleReceive(epoch uint64, buf []byte, err error) bool {
	c.lock()
	defer c.unlock()
	if c.epoch != epoch {
		return false
	}
	switch {
	case errors.Is(err, io.EOF):
		c.fail(fmt.Errorf("%w: connection closed by the panel", ErrProtocolViolation))
		return false
	case err != nil:
		c.fail(fmt.Errorf("could not receive: %w", err))
		return false
	case buf == nil:
		c.log.Debug("nothing received", "timeout", c.cfg.LivenessTimeout)
		return true
	}
	if err := c.process(buf); err != nil {
		c.fail(err)
		return false
	}
	return true
}

func (c *Client) process(buf []byte) error {
	kind, err := parseFrame(buf)
	if err != nil {
		return err
	}
	if c.state == StateBound {
		if err := c.transition(StateActive); err != nil {
			return err
		}
	}
	if hasHeartbeatAck(buf) {
		c.log.Debug("heartbeat ack")
		c.rearmLiveness()
	}

	switch kind {
	case frameBindAck:
		c.log.Info("connection is bound")
	case frameStatus:
		status, err := statusFromBytes(buf)
		if err != nil {
			return err
		}
		c.applyStatus(status)
	}
	return nil
}

func (c *Client) applyStatus(status Status) {
	if status.ArmStatus != c.status {
		c.setArmStatus(status.ArmStatus)
	}
	if status.Alarming == c.alarm.Alarming {
		return
	}
	// a status push saying we are no longer alarming is only trusted once
	// the panel is disarmed.
	if c.alarm.Alarming && status.ArmStatus != ArmStatusDisarmed {
		c.log.Debug("ignoring alarm clear", "status", status.ArmStatus, "zone", c.alarm.Zone)
		return
	}
	c.setAlarm(status.Alarming, status.Zone)
}

func (c *Client) setArmStatus(status ArmStatus) {
	c.status = status
	c.log.Info("arm status", "status", status)
	c.notify(func() { c.cfg.OnStatusChange(status) })
}

func (c *Client) setAlarm(alarming bool, zone int) {
	if c.alarm.Alarming == alarming {
		return
	}
	c.alarm = Alarm{Alarming: alarming, Zone: zone}
	if alarming {
		c.log.Info("alarm", "zone", zone)
	} else {
		c.log.Debug("not alarming")
	}
	c.notify(func() { c.cfg.OnAlarmChange(alarming, zone) })
}

func (c *Client) setHealth(healthy bool) {
	if c.healthy == healthy {
		return
	}
	c.healthy = healthy
	c.log.Debug("health", "healthy", healthy)
	c.notify(func() { c.cfg.OnHealthChange(healthy) })
}

func (c *Client) armHeartbeat() {
	c.heartbeat.Arm(c.cfg.HeartbeatInterval, c.beat)
}

func (c *Client) beat() {
	if c.heartbeats%checkpointEvery == 0 {
		c.log.Info("alive checkpoint", "heartbeats", c.heartbeats, "goroutines", runtime.NumGoroutine())
	}
	c.heartbeats++
	if err := c.conn.Send(heartbeatFrame); err != nil {
		c.fail(fmt.Errorf("could not send heartbeat: %w", err))
		return
	}
	c.log.Debug("heartbeat", "count", c.heartbeats)
	c.armHeartbeat()
}

func (c *Client) rearmLiveness() {
	c.liveness.Arm(c.cfg.LivenessTimeout, func() {
		c.fail(ErrLivenessTimeout)
	})
}

// fail tears the session down and, unless the host asked to stop, schedules
// the next connection attempt on the liveness timer.
func (c *Client) fail(err error) {
	if terr := c.transition(StateTearingDown); terr != nil {
		c.log.Debug("ignoring failure", "err", err, "state", c.state)
		return
	}
	c.log.Info("connection failed", "err", err)
	c.teardown()

	if errors.Is(err, ErrInterrupted) {
		_ = c.transition(StateStopped)
		return
	}
	_ = c.transition(StateDisconnected)
	delay := c.retryBackOff(err).NextBackOff()
	c.log.Info("reconnecting", "in", delay)
	c.liveness.Arm(delay, c.beginConnect)
}

// retryBackOff picks the fixed delay before the next attempt.
func (c *Client) retryBackOff(err error) backoff.BackOff {
	if errors.Is(err, ErrLivenessTimeout) {
		return backoff.NewConstantBackOff(c.cfg.LivenessTimeout)
	}
	return backoff.NewConstantBackOff(c.cfg.RetryAfterError)
}

// teardown is safe to call more than once.
func (c *Client) teardown() {
	c.log.Debug("closing everything")
	c.setHealth(false)
	c.heartbeats = 0
	c.status = ArmStatusUnknown
	c.setAlarm(false, NoZone)
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Debug("close", "err", err)
		}
		c.conn = nil
	}
	c.heartbeat.Cancel()
	c.liveness.Cancel()
	c.epoch++
}

func (c *Client) transition(to State) error {
	if err := checkTransition(c.state, to); err != nil {
		return err
	}
	c.log.Debug("state", "from", c.state, "to", to)
	c.state = to
	return nil
}

func (c *Client) notify(fn func()) {
	c.pending = append(c.pending, fn)
}

func (c *Client) lock() {
	c.mu.Lock()
}

// unlock releases the state lock and then runs the callbacks queued while
// it was held.
func (c *Client) unlock() {
	c.mu.Unlock()
	c.dispatch()
}

// dispatch runs queued callbacks in the order they were queued. Only one
// goroutine dispatches at a time; the others leave their callbacks to it.
func (c *Client) dispatch() {
	for {
		if !c.notifyMu.TryLock() {
			return
		}
		for fn := c.next(); fn != nil; fn = c.next() {
			fn()
		}
		c.notifyMu.Unlock()

		c.mu.Lock()
		empty := len(c.pending) == 0
		c.mu.Unlock()
		if empty {
			return
		}
	}
}

func (c *Client) next() func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	fn := c.pending[0]
	c.pending = c.pending[1:]
	return fn
}

type clientLocker struct {
	c *Client
}

func (l clientLocker) Lock()   { l.c.lock() }
func (l clientLocker) Unlock() { l.c.unlock() }
