// Package session owns the single live packet-feed subscription: device
// selection, teardown-before-open ordering, reconnects, and the aggregate
// bound to the current generation.
//
// A Controller is not safe for concurrent use. Every method, including
// Handle, must be called from the one event loop that also renders its
// snapshots; feed I/O happens inside the tea.Cmds it returns.
package session

import (
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vlanwatch/vlanwatch/internal/aggregate"
	"github.com/vlanwatch/vlanwatch/internal/client"
	"github.com/vlanwatch/vlanwatch/internal/ingest"
)

// Feed is one subscription as driven by the controller. Each method returns
// a command whose message is tagged with the feed's generation.
type Feed interface {
	Connect() tea.Cmd // FeedOpenedMsg or FeedErrorMsg
	Read() tea.Cmd    // FeedFrameMsg or FeedErrorMsg
	Close() tea.Cmd   // FeedClosedMsg
}

// DialerFunc prepares a feed for deviceID under generation without
// performing any I/O.
type DialerFunc func(deviceID string, generation uint64) Feed

// Options tune the reconnect policy and raw event retention.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	LogCapacity int
}

// stream is the controller's record of the current subscription.
type stream struct {
	deviceID    string
	generation  uint64
	state       State
	feed        Feed
	retry       backoff.BackOff
	attempt     int
	lastDelay   time.Duration
	unreachable bool
}

// Controller keeps at most one live stream and the aggregate of its
// generation.
type Controller struct {
	dial DialerFunc
	opts Options

	store  *aggregate.Store
	events *aggregate.EventLog

	nextGen   uint64
	cur       *stream
	target    *string // selection waiting for the current stream to close
	malformed uint64
	notice    string

	subs    map[int]func(Transition)
	nextSub int
}

// NewController creates an idle controller that opens feeds through dial.
func NewController(dial DialerFunc, opts Options) *Controller {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	return &Controller{
		dial:   dial,
		opts:   opts,
		store:  aggregate.NewStore(),
		events: aggregate.NewEventLog(opts.LogCapacity),
		subs:   make(map[int]func(Transition)),
	}
}

// Select makes deviceID the active device. A live stream for another device
// is closed first; the new stream opens only after that close is confirmed.
// Counts shown until then are empty. Selecting the device that is already
// live is a no-op.
func (c *Controller) Select(deviceID string) tea.Cmd {
	if deviceID == "" {
		return c.Deselect()
	}
	if s := c.cur; s != nil && s.deviceID == deviceID && s.state.Live() && c.target == nil {
		return nil
	}
	id := deviceID
	c.target = &id
	return c.retireCurrent()
}

// Deselect closes any stream and leaves the controller with an empty
// aggregate and no active device.
func (c *Controller) Deselect() tea.Cmd {
	c.target = nil
	return c.retireCurrent()
}

// Shutdown closes the current stream without selecting another.
func (c *Controller) Shutdown() tea.Cmd {
	return c.Deselect()
}

// retireCurrent drops the current generation from the aggregate and starts
// closing its stream. With nothing left to close it opens the target.
func (c *Controller) retireCurrent() tea.Cmd {
	c.store.Retire()
	c.events.Reset()
	c.malformed = 0
	c.notice = ""

	s := c.cur
	switch {
	case s == nil || s.state == Closed || s.state == Idle:
		return c.openTarget()
	case s.state == Closing:
		// The in-flight close will open the target.
		return nil
	default:
		c.setState(s, Closing, nil)
		return s.feed.Close()
	}
}

// openTarget starts a stream for the pending selection under a fresh
// generation. The aggregate is reset before the connect command exists, so
// no event of the new generation can precede it.
func (c *Controller) openTarget() tea.Cmd {
	if c.target == nil {
		return nil
	}
	deviceID := *c.target
	c.target = nil

	c.nextGen++
	gen := c.nextGen
	c.store.Reset(gen)
	c.events.Reset()
	c.malformed = 0

	prev := Idle
	if c.cur != nil {
		prev = c.cur.state
	}
	s := &stream{
		deviceID:   deviceID,
		generation: gen,
		state:      prev,
		feed:       c.dial(deviceID, gen),
		retry:      newRetryPolicy(c.opts.MaxAttempts, c.opts.BaseDelay, c.opts.MaxDelay),
	}
	c.cur = s
	c.setState(s, Connecting, nil)
	return s.feed.Connect()
}

// Handle applies one feed or timer message and returns the follow-up
// command. Messages from superseded generations are dropped.
func (c *Controller) Handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case client.FeedOpenedMsg:
		return c.handleOpened(msg)
	case client.FeedFrameMsg:
		return c.handleFrame(msg)
	case client.FeedErrorMsg:
		return c.handleError(msg)
	case client.FeedClosedMsg:
		return c.handleClosed(msg)
	case reconnectMsg:
		return c.handleReconnect(msg)
	}
	return nil
}

// current returns the stream for gen, or nil when gen has been superseded.
func (c *Controller) current(gen uint64) *stream {
	if c.cur == nil || c.cur.generation != gen {
		return nil
	}
	return c.cur
}

func (c *Controller) handleOpened(msg client.FeedOpenedMsg) tea.Cmd {
	s := c.current(msg.Generation)
	if s == nil || s.state != Connecting {
		return nil
	}
	s.retry.Reset()
	s.attempt = 0
	s.unreachable = false
	c.notice = ""
	c.setState(s, Open, nil)
	return s.feed.Read()
}

func (c *Controller) handleFrame(msg client.FeedFrameMsg) tea.Cmd {
	s := c.current(msg.Generation)
	if s == nil || s.state != Open {
		// Stale frame; not reissuing Read lets that reader wind down.
		return nil
	}

	ev, err := ingest.Decode(msg.Data)
	if err != nil {
		c.malformed++
		log.Printf("ingest: %s gen %d: %v", s.deviceID, s.generation, err)
		return s.feed.Read()
	}
	if c.store.Apply(ev, msg.Generation) {
		c.events.Push(ev)
	}
	return s.feed.Read()
}

func (c *Controller) handleError(msg client.FeedErrorMsg) tea.Cmd {
	s := c.current(msg.Generation)
	if s == nil || !s.state.Live() {
		return nil
	}
	c.setState(s, Error, msg.Err)

	delay := s.retry.NextBackOff()
	if delay == backoff.Stop {
		// The session is over; its aggregate goes with it.
		c.store.Retire()
		c.events.Reset()
		c.malformed = 0
		s.unreachable = true
		c.notice = fmt.Sprintf("device %s unreachable after %d attempts", s.deviceID, s.attempt)
		log.Printf("session: %s", c.notice)
		c.setState(s, Closed, msg.Err)
		return s.feed.Close()
	}

	s.attempt++
	s.lastDelay = delay
	c.notice = fmt.Sprintf("connection lost, retry %d/%d in %v", s.attempt, c.opts.MaxAttempts, delay)
	log.Printf("session: %s gen %d: %v (retry %d in %v)", s.deviceID, s.generation, msg.Err, s.attempt, delay)
	c.publish(Transition{
		DeviceID:   s.deviceID,
		Generation: s.generation,
		From:       Error,
		To:         Error,
		Attempt:    s.attempt,
		Err:        msg.Err,
		Notice:     c.notice,
	})
	return scheduleReconnect(delay, s.generation, s.attempt)
}

// handleReconnect redials under the same generation; any Select in the
// meantime has moved the controller to a new generation or out of Error.
func (c *Controller) handleReconnect(msg reconnectMsg) tea.Cmd {
	s := c.current(msg.generation)
	if s == nil || s.state != Error || msg.attempt != s.attempt {
		return nil
	}
	s.feed = c.dial(s.deviceID, s.generation)
	c.setState(s, Connecting, nil)
	return s.feed.Connect()
}

func (c *Controller) handleClosed(msg client.FeedClosedMsg) tea.Cmd {
	s := c.current(msg.Generation)
	if s == nil || s.state != Closing {
		return nil
	}
	c.setState(s, Closed, nil)
	return c.openTarget()
}

// Subscribe registers fn for every Transition and returns a function that
// removes it.
func (c *Controller) Subscribe(fn func(Transition)) func() {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

func (c *Controller) setState(s *stream, to State, err error) {
	from := s.state
	s.state = to
	if from == to {
		return
	}
	c.publish(Transition{
		DeviceID:   s.deviceID,
		Generation: s.generation,
		From:       from,
		To:         to,
		Attempt:    s.attempt,
		Err:        err,
		Notice:     c.notice,
	})
}

func (c *Controller) publish(t Transition) {
	for _, fn := range c.subs {
		fn(t)
	}
}

// Status returns a value copy of everything a renderer needs.
func (c *Controller) Status() Status {
	st := Status{
		State:     Idle,
		Notice:    c.notice,
		Malformed: c.malformed,
		Snapshot:  c.store.Snapshot(),
		Totals:    c.store.Totals(),
		Logged:    c.events.Len(),
		Evicted:   c.events.Evicted(),
	}
	if s := c.cur; s != nil {
		st.DeviceID = s.deviceID
		st.Generation = s.generation
		st.State = s.state
		st.Attempt = s.attempt
		st.Unreachable = s.unreachable
	}
	if c.target != nil {
		st.DeviceID = *c.target
	}
	return st
}

// Snapshot returns the current aggregate rows.
func (c *Controller) Snapshot() []aggregate.Entry {
	return c.store.Snapshot()
}

// RecentEvents returns up to n of the newest accepted events, oldest first.
func (c *Controller) RecentEvents(n int) []aggregate.LoggedEvent {
	return c.events.Tail(n)
}
