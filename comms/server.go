package comms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewSessionID allocates a new random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// StartServer creates a new server loop and start listening to the listener.
//
// Every accepted connection gets a greeting with its session ID, then is
// handed to the SessionHandler. StartServer returns nil once the listener
// is closed.
func StartServer(listener net.Listener, sh SessionHandler) (err error) {
	defer listener.Close()

	log.Info().Str("addr", listener.Addr().String()).Msg("start listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info().Msg("socket closed, quit")
				return nil
			}
			var opErr *net.OpError
			if errors.As(err, &opErr) {
				log.Info().Err(err).Msg("socket closed, quit")
				return nil
			}
			log.Error().Err(err).Msg("socket error")
			return err
		}

		go serveSession(NewSession(NewSessionID(), conn), sh)
	}
}

// serveSession greets the session and passes it to the handler.
func serveSession(sess *Session, sh SessionHandler) {
	l := log.With().Str("session", sess.ID()).Logger()
	if err := sess.WriteMessage(NewGreeting(sess.ID())); err != nil {
		l.Warn().Err(err).Msg("unable to greet session")
		sess.Close()
		return
	}
	l.Debug().Msg("received new session to handle")
	if err := sh.HandleSession(sess); err != nil {
		l.Error().Err(err).Msg("unable to handle session")
		sess.Close()
	}
}

// MessageHandler handles a message and writes any reply to out.
type MessageHandler interface {
	HandleMessage(ctx context.Context, m Message, out MessageWriter) error
}

// MessageHandlerFunc is an adapter to allow the use of ordinary functions
// as MessageHandler.
type MessageHandlerFunc func(ctx context.Context, m Message, out MessageWriter) error

// HandleMessage calls the underlying function.
// Implements MessageHandler interface.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, m Message, out MessageWriter) error {
	return f(ctx, m, out)
}

type ContextMessage struct {
	Context context.Context
	Message Message
}

// SimpleMessageQueue is a simple message queue that can be used to
// collect all messages from a session collection, then send them to
// a message handler.
//
// Messages are collected and sent to the MessageHandler in a linear
// manner, so the handler never sees two messages at once.
type SimpleMessageQueue struct {
	sc SessionCollection
	mq chan ContextMessage

	lock    sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewSimpleMessageQueue creates a new SimpleMessageQueue.
//
// bufferSize specify the size of the buffer for the message queue.
// small buffer will block reading from client. A non-zero positive number
// in buffer will allow client messages to read through before previous
// messages are processed.
func NewSimpleMessageQueue(sc SessionCollection, bufferSize int) *SimpleMessageQueue {
	return &SimpleMessageQueue{
		sc:   sc,
		mq:   make(chan ContextMessage, bufferSize),
		done: make(chan struct{}),
	}
}

// Start starts the message queue and start sending messages to the
// message handler.
//
// Start blocks until the queue is ready to accept new sessions. Do not
// run it in a goroutine in parallel to adding sessions or early messages
// will be lost.
func (smq *SimpleMessageQueue) Start(mh MessageHandler, mw MessageWriter) {
	ctx := WithSessionCollection(context.Background(), smq.sc)

	// Each session added gets a reader goroutine that fans its messages
	// into the queue. It ends when the session reaches EOF or the queue
	// is stopped.
	smq.sc.OnAdd(func(s *Session) {
		sessCtx := WithSessionID(ctx, s.ID())
		l := log.With().Str("session", s.ID()).Logger()
		sessCtx = WithLogger(sessCtx, l)

		l.Debug().Msg("session added to queue")
		go func() {
			for {
				m, err := s.ReadMessage()
				if errors.Is(err, ErrMalformedMessage) {
					l.Warn().Err(err).Msg("skip malformed message")
					continue
				}
				if err == io.EOF {
					l.Debug().Msg("session closed")
					s.Close()
					return
				} else if err != nil {
					l.Warn().Err(err).Msg("unable to read message")
					s.Close()
					return
				}
				if smq.Enqueue(sessCtx, m) == io.EOF {
					return
				}
			}
		}()
	})

	go func() {
		defer close(smq.done)
		for {
			ctx, m, err := smq.Dequeue()
			if err == io.EOF {
				return
			}
			if err := mh.HandleMessage(ctx, m, mw); err != nil {
				GetLogger(ctx).Error().Err(err).Str("type", m.Type()).Msg("unable to handle message")
			}
		}
	}()
}

// Enqueue sends a message to the message queue. Returns io.EOF if the
// queue is stopped.
func (smq *SimpleMessageQueue) Enqueue(ctx context.Context, m Message) (err error) {
	// Sending to a closed channel panics, so the stopped flag is checked
	// under the same lock Stop takes to close it.
	smq.lock.RLock()
	defer smq.lock.RUnlock()
	if smq.stopped {
		return io.EOF
	}

	smq.mq <- ContextMessage{
		Context: ctx,
		Message: m,
	}
	return
}

// Dequeue receives a message from the message queue.
func (smq *SimpleMessageQueue) Dequeue() (ctx context.Context, m Message, err error) {
	cm, ok := <-smq.mq
	if !ok {
		return nil, nil, io.EOF
	}
	return cm.Context, cm.Message, nil
}

// Stop stops the message queue. Messages already queued are still
// handled; Wait blocks until they are.
func (smq *SimpleMessageQueue) Stop() {
	smq.lock.Lock()
	defer smq.lock.Unlock()
	if smq.stopped {
		return
	}
	smq.stopped = true
	close(smq.mq)
}

// Wait blocks until the queue is stopped and drained.
func (smq *SimpleMessageQueue) Wait() {
	<-smq.done
}

// HandleSession adds a session to the message queue.
//
// Implements SessionHandler interface.
func (smq *SimpleMessageQueue) HandleSession(s *Session) error {
	return smq.sc.Add(s)
}

// SimpleMessageBroker helps route / multicast Message to different
// sessions. Implements MessageWriter interface.
type SimpleMessageBroker struct {
	sessions SessionCollection
}

// NewSimpleMessageBroker creates a new SimpleMessageBroker
//
// This is for game server to distribute outgoing messages to
// different sessions.
func NewSimpleMessageBroker(sessions SessionCollection) *SimpleMessageBroker {
	return &SimpleMessageBroker{
		sessions: sessions,
	}
}

// WriteMessage handles the message by writing it to the appropriate session based
// on the message type.
//
// Response and greeting are sent to the specified session id. Events are
// broadcasted to all sessions.
func (r *SimpleMessageBroker) WriteMessage(m Message) error {
	switch m.Type() {
	case TypeResponse, TypeGreeting:
		sess := r.sessions.Get(m.SessionID())
		if sess == nil {
			return fmt.Errorf("session %s not found", m.SessionID())
		}
		return sess.WriteMessage(m)
	case TypeEvent:
		log.Debug().Int("sessions", r.sessions.Len()).Str("type", m.Type()).Msg("broadcast event")
		errs := NewRouterErrorCollection()
		r.sessions.Map(func(sess *Session) {
			if err := sess.WriteMessage(m); err != nil {
				errs.Add(fmt.Errorf("session %s: %w", sess.ID(), err))
			}
		})
		if errs.Len() > 0 {
			return errs
		}
		return nil
	}
	return fmt.Errorf("unsupported message type: %s", m.Type())
}

// RouterErrorCollection is a collection of errors. Implements error interface.
type RouterErrorCollection struct {
	errors []error
	lock   sync.Mutex
}

// NewRouterErrorCollection creates a new RouterErrorCollection
func NewRouterErrorCollection() *RouterErrorCollection {
	return &RouterErrorCollection{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection.
func (rec *RouterErrorCollection) Add(err error) {
	rec.lock.Lock()
	defer rec.lock.Unlock()
	rec.errors = append(rec.errors, err)
}

// Len returns the number of errors in the collection.
func (rec *RouterErrorCollection) Len() int {
	rec.lock.Lock()
	defer rec.lock.Unlock()
	return len(rec.errors)
}

// Errors returns the errors in the collection.
func (rec *RouterErrorCollection) Errors() []error {
	rec.lock.Lock()
	defer rec.lock.Unlock()
	return append([]error(nil), rec.errors...)
}

// Unwrap allows errors.Is and errors.As to look into the collection.
func (rec *RouterErrorCollection) Unwrap() []error {
	return rec.Errors()
}

// Error returns the string representation of the errors in the collection.
// Returns empty string if there are no errors here.
func (rec *RouterErrorCollection) Error() string {
	errs := rec.Errors()
	if len(errs) == 0 {
		return ""
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("router errors: %v", strings.Join(msgs, "\n"))
}

// LogEvent adds the message summary to a zerolog event.
func LogEvent(e *zerolog.Event, m Message) *zerolog.Event {
	e = e.Str("type", m.Type())
	switch m.Type() {
	case TypeRequest:
		if r, ok := m.(Request); ok {
			e = e.Str("request", r.RequestType()).Str("requestID", r.RequestID())
		}
	case TypeEvent:
		if ev, ok := m.(Event); ok {
			e = e.Str("event", ev.EventType())
		}
	}
	return e
}
