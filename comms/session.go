package comms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxMessageSize caps a single line read from a session.
const maxMessageSize = 1 << 20

// MessageReader reads a message from an io.Reader
type MessageReader interface {
	ReadMessage() (Message, error)
}

// messageReader is the default implementation of MessageReader.
// Messages are line delimited JSON.
type messageReader struct {
	s *bufio.Scanner
}

// NewMessageReader creates a new MessageReader
func NewMessageReader(r io.Reader) MessageReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxMessageSize)
	return &messageReader{s: s}
}

// ReadMessage reads a message from the reader. Blank lines are skipped.
func (mr *messageReader) ReadMessage() (Message, error) {
	for mr.s.Scan() {
		b := bytes.TrimSpace(mr.s.Bytes())
		if len(b) == 0 {
			continue
		}
		return NewMessageFromJSON(b)
	}
	if err := mr.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// MessageWriter writes a message to an io.Writer
type MessageWriter interface {
	WriteMessage(Message) error
}

// messageWriter is the default implementation of MessageWriter
type messageWriter struct {
	encoder *json.Encoder
	lock    sync.Mutex
}

// NewMessageWriter creates a new MessageWriter. It is safe for
// concurrent use.
func NewMessageWriter(w io.Writer) MessageWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &messageWriter{encoder: enc}
}

// WriteMessage writes a message to the writer
func (mw *messageWriter) WriteMessage(m Message) error {
	mw.lock.Lock()
	defer mw.lock.Unlock()
	return mw.encoder.Encode(m)
}

// MessageWriterFunc is an adapter to allow the use of ordinary functions
// as MessageWriter.
type MessageWriterFunc func(Message) error

// WriteMessage calls f(m)
func (f MessageWriterFunc) WriteMessage(m Message) error {
	return f(m)
}

// Session represents a connection session
type Session struct {
	id   string
	conn io.ReadWriteCloser

	mr MessageReader
	mw MessageWriter

	lock    sync.Mutex
	onClose func(*Session)
}

// NewSession creates a new Session
func NewSession(id string, conn io.ReadWriteCloser) *Session {
	s := &Session{id: id, conn: conn}
	if conn != nil {
		s.mr = NewMessageReader(conn)
		s.mw = NewMessageWriter(conn)
	}
	return s
}

// NewSessionFromConn creates a new Session from a newly
// dailed connection and obtains the session ID from the
// greeting message.
func NewSessionFromConn(conn io.ReadWriteCloser) (sess *Session, greeting Message, err error) {
	sess = NewSession("", conn)
	greeting, err = sess.ReadMessage()
	if err != nil {
		return nil, nil, err
	}
	if greeting.Type() != TypeGreeting || greeting.SessionID() == "" {
		return nil, greeting, fmt.Errorf("expected greeting with session ID, got: %s", greeting.Type())
	}
	sess.id = greeting.SessionID()
	return
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// ReadMessage reads a message from the session
func (s *Session) ReadMessage() (Message, error) {
	if s.mr == nil {
		return nil, io.EOF
	}
	return s.mr.ReadMessage()
}

// WriteMessage writes a message to the session
func (s *Session) WriteMessage(m Message) error {
	if s.mw == nil {
		return io.ErrClosedPipe
	}
	return s.mw.WriteMessage(m)
}

// OnClose sets a callback function to be called when the session is closed.
func (s *Session) OnClose(f func(*Session)) *Session {
	s.lock.Lock()
	s.onClose = f
	s.lock.Unlock()
	return s
}

// Close closes the session. Calling Close more than once is a no-op.
func (s *Session) Close() (err error) {
	s.lock.Lock()
	conn, onClose := s.conn, s.onClose
	s.conn, s.onClose = nil, nil
	s.lock.Unlock()

	if conn != nil {
		err = conn.Close()
	}
	if onClose != nil {
		onClose(s)
	}
	return
}

// SessionHandler handles a session.
type SessionHandler interface {
	HandleSession(s *Session) error
}

// SessionHandlerFunc is an adapter to allow the use of ordinary functions as SessionHandlers.
type SessionHandlerFunc func(s *Session) error

// HandleSession calls f(s)
func (f SessionHandlerFunc) HandleSession(s *Session) error {
	return f(s)
}

// SessionCollection is an abstraction of a collection of sessions.
type SessionCollection interface {
	// Has checks if a session exists in the collection.
	Has(id string) bool

	// Add adds a session to the collection.
	Add(s *Session) error

	// OnAdd registers a callback function to be called when a session is added.
	OnAdd(f func(*Session))

	// Remove removes a session from the collection.
	Remove(id string)

	// OnRemove registers a callback function to be called when a session is removed.
	OnRemove(f func(*Session))

	// Len returns the size of the collection.
	Len() int

	// Get returns a session from the collection.
	Get(id string) *Session

	// Map maps a callback to all sessions in the collection.
	Map(func(*Session))
}

// sessionCollection is the default implementation of SessionCollection
type sessionCollection struct {
	sessions map[string]*Session
	lock     sync.RWMutex

	onAdd    []func(*Session)
	onRemove []func(*Session)

	callbackLock sync.RWMutex
}

// NewSessionCollection creates a new session collection.
func NewSessionCollection() SessionCollection {
	return &sessionCollection{
		sessions: make(map[string]*Session),
	}
}

// Has checks if a session exists in the collection.
func (sc *sessionCollection) Has(id string) bool {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	_, ok := sc.sessions[id]
	return ok
}

// Add adds a session to the collection.
func (sc *sessionCollection) Add(s *Session) error {
	sc.lock.Lock()
	if _, ok := sc.sessions[s.ID()]; ok {
		sc.lock.Unlock()
		return fmt.Errorf("session %s already exists", s.ID())
	}
	s.OnClose(sc.onSessionClose)
	sc.sessions[s.ID()] = s
	sc.lock.Unlock()

	sc.callbackLock.RLock()
	defer sc.callbackLock.RUnlock()
	for _, f := range sc.onAdd {
		f(s)
	}
	return nil
}

func (sc *sessionCollection) onSessionClose(s *Session) {
	sc.Remove(s.ID())
	sc.callbackLock.RLock()
	defer sc.callbackLock.RUnlock()
	for _, f := range sc.onRemove {
		f(s)
	}
}

// OnAdd registers a callback function to be called when a session is added.
//
// Previously added sessions does not trigger the callback registered afterwards.
func (sc *sessionCollection) OnAdd(f func(*Session)) {
	sc.callbackLock.Lock()
	sc.onAdd = append(sc.onAdd, f)
	sc.callbackLock.Unlock()
}

// OnRemove registers a callback function to be called when a session is
// closed and removed from the collection.
func (sc *sessionCollection) OnRemove(f func(*Session)) {
	sc.callbackLock.Lock()
	sc.onRemove = append(sc.onRemove, f)
	sc.callbackLock.Unlock()
}

// Len returns the size of the collection.
func (sc *sessionCollection) Len() int {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	return len(sc.sessions)
}

// Remove removes a session from the collection.
func (sc *sessionCollection) Remove(id string) {
	sc.lock.Lock()
	defer sc.lock.Unlock()
	delete(sc.sessions, id)
}

// Get returns a session from the collection.
func (sc *sessionCollection) Get(id string) *Session {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	return sc.sessions[id]
}

// Map maps a callback to all sessions in the collection.
//
// Each session is handled in its own goroutine. Map blocks until
// all of them are done.
func (sc *sessionCollection) Map(f func(*Session)) {
	sc.lock.RLock()
	sessions := make([]*Session, 0, len(sc.sessions))
	for _, s := range sc.sessions {
		sessions = append(sessions, s)
	}
	sc.lock.RUnlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			f(s)
		}(s)
	}
	wg.Wait()
}
