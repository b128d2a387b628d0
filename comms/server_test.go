package comms_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/yookoala/battleship/comms"
)

func TestSimpleMessageQueue(t *testing.T) {
	sc := comms.NewSessionCollection()
	smq := comms.NewSimpleMessageQueue(sc, 0)

	s1, c1 := NewDummySessions("session-1", 0)
	defer s1.Close()
	s2, c2 := NewDummySessions("session-2", 0)
	defer s2.Close()

	// Add session after the queue is started
	mh := newDummyMessageHandler(2)
	smq.Start(mh, nil) // dummy message handle won't be using the message writer.
	defer smq.Stop()
	sc.Add(s1)
	sc.Add(s2)

	err := c1.WriteMessage(comms.NewSimpleMessage("session-1", "test:client-to-server:1"))
	if err != nil {
		t.Fatalf("unexpected error writing message: %s", err)
	}
	err = c2.WriteMessage(comms.NewSimpleMessage("session-2", "test:client-to-server:2"))
	if err != nil {
		t.Fatalf("unexpected error writing message: %s", err)
	}

	mh.Wait()

	if want, have := 2, len(mh.messages); want != have {
		t.Fatalf("unexpected number of messages. want %d, have %d", want, have)
	}
	types := []string{mh.messages[0].Type(), mh.messages[1].Type()}
	sort.Strings(types)
	if want, have := "test:client-to-server:1", types[0]; want != have {
		t.Errorf("unexpected message type. want %#v, have %#v", want, have)
	}
	if want, have := "test:client-to-server:2", types[1]; want != have {
		t.Errorf("unexpected message type. want %#v, have %#v", want, have)
	}
}

func TestSimpleMessageQueue_ContextCarriesSession(t *testing.T) {
	sc := comms.NewSessionCollection()
	smq := comms.NewSimpleMessageQueue(sc, 1)

	s1, c1 := NewDummySessions("session-1", 1)
	defer s1.Close()

	got := make(chan string, 1)
	smq.Start(comms.MessageHandlerFunc(func(ctx context.Context, m comms.Message, out comms.MessageWriter) error {
		if comms.GetSessionCollection(ctx) != sc {
			t.Errorf("expected session collection in context")
		}
		got <- comms.GetSessionID(ctx)
		return nil
	}), nil)
	sc.Add(s1)

	c1.WriteMessage(comms.NewRequest("r1", "state", nil))
	select {
	case id := <-got:
		if want, have := "session-1", id; want != have {
			t.Errorf("want %#v, have %#v", want, have)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for message")
	}

	smq.Stop()
	smq.Wait()
	if err := smq.Enqueue(context.Background(), comms.NewRequest("r2", "state", nil)); err == nil {
		t.Errorf("expected error enqueueing to a stopped queue")
	}
}

func TestSimpleMessageBroker(t *testing.T) {
	sc := comms.NewSessionCollection()

	s1, c1 := NewDummySessions("session-1", 1024)
	s2, c2 := NewDummySessions("session-2", 1024)
	defer s1.Close()
	defer s2.Close()

	sc.Add(s1)
	sc.Add(s2)

	r := comms.NewSimpleMessageBroker(sc)

	// Responses go to one session.
	err := r.WriteMessage(comms.NewResponse("session-1", "r1", "state", 200, "ok", nil))
	if err != nil {
		t.Fatalf("unexpected error writing message: %s", err)
	}
	m, err := c1.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error reading message: %s", err)
	}
	if want, have := "session-1", m.SessionID(); want != have {
		t.Errorf("message session ID is not correct. want %#v, have %#v", want, have)
	}
	if want, have := comms.TypeResponse, m.Type(); want != have {
		t.Errorf("message type is not correct. want %#v, have %#v", want, have)
	}

	// Events go to everyone.
	err = r.WriteMessage(comms.NewEvent("match:update", map[string]int{"turn": 1}))
	if err != nil {
		t.Fatalf("unexpected error writing message: %s", err)
	}
	for _, c := range []*comms.Session{c1, c2} {
		m, err = c.ReadMessage()
		if err != nil {
			t.Fatalf("unexpected error reading message: %s", err)
		}
		if want, have := comms.TypeEvent, m.Type(); want != have {
			t.Errorf("message type is not correct. want %#v, have %#v", want, have)
		}
		var data map[string]int
		if err := m.ReadDataTo(&data); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if want, have := 1, data["turn"]; want != have {
			t.Errorf("want %#v, have %#v", want, have)
		}
	}

	if err := r.WriteMessage(comms.NewResponse("session-x", "r1", "state", 200, "ok", nil)); err == nil {
		t.Errorf("expected error writing to an unknown session")
	}
	if err := r.WriteMessage(comms.NewRequest("r2", "state", nil)); err == nil {
		t.Errorf("expected error for unsupported message type")
	}
}

func TestRouterErrorCollection(t *testing.T) {
	errs := comms.NewRouterErrorCollection()
	if want, have := "", errs.Error(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}

	sentinel := errors.New("boom")
	errs.Add(sentinel)
	errs.Add(errors.New("bang"))
	if want, have := 2, errs.Len(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if want, have := "router errors: boom\nbang", errs.Error(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if !errors.Is(errs, sentinel) {
		t.Errorf("expected errors.Is to find the wrapped error")
	}
}

func TestStartServer(t *testing.T) {
	socketName := filepath.Join(t.TempDir(), "server_test.sock")
	l, err := net.Listen("unix", socketName)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	sc := comms.NewSessionCollection()
	smq := comms.NewSimpleMessageQueue(sc, 8)
	broker := comms.NewSimpleMessageBroker(sc)
	smq.Start(comms.MessageHandlerFunc(func(ctx context.Context, m comms.Message, out comms.MessageWriter) error {
		req := m.(comms.Request)
		return out.WriteMessage(comms.NewResponse(comms.GetSessionID(ctx), req.RequestID(), req.RequestType(), 200, "pong", nil))
	}), broker)
	defer smq.Stop()

	served := make(chan error, 1)
	go func() { served <- comms.StartServer(l, smq) }()

	conn, err := net.Dial("unix", socketName)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer conn.Close()

	sess, greeting, err := comms.NewSessionFromConn(conn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if greeting.SessionID() == "" {
		t.Fatalf("expected a session ID in the greeting")
	}

	if err := sess.WriteMessage(comms.NewRequest("r1", "ping", nil)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	m, err := sess.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	resp, ok := m.(comms.Response)
	if !ok {
		t.Fatalf("expected a response, got %T", m)
	}
	if want, have := "pong", resp.Response(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if want, have := "r1", resp.RequestID(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if want, have := sess.ID(), resp.SessionID(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}

	l.Close()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("unexpected error from server: %s", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not stop after the listener closed")
	}
}
