package comms_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yookoala/battleship/comms"
)

func TestNewGreeting(t *testing.T) {
	m := comms.NewGreeting("123")

	if want, have := "123", m.SessionID(); want != have {
		t.Errorf("session ID is not correct. want %#v, have %#v", want, have)
	}
	if want, have := "greeting", m.Type(); want != have {
		t.Errorf("type is not correct. want %#v, have %#v", want, have)
	}
}

func TestNewRequest_RoundTrip(t *testing.T) {
	type coord struct {
		Board int `json:"board"`
		Row   int `json:"row"`
		Col   int `json:"col"`
	}
	req := comms.NewRequest("req-1", "fire", coord{Board: 2, Row: 3, Col: 4})

	b, err := req.(interface{ MarshalJSON() ([]byte, error) }).MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, s := range []string{`"type":"request"`, `"requestID":"req-1"`, `"requestType":"fire"`} {
		if !strings.Contains(string(b), s) {
			t.Errorf("expected %s in %s", s, b)
		}
	}

	m, err := comms.NewMessageFromJSON(b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	parsed, ok := m.(comms.Request)
	if !ok {
		t.Fatalf("expected message to implement Request")
	}
	if want, have := "fire", parsed.RequestType(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}

	var c coord
	if err := parsed.ReadDataTo(&c); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if want, have := (coord{2, 3, 4}), c; want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
}

func TestNewErrorResponse(t *testing.T) {
	m := comms.NewErrorResponse("s1", "r1", "fire", 409, "rejected", "already attacked")

	if want, have := 409, m.Code(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if want, have := "already attacked", m.ErrorString(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if err := m.ReadDataTo(&struct{}{}); err == nil {
		t.Errorf("expected error reading data from a message without data")
	}
}

func TestMessage_WriteDataFrom(t *testing.T) {
	m := comms.MustMessage(comms.NewMessageFromJSONString(`{"type":"event","event":"match:update","data":{"a":1}}`))

	if err := m.WriteDataFrom(map[string]int{"a": 2}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var v map[string]int
	if err := m.Unmarshal(&struct {
		Data *map[string]int `json:"data"`
	}{&v}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if want, have := 2, v["a"]; want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
	if want, have := "match:update", m.(comms.Event).EventType(); want != have {
		t.Errorf("want %#v, have %#v", want, have)
	}
}

func TestNewMessageFromJSON_Malformed(t *testing.T) {
	_, err := comms.NewMessageFromJSONString(`{"type":`)
	if !errors.Is(err, comms.ErrMalformedMessage) {
		t.Errorf("expected ErrMalformedMessage, got %v", err)
	}
}
