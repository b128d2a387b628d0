package comms

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedMessage is returned when a line read is not a valid message.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrNoData is returned by ReadDataTo on a message without data.
	ErrNoData = errors.New("message has no data")
)

// Message types.
const (
	TypeGreeting = "greeting"
	TypeSignal   = "signal"
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Message abstraction
type Message interface {
	// SessionID returns the session ID of the message
	SessionID() string

	// Type returns the type of the message
	Type() string

	// Unmarshal raw into any type
	Unmarshal(v any) error

	// ReadDataTo read from the data field and write to the given type
	ReadDataTo(v any) error

	// WriteDataFrom read from the given type and write to the data field
	WriteDataFrom(v any) error
}

// Signal abstraction.
//
// For spontaneous messages that do not require a server-client
// communication (request or an event). Used for process initiation and etc.
type Signal interface {
	Message

	// Signal returns the signal type of the message
	Signal() string
}

// Request abstraction
type Request interface {
	Message

	// RequestID returns the request id of the message
	RequestID() string

	// RequestType returns the request field of the message
	RequestType() string
}

// Response abstraction
type Response interface {
	Message

	// RequestID returns the request id of the message
	RequestID() string

	// RequestType returns the type of the request answered
	RequestType() string

	// Response returns the response field of the message
	Response() string

	// Code returns the code field of the message
	Code() int

	// ErrorString returns the error string of the message, if any
	ErrorString() string
}

// Event abstraction. Events are broadcasted to every session.
type Event interface {
	Message

	// EventType returns the event field of the message
	EventType() string
}

type message struct {
	sessionID   string
	signal      string
	messageType string
	requestID   string
	requestType string
	response    string
	event       string
	code        int
	data        json.RawMessage
	errorString string
	raw         []byte
}

// jsonMessage is the JSON representation of the message struct
// for read-write to and from JSON
type jsonMessage struct {
	SessionID   string          `json:"sessionID,omitempty"`
	Type        string          `json:"type,omitempty"`
	Signal      string          `json:"signal,omitempty"`
	RequestID   string          `json:"requestID,omitempty"`
	RequestType string          `json:"requestType,omitempty"`
	Response    string          `json:"response,omitempty"`
	Event       string          `json:"event,omitempty"`
	Code        int             `json:"code,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	ErrorString string          `json:"error,omitempty"`
}

// String returns the string representation of the message
func (m *message) String() string {
	b, _ := m.MarshalJSON()
	return string(b)
}

func (m *message) SessionID() string   { return m.sessionID }
func (m *message) Signal() string      { return m.signal }
func (m *message) Type() string        { return m.messageType }
func (m *message) RequestID() string   { return m.requestID }
func (m *message) RequestType() string { return m.requestType }
func (m *message) Response() string    { return m.response }
func (m *message) EventType() string   { return m.event }
func (m *message) Code() int           { return m.code }
func (m *message) ErrorString() string { return m.errorString }

// ReadDataTo read from the data field and write to the given type
func (m *message) ReadDataTo(v any) error {
	if len(m.data) == 0 {
		return ErrNoData
	}
	return json.Unmarshal(m.data, v)
}

// WriteDataFrom marshals the given type into the data field
func (m *message) WriteDataFrom(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data = b
	m.raw = nil
	return nil
}

// Unmarshal raw into any type
func (m *message) Unmarshal(v any) error {
	b, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// MarshalJSON marshals the message into JSON data
func (m *message) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	return json.Marshal(&jsonMessage{
		SessionID:   m.sessionID,
		Signal:      m.signal,
		Type:        m.messageType,
		RequestID:   m.requestID,
		RequestType: m.requestType,
		Response:    m.response,
		Event:       m.event,
		Code:        m.code,
		Data:        m.data,
		ErrorString: m.errorString,
	})
}

// UnmarshalJSON unmarshals the JSON data into the message
func (m *message) UnmarshalJSON(b []byte) (err error) {
	v := jsonMessage{}
	if err = json.Unmarshal(b, &v); err != nil {
		return
	}

	m.sessionID = v.SessionID
	m.signal = v.Signal
	m.messageType = v.Type
	m.requestID = v.RequestID
	m.requestType = v.RequestType
	m.response = v.Response
	m.event = v.Event
	m.code = v.Code
	m.data = v.Data
	m.errorString = v.ErrorString
	m.raw = append([]byte(nil), b...)
	return
}

// NewMessageFromJSON creates a new message from JSON data
func NewMessageFromJSON(b []byte) (Message, error) {
	m := &message{}
	if err := m.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("%w: %v, JSON: %s", ErrMalformedMessage, err, string(b))
	}
	return m, nil
}

// NewMessageFromJSONString creates a new message from JSON string
func NewMessageFromJSONString(s string) (Message, error) {
	return NewMessageFromJSON([]byte(s))
}

func MustMessage(m Message, err error) Message {
	if err != nil {
		panic(err)
	}
	return m
}

func marshalData(data any) json.RawMessage {
	if data == nil {
		return nil
	}
	b, _ := json.Marshal(data)
	return b
}

// NewSimpleMessage creates a message with only session ID and type.
func NewSimpleMessage(sessionID, messageType string) Message {
	return &message{
		sessionID:   sessionID,
		messageType: messageType,
	}
}

// NewGreeting creates the first message a server sends on a new session.
// It tells the client its session ID.
func NewGreeting(sessionID string) Message {
	return &message{
		sessionID:   sessionID,
		messageType: TypeGreeting,
	}
}

// NewSignal creates a new signal message
func NewSignal(signal string, data any) Signal {
	return &message{
		messageType: TypeSignal,
		signal:      signal,
		data:        marshalData(data),
	}
}

// NewRequest creates a new request
func NewRequest(requestID, requestType string, data any) Request {
	return &message{
		requestID:   requestID,
		requestType: requestType,
		messageType: TypeRequest,
		data:        marshalData(data),
	}
}

// NewResponse creates a new response to the given session.
func NewResponse(sessionID, requestID, requestType string, code int, response string, data any) Response {
	return &message{
		sessionID:   sessionID,
		requestID:   requestID,
		requestType: requestType,
		code:        code,
		response:    response,
		messageType: TypeResponse,
		data:        marshalData(data),
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(sessionID, requestID, requestType string, code int, response, errorString string) Response {
	return &message{
		sessionID:   sessionID,
		requestID:   requestID,
		requestType: requestType,
		code:        code,
		response:    response,
		errorString: errorString,
		messageType: TypeResponse,
	}
}

// NewEvent creates a new event to broadcast.
func NewEvent(eventType string, data any) Event {
	return &message{
		messageType: TypeEvent,
		event:       eventType,
		data:        marshalData(data),
	}
}
