package assistantws

import (
	"context"
	"time"

	"billbuddy/pos/internal/assistant"
	"billbuddy/pos/internal/types"
)

// Message is the JSON frame exchanged with the browser. The browser owns
// the actual microphone and speaker; transcripts flow up, assistant
// commands flow down.
type Message struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Field  string      `json:"field,omitempty"`
	Value  string      `json:"value,omitempty"`
	Query  string      `json:"query,omitempty"`
	Index  int         `json:"index,omitempty"`
	Target string      `json:"target,omitempty"`
	Bill   *types.Bill `json:"bill,omitempty"`
}

// Client pushes assistant commands to one session's browser. It implements
// assistant.TranscriptSource and assistant.SpeechSink over the websocket:
// the browser starts or stops its recognizer and speaks on our behalf.
type Client struct {
	reg       *Registry
	sessionID string
}

func NewClient(reg *Registry, sessionID string) *Client {
	return &Client{reg: reg, sessionID: sessionID}
}

func (c *Client) send(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.reg.SendJSON(ctx, c.sessionID, msg)
}

func (c *Client) StartListening() { c.send(Message{Type: "listen_start"}) }

func (c *Client) StopListening() { c.send(Message{Type: "listen_stop"}) }

// Speak relies on the browser cancelling any in-progress utterance before
// starting the new one.
func (c *Client) Speak(text string) { c.send(Message{Type: "speak", Text: text}) }

func (c *Client) Cancel() { c.send(Message{Type: "cancel_speech"}) }

// Hooks mirrors conversation progress to the browser UI.
func (c *Client) Hooks() assistant.Hooks {
	return assistant.Hooks{
		OnCommand: func(cmd string) {
			c.send(Message{Type: "command", Value: cmd})
		},
		OnFieldUpdate: func(field, value string) {
			c.send(Message{Type: "field_update", Field: field, Value: value})
		},
		OnProductSearch: func(query string) {
			c.send(Message{Type: "search", Query: query})
		},
		OnProductSelect: func(index int, item types.Product) {
			c.send(Message{Type: "product_select", Index: index, Value: item.ID})
		},
		OnNavigate: func(target string) {
			c.send(Message{Type: "navigate", Target: target})
		},
		OnBillGenerated: func(bill *types.Bill) {
			c.send(Message{Type: "bill_generated", Bill: bill})
		},
		OnNotice: func(text string) {
			c.send(Message{Type: "notice", Text: text})
		},
	}
}
