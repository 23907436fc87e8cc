// Package conversation owns the transcript of a chat session and the
// request/response lifecycle with the responder.
package conversation

import (
	"time"

	"github.com/linanwx/papo/richtext"
)

// Sender identifies who authored a message.
type Sender int

const (
	SenderUser Sender = iota
	SenderResponder
)

func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderResponder:
		return "responder"
	default:
		return "unknown"
	}
}

// DeliveryState tracks a message through sent → pendingResponse →
// delivered | failed.
type DeliveryState int

const (
	StateSent DeliveryState = iota
	StatePendingResponse
	StateDelivered
	StateFailed
)

func (s DeliveryState) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StatePendingResponse:
		return "pendingResponse"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s DeliveryState) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

type contentKind uint8

const (
	kindPlain contentKind = iota
	kindRich
)

// Content is either plain text or pre-rendered HTML that must not be
// escaped again.
type Content struct {
	kind contentKind
	text string
}

// Plain wraps plain text.
func Plain(s string) Content { return Content{kind: kindPlain, text: s} }

// Rich wraps pre-rendered HTML.
func Rich(html string) Content { return Content{kind: kindRich, text: html} }

// IsRich reports whether the content is pre-rendered HTML.
func (c Content) IsRich() bool { return c.kind == kindRich }

// Raw returns the content as stored, HTML included.
func (c Content) Raw() string { return c.text }

// PlainText is the plain projection used for copying and terminal display.
func (c Content) PlainText() string {
	if c.kind == kindRich {
		return richtext.PlainText(c.text)
	}
	return c.text
}

// Message is one transcript entry.
type Message struct {
	ID        int64
	Content   Content
	Sender    Sender
	State     DeliveryState
	CreatedAt time.Time
}

// Placeholder is the reserved slot for an awaited responder reply.
type Placeholder struct {
	ID    int64
	State DeliveryState
}
