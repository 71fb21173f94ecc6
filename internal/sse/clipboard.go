package sse

import (
	"context"
	"errors"
)

// ErrNoClients is returned when a clipboard write has nowhere to go.
var ErrNoClients = errors.New("sse: no connected clients")

// Clipboard forwards clipboard writes to connected browsers, which place the
// text on the system clipboard.
type Clipboard struct {
	broker *Broker
}

// NewClipboard returns a clipboard backed by b.
func NewClipboard(b *Broker) *Clipboard {
	return &Clipboard{broker: b}
}

// Write publishes a clipboard.write event. It fails when no client is
// connected to receive it.
func (c *Clipboard) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.broker.ClientCount() == 0 {
		return ErrNoClients
	}
	c.broker.Publish(Event{Type: TypeClipboardWrite, Data: map[string]string{"text": text}})
	return nil
}
