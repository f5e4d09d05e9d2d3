// Package client is the client side of the chat: the HTTP API client, the
// realtime channel, the authenticated session and the message reconciler that
// keeps one conversation's ordered view consistent.
package client

import "strings"

// Attachment is a file picked for sending.
type Attachment struct {
	Filename string
	Data     []byte
}

// Draft is a message being composed: text plus at most one attachment.
type Draft struct {
	Text       string
	attachment *Attachment
}

// Attach sets the attachment, replacing any previous one.
func (d *Draft) Attach(a Attachment) {
	d.attachment = &a
}

func (d *Draft) Detach() {
	d.attachment = nil
}

func (d Draft) Attachment() *Attachment {
	return d.attachment
}

// Empty reports whether there is nothing to send.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && d.attachment == nil
}
