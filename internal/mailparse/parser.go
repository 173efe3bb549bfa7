// Package mailparse decodes raw RFC822 bytes into the flat shape the pipeline
// consumes: ordered body parts and ordered attachment parts. Nothing outside
// this package inspects raw message bytes.
package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

func init() {
	// Decode the long tail of legacy charsets instead of failing the message.
	message.CharsetReader = charset.Reader
}

// Part is one decoded inline body part, in message order.
type Part struct {
	MediaType string // lower-case, e.g. "text/plain"
	Charset   string
	Text      string
}

// Attachment is one named binary part.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is the parsed form of one mailbox message. A part carrying a
// filename is an attachment no matter its media type; parts without one
// contribute to the body only when they are plain text or HTML.
type Message struct {
	Subject     string
	From        string // bare address of the first From entry
	FromName    string
	Headers     map[string][]string
	Parts       []Part
	Attachments []Attachment
}

func Parse(raw []byte) (*Message, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if mr == nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	msg := &Message{Headers: headerMap(mr.Header.Header)}

	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = strings.TrimSpace(mr.Header.Get("Subject"))
	}

	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.From = strings.TrimSpace(addrs[0].Address)
		msg.FromName = strings.TrimSpace(addrs[0].Name)
	} else {
		msg.From = strings.TrimSpace(mr.Header.Get("From"))
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("read part: %w", err)
		}
		if p == nil {
			continue
		}

		body, readErr := io.ReadAll(p.Body)
		if readErr != nil {
			return nil, fmt.Errorf("read part body: %w", readErr)
		}

		switch h := p.Header.(type) {
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			filename = strings.TrimSpace(filename)
			if filename == "" {
				filename = "attachment.bin"
			}
			msg.Attachments = append(msg.Attachments, Attachment{Filename: filename, Data: body})
		case *mail.InlineHeader:
			mediaType, params, ctErr := h.ContentType()
			if ctErr != nil {
				continue
			}
			mediaType = strings.ToLower(strings.TrimSpace(mediaType))

			// Inline parts that still name a file travel as attachments,
			// whatever their media type.
			if filename := inlineFilename(h, params); filename != "" {
				msg.Attachments = append(msg.Attachments, Attachment{Filename: filename, Data: body})
				continue
			}

			if mediaType != "text/plain" && mediaType != "text/html" {
				continue
			}
			msg.Parts = append(msg.Parts, Part{
				MediaType: mediaType,
				Charset:   strings.ToLower(strings.TrimSpace(params["charset"])),
				Text:      string(body),
			})
		}
	}

	return msg, nil
}

func headerMap(h message.Header) map[string][]string {
	out := make(map[string][]string)
	fields := h.Fields()
	for fields.Next() {
		key := fields.Key()
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out[key] = append(out[key], value)
	}
	return out
}

func inlineFilename(h *mail.InlineHeader, ctParams map[string]string) string {
	if name := strings.TrimSpace(ctParams["name"]); name != "" {
		return name
	}
	disposition := strings.TrimSpace(h.Get("Content-Disposition"))
	if disposition == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		return strings.TrimSpace(params["filename"])
	}
	return ""
}
