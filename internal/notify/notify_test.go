package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortTicketID(t *testing.T) {
	assert.Equal(t, "1a2b3c4d", ShortTicketID("1a2b3c4d-0000-1111-2222-333344445555"))
	assert.Equal(t, "short", ShortTicketID("short"))
	assert.Equal(t, "", ShortTicketID(""))
}

func TestTicketCreatedHTML(t *testing.T) {
	html := TicketCreatedHTML(
		"1a2b3c4d-0000-1111-2222-333344445555",
		"VPN not working",
		"Alice",
		"Cannot connect\nsince this morning",
		"https://helpdesk.example.org",
	)

	assert.Contains(t, html, "Hi <strong>Alice</strong>")
	assert.Contains(t, html, "#1a2b3c4d VPN not working")
	assert.Contains(t, html, "https://helpdesk.example.org")
	assert.Contains(t, html, "Cannot connect<br>since this morning")
}

func TestTicketClosedHTML(t *testing.T) {
	html := TicketClosedHTML(
		"1a2b3c4d-0000-1111-2222-333344445555",
		"VPN not working",
		"Alice",
		"Bob the Technician",
		"https://helpdesk.example.org",
	)

	assert.Contains(t, html, "Hi <strong>Alice</strong>")
	assert.Contains(t, html, "<strong>Bob the Technician</strong> closed your ticket.")
	assert.Contains(t, html, "#1a2b3c4d VPN not working")
}

func TestBuildMessageBotMarkers(t *testing.T) {
	raw := buildMessage("support@example.org", "alice@example.com", "itsupport@example.org",
		"[Request Received] #1a2b3c4d", "<p>hello</p>")

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	assert.True(t, found)
	assert.Contains(t, headers, "From: support@example.org\r\n")
	assert.Contains(t, headers, "To: alice@example.com\r\n")
	assert.Contains(t, headers, "Cc: itsupport@example.org\r\n")
	assert.Contains(t, headers, "X-Auto-Reply: true\r\n")
	assert.Contains(t, headers, "X-Helpdesk-Bot: v1\r\n")
	assert.Contains(t, headers, "Content-Type: text/html; charset=utf-8")
	assert.Equal(t, "<p>hello</p>", body)
}

func TestBuildMessageOmitsEmptyCc(t *testing.T) {
	raw := buildMessage("support@example.org", "alice@example.com", "", "Subject", "<p>hi</p>")
	assert.NotContains(t, raw, "Cc:")
}
