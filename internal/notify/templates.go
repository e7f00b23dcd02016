package notify

import (
	"fmt"
	"strings"
)

// ShortTicketID returns the 8-character prefix used in customer-facing
// references like "[Request Received] #1a2b3c4d".
func ShortTicketID(ticketID string) string {
	if len(ticketID) <= 8 {
		return ticketID
	}
	return ticketID[:8]
}

// TicketCreatedHTML builds the acknowledgement email sent when a new ticket
// is opened from an inbound request.
func TicketCreatedHTML(ticketID, subject, senderName, body, appURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #f8f9fa; padding: 20px; text-align: center; border-bottom: 2px solid #e9ecef;">
    <h2 style="color: #333; margin: 0;">IT Support Team</h2>
  </div>
  <div style="padding: 20px; color: #333; line-height: 1.6;">
    <p>Hi <strong>%s</strong>,</p>
    <p>The IT team has received your request and will get back to you. Meanwhile, you can reply to this email if you have any additional questions or details.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">View Ticket Status</a>
    </div>
    <p>Sincerely,<br><strong>IT Team</strong></p>
    <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
    <p style="color: #666; font-size: 14px;">You opened a new ticket:</p>
    <h3 style="color: #2563eb; margin-top: 5px;">#%s %s</h3>
    <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; font-size: 14px; color: #555; margin-top: 15px;">
      <strong>%s wrote:</strong><br><br>%s
    </div>
  </div>
</div>`,
		senderName, appURL, ShortTicketID(ticketID), subject, senderName,
		strings.ReplaceAll(body, "\n", "<br>"))
}

// TicketClosedHTML builds the notification sent when a ticket is resolved
// or closed.
func TicketClosedHTML(ticketID, subject, senderName, closedBy, appURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #f8f9fa; padding: 20px; text-align: center; border-bottom: 2px solid #e9ecef;">
    <h2 style="color: #333; margin: 0;">IT Support Team</h2>
  </div>
  <div style="padding: 20px; color: #333; line-height: 1.6;">
    <p>Hi <strong>%s</strong>,</p>
    <p>Your ticket has been closed. Reply to this email if the issue is not resolved and the team will follow up.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">View Ticket Dashboard</a>
    </div>
    <p>Sincerely,<br><strong>IT Team</strong></p>
    <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
    <p style="color: #666; font-size: 14px;"><strong>%s</strong> closed your ticket.</p>
    <h3 style="color: #2563eb; margin-top: 5px;">#%s %s</h3>
    <div style="background-color: #f0fdf4; padding: 15px; border: 1px solid #bbf7d0; border-radius: 5px; color: #166534; margin-top: 15px;">
      <strong>Status changed to Closed</strong>
    </div>
  </div>
</div>`,
		senderName, appURL, closedBy, ShortTicketID(ticketID), subject)
}
