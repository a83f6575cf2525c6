package advisor

import (
	"fmt"
	"strings"

	"autoguard/pkg/diagnosis"
)

// ReplyContext carries the diagnostic context a conversation runs under.
type ReplyContext struct {
	VehicleID string
	Report    *diagnosis.Report
}

// Responder answers follow-up customer messages with an ordered intent table.
// It is the offline stand-in for a conversational model.
type Responder struct{}

// intent is one ordered reply rule; first keyword match wins.
type intent struct {
	keywords []string
	reply    func(ctx ReplyContext) string
}

var intents = []intent{
	{
		keywords: []string{"book", "schedule", "appointment", "service", "fix"},
		reply: func(ReplyContext) string {
			return "I've scheduled a service appointment for you tomorrow at 10:00 AM. " +
				"You'll receive a confirmation SMS shortly. Is there anything else I can help with?"
		},
	},
	{
		keywords: []string{"what", "why", "how", "explain", "issue", "problem"},
		reply: func(ctx ReplyContext) string {
			if ctx.Report != nil && len(ctx.Report.Issues) > 0 {
				return fmt.Sprintf("The diagnostic system detected: %s. "+
					"This requires immediate attention to ensure your safety. "+
					"Would you like me to schedule a service appointment?", ctx.Report.Issues[0])
			}
			return "Our diagnostic system has flagged a potential issue with your vehicle. " +
				"I recommend scheduling a service check. Would you like me to book an appointment?"
		},
	},
	{
		keywords: []string{"cost", "price", "how much", "charge", "fee"},
		reply: func(ReplyContext) string {
			return "Service costs vary depending on the repair needed. Our technician will provide " +
				"a detailed quote after inspection. The diagnostic check is complimentary. " +
				"Would you like to proceed with booking?"
		},
	},
	{
		keywords: []string{"urgent", "now", "immediately", "wait", "how long"},
		reply: func(ctx ReplyContext) string {
			if ctx.Report != nil && ctx.Report.Severity == diagnosis.SeverityCritical {
				return "This is a critical safety issue. We strongly advise NOT driving the vehicle. " +
					"I can arrange emergency roadside assistance or towing. Should I proceed?"
			}
			return "We have slots available as early as tomorrow morning. " +
				"Would you like me to book the earliest available time?"
		},
	},
	{
		keywords: []string{"thank", "thanks", "ok", "yes", "sure", "great"},
		reply: func(ReplyContext) string {
			return "You're welcome! Your appointment is confirmed. We'll send you a reminder " +
				"24 hours before. Drive safely!"
		},
	},
	{
		keywords: []string{"cancel", "no", "later", "not now"},
		reply: func(ReplyContext) string {
			return "No problem. Feel free to reach out whenever you're ready. Stay safe!"
		},
	},
}

// Reply produces a response to one customer message.
func (Responder) Reply(message string, ctx ReplyContext) string {
	lower := strings.ToLower(message)
	for _, in := range intents {
		for _, kw := range in.keywords {
			if strings.Contains(lower, kw) {
				return in.reply(ctx)
			}
		}
	}
	return "I'm here to help with your vehicle service needs. Would you like to:\n" +
		"1. Schedule a service appointment\n" +
		"2. Learn more about the detected issue\n" +
		"3. Speak with a technician\n" +
		"Please let me know how I can assist you."
}
