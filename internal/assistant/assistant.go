// Package assistant answers chat messages with canned replies chosen by
// keyword rules.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"finmind/internal/core"
)

// Greeting is the assistant message every conversation starts with.
const Greeting = "Hello! I'm FinMind AI, your personal finance assistant. I can help you track expenses, analyze spending patterns, provide budgeting advice, and answer financial questions. How can I assist you today?"

// Fallback is returned when no rule matches.
const Fallback = "I'm here to help with your finances! I can assist with: tracking expenses, budgeting, savings strategies, investment analysis, debt management, and market sentiment. What would you like to know more about?"

var ErrEmptyMessage = errors.New("empty message")

// Rule maps lowercase keywords to a reply. A rule matches when the lowercased
// message contains any of its keywords.
type Rule struct {
	Keywords []string
	Response string
}

func (r Rule) matches(lower string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"spend", "expense"},
			Response: "Based on your transaction history, your top spending categories this month are: Groceries ($450), Dining Out ($320), and Transportation ($200). Would you like me to suggest ways to reduce spending in any of these areas?",
		},
		{
			Keywords: []string{"budget"},
			Response: "You're currently spending 85% of your monthly budget. You have $450 remaining for the rest of the month. Your biggest budget categories are: Housing (40%), Food (25%), and Transportation (15%). Would you like to adjust any budgets?",
		},
		{
			Keywords: []string{"save", "saving"},
			Response: "Great question! Based on your income and expenses, I recommend setting aside 20% of your monthly income for savings. That would be about $800/month. Consider using the 50/30/20 rule: 50% needs, 30% wants, 20% savings. Would you like help setting up automatic transfers?",
		},
		{
			Keywords: []string{"invest"},
			Response: "Investment advice depends on your goals and risk tolerance. For long-term growth, consider diversifying across stocks, bonds, and index funds. Based on current market sentiment analysis, the S&P 500 shows positive momentum. Would you like me to analyze specific stocks or ETFs?",
		},
		{
			Keywords: []string{"debt", "loan"},
			Response: "I can help you create a debt payoff strategy. The avalanche method (highest interest first) typically saves the most money, while the snowball method (smallest balance first) provides quick wins. What type of debt are you looking to tackle?",
		},
	}
}

// Responder picks replies. It is stateless and safe for concurrent use.
type Responder struct {
	rules    []Rule
	fallback string
}

// NewResponder returns a Responder over rules, evaluated first match wins.
// A nil rules slice uses DefaultRules.
func NewResponder(rules []Rule) *Responder {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Responder{rules: rules, fallback: Fallback}
}

// Respond returns the reply for message. It never fails; unmatched input gets
// the fallback menu.
func (r *Responder) Respond(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range r.rules {
		if rule.matches(lower) {
			return rule.Response
		}
	}
	return r.fallback
}

// Normalize trims message and reports ErrEmptyMessage when nothing is left.
func Normalize(message string) (string, error) {
	m := strings.TrimSpace(message)
	if m == "" {
		return "", ErrEmptyMessage
	}
	return m, nil
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

var ErrSpeechUnsupported = errors.New("speech input not supported")

// Unsupported is the Transcriber used when no speech backend is configured.
type Unsupported struct{}

func (Unsupported) Transcribe(context.Context, []byte) (string, error) {
	return "", ErrSpeechUnsupported
}

// Conversation is an in-process, append-only chat transcript that starts
// with the greeting. It is not safe for concurrent use.
type Conversation struct {
	responder *Responder
	messages  []core.ChatMessage
	now       func() time.Time
}

// NewConversation starts a transcript answered by r.
func NewConversation(r *Responder) *Conversation {
	c := &Conversation{responder: r, now: time.Now}
	c.append(core.RoleAssistant, Greeting)
	return c
}

// Send appends the user message and the assistant reply, returning the reply.
// Blank input is rejected with ErrEmptyMessage and leaves the transcript
// unchanged.
func (c *Conversation) Send(text string) (core.ChatMessage, error) {
	text, err := Normalize(text)
	if err != nil {
		return core.ChatMessage{}, err
	}
	c.append(core.RoleUser, text)
	return c.append(core.RoleAssistant, c.responder.Respond(text)), nil
}

// Messages returns the transcript in insertion order.
func (c *Conversation) Messages() []core.ChatMessage {
	return append([]core.ChatMessage(nil), c.messages...)
}

func (c *Conversation) append(role core.Role, content string) core.ChatMessage {
	m := core.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, m)
	return m
}
