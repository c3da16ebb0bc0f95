package assistant

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmind/internal/core"
)

func TestRespondRuleOrder(t *testing.T) {
	r := NewResponder(nil)
	rules := DefaultRules()

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"spend", "How much did I spend this month?", rules[0].Response},
		{"spend upper", "How much did I SPEND?", rules[0].Response},
		{"expense", "show my expenses", rules[0].Response},
		{"spend beats budget", "my budget vs spending", rules[0].Response},
		{"budget", "help me budget", rules[1].Response},
		{"budget title case", "Budget status please", rules[1].Response},
		{"budget beats save", "budget to save more", rules[1].Response},
		{"save", "how can I save", rules[2].Response},
		{"savings", "Savings plan", rules[2].Response},
		{"invest", "Should I invest?", rules[3].Response},
		{"investment", "investment ideas", rules[3].Response},
		{"debt", "I have DEBT", rules[4].Response},
		{"loan", "car loan", rules[4].Response},
		{"fallback", "asdfasdf", Fallback},
		{"fallback greeting", "hello there", Fallback},
		{"empty", "", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Respond(tt.msg))
		})
	}
}

func TestRespondIsDeterministic(t *testing.T) {
	r := NewResponder(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, r.Respond("loan"), r.Respond("LOAN"))
		}()
	}
	wg.Wait()
}

func TestCustomRules(t *testing.T) {
	r := NewResponder([]Rule{{Keywords: []string{"tax"}, Response: "tax reply"}})
	assert.Equal(t, "tax reply", r.Respond("Taxes are due"))
	assert.Equal(t, Fallback, r.Respond("budget"))
}

func TestNormalize(t *testing.T) {
	m, err := Normalize("  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", m)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
}

func TestGreeting(t *testing.T) {
	assert.True(t, strings.HasPrefix(Greeting, "Hello! I'm FinMind AI"))
}

func TestUnsupportedTranscriber(t *testing.T) {
	var tr Transcriber = Unsupported{}
	_, err := tr.Transcribe(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrSpeechUnsupported)
}

func TestConversation(t *testing.T) {
	c := NewConversation(NewResponder(nil))

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Content)

	reply, err := c.Send("  how do I pay off my loan?  ")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, reply.Role)
	assert.Contains(t, reply.Content, "debt payoff strategy")

	_, err = c.Send("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msgs = c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleUser, msgs[1].Role)
	assert.Equal(t, "how do I pay off my loan?", msgs[1].Content)
	assert.NotEqual(t, msgs[1].ID, msgs[2].ID)
}
