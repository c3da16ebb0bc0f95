package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmind/internal/assistant"
	"finmind/internal/core"
	"finmind/internal/ledger"
	"finmind/internal/ports"
	"finmind/internal/sentiment"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []core.Transaction
	err       error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, t)
	return nil
}

func newTransactionService(t *testing.T, pub Publisher) (*TransactionService, *ledger.Store) {
	t.Helper()
	store := ledger.New()
	return NewTransactionService(store, store, pub, nil, nil), store
}

func TestCreateTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTransactionService(t, pub)
	ctx := context.Background()

	got, err := svc.Create(ctx, "u1", TransactionInput{
		Type: "Expense", Amount: "12,345", Category: " Dining ", Description: "Lunch", Date: "2025-10-03",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, core.Expense, got.Type)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.35")))
	assert.Equal(t, "Dining", got.Category)
	assert.Equal(t, "2025-10-03", got.Date.String())

	stored, err := store.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, got.ID, stored[0].ID)

	require.Len(t, pub.published, 1)
	assert.Equal(t, got.ID, pub.published[0].ID)
}

func TestCreateDefaultsDateToToday(t *testing.T) {
	svc, _ := newTransactionService(t, nil)
	got, err := svc.Create(context.Background(), "u1", TransactionInput{
		Type: "income", Amount: "10", Category: "Gift", Description: "Birthday",
	})
	require.NoError(t, err)
	assert.Equal(t, core.Today().String(), got.Date.String())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTransactionService(t, pub)
	ctx := context.Background()

	cases := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"bad amount", TransactionInput{Type: "expense", Amount: "abc", Category: "A", Description: "B"}, core.ErrInvalidAmount},
		{"zero amount", TransactionInput{Type: "expense", Amount: "0", Category: "A", Description: "B"}, core.ErrInvalidAmount},
		{"bad type", TransactionInput{Type: "transfer", Amount: "1", Category: "A", Description: "B"}, core.ErrInvalidType},
		{"no category", TransactionInput{Type: "expense", Amount: "1", Category: " ", Description: "B"}, core.ErrEmptyCategory},
		{"no description", TransactionInput{Type: "expense", Amount: "1", Category: "A"}, core.ErrEmptyDescription},
		{"bad date", TransactionInput{Type: "expense", Amount: "1", Category: "A", Description: "B", Date: "10/03/2025"}, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "u1", tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.True(t, core.IsValidation(err))
		})
	}

	ts, err := store.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ts)
	assert.Empty(t, pub.published)
}

func TestCreateSucceedsWhenPublishFails(t *testing.T) {
	svc, store := newTransactionService(t, &fakePublisher{err: errors.New("broker down")})
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", TransactionInput{Type: "expense", Amount: "5", Category: "A", Description: "B"})
	require.NoError(t, err)

	ts, err := store.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ts, 1)
}

func TestSummaryIsInvalidatedOnCreate(t *testing.T) {
	svc, store := newTransactionService(t, nil)
	ctx := context.Background()

	require.NoError(t, ledger.Seed(ctx, store, "u1"))
	sum, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sum.TotalIncome.Equal(decimal.NewFromInt(4000)))
	assert.True(t, sum.TotalExpenses.Equal(decimal.NewFromInt(1120)))
	assert.Equal(t, 5, sum.TransactionCount)

	_, err = svc.Create(ctx, "u1", TransactionInput{Type: "expense", Amount: "80", Category: "Dining", Description: "Pizza"})
	require.NoError(t, err)

	sum, err = svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sum.TotalExpenses.Equal(decimal.NewFromInt(1200)))
	assert.True(t, sum.NetBalance.Equal(decimal.NewFromInt(2800)))
	assert.Equal(t, "Pizza", sum.Recent[0].Description)
}

func TestSummaryIsCached(t *testing.T) {
	svc, store := newTransactionService(t, nil)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)

	// Writes that bypass the service are not seen until the entry expires.
	require.NoError(t, ledger.Seed(ctx, store, "u1"))
	sum, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, sum.TransactionCount)
	assert.Equal(t, 1, svc.SummaryCache().Size())
}

func TestBudgets(t *testing.T) {
	svc, _ := newTransactionService(t, nil)
	ctx := context.Background()

	_, err := svc.SaveBudget(ctx, "u1", BudgetInput{Category: "Dining", Amount: "100", Period: "monthly"})
	require.NoError(t, err)
	saved, err := svc.SaveBudget(ctx, "u1", BudgetInput{Category: "Dining", Amount: "300", Period: "Monthly"})
	require.NoError(t, err)
	assert.True(t, saved.Amount.Equal(decimal.NewFromInt(300)))

	_, err = svc.SaveBudget(ctx, "u1", BudgetInput{Category: "Dining", Amount: "300", Period: "daily"})
	require.ErrorIs(t, err, core.ErrInvalidPeriod)

	_, err = svc.Create(ctx, "u1", TransactionInput{Type: "expense", Amount: "320", Category: "Dining", Description: "Out", Date: "2025-10-03"})
	require.NoError(t, err)

	st, err := svc.Budgets(ctx, "u1", core.NewDate(2025, 10, 20))
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.True(t, st[0].Spent.Equal(decimal.NewFromInt(320)))
	assert.True(t, st[0].Over)
}

func TestChatHistoryStartsWithGreeting(t *testing.T) {
	store := ledger.New()
	svc := NewChatService(store, nil, nil)

	h, err := svc.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, core.RoleAssistant, h[0].Role)
	assert.Equal(t, assistant.Greeting, h[0].Content)

	stored, err := store.ListMessages(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestChatSendGrowsHistoryByTwo(t *testing.T) {
	svc := NewChatService(ledger.New(), nil, nil)
	ctx := context.Background()

	reply, err := svc.Send(ctx, "u1", "How much did I spend this month?")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, reply.Role)
	assert.Contains(t, reply.Content, "spending")

	h, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, assistant.Greeting, h[0].Content)
	assert.Equal(t, core.RoleUser, h[1].Role)
	assert.Equal(t, "How much did I spend this month?", h[1].Content)
	assert.Equal(t, reply.ID, h[2].ID)

	_, err = svc.Send(ctx, "u1", "asdfasdf")
	require.NoError(t, err)
	h, err = svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h, 5)
	assert.Equal(t, assistant.Fallback, h[4].Content)
}

func TestChatSendRejectsBlank(t *testing.T) {
	store := ledger.New()
	svc := NewChatService(store, nil, nil)

	_, err := svc.Send(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, assistant.ErrEmptyMessage)

	stored, err := store.ListMessages(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestChatReplyDelayHonoursContext(t *testing.T) {
	store := ledger.New()
	svc := NewChatService(store, nil, nil, WithReplyDelay(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := svc.Send(ctx, "u1", "budget?")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := store.ListMessages(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)

	reply, err := svc.Send(context.Background(), "u1", "invest")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "Investment")

	h, err := svc.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, assistant.Greeting, h[0].Content)
	assert.Equal(t, core.RoleUser, h[1].Role)
	assert.Equal(t, "invest", h[1].Content)
	assert.Equal(t, reply.ID, h[2].ID)
}

func TestChatSendRejectsCancelledContext(t *testing.T) {
	store := ledger.New()
	svc := NewChatService(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Send(ctx, "u1", "budget")
	require.ErrorIs(t, err, context.Canceled)

	stored, err := store.ListMessages(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

type fixedTranscriber string

func (f fixedTranscriber) Transcribe(context.Context, []byte) (string, error) { return string(f), nil }

func TestChatVoice(t *testing.T) {
	ctx := context.Background()

	_, err := NewChatService(ledger.New(), nil, nil).SendVoice(ctx, "u1", []byte{1, 2})
	require.ErrorIs(t, err, assistant.ErrSpeechUnsupported)

	svc := NewChatService(ledger.New(), nil, nil, WithTranscriber(fixedTranscriber("How can I start saving?")))
	reply, err := svc.SendVoice(ctx, "u1", []byte{1, 2})
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "50/30/20")
}

func TestChatConcurrentSendsStayPaired(t *testing.T) {
	store := ledger.New()
	svc := NewChatService(store, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Send(ctx, "u1", "debt")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	h, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h, 41)
	for i := 1; i < len(h); i += 2 {
		assert.Equal(t, core.RoleUser, h[i].Role)
		assert.Equal(t, core.RoleAssistant, h[i+1].Role)
	}
}

func TestSentimentLookup(t *testing.T) {
	store := ledger.New()
	svc := NewSentimentService(nil, store, nil)
	ctx := context.Background()

	assert.Len(t, svc.List(), 5)

	d, err := svc.Lookup(ctx, "u1", "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", d.Record.Symbol)
	assert.Equal(t, sentiment.Bullish, d.Label)
	require.Len(t, d.Price, 5)

	_, err = svc.Lookup(ctx, "u1", "AAP")
	require.ErrorIs(t, err, ErrUnknownSymbol)

	padded, err := svc.Lookup(ctx, "", " msft\t")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", padded.Record.Symbol)

	_, err = svc.Lookup(ctx, "", "TSLA")
	require.NoError(t, err)

	h, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "AAPL", h[0].Symbol)
	assert.Equal(t, ports.SourceCombined, h[0].Source)
	assert.True(t, h[0].Score.Equal(decimal.RequireFromString("0.75")))
}
