package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"finmind/internal/assistant"
	"finmind/internal/core"
	flog "finmind/internal/log"
	"finmind/internal/ports"
)

// ChatService keeps a persisted per-user conversation with the rule-based
// assistant.
type ChatService struct {
	log         ports.ChatLog
	responder   *assistant.Responder
	transcriber assistant.Transcriber
	delay       time.Duration
	logger      *slog.Logger
	now         func() time.Time

	// locks serializes sends per user so a user message and its reply stay
	// adjacent in the log.
	locks sync.Map
}

type ChatOption func(*ChatService)

// WithReplyDelay makes the assistant wait d before answering.
func WithReplyDelay(d time.Duration) ChatOption { return func(s *ChatService) { s.delay = d } }

// WithTranscriber sets the speech-to-text backend used by SendVoice.
func WithTranscriber(t assistant.Transcriber) ChatOption {
	return func(s *ChatService) { s.transcriber = t }
}

func NewChatService(log ports.ChatLog, responder *assistant.Responder, logger *slog.Logger, opts ...ChatOption) *ChatService {
	if responder == nil {
		responder = assistant.NewResponder(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &ChatService{
		log:         log,
		responder:   responder,
		transcriber: assistant.Unsupported{},
		logger:      logger.With(flog.FieldComponent, flog.ComponentChat),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ChatService) greeting() core.ChatMessage {
	return s.message(core.RoleAssistant, assistant.Greeting)
}

func (s *ChatService) message(role core.Role, content string) core.ChatMessage {
	return core.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
}

// History returns the user's conversation. A user who never sent anything
// sees only the greeting, which is not stored until the first send.
func (s *ChatService) History(ctx context.Context, userID string) ([]core.ChatMessage, error) {
	msgs, err := s.log.ListMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return []core.ChatMessage{s.greeting()}, nil
	}
	return msgs, nil
}

func (s *ChatService) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Send records text as a user message followed by the assistant's reply and
// returns the reply. Blank text returns assistant.ErrEmptyMessage and stores
// nothing. The reply delay runs before anything is stored, so a cancelled
// send leaves the log untouched; once writing starts, the pair is written in
// full even if ctx is cancelled.
func (s *ChatService) Send(ctx context.Context, userID, text string) (core.ChatMessage, error) {
	text, err := assistant.Normalize(text)
	if err != nil {
		return core.ChatMessage{}, err
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return core.ChatMessage{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return core.ChatMessage{}, err
	}

	wctx := context.WithoutCancel(ctx)
	existing, err := s.log.ListMessages(wctx, userID)
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("list messages: %w", err)
	}
	if len(existing) == 0 {
		if err := s.log.AppendMessage(wctx, userID, s.greeting()); err != nil {
			return core.ChatMessage{}, fmt.Errorf("store greeting: %w", err)
		}
	}
	if err := s.log.AppendMessage(wctx, userID, s.message(core.RoleUser, text)); err != nil {
		return core.ChatMessage{}, fmt.Errorf("store user message: %w", err)
	}
	reply := s.message(core.RoleAssistant, s.responder.Respond(text))
	if err := s.log.AppendMessage(wctx, userID, reply); err != nil {
		return core.ChatMessage{}, fmt.Errorf("store reply: %w", err)
	}

	s.logger.DebugContext(ctx, "Chat reply sent", flog.FieldUserID, userID, "reply_id", reply.ID)
	return reply, nil
}

// SendVoice transcribes audio and sends the result as a text message.
func (s *ChatService) SendVoice(ctx context.Context, userID string, audio []byte) (core.ChatMessage, error) {
	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		if !errors.Is(err, assistant.ErrSpeechUnsupported) {
			s.logger.ErrorContext(ctx, "Transcription failed", flog.FieldUserID, userID, flog.FieldError, err)
		}
		return core.ChatMessage{}, err
	}
	return s.Send(ctx, userID, text)
}
