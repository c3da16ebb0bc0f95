package http

import (
	"errors"
	"net/http"

	"finmind/internal/assistant"
	"finmind/internal/auth"
	"finmind/internal/ports"
	"finmind/internal/sentiment"
)

func (s *Server) handleListSentiment(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	records := s.deps.Sentiment.List()
	out := make([]sentiment.Detail, len(records))
	for i, rec := range records {
		out[i] = sentiment.Describe(rec)
	}
	OK(out).Write(w)
}

func (s *Server) handleLookupSentiment(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	d, err := s.deps.Sentiment.Lookup(r.Context(), sess.User.ID, r.PathValue("symbol"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(d).Write(w)
}

func (s *Server) handleSentimentHistory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	h, err := s.deps.Sentiment.History(r.Context(), sess.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h == nil {
		h = []ports.SentimentSnapshot{}
	}
	OK(h).Write(w)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	msgs, err := s.deps.Chat.History(r.Context(), sess.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(msgs).Write(w)
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	reply, err := s.deps.Chat.Send(r.Context(), sess.User.ID, p.Get("message"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(reply).Write(w)
}

// handleChatVoice treats the body as raw audio. Without a speech backend the
// request is a silent no-op.
func (s *Server) handleChatVoice(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); errors.Is(err, errBodyTooLarge) {
		BadRequestError("audio too large").Write(w)
		return
	}
	reply, err := s.deps.Chat.SendVoice(r.Context(), sess.User.ID, p.GetRaw())
	if errors.Is(err, assistant.ErrSpeechUnsupported) {
		NoContent().Write(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(reply).Write(w)
}
