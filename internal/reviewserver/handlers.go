package reviewserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/esheagren/pluck-sub000/internal/session"
	"github.com/esheagren/pluck-sub000/internal/srs"
	"github.com/esheagren/pluck-sub000/internal/stores"
)

type startSessionRequest struct {
	UserID          string `json:"user_id"`
	NewCardsSession bool   `json:"new_cards_session"`
	IgnoreLimit     bool   `json:"ignore_limit"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidRequest("malformed request body"))
		return
	}
	if req.UserID == "" {
		writeError(w, invalidRequest("user_id is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.NewCardsSession {
		sess := s.sessionFor(req.UserID)
		if sess == nil {
			writeError(w, notFound("no session for user; start one first"))
			return
		}
		if err := sess.StartNewCardsSession(r.Context(), req.IgnoreLimit); err != nil {
			writeError(w, storeFailed(err))
			return
		}
		writeJSON(w, http.StatusOK, sess.Counters())
		return
	}

	sess, err := session.New(r.Context(), s.store, s.sched, s.Nower, req.UserID, s.cfg)
	if err != nil {
		writeError(w, storeFailed(err))
		return
	}
	s.sessions[req.UserID] = sess
	writeJSON(w, http.StatusCreated, sess.Counters())
}

// cardView is the response shape for the currently displayed card.
type cardView struct {
	Card     srs.Card         `json:"card"`
	Front    string           `json:"front"`
	Back     string           `json:"back"`
	Previews srs.Previews     `json:"previews"`
	Progress session.Progress `json:"progress"`
	Counters session.Counters `json:"counters"`
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionFor(userID)
	if sess == nil {
		writeError(w, notFound("no session for user"))
		return
	}
	card, ok := sess.CurrentCard()
	if !ok {
		writeError(w, noCurrentCard())
		return
	}
	previews, err := sess.Previews()
	if err != nil {
		writeError(w, internal(err))
		return
	}
	content, err := s.store.Content(r.Context(), userID, card.ID)
	if err != nil && !errors.Is(err, stores.ErrNotFound) {
		writeError(w, storeFailed(err))
		return
	}
	writeJSON(w, http.StatusOK, cardView{
		Card:     card,
		Front:    content.Front,
		Back:     content.Back,
		Previews: previews,
		Progress: sess.Progress(),
		Counters: sess.Counters(),
	})
}

type reviewRequest struct {
	Rating srs.Rating `json:"rating"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidRequest("malformed request body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionFor(userID)
	if sess == nil {
		writeError(w, notFound("no session for user"))
		return
	}
	err := sess.SubmitReview(r.Context(), req.Rating)
	switch {
	case errors.Is(err, session.ErrNoCurrentCard):
		writeError(w, noCurrentCard())
		return
	case errors.Is(err, srs.ErrInvalidRating):
		writeError(w, invalidRequest(err.Error()))
		return
	case errors.Is(err, session.ErrPersistFailed):
		// Session state is unchanged; the caller may retry the same call.
		writeError(w, storeFailed(err))
		return
	case err != nil:
		writeError(w, internal(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Counters())
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionFor(userID)
	if sess == nil {
		writeError(w, notFound("no session for user"))
		return
	}
	sess.SkipCard()
	writeJSON(w, http.StatusOK, sess.Counters())
}

type removeRequest struct {
	CardID string `json:"card_id"`
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidRequest("malformed request body"))
		return
	}
	if req.CardID == "" {
		writeError(w, invalidRequest("card_id is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionFor(userID)
	if sess == nil {
		writeError(w, notFound("no session for user"))
		return
	}
	// Removing a card that is not in the queue is a no-op, not an error.
	sess.RemoveCard(req.CardID)
	writeJSON(w, http.StatusOK, sess.Counters())
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionFor(userID)
	if sess == nil {
		writeError(w, notFound("no session for user"))
		return
	}
	writeJSON(w, http.StatusOK, sess.Progress())
}

type addCardsRequest struct {
	UserID string               `json:"user_id"`
	Cards  []stores.CardContent `json:"cards"`
}

type addCardsResponse struct {
	NumCardsAdded int        `json:"num_cards_added"`
	Cards         []srs.Card `json:"cards"`
}

func (s *Server) handleAddCards(w http.ResponseWriter, r *http.Request) {
	var req addCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidRequest("malformed request body"))
		return
	}
	if req.UserID == "" {
		writeError(w, invalidRequest("user_id is required"))
		return
	}
	if len(req.Cards) == 0 {
		writeError(w, invalidRequest("need to add at least one card"))
		return
	}
	cards, err := s.store.AddCards(r.Context(), req.UserID, req.Cards, s.Nower.Now())
	if err != nil {
		writeError(w, storeFailed(err))
		return
	}
	writeJSON(w, http.StatusCreated, addCardsResponse{
		NumCardsAdded: len(cards),
		Cards:         cards,
	})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	cardID := r.PathValue("id")

	err := s.store.DeleteCard(r.Context(), userID, cardID)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notFound("card not found"))
		return
	}
	if err != nil {
		writeError(w, storeFailed(err))
		return
	}

	// Evict the card from a live sitting so the queue never shows a deleted
	// card.
	s.mu.Lock()
	if sess := s.sessionFor(userID); sess != nil {
		sess.RemoveCard(cardID)
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}
