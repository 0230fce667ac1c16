package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mailstudy/mailstudy/internal/session"
	"github.com/mailstudy/mailstudy/internal/store"
)

func SubmitAnswerHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub session.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if sub.EmailID == "" || sub.ParticipantID == "" {
			http.Error(w, "email_id and participant_id required", http.StatusBadRequest)
			return
		}
		if err := st.SaveSubmission(r.Context(), sub); err != nil {
			if errors.Is(err, session.ErrAlreadyAnswered) {
				http.Error(w, "already answered (test)", http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "answered": true})
	}
}

func AnsweredHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid := r.URL.Query().Get("participant")
		ids, err := st.AnsweredIDs(r.Context(), pid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"answered": ids})
	}
}
