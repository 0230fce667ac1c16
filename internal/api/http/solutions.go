package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/store"
)

func GetSolutionsHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		sols, err := st.Solutions(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"email_id":  id,
			"solutions": sols,
		})
	}
}

// PutSolutionsHandler replaces an email's expected-solution block.
// Incoming entries may be legacy bare values or rich records; both are
// normalized before they are stored.
func PutSolutionsHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		var req struct {
			Solutions map[string]json.RawMessage `json:"solutions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		block := grading.ParseAll(req.Solutions)
		if err := st.ReplaceSolutions(r.Context(), id, block); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"email_id": id,
			"count":    len(block),
		})
	}
}
