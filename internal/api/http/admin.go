package http

import (
	"encoding/json"
	"net/http"

	"github.com/mailstudy/mailstudy/internal/store"
)

func ParticipantsHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pids, err := st.Participants(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if pids == nil {
			pids = []string{}
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"participants": pids})
	}
}

// ExportAnswersHandler streams stored submissions as NDJSON, one
// record per line, optionally filtered by ?participant=.
func ExportAnswersHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := st.Records(r.Context(), r.URL.Query().Get("participant"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return
			}
		}
	}
}
