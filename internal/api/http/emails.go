package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mailstudy/mailstudy/internal/mailbox"
)

func StatusHandler(mb *mailbox.Mailbox, emailDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":           true,
			"time":         time.Now().UTC().Format(time.RFC3339),
			"email_dir":    emailDir,
			"emails_found": mb.Count(),
		})
	}
}

func ListEmailsHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := mb.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(list)
	}
}

func GetEmailHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		e, err := mb.Get(id)
		if err != nil {
			if errors.Is(err, mailbox.ErrNotFound) {
				http.Error(w, "email not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	}
}

// AttachmentsHandler lists an email's attachment metadata without the
// body, for clients that only render the attachment strip.
func AttachmentsHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		e, err := mb.Get(id)
		if err != nil {
			if errors.Is(err, mailbox.ErrNotFound) {
				http.Error(w, "email not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"email_id":    id,
			"attachments": e.Attachments,
		})
	}
}

func AttachmentHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		p, err := mb.Attachment(id, index)
		if err != nil {
			http.Error(w, "attachment not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", p.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+p.Filename+`"`)
		_, _ = w.Write(p.Content)
	}
}

func InlineHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		cid := chi.URLParam(r, "cid")
		p, err := mb.Inline(id, cid)
		if err != nil {
			http.Error(w, "cid not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", p.ContentType)
		_, _ = w.Write(p.Content)
	}
}

func QuestionsHandler(mb *mailbox.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "emailID")
		qs := mb.Questions(id)
		if qs == nil {
			// an email without questions is an empty list, not null
			_, _ = w.Write([]byte("[]\n"))
			return
		}
		_ = json.NewEncoder(w).Encode(qs)
	}
}
