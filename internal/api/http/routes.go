package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mailstudy/mailstudy/internal/auth"
	"github.com/mailstudy/mailstudy/internal/mailbox"
	"github.com/mailstudy/mailstudy/internal/store"
)

// Mount attaches the full study API under /api. Privileged routes
// (solution commits, participant listing, answer export) sit behind
// the admin bearer credential; everything else is open to the study
// frontends.
func Mount(r chi.Router, mb *mailbox.Mailbox, st *store.SQLStore, adm *auth.AdminService, emailDir string) {
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/status", StatusHandler(mb, emailDir))
		ar.Post("/admin/login", auth.LoginHandler(adm))

		ar.Get("/emails", ListEmailsHandler(mb))
		ar.Get("/email/{emailID}", GetEmailHandler(mb))
		ar.Get("/email/{emailID}/attachments", AttachmentsHandler(mb))
		ar.Get("/email/{emailID}/attachment/{index}", AttachmentHandler(mb))
		ar.Get("/email/{emailID}/inline/{cid}", InlineHandler(mb))
		ar.Get("/questions/{emailID}", QuestionsHandler(mb))

		ar.Get("/answered", AnsweredHandler(st))
		ar.Post("/answer", SubmitAnswerHandler(st))

		ar.Get("/supposed/{emailID}", GetSolutionsHandler(st))

		ar.Group(func(pr chi.Router) {
			pr.Use(auth.RequireAdmin(adm))
			pr.Post("/supposed/{emailID}", PutSolutionsHandler(st))
			pr.Get("/participants", ParticipantsHandler(st))
			pr.Get("/export/answers", ExportAnswersHandler(st))
		})
	})
}
