package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mailstudy/mailstudy/internal/api/http"
	"github.com/mailstudy/mailstudy/internal/auth"
	"github.com/mailstudy/mailstudy/internal/config"
	"github.com/mailstudy/mailstudy/internal/db"
	"github.com/mailstudy/mailstudy/internal/mailbox"
	"github.com/mailstudy/mailstudy/internal/store"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh, cfg.DBDriver)

	// --- Mailbox ---
	mb, err := mailbox.Open(cfg.EmailDir)
	if err != nil {
		log.Fatalf("mailbox open failed: %v", err)
	}

	// --- Admin auth ---
	adm := auth.NewAdminService(cfg.AuthHMACSecret, cfg.AdminPassHash, cfg.AdminPassword, cfg.AdminTokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	api.Mount(r, mb, st, adm, cfg.EmailDir)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (emails=%s, db=%s)", cfg.HTTPAddr, cfg.EmailDir, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
