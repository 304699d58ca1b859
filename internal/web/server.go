// Package web exposes the note store and the settlement journal over a
// small JSON API. Reads are open, mutations run the settlement pipeline
// exactly like the CLI and MCP surfaces do.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/ops"
)

// NewServer creates and configures the HTTP server for the Notegate API.
func NewServer(store note.Store, journal *db.SettlementJournal, settler ops.Settler, cfg *config.Config, bind string, port int) *http.Server {
	h := &Handlers{
		store:   store,
		journal: journal,
		settler: settler,
		cfg:     cfg,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /notes", h.HandleList)
	mux.HandleFunc("GET /notes/{id}", h.HandleGet)
	mux.HandleFunc("GET /notes/{id}/html", h.HandleHTML)
	mux.HandleFunc("POST /notes/{id}", h.HandleAdd)
	mux.HandleFunc("PUT /notes/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /notes/{id}", h.HandleDelete)
	mux.HandleFunc("GET /settlements", h.HandleSettlements)

	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Notegate API listening at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
