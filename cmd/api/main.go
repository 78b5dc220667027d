package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/budget-engine/internal/api/handlers"
	"github.com/dvloznov/budget-engine/internal/api/middleware"
	"github.com/dvloznov/budget-engine/internal/engine"
	"github.com/dvloznov/budget-engine/internal/ledger/inmemory"
	"github.com/dvloznov/budget-engine/internal/logger"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	var (
		port = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
	)
	flag.Parse()

	log := logger.New()

	store := inmemory.NewStore()
	eng := engine.New(store, logger.WithComponent(log, "engine"))
	h := handlers.New(eng, store, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListAccounts(w, r)
		case http.MethodPost:
			h.CreateAccount(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(rest, "/balance"):
			h.AccountBalance(w, r, strings.TrimSuffix(rest, "/balance"))
		case r.Method == http.MethodDelete && rest != "":
			h.DeleteAccount(w, r, rest)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.CreateTransaction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/check", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.CheckTransaction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if r.Method == http.MethodDelete && id != "" {
			h.DeleteTransaction(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.CreateBudget(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets/progress", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.BudgetProgress(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets/roll", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.RollBudgets(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Alerts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.CreateGoal(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/goals/")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(rest, "/contribute"):
			h.Contribute(w, r, strings.TrimSuffix(rest, "/contribute"))
		case r.Method == http.MethodGet && strings.HasSuffix(rest, "/summary"):
			h.GoalSummary(w, r, strings.TrimSuffix(rest, "/summary"))
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/budget", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.BudgetReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
