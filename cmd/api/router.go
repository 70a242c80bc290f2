package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hcollier/todo-api/internal/cache"
	"github.com/hcollier/todo-api/internal/config"
	"github.com/hcollier/todo-api/internal/handlers"
	appmw "github.com/hcollier/todo-api/internal/middleware"
	"github.com/hcollier/todo-api/internal/repo"
	"github.com/hcollier/todo-api/internal/token"
)

// newRouter wires the full HTTP surface: public auth routes, the protected
// /api group behind the auth gate, ops endpoints, and the 404 fallback.
// todoCache may be nil (caching disabled).
func newRouter(db *sql.DB, cfg config.Config, todoCache *cache.TodoCache) http.Handler {
	issuer := token.NewIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.JWTExpireHours)*time.Hour)

	users := repo.NewUserRepo(db)
	todos := repo.NewTodoRepo(db)
	audit := repo.NewAuditRepo(db)

	authHandler := &handlers.AuthHandler{Users: users, Audit: audit, Tokens: issuer}
	todoHandler := &handlers.TodoHandler{Repo: todos, Audit: audit, Cache: todoCache}
	auditHandler := &handlers.AuditHandler{Repo: audit}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(appmw.RequestLog)
	r.Use(appmw.Recoverer)
	r.Use(appmw.Prometheus)
	r.Use(appmw.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(appmw.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := appmw.AuthRateLimiter()
	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(appmw.MaxBytes(appmw.DefaultMaxBodyBytes))
		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(appmw.Auth(issuer))
		r.Use(appmw.MaxBytes(appmw.DefaultMaxBodyBytes))
		r.Get("/todos", todoHandler.ListTodos)
		r.Post("/todos", todoHandler.CreateTodo)
		r.Get("/todos/{id}", todoHandler.GetTodo)
		r.Put("/todos/{id}", todoHandler.UpdateTodo)
		r.Get("/history", auditHandler.ListHistory)
	})

	// Unmatched routes and unsupported methods both get the generic 404 the
	// frontend already understands.
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"This endpoint does not exist"}`))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
