package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hcollier/todo-api/internal/cache"
	"github.com/hcollier/todo-api/internal/metrics"
	"github.com/hcollier/todo-api/internal/middleware"
	"github.com/hcollier/todo-api/internal/models"
	"github.com/hcollier/todo-api/internal/repo"
)

// ==========================
// TodoHandler
// ==========================
// Every operation is scoped to the user id resolved by the auth gate; the
// repository enforces ownership at the statement level.
type TodoHandler struct {
	Repo  *repo.TodoRepo
	Audit *repo.AuditRepo
	Cache *cache.TodoCache
}

type todoInput struct {
	Todo      string `json:"todo" validate:"required,max=1000"`
	Completed bool   `json:"completed"`
}

// ==========================
// List Todos
// ==========================
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if todos, hit := h.Cache.Get(r.Context(), userID); hit {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(todos)
		return
	}

	todos, err := h.Repo.ListForUser(r.Context(), userID)
	if err != nil {
		slog.Error("list todos failed", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.Cache.Set(r.Context(), userID, todos)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(todos)
}

// ==========================
// Get Todo
// ==========================
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid todo id", http.StatusBadRequest)
		return
	}

	todo, err := h.Repo.GetByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "todo not found", http.StatusNotFound)
			return
		}
		slog.Error("get todo failed", "user_id", userID, "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(todo)
}

// ==========================
// Create Todo
// ==========================
// Responds with a one-element array holding the inserted row, the shape the
// existing frontend expects.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input todoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if fields := validateTodo(input); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	todo, err := h.Repo.Create(r.Context(), userID, input.Todo, input.Completed)
	if err != nil {
		slog.Error("create todo failed", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.Cache.Invalidate(r.Context(), userID)
	metrics.IncTodoOp("create")

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), userID, "create", "todo", todo.ID, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode([]models.Todo{todo})
}

// ==========================
// Update Todo
// ==========================
// id comes from the path; id/user_id in the body are ignored. Rows owned by
// other users report not-found rather than leaking their existence.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid todo id", http.StatusBadRequest)
		return
	}

	var input todoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if fields := validateTodo(input); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	todo, err := h.Repo.Update(r.Context(), userID, id, input.Todo, input.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "todo not found", http.StatusNotFound)
			return
		}
		slog.Error("update todo failed", "user_id", userID, "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.Cache.Invalidate(r.Context(), userID)
	metrics.IncTodoOp("update")

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), userID, "update", "todo", todo.ID, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(todo)
}

func validateTodo(input todoInput) map[string]string {
	validate := validator.New()
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Todo" {
				fields["todo"] = "required, maximum 1000 characters"
			}
		}
	} else {
		fields["body"] = "invalid"
	}
	return fields
}
