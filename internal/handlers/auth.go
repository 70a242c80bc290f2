package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hcollier/todo-api/internal/repo"
	"github.com/hcollier/todo-api/internal/token"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  *repo.UserRepo
	Audit  *repo.AuditRepo
	Tokens *token.Issuer
}

type credentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// ==========================
// Signup (creates user, issues token)
// ==========================
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if fields := validateCredentials(input); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			JSONError(w, "email already registered", http.StatusConflict)
			return
		}
		slog.Error("signup: create user failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		slog.Error("signup: issue token failed", "error", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), user.ID, "signup", "user", user.ID, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

// ==========================
// Signin (verifies password, issues token)
// ==========================
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if input.Email == "" || input.Password == "" {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !h.Users.CheckPassword(user, input.Password) {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		slog.Error("signin: issue token failed", "error", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), user.ID, "signin", "user", user.ID, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

func validateCredentials(input credentialsInput) map[string]string {
	validate := validator.New()
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Email":
				fields["email"] = "must be a valid email address"
			case "Password":
				fields["password"] = "required, minimum 4 characters"
			}
		}
	} else {
		fields["body"] = "invalid"
	}
	return fields
}
