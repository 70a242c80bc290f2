package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/hcollier/todo-api/internal/middleware"
	"github.com/hcollier/todo-api/internal/models"
	"github.com/hcollier/todo-api/internal/repo"
)

// requestWithChiURLParams builds a request carrying chi URL params and the
// authenticated user id, the way the router delivers it to handlers.
func requestWithChiURLParams(method, path string, body []byte, userID int, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if userID != 0 {
		ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	}
	return r.WithContext(ctx)
}

func newTodoHandler(db *sql.DB) *TodoHandler {
	return &TodoHandler{Repo: repo.NewTodoRepo(db)}
}

func TestTodoHandler_ListTodos(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, todo, completed, user_id`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "todo", "completed", "user_id"}).
			AddRow(6, "laundry", false, 2))

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos", nil, 2, nil)
	rr := httptest.NewRecorder()
	h.ListTodos(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ListTodos status: got %d, want 200", rr.Code)
	}
	var todos []models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != 6 || todos[0].Todo != "laundry" || todos[0].UserID != 2 {
		t.Errorf("unexpected todos: %+v", todos)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_ListTodos_EmptyIsArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, todo, completed, user_id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "todo", "completed", "user_id"}))

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos", nil, 3, nil)
	rr := httptest.NewRecorder()
	h.ListTodos(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ListTodos status: got %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("empty list body: got %q, want []", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_ListTodos_NoIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos", nil, 0, nil)
	rr := httptest.NewRecorder()
	h.ListTodos(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("ListTodos status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_GetTodo(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, todo, completed, user_id`).
		WithArgs(6, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "todo", "completed", "user_id"}).
			AddRow(6, "laundry", false, 2))

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos/6", nil, 2, map[string]string{"id": "6"})
	rr := httptest.NewRecorder()
	h.GetTodo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GetTodo status: got %d, want 200", rr.Code)
	}
	var todo models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todo); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if todo.ID != 6 || todo.UserID != 2 {
		t.Errorf("unexpected todo: %+v", todo)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_GetTodo_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, todo, completed, user_id`).
		WithArgs(999, 2).
		WillReturnError(sql.ErrNoRows)

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos/999", nil, 2, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.GetTodo(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("GetTodo status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_GetTodo_InvalidID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTodoHandler(db)

	req := requestWithChiURLParams("GET", "/api/todos/abc", nil, 2, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetTodo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetTodo status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_CreateTodo(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO todos \(todo, completed, user_id\)`).
		WithArgs("laundry", false, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "todo", "completed", "user_id"}).
			AddRow(6, "laundry", false, 2))

	h := newTodoHandler(db)

	body, _ := json.Marshal(map[string]interface{}{"todo": "laundry", "completed": false})
	req := requestWithChiURLParams("POST", "/api/todos", body, 2, nil)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.CreateTodo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("CreateTodo status: got %d, want 200", rr.Code)
	}
	// The inserted row comes back wrapped in a one-element array.
	var todos []models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != 6 || todos[0].Todo != "laundry" || todos[0].UserID != 2 {
		t.Errorf("unexpected response: %+v", todos)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_CreateTodo_MissingText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTodoHandler(db)

	body, _ := json.Marshal(map[string]interface{}{"completed": false})
	req := requestWithChiURLParams("POST", "/api/todos", body, 2, nil)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.CreateTodo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("CreateTodo status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_UpdateTodo(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE todos`).
		WithArgs("laundry done", true, 6, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "todo", "completed", "user_id"}).
			AddRow(6, "laundry done", true, 2))

	h := newTodoHandler(db)

	body, _ := json.Marshal(map[string]interface{}{"todo": "laundry done", "completed": true})
	req := requestWithChiURLParams("PUT", "/api/todos/6", body, 2, map[string]string{"id": "6"})
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.UpdateTodo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateTodo status: got %d, want 200", rr.Code)
	}
	var todo models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todo); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if todo.ID != 6 || todo.Todo != "laundry done" || !todo.Completed || todo.UserID != 2 {
		t.Errorf("unexpected todo: %+v", todo)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTodoHandler_UpdateTodo_OtherUsersTodo(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// User 99 tries to update user 2's todo; the scoped UPDATE matches nothing.
	mock.ExpectQuery(`UPDATE todos`).
		WithArgs("hijack", true, 6, 99).
		WillReturnError(sql.ErrNoRows)

	h := newTodoHandler(db)

	body, _ := json.Marshal(map[string]interface{}{"todo": "hijack", "completed": true})
	req := requestWithChiURLParams("PUT", "/api/todos/6", body, 99, map[string]string{"id": "6"})
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.UpdateTodo(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("UpdateTodo status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
