package repo

import (
	"context"
	"database/sql"

	"github.com/hcollier/todo-api/internal/models"
)

// ==========================
// TodoRepo
// ==========================
// Every query is scoped by the owning user's id, so one user can never read
// or mutate another user's rows.
type TodoRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewTodoRepo(db *sql.DB) *TodoRepo {
	return &TodoRepo{DB: db}
}

// ==========================
// Create Todo
// ==========================
func (r *TodoRepo) Create(ctx context.Context, userID int, todoText string, completed bool) (models.Todo, error) {
	query := `
		INSERT INTO todos (todo, completed, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, todo, completed, user_id
	`

	var todo models.Todo

	err := r.DB.QueryRowContext(ctx, query, todoText, completed, userID).
		Scan(&todo.ID, &todo.Todo, &todo.Completed, &todo.UserID)

	return todo, err
}

// ==========================
// List For User
// ==========================
// Insertion order (id ascending). Returns an empty slice, not nil, so an
// empty list encodes as [].
func (r *TodoRepo) ListForUser(ctx context.Context, userID int) ([]models.Todo, error) {
	query := `
		SELECT id, todo, completed, user_id
		FROM todos
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Todo, &t.Completed, &t.UserID); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}

	return todos, rows.Err()
}

// ==========================
// Get By ID
// ==========================
// Returns sql.ErrNoRows when the row does not exist or belongs to another user.
func (r *TodoRepo) GetByID(ctx context.Context, userID, id int) (models.Todo, error) {
	query := `
		SELECT id, todo, completed, user_id
		FROM todos
		WHERE id = $1 AND user_id = $2
	`

	var todo models.Todo

	err := r.DB.QueryRowContext(ctx, query, id, userID).
		Scan(&todo.ID, &todo.Todo, &todo.Completed, &todo.UserID)

	return todo, err
}

// ==========================
// Update Todo
// ==========================
// Mutates only a row matching both id and user_id; sql.ErrNoRows otherwise.
func (r *TodoRepo) Update(ctx context.Context, userID, id int, todoText string, completed bool) (models.Todo, error) {
	query := `
		UPDATE todos
		SET todo = $1, completed = $2
		WHERE id = $3 AND user_id = $4
		RETURNING id, todo, completed, user_id
	`

	var todo models.Todo

	err := r.DB.QueryRowContext(ctx, query, todoText, completed, id, userID).
		Scan(&todo.ID, &todo.Todo, &todo.Completed, &todo.UserID)

	return todo, err
}
