package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcollier/todo-api/internal/models"
)

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash\)`).
		WithArgs("jon@user.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(2, "jon@user.com"))

	repo := NewUserRepo(db)
	user, err := repo.Create(context.Background(), "jon@user.com", "1234")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 2 || user.Email != "jon@user.com" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "1234" {
		t.Errorf("password must be stored hashed, got %q", user.PasswordHash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash\)`).
		WithArgs("jon@user.com", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "jon@user.com", "1234")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, password_hash`).
		WithArgs("jon@user.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).AddRow(2, "jon@user.com", "hash"))

	repo := NewUserRepo(db)
	user, err := repo.GetByEmail(context.Background(), "jon@user.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.ID != 2 || user.Email != "jon@user.com" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, password_hash`).
		WithArgs("nobody@user.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	_, err = repo.GetByEmail(context.Background(), "nobody@user.com")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_CheckPassword(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	repo := NewUserRepo(db)
	user := &models.User{ID: 2, Email: "jon@user.com", PasswordHash: string(hash)}

	if !repo.CheckPassword(user, "1234") {
		t.Error("correct password rejected")
	}
	if repo.CheckPassword(user, "wrong") {
		t.Error("wrong password accepted")
	}
}
