package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"userRegistration/models"
)

type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository wraps an opened store. A nil logger discards log output.
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{db: db, logger: logger.Named("users")}
}

// Add inserts a user row. A username that already exists is left untouched
// and Add reports created=false without an error.
func (r *UserRepository) Add(ctx context.Context, username, email, password string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?) ON CONFLICT(username) DO NOTHING`,
		username, email, password)
	if err != nil {
		r.logger.Error("insert user", zap.String("username", username), zap.Error(err))
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Debug("username already registered", zap.String("username", username))
		return false, nil
	}
	r.logger.Debug("user added", zap.String("username", username))
	return true, nil
}

// Authenticate reports whether username exists and its stored password is
// exactly password. Unknown usernames yield false, not an error.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return u.Password == password, nil
}

// List returns every user in insertion order.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, password FROM users ORDER BY id`)
	if err != nil {
		r.logger.Error("list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
			r.logger.Error("scan user row", zap.Error(err))
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, password FROM users WHERE username = ?`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, password FROM users WHERE id = ?`, id)
}

// CountByUsername returns how many rows carry username. The unique index keeps
// this at zero or one.
func (r *UserRepository) CountByUsername(ctx context.Context, username string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n); err != nil {
		r.logger.Error("count users", zap.String("username", username), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("fetch user", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
