package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

const userColumns = `id, name, email, password_hash, cnpj, phone, employee_count, monthly_revenue, role, created_at`

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = entity.RoleUser
	}

	const q = `
		INSERT INTO users (name, email, password_hash, cnpj, phone, employee_count, monthly_revenue, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := s.queryRow(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.CNPJ, u.Phone,
		u.EmployeeCount, u.MonthlyRevenue, string(u.Role), formatTime(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			field := conflictField(err, "email", "cnpj", "name")
			if field == "" {
				field = "account"
			}
			return fmt.Errorf("sqlstore: %s already registered: %w", field, entity.ErrConflict)
		}
		return fmt.Errorf("sqlstore: create user %q: %w", u.Email, err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get user %q: %w", email, err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get user %d: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var (
		u         entity.User
		role      string
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CNPJ, &u.Phone,
		&u.EmployeeCount, &u.MonthlyRevenue, &role, &createdAt)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}
