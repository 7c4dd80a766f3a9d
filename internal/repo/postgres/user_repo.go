package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tixhive/auth-api/internal/domain"
)

const userColumns = `id, name, username, phone_number, email, password_hash, role, status, wallet_id, wallet_balance, encrypted_secret_key, created_at`

type UsersRepo interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByName(ctx context.Context, name string) (*domain.User, error)
	FindByWalletID(ctx context.Context, walletID string) (*domain.User, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
}

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

func (r *UsersRepoImpl) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users (id, name, username, phone_number, email, password_hash, role, status, wallet_id, wallet_balance, encrypted_secret_key, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q,
		u.ID, u.Name, u.Username, u.PhoneNumber, u.Email, u.PasswordHash,
		int16(u.Role), int16(u.Status), u.WalletID, u.WalletBalance, u.EncryptedSecretKey, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return domain.ErrUsernameTaken
			case "users_email_key":
				return domain.ErrEmailTaken
			case "users_phone_number_key":
				return domain.ErrPhoneTaken
			case "users_name_key":
				return domain.ErrNameTaken
			}
			return domain.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UsersRepoImpl) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *UsersRepoImpl) FindByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number=$1`, phoneNumber)
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *UsersRepoImpl) FindByName(ctx context.Context, name string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE name=$1`, name)
}

func (r *UsersRepoImpl) FindByWalletID(ctx context.Context, walletID string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_id=$1`, walletID)
}

func (r *UsersRepoImpl) ExistsUsername(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	if err := r.pool.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UsersRepoImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	const q = `UPDATE users SET status=$2 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id, int16(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UsersRepoImpl) findOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		u      domain.User
		role   int16
		status int16
	)
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Name, &u.Username, &u.PhoneNumber, &u.Email, &u.PasswordHash,
		&role, &status, &u.WalletID, &u.WalletBalance, &u.EncryptedSecretKey, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	u.Role, err = domain.RoleFromInt16(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Status, err = domain.UserStatusFromInt16(status)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	return &u, nil
}
