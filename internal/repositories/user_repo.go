package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository is the PostgreSQL user store.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUserRow populates a full User from a row selected with userColumnList.
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var walletAddress *string

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.Name,
		&walletAddress, &user.Role, &user.Verified, &user.Verification,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if walletAddress != nil {
		user.WalletAddress = *walletAddress
	}

	return &user, nil
}

// scanUserContactRow populates the projection selected with
// userContactColumnList. Username and timestamps stay zero.
func scanUserContactRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var walletAddress *string

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.Role,
		&user.Verified, &user.Verification, &walletAddress,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if walletAddress != nil {
		user.WalletAddress = *walletAddress
	}

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", database.MapPostgresError(err))
	}

	return users, nil
}

// Find returns one window of the users matching pred together with the total
// number of matches. Count and window are read from the same snapshot.
func (r *UserRepository) Find(ctx context.Context, pred query.Predicate, sort query.SortSpec, skip, limit int) ([]*models.User, int, error) {
	stmts := buildListStatements(pred, sort, skip, limit)

	var users []*models.User
	var total int

	err := r.db.WithReadSnapshot(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, stmts.countSQL, stmts.countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count users: %w", database.MapPostgresError(err))
		}

		if total == 0 || skip < 0 || skip >= total || limit < 1 {
			users = []*models.User{}
			return nil
		}

		rows, err := tx.Query(ctx, stmts.pageSQL, stmts.pageArgs...)
		if err != nil {
			return fmt.Errorf("failed to query users: %w", database.MapPostgresError(err))
		}

		users, err = scanUserRows(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	q := `SELECT ` + userColumnList + ` FROM users WHERE id = $1`

	return scanUserRow(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	q := `SELECT ` + userColumnList + ` FROM users WHERE username = $1`

	return scanUserRow(r.db.Pool.QueryRow(ctx, q, username))
}

// GetByEmail returns the contact projection only.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userContactColumnList + ` FROM users WHERE email = $1`

	return scanUserContactRow(r.db.Pool.QueryRow(ctx, q, email))
}

// GetByWalletAddress returns the contact projection only.
func (r *UserRepository) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, models.ErrNotFound
	}

	q := `SELECT ` + userContactColumnList + ` FROM users WHERE wallet_address = $1`

	return scanUserContactRow(r.db.Pool.QueryRow(ctx, q, walletAddress))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	q := `
		INSERT INTO users (id, username, email, name, wallet_address, role, verified, verification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5::text, ''), $6, $7, $8, $9, $10)
		RETURNING ` + userColumnList

	return scanUserRow(r.db.Pool.QueryRow(ctx, q,
		user.ID, user.Username, user.Email, user.Name,
		user.WalletAddress, user.Role, user.Verified, user.Verification,
		user.CreatedAt, user.UpdatedAt,
	))
}

// Update applies patch to the user. wallet_address is only written while it
// is still NULL, so a set address survives any patch.
func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	q := `
		UPDATE users SET
			username = COALESCE($1::text, username),
			email = COALESCE($2::text, email),
			name = COALESCE($3::text, name),
			wallet_address = CASE WHEN wallet_address IS NULL THEN NULLIF($4::text, '') ELSE wallet_address END,
			role = COALESCE($5::text, role),
			updated_at = $6
		WHERE id = $7
		RETURNING ` + userColumnList

	return scanUserRow(r.db.Pool.QueryRow(ctx, q,
		patch.Username, patch.Email, patch.Name, patch.WalletAddress, patch.Role,
		time.Now().UTC(), id,
	))
}

// MarkVerified flags the user as verified and clears the pending code.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	q := `UPDATE users SET verified = TRUE, verification = '', updated_at = $1 WHERE id = $2`

	result, err := r.db.Pool.Exec(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
