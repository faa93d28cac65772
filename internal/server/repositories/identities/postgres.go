package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/cryptox"
	"github.com/dmitrijs2005/policyportal/internal/dbx"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository stores identities in the identities table over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, email, secret string, emailConfirmed bool) (*models.Identity, error) {
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	query :=
		`INSERT INTO identities (id, email, secret_hash, email_confirmed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at
		 `

	identity := &models.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		SecretHash:     hash,
		EmailConfirmed: emailConfirmed,
	}
	err = r.db.QueryRowContext(ctx, query, identity.ID, identity.Email, identity.SecretHash, identity.EmailConfirmed).
		Scan(&identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrIdentityConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// Verify looks the identity up by email and checks secret against the stored
// hash. Unknown email and wrong secret both yield ErrInvalidCredentials and
// cost one hash derivation each.
func (r *PostgresRepository) Verify(ctx context.Context, email, secret string) (*models.Identity, error) {
	identity, err := r.getBy(ctx, "email", email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnVerification(secret)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := cryptox.VerifySecret(secret, identity.SecretHash)
	if err != nil {
		return nil, fmt.Errorf("verify secret: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return identity, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Identity, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) UpdateSecret(ctx context.Context, id, secret string) error {
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	query :=
		`UPDATE identities SET secret_hash = $2, updated_at = NOW()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// UpdateEmail locks the row, remembers the current email and writes the new
// one. When the repository is bound to a *sql.DB the two statements run in
// their own transaction; when bound to a transaction they join it.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) (string, error) {
	var previous string

	update := func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT email FROM identities
			 WHERE id = $1
			 FOR UPDATE
			 `, id).Scan(&previous)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE identities SET email = $2, updated_at = NOW()
			 WHERE id = $1
			 `, id, email)
		if err != nil {
			if isUniqueViolation(err) {
				return common.ErrIdentityConflict
			}
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	var err error
	if b, ok := r.db.(dbx.Beginner); ok {
		err = dbx.WithTx(ctx, b, nil, update)
	} else {
		err = update(ctx, r.db)
	}
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM identities
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.Identity, error) {
	// column is one of two constants chosen by this package, never user input.
	query := `SELECT id, email, secret_hash, email_confirmed, created_at, updated_at FROM identities
		 WHERE ` + column + ` = $1
		 `

	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&identity.ID, &identity.Email, &identity.SecretHash,
		&identity.EmailConfirmed, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
