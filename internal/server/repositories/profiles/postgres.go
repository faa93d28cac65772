package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/dbx"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
)

const profileColumns = `id, email, full_name, date_of_birth, policy_number, policy_status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if err := applyDefaults(p); err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO profiles (id, email, full_name, date_of_birth, policy_number, policy_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + profileColumns

	out, err := scanProfile(r.db.QueryRowContext(ctx, query,
		p.ID, p.Email, p.FullName, p.DateOfBirth, p.PolicyNumber, string(p.PolicyStatus)))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		 WHERE id = $1
		 `

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	query :=
		`UPDATE profiles SET email = $2, updated_at = NOW()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Update writes only the fields set in u and returns the resulting row.
func (r *PostgresRepository) Update(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error) {
	if u.Empty() {
		return nil, common.ErrNoFieldsProvided
	}

	sets := make([]string, 0, 3)
	args := []any{id}
	if u.FullName != nil {
		args = append(args, *u.FullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if u.DateOfBirth != nil {
		args = append(args, *u.DateOfBirth)
		sets = append(sets, fmt.Sprintf("date_of_birth = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $1
		 RETURNING ` + profileColumns

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	p := &models.Profile{}
	var status string
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.DateOfBirth,
		&p.PolicyNumber, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PolicyStatus = models.PolicyStatus(status)
	return p, nil
}

func applyDefaults(p *models.Profile) error {
	if p.PolicyStatus == "" {
		p.PolicyStatus = models.PolicyStatusActive
	}
	if !p.PolicyStatus.Valid() {
		return fmt.Errorf("unknown policy status %q", p.PolicyStatus)
	}
	if p.PolicyNumber == "" {
		n, err := models.NewPolicyNumber()
		if err != nil {
			return fmt.Errorf("policy number: %w", err)
		}
		p.PolicyNumber = n
	}
	return nil
}
