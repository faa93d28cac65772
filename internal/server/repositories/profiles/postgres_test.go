package profiles

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ   = `(?s)^INSERT\s+INTO\s+profiles\s*\(id,\s*email,\s*full_name,\s*date_of_birth,\s*policy_number,\s*policy_status\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,.*updated_at$`
	selectQ   = `(?s)^SELECT\s+id,\s*email,\s*full_name,\s*date_of_birth,\s*policy_number,\s*policy_status,\s*created_at,\s*updated_at\s+FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1\s*$`
	updEmailQ = `(?s)^UPDATE\s+profiles\s+SET\s+email\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`
)

var profileCols = []string{"id", "email", "full_name", "date_of_birth", "policy_number", "policy_status", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func profileRow(p models.Profile) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(profileCols).
		AddRow(p.ID, p.Email, p.FullName, p.DateOfBirth, p.PolicyNumber, string(p.PolicyStatus), now, now)
}

func TestCreate_DefaultsStatusAndPolicyNumber(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("id-1", "a@x.com", "A A", "1990-01-01", sqlmock.AnyArg(), "Active").
		WillReturnRows(profileRow(models.Profile{
			ID: "id-1", Email: "a@x.com", FullName: "A A", DateOfBirth: "1990-01-01",
			PolicyNumber: "POL-0000000001", PolicyStatus: models.PolicyStatusActive,
		}))

	in := &models.Profile{ID: "id-1", Email: "a@x.com", FullName: "A A", DateOfBirth: "1990-01-01"}
	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyStatusActive, got.PolicyStatus)
	assert.Equal(t, "POL-0000000001", got.PolicyNumber)
	assert.Regexp(t, `^POL-[0-9A-F]{10}$`, in.PolicyNumber)
}

func TestCreate_RejectsUnknownStatus(t *testing.T) {
	repo, _ := newRepoWithMock(t)

	_, err := repo.Create(context.Background(), &models.Profile{ID: "id-1", PolicyStatus: "Cancelled"})
	assert.Error(t, err)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Profile{ID: "id-1"})
	assert.Regexp(t, `db error: .*fk violation`, err)
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(selectQ).WithArgs("id-1").WillReturnRows(profileRow(models.Profile{
			ID: "id-1", Email: "a@x.com", PolicyStatus: models.PolicyStatusPending,
		}))

		got, err := repo.Get(context.Background(), "id-1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", got.Email)
		assert.Equal(t, models.PolicyStatusPending, got.PolicyStatus)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(selectQ).WithArgs("id-1").WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "id-1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(updEmailQ).WithArgs("id-1", "new@x.com").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updEmailQ).WithArgs("id-2", "new@x.com").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateEmail(context.Background(), "id-1", "new@x.com"))
	assert.ErrorIs(t, repo.UpdateEmail(context.Background(), "id-2", "new@x.com"), common.ErrorNotFound)
}

func TestUpdate_BuildsSparseStatement(t *testing.T) {
	name := "B B"
	dob := "1991-02-02"

	tests := []struct {
		name  string
		upd   models.ProfileUpdate
		query string
		args  []driver.Value
	}{
		{
			name:  "full name only",
			upd:   models.ProfileUpdate{FullName: &name},
			query: `(?s)^UPDATE\s+profiles\s+SET\s+full_name\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,.*$`,
			args:  []driver.Value{"id-1", name},
		},
		{
			name:  "date of birth only",
			upd:   models.ProfileUpdate{DateOfBirth: &dob},
			query: `(?s)^UPDATE\s+profiles\s+SET\s+date_of_birth\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,.*$`,
			args:  []driver.Value{"id-1", dob},
		},
		{
			name:  "both",
			upd:   models.ProfileUpdate{FullName: &name, DateOfBirth: &dob},
			query: `(?s)^UPDATE\s+profiles\s+SET\s+full_name\s*=\s*\$2,\s*date_of_birth\s*=\s*\$3,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,.*$`,
			args:  []driver.Value{"id-1", name, dob},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(tt.query).WithArgs(tt.args...).
				WillReturnRows(profileRow(models.Profile{ID: "id-1", FullName: name, DateOfBirth: dob, PolicyStatus: models.PolicyStatusActive}))

			got, err := repo.Update(context.Background(), "id-1", tt.upd)
			require.NoError(t, err)
			assert.Equal(t, "id-1", got.ID)
		})
	}
}

func TestUpdate_Empty(t *testing.T) {
	repo, _ := newRepoWithMock(t)

	_, err := repo.Update(context.Background(), "id-1", models.ProfileUpdate{})
	assert.ErrorIs(t, err, common.ErrNoFieldsProvided)
}

func TestUpdate_NotFound(t *testing.T) {
	name := "B B"
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^UPDATE\s+profiles`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "id-1", models.ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
