package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-local-guys/testtag-api/internal/models"
)

func TestListAssetNumbers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"asset_number"}).AddRow("1").AddRow("2").AddRow("10001")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT asset_number FROM test_results WHERE session_id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	numbers, err := repo.ListAssetNumbers(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10001"}, numbers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetNumberOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("r1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM test_results WHERE session_id = $1 AND asset_number = $2 LIMIT 1")).
		WithArgs("s1", "5").
		WillReturnRows(rows)

	id, err := repo.FindAssetNumberOwner(context.Background(), "s1", "5")
	require.NoError(t, err)
	assert.Equal(t, "r1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetNumberOwnerFree(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM test_results WHERE session_id = $1 AND asset_number = $2 LIMIT 1")).
		WithArgs("s1", "7").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindAssetNumberOwner(context.Background(), "s1", "7")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsMatching(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM test_results WHERE session_id = $1 AND asset_number = $2 AND item_name = $3 AND location = $4 AND classification = $5")).
		WithArgs("s1", "3", "Kettle", "Kitchen", "class1").
		WillReturnRows(rows)

	exists, err := repo.ExistsMatching(context.Background(), "s1", "3", "Kettle", "Kitchen", "class1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("INSERT INTO test_results").WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.TestResult{
		SessionID:   "s1",
		AssetNumber: "1",
		ItemName:    "Kettle",
		Result:      models.OutcomePass,
		Frequency:   models.FrequencyTwelveMonthly,
	}
	err := repo.Create(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM test_results WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
