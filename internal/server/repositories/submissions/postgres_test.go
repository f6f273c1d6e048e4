package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/flags"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleData() models.SubmissionData {
	return models.SubmissionData{
		Steps: steps.Record{steps.Goals: json.RawMessage(`{"primaryGoal":"strength"}`)},
		Flags: flags.ClientFlags{IsAthlete: true},
	}
}

const appendQuery = `(?s)^\s*INSERT\s+INTO\s+submissions\s*\(id,\s*user_id,\s*submitted_at,\s*data,\s*status,\s*version\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`

func TestAppend_InsertsNewRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(appendQuery).
		WithArgs(sqlmock.AnyArg(), "u-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "submitted", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := repo.Append(context.Background(), "u-1", sampleData())
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if got.ID == "" || got.UserID != "u-1" || got.Status != models.SubmissionStatusSubmitted {
		t.Fatalf("unexpected submission: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppend_DistinctIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(appendQuery).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(appendQuery).WillReturnResult(sqlmock.NewResult(2, 1))

	first, err := repo.Append(context.Background(), "u-1", sampleData())
	if err != nil {
		t.Fatalf("first Append error: %v", err)
	}
	second, err := repo.Append(context.Background(), "u-1", sampleData())
	if err != nil {
		t.Fatalf("second Append error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %s twice", first.ID)
	}
}

func TestAppend_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(appendQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Append(context.Background(), "u-1", sampleData())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestListAll_InsertionOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "submitted_at", "data", "status", "version"}).
		AddRow("s-1", t1, []byte(`{"steps":{},"flags":{}}`), "submitted", 1).
		AddRow("s-2", t2, []byte(`{"steps":{},"flags":{}}`), "submitted", 1)

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*submitted_at,\s*data,\s*status,\s*version\s+FROM\s+submissions\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+seq\s*$`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.ListAll(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s-1" || got[1].ID != "s-2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestLatest_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "submitted_at", "data", "status", "version"}).
		AddRow("s-9", time.Now(), []byte(`{"steps":{},"flags":{"isAthlete":true}}`), "submitted", 1)

	mock.ExpectQuery(`(?s)ORDER\s+BY\s+seq\s+DESC\s+LIMIT\s+1`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if got.ID != "s-9" || !got.Data.Flags.IsAthlete {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestLatest_EmptyLog(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)ORDER\s+BY\s+seq\s+DESC\s+LIMIT\s+1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Latest(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
