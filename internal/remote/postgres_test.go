package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
)

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	s := NewPostgresStore(db)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s, mock, db
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	if _, err := OpenPostgres(""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestFetchAll_Success(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"e1"}`)).
		AddRow([]byte(`{"id":"e2"}`))
	mock.ExpectQuery(`^SELECT data FROM exhibits$`).WillReturnRows(rows)

	got, err := s.FetchAll(context.Background(), Exhibits)
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(got) != 2 || string(got[1]) != `{"id":"e2"}` {
		t.Fatalf("unexpected rows: %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFetchAll_DBError(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT data FROM users$`).WillReturnError(errors.New("db down"))

	_, err := s.FetchAll(context.Background(), Users)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFetchAll_UnknownTable(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	if _, err := s.FetchAll(context.Background(), Table("pg_user; --")); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query should be issued: %v", err)
	}
}

func TestUpsert_UsesKeyColumn(t *testing.T) {
	tests := []struct {
		table Table
		col   string
	}{
		{Users, "username"},
		{Messages, "id"},
	}
	for _, tt := range tests {
		t.Run(string(tt.table), func(t *testing.T) {
			s, mock, db := newStoreWithMock(t)
			defer db.Close()

			q := `(?s)^INSERT\s+INTO\s+` + string(tt.table) + `\s*\(` + tt.col + `,\s*data,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(` + tt.col + `\)\s*DO\s+UPDATE`
			mock.ExpectExec(q).
				WithArgs("k1", []byte(`{"x":1}`), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := s.Upsert(context.Background(), tt.table, "k1", json.RawMessage(`{"x":1}`)); err != nil {
				t.Fatalf("Upsert error: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestUpsert_EmptyKey(t *testing.T) {
	s, _, db := newStoreWithMock(t)
	defer db.Close()

	if err := s.Upsert(context.Background(), Exhibits, "", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestDelete_Success(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM collections WHERE id = \$1$`).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), Collections, "c1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPing(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestRunMigrations_UsesSeam(t *testing.T) {
	s, _, db := newStoreWithMock(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	called := false
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		if got != db {
			t.Error("expected the store's db handle")
		}
		return nil
	}
	if err := s.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if !called {
		t.Fatal("expected goose to be invoked")
	}

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("bad sql")
	}
	if err := s.RunMigrations(context.Background()); err == nil {
		t.Fatal("expected migration error")
	}
}
