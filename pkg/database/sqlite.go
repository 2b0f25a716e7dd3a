// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	"github.com/lopezator/migrator"
	"github.com/mattn/go-sqlite3"
	stdprom "github.com/prometheus/client_golang/prometheus"
)

var (
	sqliteConnections = kitprom.NewGaugeFrom(stdprom.GaugeOpts{
		Name: "sqlite_connections",
		Help: "How many sqlite connections and what status they're in.",
	}, []string{"state"})

	sqliteVersionLogOnce sync.Once

	sqliteMigrations = migrator.Migrations(
		execsql(
			"create_sanctions",
			`create table if not exists sanctions(entity_id primary key, name not null, entity_type, programs, remarks, source_list, created_at datetime);`,
		),
		execsql(
			"create_sanctions__name_idx",
			`create index sanctions_name_idx on sanctions (name);`,
		),
		execsql(
			"create_screening_requests",
			`create table if not exists screening_requests(request_id primary key, name, had_matches boolean, created_at datetime);`,
		),
		execsql(
			"create_screening_requests__created_at_idx",
			`create index screening_requests_created_at_idx on screening_requests (created_at);`,
		),
	)
)

type sqlite struct {
	dsn    string
	logger log.Logger

	connections *kitprom.Gauge
}

// sqliteConnection waits up to 5s on a locked database before returning SQLITE_BUSY.
func sqliteConnection(logger log.Logger, path string) *sqlite {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")

	return &sqlite{
		dsn:         fmt.Sprintf("file:%s?%s", path, params.Encode()),
		logger:      logger,
		connections: sqliteConnections,
	}
}

func (s *sqlite) Connect(ctx context.Context) (*sql.DB, error) {
	sqliteVersionLogOnce.Do(func() {
		if v, _, _ := sqlite3.Version(); v != "" {
			s.logger.Log("database", fmt.Sprintf("sqlite version %s", v))
		}
	})

	db, err := sql.Open("sqlite3", s.dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return db, fmt.Errorf("sqlite ping: %v", err)
	}
	if err := migrate(db, sqliteMigrations); err != nil {
		return db, fmt.Errorf("sqlite migrations: %v", err)
	}

	go recordStats(ctx, db, s.connections)

	return db, nil
}

// getSqlitePath falls back to screener.db for empty paths and paths
// trying to escape the working directory.
func getSqlitePath(path string) string {
	if path == "" || strings.Contains(path, "..") {
		return "screener.db"
	}
	return path
}

// TestSQLiteDB is a migrated sqlite database in a temporary directory.
// Callers should Close it when finished.
type TestSQLiteDB struct {
	DB *sql.DB

	dir      string
	shutdown context.CancelFunc
}

func (r *TestSQLiteDB) Close() error {
	r.shutdown()

	// every Rows and Stmt should have been closed by the test
	if conns := r.DB.Stats().OpenConnections; conns != 0 {
		panic(fmt.Sprintf("found %d open sqlite connections", conns))
	}
	if err := r.DB.Close(); err != nil {
		return err
	}
	return os.RemoveAll(r.dir)
}

// CreateTestSqliteDB returns a TestSQLiteDB with every migration applied.
func CreateTestSqliteDB(t *testing.T) *TestSQLiteDB {
	t.Helper()

	dir, err := ioutil.TempDir("", "screener-sqlite")
	if err != nil {
		t.Fatalf("sqlite test: %v", err)
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	db, err := sqliteConnection(log.NewNopLogger(), filepath.Join(dir, "screener.db")).Connect(ctx)
	if err != nil {
		cancelFunc()
		os.RemoveAll(dir)
		t.Fatalf("sqlite test: %v", err)
	}
	db.SetMaxIdleConns(0)

	return &TestSQLiteDB{DB: db, dir: dir, shutdown: cancelFunc}
}

// SqliteUniqueViolation returns true when err is a sqlite constraint error
// for duplicate entries.
func SqliteUniqueViolation(err error) bool {
	if e, ok := err.(sqlite3.Error); ok && e.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
