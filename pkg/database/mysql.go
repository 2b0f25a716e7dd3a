// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/moov-io/base/docker"
	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lopezator/migrator"
	"github.com/ory/dockertest/v3"
	stdprom "github.com/prometheus/client_golang/prometheus"
)

var (
	mysqlConnections = kitprom.NewGaugeFrom(stdprom.GaugeOpts{
		Name: "mysql_connections",
		Help: "How many MySQL connections and what status they're in.",
	}, []string{"state"})

	// mySQLErrDuplicateKey is the error code for duplicate entries
	// https://dev.mysql.com/doc/refman/8.0/en/server-error-reference.html#error_er_dup_entry
	mySQLErrDuplicateKey uint16 = 1062

	mysqlMigrations = migrator.Migrations(
		execsql(
			"create_sanctions",
			`create table if not exists sanctions(entity_id varchar(40) primary key, name varchar(500) not null, entity_type varchar(40), programs varchar(250), remarks text, source_list varchar(100), created_at datetime);`,
		),
		execsql(
			"create_sanctions__name_idx",
			`create index sanctions_name_idx on sanctions (name);`,
		),
		execsql(
			"create_screening_requests",
			`create table if not exists screening_requests(request_id varchar(40) primary key, name varchar(500), had_matches boolean, created_at datetime);`,
		),
		execsql(
			"create_screening_requests__created_at_idx",
			`create index screening_requests_created_at_idx on screening_requests (created_at);`,
		),
	)
)

type discardLogger struct{}

func (l discardLogger) Print(v ...interface{}) {}

func init() {
	gomysql.SetLogger(discardLogger{})
}

type mysql struct {
	dsn            string
	maxConnections int
	logger         log.Logger

	connections *kitprom.Gauge
}

func (my *mysql) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", my.dsn)
	if err != nil {
		return nil, err
	}
	if my.maxConnections > 0 {
		db.SetMaxOpenConns(my.maxConnections)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %v", err)
	}
	if err := migrate(db, mysqlMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql migrations: %v", err)
	}

	go recordStats(ctx, db, my.connections)

	return db, nil
}

// splitAddress reads the network out of tcp(host:port) and unix(/path) addresses.
func splitAddress(address string) (network, addr string) {
	if open := strings.Index(address, "("); open > 0 && strings.HasSuffix(address, ")") {
		return address[:open], address[open+1 : len(address)-1]
	}
	return "tcp", address
}

func mysqlConnection(logger log.Logger, cfg *config.MySQL) *mysql {
	network, addr := splitAddress(cfg.Address)

	dsn := gomysql.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.GetPassword()
	dsn.Net = network
	dsn.Addr = addr
	dsn.DBName = cfg.Database
	dsn.Timeout = 30 * time.Second
	dsn.ParseTime = true
	dsn.Params = map[string]string{
		"charset":  "utf8mb4",
		"sql_mode": "ALLOW_INVALID_DATES",
	}

	return &mysql{
		dsn:            dsn.FormatDSN(),
		maxConnections: cfg.MaxConnections,
		logger:         logger,
		connections:    mysqlConnections,
	}
}

// TestMySQLDB is a wrapper around sql.DB for MySQL connections designed for tests to provide
// a clean database for each testcase.  Callers should cleanup with Close() when finished.
type TestMySQLDB struct {
	DB *sql.DB

	container *dockertest.Resource
	shutdown  func() // context shutdown func
}

func (r *TestMySQLDB) Close() error {
	r.shutdown()
	r.container.Close()
	return r.DB.Close()
}

// CreateTestMySQLDB returns a TestMySQLDB which can be used in tests
// as a clean mysql database. All migrations are ran on the db before.
//
// Callers should call close on the returned *TestMySQLDB.
func CreateTestMySQLDB(t *testing.T) *TestMySQLDB {
	if testing.Short() {
		t.Skip("-short flag enabled")
	}
	if !docker.Enabled() {
		t.Skip("Docker not enabled")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatal(err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8",
		Env: []string{
			"MYSQL_USER=moov",
			"MYSQL_PASSWORD=secret",
			"MYSQL_ROOT_PASSWORD=secret",
			"MYSQL_DATABASE=screener",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = pool.Retry(func() error {
		db, err := sql.Open("mysql", fmt.Sprintf("moov:secret@tcp(localhost:%s)/screener", resource.GetPort("3306/tcp")))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
	if err != nil {
		resource.Close()
		t.Fatal(err)
	}

	logger := log.NewNopLogger()
	address := fmt.Sprintf("tcp(localhost:%s)", resource.GetPort("3306/tcp"))

	ctx, cancelFunc := context.WithCancel(context.Background())

	db, err := mysqlConnection(logger, &config.MySQL{
		Address:  address,
		Username: "moov",
		Password: "secret",
		Database: "screener",
	}).Connect(ctx)
	if err != nil {
		cancelFunc()
		resource.Close()
		t.Fatal(err)
	}
	return &TestMySQLDB{DB: db, container: resource, shutdown: cancelFunc}
}

// MySQLUniqueViolation returns true when the provided error matches the MySQL code
// for duplicate entries (violating a unique table constraint).
func MySQLUniqueViolation(err error) bool {
	match := strings.Contains(err.Error(), fmt.Sprintf("Error %d: Duplicate entry", mySQLErrDuplicateKey))
	if e, ok := err.(*gomysql.MySQLError); ok {
		return match || e.Number == mySQLErrDuplicateKey
	}
	return match
}
