// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
)

type Database struct {
	SQLite *SQLite
	MySQL  *MySQL
}

func (cfg Database) Validate() error {
	if cfg.SQLite == nil && cfg.MySQL == nil {
		return errors.New("no sqlite or mysql database configured")
	}
	if cfg.MySQL != nil && cfg.MySQL.Address == "" {
		return errors.New("mysql: missing address")
	}
	return nil
}

type SQLite struct {
	Path string
}

// MySQL.Address is host:port, tcp(host:port) or unix(/path/to/socket).
type MySQL struct {
	Address  string
	Username string
	Password string
	Database string

	// MaxConnections caps open connections, zero leaves the pool unbounded.
	MaxConnections int
}

func (cfg *MySQL) GetPassword() string {
	pass := os.Getenv("MYSQL_PASSWORD")
	if cfg == nil {
		return pass
	}
	return or(pass, cfg.Password)
}
