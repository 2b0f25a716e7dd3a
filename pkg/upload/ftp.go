// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"path/filepath"
	"sync"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	"github.com/jlaffaye/ftp"
)

// FTPTransferAgent is an FTP implementation of an Agent
type FTPTransferAgent struct {
	conn   *ftp.ServerConn
	cfg    config.Upload
	logger log.Logger
	mu     sync.Mutex // protects all read/write methods
}

func newFTPTransferAgent(logger log.Logger, cfg config.Upload) (*FTPTransferAgent, error) {
	if cfg.FTP == nil {
		return nil, errors.New("nil FTP config")
	}
	agent := &FTPTransferAgent{
		cfg:    cfg,
		logger: logger,
	}

	if err := rejectOutboundIPRange(cfg.SplitAllowedIPs(), cfg.FTP.Hostname); err != nil {
		return nil, fmt.Errorf("ftp: %s is not allowed: %v", cfg.FTP.Hostname, err)
	}

	_, err := agent.connection() // initial connection

	return agent, err
}

// connection returns an ftp.ServerConn which is connected to the remote server.
// This function will attempt to establish a new connection if none exists already.
//
// connection must be called within a mutex lock as the underlying FTP client is not
// goroutine-safe.
func (agent *FTPTransferAgent) connection() (*ftp.ServerConn, error) {
	if agent == nil || agent.cfg.FTP == nil {
		return nil, errors.New("nil agent / config")
	}

	if agent.conn != nil {
		// Verify the connection works and if not drop through and reconnect
		if err := agent.conn.NoOp(); err == nil {
			return agent.conn, nil
		}
		agent.conn.Quit()
		agent.conn = nil
	}

	opts, err := dialOptions(agent.cfg.FTP)
	if err != nil {
		return nil, err
	}
	conn, err := ftp.Dial(agent.cfg.FTP.Hostname, opts...)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(agent.cfg.FTP.Username, agent.cfg.FTP.Password); err != nil {
		conn.Quit()
		return nil, err
	}
	agent.conn = conn

	return agent.conn, nil
}

func dialOptions(cfg *config.FTP) ([]ftp.DialOption, error) {
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(cfg.Timeout()),
		ftp.DialWithDisabledEPSV(cfg.DisabledEPSV),
	}
	if cfg.TLS != nil && cfg.TLS.Disabled {
		return opts, nil
	}

	tlsConfig, err := tlsClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.TLS != nil && cfg.TLS.Implicit {
		return append(opts, ftp.DialWithTLS(tlsConfig)), nil
	}
	// AUTH TLS on the control connection, then PROT P for data
	return append(opts, ftp.DialWithExplicitTLS(tlsConfig)), nil
}

func tlsClientConfig(cfg *config.FTP) (*tls.Config, error) {
	out := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if host, _, err := net.SplitHostPort(cfg.Hostname); err == nil {
		out.ServerName = host
	} else {
		out.ServerName = cfg.Hostname
	}
	if cfg.TLS == nil {
		return out, nil
	}
	out.InsecureSkipVerify = cfg.TLS.InsecureSkipVerify

	if cfg.TLS.CAFile != "" {
		bs, err := ioutil.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("ftp tls: failed to read %s: %v", cfg.TLS.CAFile, err)
		}
		pool, err := x509.SystemCertPool()
		if pool == nil || err != nil {
			pool = x509.NewCertPool()
		}
		if ok := pool.AppendCertsFromPEM(bs); !ok {
			return nil, fmt.Errorf("ftp tls: problem with AppendCertsFromPEM from %s", cfg.TLS.CAFile)
		}
		out.RootCAs = pool
	}
	return out, nil
}

func (agent *FTPTransferAgent) Ping() error {
	if agent == nil {
		return errors.New("nil FTPTransferAgent")
	}

	agent.mu.Lock()
	defer agent.mu.Unlock()

	conn, err := agent.connection()
	if err != nil {
		return err
	}
	return conn.NoOp()
}

func (agent *FTPTransferAgent) Close() error {
	if agent == nil {
		return nil
	}

	agent.mu.Lock()
	defer agent.mu.Unlock()

	if agent.conn == nil {
		return nil
	}
	err := agent.conn.Quit()
	agent.conn = nil
	return err
}

func (agent *FTPTransferAgent) OutboundPath() string {
	return agent.cfg.OutboundPath
}

func (agent *FTPTransferAgent) Hostname() string {
	if agent == nil || agent.cfg.FTP == nil {
		return ""
	}
	return hostname(agent.cfg.FTP.Hostname)
}

// UploadFile saves the content of File at the given filename in the OutboundPath directory
//
// The File's contents will always be closed
func (agent *FTPTransferAgent) UploadFile(f File) error {
	defer f.Close()

	agent.mu.Lock()
	defer agent.mu.Unlock()

	conn, err := agent.connection()
	if err != nil {
		return err
	}

	if agent.cfg.OutboundPath != "" {
		wd, err := conn.CurrentDir()
		if err != nil {
			return err
		}
		if err := conn.ChangeDir(agent.cfg.OutboundPath); err != nil {
			return err
		}
		defer func(path string) {
			// Return to our previous directory when initially called
			if err := conn.ChangeDir(path); err != nil {
				agent.logger.Log("ftp", fmt.Sprintf("problem returning to %s: %v", path, err))
			}
		}(wd)
	}

	// Take the base of f.Filename to avoid accepting a write like '../../../../etc/passwd'.
	return conn.Stor(filepath.Base(f.Filename), f.Contents)
}

func hostname(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}
