// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"sync"
	"time"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/pkg/sftp"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/ssh"
)

var (
	sftpAgentUp = prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Name: "sftp_agent_up",
		Help: "Status of SFTP agent connection",
	}, []string{"hostname"})

	sftpDialAttempts = 3
)

// SFTPTransferAgent uploads files over SFTP. Files are written under a
// temporary name and renamed once complete.
type SFTPTransferAgent struct {
	cfg    config.Upload
	logger log.Logger

	mu     sync.Mutex // guards conn and client
	conn   *ssh.Client
	client *sftp.Client
}

func newSFTPTransferAgent(logger log.Logger, cfg config.Upload) (*SFTPTransferAgent, error) {
	if cfg.SFTP == nil {
		return nil, errors.New("nil SFTP config")
	}
	if err := rejectOutboundIPRange(cfg.SplitAllowedIPs(), cfg.SFTP.Hostname); err != nil {
		return nil, fmt.Errorf("sftp: %s is not allowed: %v", cfg.SFTP.Hostname, err)
	}
	agent := &SFTPTransferAgent{cfg: cfg, logger: logger}

	agent.mu.Lock()
	defer agent.mu.Unlock()

	_, err := agent.connection()
	return agent, err
}

// connection returns a working sftp.Client, reconnecting when the previous
// session has gone away. Callers must hold agent.mu.
func (agent *SFTPTransferAgent) connection() (*sftp.Client, error) {
	if agent == nil || agent.cfg.SFTP == nil {
		return nil, errors.New("nil agent / config")
	}
	if agent.client != nil {
		if _, err := agent.client.Getwd(); err == nil {
			return agent.client, nil
		}
		agent.disconnect()
	}

	conf, err := sftpClientConfig(agent.logger, agent.cfg.SFTP)
	if err != nil {
		return nil, fmt.Errorf("sftp: %v", err)
	}
	conn, err := sftpDial(sftpAddress(agent.cfg.SFTP.Hostname), conf)
	if err != nil {
		return nil, fmt.Errorf("sftp: %v", err)
	}
	client, err := sftp.NewClient(conn,
		sftp.MaxConcurrentRequestsPerFile(agent.cfg.SFTP.MaxConnections()),
		sftp.MaxPacket(agent.cfg.SFTP.PacketSize()),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp: starting subsystem on %s: %v", agent.cfg.SFTP.Hostname, err)
	}
	agent.conn, agent.client = conn, client
	return client, nil
}

func (agent *SFTPTransferAgent) disconnect() {
	if agent.client != nil {
		agent.client.Close()
		agent.client = nil
	}
	if agent.conn != nil {
		agent.conn.Close()
		agent.conn = nil
	}
}

func sftpDial(addr string, conf *ssh.ClientConfig) (*ssh.Client, error) {
	var lastErr error
	for i := 0; i < sftpDialAttempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * 250 * time.Millisecond)
		}
		conn, err := ssh.Dial("tcp", addr, conf)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("dialing %s: %v", addr, lastErr)
}

// sftpAddress adds the default ssh port when hostname has none.
func sftpAddress(hostname string) string {
	if _, _, err := net.SplitHostPort(hostname); err == nil {
		return hostname
	}
	return net.JoinHostPort(hostname, "22")
}

var insecureHostKeyWarning sync.Once

func sftpClientConfig(logger log.Logger, cfg *config.SFTP) (*ssh.ClientConfig, error) {
	conf := &ssh.ClientConfig{
		User:    cfg.Username,
		Timeout: cfg.Timeout(),
	}
	conf.SetDefaults()

	if cfg.HostPublicKey != "" {
		pubKey, err := readPubKey([]byte(cfg.HostPublicKey))
		if err != nil {
			return nil, fmt.Errorf("problem parsing host public key: %v", err)
		}
		conf.HostKeyCallback = ssh.FixedHostKey(pubKey)
	} else {
		insecureHostKeyWarning.Do(func() {
			logger.Log("sftp", "WARNING: skipping host key validation, set Pipeline.Upload.SFTP.HostPublicKey")
		})
		conf.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	// offer keys before the password, servers may accept either
	if cfg.ClientPrivateKey != "" {
		signer, err := readSigner(cfg.ClientPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read client private key: %v", err)
		}
		conf.Auth = append(conf.Auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		conf.Auth = append(conf.Auth, ssh.Password(cfg.Password))
	}
	if len(conf.Auth) == 0 {
		return nil, fmt.Errorf("no auth method provided for %s", cfg.Hostname)
	}
	return conf, nil
}

func (agent *SFTPTransferAgent) Ping() error {
	if agent == nil {
		return errors.New("nil SFTPTransferAgent")
	}

	agent.mu.Lock()
	defer agent.mu.Unlock()

	client, err := agent.connection()
	if err == nil {
		_, err = client.ReadDir(".")
	}
	agent.record(err)
	if err != nil {
		return fmt.Errorf("sftp: ping %v", err)
	}
	return nil
}

func (agent *SFTPTransferAgent) record(err error) {
	if agent.cfg.SFTP == nil {
		return
	}
	up := 1.0
	if err != nil {
		up = 0
	}
	sftpAgentUp.With("hostname", agent.cfg.SFTP.Hostname).Set(up)
}

func (agent *SFTPTransferAgent) Close() error {
	if agent == nil {
		return nil
	}
	agent.mu.Lock()
	defer agent.mu.Unlock()

	agent.disconnect()
	return nil
}

func (agent *SFTPTransferAgent) OutboundPath() string {
	return agent.cfg.OutboundPath
}

func (agent *SFTPTransferAgent) Hostname() string {
	if agent == nil || agent.cfg.SFTP == nil {
		return ""
	}
	return hostname(agent.cfg.SFTP.Hostname)
}

// UploadFile writes f into OutboundPath as <name>.part and renames it to
// <name> once every byte is written. f is always closed.
func (agent *SFTPTransferAgent) UploadFile(f File) error {
	defer f.Close()

	agent.mu.Lock()
	defer agent.mu.Unlock()

	client, err := agent.connection()
	if err != nil {
		return err
	}

	dir := agent.cfg.OutboundPath
	if dir != "" {
		if _, err := client.Stat(dir); err != nil {
			if err := client.MkdirAll(dir); err != nil {
				return fmt.Errorf("sftp: problem creating parent dir %s: %v", dir, err)
			}
		}
	}

	// remote paths always use forward slashes
	final := path.Join(dir, path.Base(f.Filename))
	partial := final + ".part"

	fd, err := client.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("sftp: problem creating %s: %v", partial, err)
	}
	n, err := io.Copy(fd, f.Contents)
	if err == nil && n == 0 {
		err = errors.New("empty file")
	}
	if err == nil {
		err = fd.Chmod(0600)
	}
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		client.Remove(partial)
		return fmt.Errorf("sftp: problem writing %s: %v", f.Filename, err)
	}

	client.Remove(final)
	if err := client.Rename(partial, final); err != nil {
		return fmt.Errorf("sftp: problem renaming %s: %v", partial, err)
	}
	return nil
}
