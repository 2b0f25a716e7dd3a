// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"encoding/base64"

	"golang.org/x/crypto/ssh"
)

// readPubKey parses an authorized_keys line or a wire format key (RFC 4253 section 6.6),
// either of which may be base64 encoded.
func readPubKey(data []byte) (ssh.PublicKey, error) {
	readAuthd := func(data []byte) (ssh.PublicKey, error) {
		pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
		return pub, err
	}

	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if len(decoded) > 0 && err == nil {
		if pub, err := readAuthd(decoded); pub != nil && err == nil {
			return pub, nil
		}
		return ssh.ParsePublicKey(decoded)
	}

	if pub, err := readAuthd(data); pub != nil && err == nil {
		return pub, nil
	}
	return ssh.ParsePublicKey(data)
}

// readSigner parses a PEM private key, optionally base64 encoded.
func readSigner(raw string) (ssh.Signer, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if len(decoded) > 0 && err == nil {
		return ssh.ParsePrivateKey(decoded)
	}
	return ssh.ParsePrivateKey([]byte(raw))
}
