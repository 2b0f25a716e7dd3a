// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package audittrail

import (
	"bytes"
	"io/ioutil"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	_ "golang.org/x/crypto/ripemd160"
)

func readArmoredKeyFile(path string) (openpgp.EntityList, error) {
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return openpgp.ReadArmoredKeyRing(bytes.NewReader(bs))
}

// encrypt returns msg as an armored PGP MESSAGE for pubkeys.
func encrypt(msg []byte, pubkeys openpgp.EntityList) ([]byte, error) {
	var encbuf bytes.Buffer
	encCloser, err := openpgp.Encrypt(&encbuf, pubkeys, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if _, err := encCloser.Write(msg); err != nil {
		return nil, err
	}
	if err := encCloser.Close(); err != nil {
		return nil, err
	}

	var armorbuf bytes.Buffer
	armorCloser, err := armor.Encode(&armorbuf, "PGP MESSAGE", nil)
	if err != nil {
		return nil, err
	}
	if _, err := armorCloser.Write(encbuf.Bytes()); err != nil {
		return nil, err
	}
	if err := armorCloser.Close(); err != nil {
		return nil, err
	}
	return armorbuf.Bytes(), nil
}
