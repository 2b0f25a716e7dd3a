// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package audittrail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/moov-io/screener/pkg/config"

	"golang.org/x/crypto/openpgp"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// blobStorage archives uploaded files into a gocloud.dev/blob bucket, optionally
// encrypted to a GPG public key.
type blobStorage struct {
	bucket *blob.Bucket
	pubKey openpgp.EntityList

	now func() time.Time
}

func newBlobStorage(cfg *config.AuditTrail) (*blobStorage, error) {
	var pubKey openpgp.EntityList
	if cfg.GPG != nil {
		key, err := readArmoredKeyFile(cfg.GPG.KeyFile)
		if err != nil {
			return nil, err
		}
		pubKey = key
	}

	bucket, err := blob.OpenBucket(context.Background(), cfg.BucketURI)
	if err != nil {
		return nil, fmt.Errorf("opening audit trail bucket: %v", err)
	}
	return &blobStorage{
		bucket: bucket,
		pubKey: pubKey,
		now:    time.Now,
	}, nil
}

func (bs *blobStorage) Close() error {
	if bs == nil {
		return nil
	}
	return bs.bucket.Close()
}

// SaveFile writes contents to audit-trail/YYYY-MM-DD/<filename>. Encrypted files
// get a .gpg suffix. The plaintext sha256 is kept in the object's metadata.
func (bs *blobStorage) SaveFile(filename string, contents []byte) error {
	sum := sha256.Sum256(contents)
	opts := &blob.WriterOptions{
		ContentType: "text/csv",
		Metadata: map[string]string{
			"sha256": hex.EncodeToString(sum[:]),
		},
	}
	if len(bs.pubKey) > 0 {
		encrypted, err := encrypt(contents, bs.pubKey)
		if err != nil {
			return fmt.Errorf("encrypting %s: %v", filename, err)
		}
		contents = encrypted
		filename += ".gpg"
		opts.ContentType = "application/pgp-encrypted"
	}

	key := fmt.Sprintf("audit-trail/%s/%s", bs.now().Format("2006-01-02"), filename)
	if err := bs.bucket.WriteAll(context.Background(), key, contents, opts); err != nil {
		return fmt.Errorf("writing %s: %v", key, err)
	}
	return nil
}
