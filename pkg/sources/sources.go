// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package sources downloads the configured CSV sanctions lists.
package sources

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/x/trace"

	"github.com/go-kit/kit/log"
)

// maxDownloadSize is the largest response body accepted, larger bodies are rejected.
var maxDownloadSize int64 = 256 * 1024 * 1024

// Table is a parsed CSV file with its header row split out.
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes t as comma separated values with the header first.
func (t *Table) WriteCSV(w io.Writer) error {
	if t == nil {
		return errors.New("nil Table")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

type Downloader struct {
	client *http.Client
	logger log.Logger
}

func NewDownloader(logger log.Logger, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{
			Timeout: 60 * time.Second,
		}
	}
	return &Downloader{
		client: client,
		logger: logger,
	}
}

// Download fetches src.URL and parses it according to src.Params.
func (dl *Downloader) Download(ctx context.Context, src config.Source) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", src.Name, err)
	}
	req.Header.Set("Accept", "text/csv")

	span, req := trace.StartClientSpan("download-"+strings.ToLower(src.Name), req)
	defer span.Finish()

	resp, err := dl.client.Do(req)
	trace.SetResponse(span, resp, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(ioutil.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: unexpected http status %s", src.Name, resp.Status)
	}

	body := &io.LimitedReader{R: resp.Body, N: maxDownloadSize + 1}
	table, err := Parse(body, src.Params)
	if body.N <= 0 {
		return nil, fmt.Errorf("%s: response exceeds %d bytes", src.Name, maxDownloadSize)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v", src.Name, err)
	}
	dl.logger.Log("sources", fmt.Sprintf("downloaded %d rows from %s", len(table.Rows), src.Name))
	return table, nil
}

// Parse reads CSV data from r. SkipRows lines are dropped before the header
// and when Columns is set only those columns are kept, in the order given.
func Parse(r io.Reader, params config.SourceParams) (*Table, error) {
	br := bufio.NewReader(r)
	for i := 0; i < params.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, errors.New("no rows after skipping")
			}
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	if params.Delimiter != "" {
		cr.Comma, _ = utf8.DecodeRuneInString(params.Delimiter)
	}
	if params.Comment != "" {
		cr.Comment, _ = utf8.DecodeRuneInString(params.Comment)
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("reading header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	indices, err := selectColumns(header, params.Columns)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for _, idx := range indices {
		table.Header = append(table.Header, header[idx])
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(indices))
		for i, idx := range indices {
			row[i] = record[idx]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func selectColumns(header []string, columns []string) ([]int, error) {
	if len(columns) == 0 {
		out := make([]int, len(header))
		for i := range header {
			out[i] = i
		}
		return out, nil
	}
	var out []int
	for _, col := range columns {
		found := false
		for i := range header {
			if strings.EqualFold(header[i], col) {
				out = append(out, i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("column %q not found in %v", col, header)
		}
	}
	return out, nil
}
