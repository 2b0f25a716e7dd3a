// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/moov-io/screener/pkg/config"
)

type FilenameData struct {
	SourceName string
}

var filenameFunctions template.FuncMap = map[string]interface{}{
	"date": func(pattern string) string {
		return time.Now().Format(pattern)
	},
	"env": func(name string) string {
		return os.Getenv(name)
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// RenderFilename executes raw (or config.DefaultFilenameTemplate when empty) with data.
// The result is always a single path element.
func RenderFilename(raw string, data FilenameData) (string, error) {
	if raw == "" {
		raw = config.DefaultFilenameTemplate
	}
	t, err := template.New(data.SourceName).Funcs(filenameFunctions).Parse(raw)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimSpace(buf.String()))
	if name == "." || name == string(filepath.Separator) {
		return "", errors.New("rendered an empty filename")
	}
	return name, nil
}
