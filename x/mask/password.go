// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package mask

import (
	"strings"
)

// Password hides all but the first and last characters of s.
func Password(s string) string {
	runes := []rune(s)
	if len(runes) < 3 {
		return "**" // too short, we can't mask anything
	}
	// turn 'password' into 'p******d'
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

// URL masks the password of a user:pass@host style connection string.
func URL(raw string) string {
	scheme := strings.Index(raw, "://")
	at := strings.LastIndex(raw, "@")
	if scheme < 0 || at < scheme {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return raw
	}
	return raw[:scheme+3] + userinfo[:colon+1] + Password(userinfo[colon+1:]) + raw[at:]
}
