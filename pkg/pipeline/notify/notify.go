// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

// Message describes one source file handled by the pipeline. Err is set
// for Critical messages.
type Message struct {
	Source   string
	Filename string
	Hostname string
	Rows     int
	Err      error
}

type Sender interface {
	Info(msg *Message) error
	Critical(msg *Message) error
}

func verb(critical bool) string {
	if critical {
		return "failed to upload to"
	}
	return "was uploaded to"
}
