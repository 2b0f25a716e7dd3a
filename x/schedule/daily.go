// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DailyTimes is a time.Ticker which fires once a day at each configured
// time of day ("15:04" format).
type DailyTimes struct {
	C chan time.Time

	location *time.Location
	sched    *cron.Cron
	done     chan struct{}
}

// ForDailyTimes starts firing at each of timestamps, read in the tz location.
// An empty tz uses UTC.
func ForDailyTimes(tz string, timestamps []string) (*DailyTimes, error) {
	location := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %v", tz, err)
		}
		location = l
	}
	dt := &DailyTimes{
		C:        make(chan time.Time),
		done:     make(chan struct{}),
		location: location,
		sched:    cron.New(cron.WithLocation(location)),
	}
	if err := dt.registerAll(timestamps); err != nil {
		return nil, err
	}
	dt.sched.Start()
	return dt, nil
}

func (dt *DailyTimes) Stop() {
	if dt == nil {
		return
	}
	// unblock a tick nobody is reading
	close(dt.done)
	if dt.sched != nil {
		<-dt.sched.Stop().Done()
	}
	if dt.C != nil {
		close(dt.C)
	}
}

func (dt *DailyTimes) tick() {
	select {
	case dt.C <- time.Now().In(dt.location):
	case <-dt.done:
	}
}

func (dt *DailyTimes) registerAll(timestamps []string) error {
	if len(timestamps) == 0 {
		return errors.New("missing schedule times")
	}
	for i := range timestamps {
		if err := dt.register(timestamps[i]); err != nil {
			return fmt.Errorf("timestamp=%s error=%v", timestamps[i], err)
		}
	}
	return nil
}

func (dt *DailyTimes) register(timestamp string) error {
	when, err := time.Parse("15:04", timestamp)
	if err != nil {
		return fmt.Errorf("failed to parse '%s' error=%v", timestamp, err)
	}
	_, err = dt.sched.AddFunc(fmt.Sprintf("%d %d * * *", when.Minute(), when.Hour()), dt.tick)
	return err
}
