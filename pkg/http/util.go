package http

import (
	"time"

	xutil "SignalBatch/pkg/util"
)

// Re-exports for handlers reading query parameters, so they do not need
// a second util import next to this package.

func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
