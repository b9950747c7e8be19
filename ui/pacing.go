package ui

import (
	"fmt"
	"time"
)

// ADTSleep returns how long to wait before the next tick. A buffer level
// below lo shortens the wait and one above hi lengthens it. A negative
// level means there is no audio to pace against.
func ADTSleep(tick, elapsed time.Duration, level, lo, hi int) time.Duration {
	sleep := tick - elapsed
	if level < 0 {
		return sleep
	}
	if level < lo {
		sleep = time.Duration(float64(sleep) * 0.9)
	} else if level > hi {
		sleep = time.Duration(float64(sleep) * 1.1)
	}
	return sleep
}

// StatusLine formats the player's position and state for display.
func StatusLine(title string, pos uint32, loops int, done, paused bool) string {
	s := fmt.Sprintf("%s  %02d:%02d.%03d", title, pos/60000, pos/1000%60, pos%1000)
	if loops > 0 {
		s += fmt.Sprintf("  loop %d", loops)
	}
	switch {
	case paused:
		s += "  [paused]"
	case done:
		s += "  [end]"
	}
	return s
}
