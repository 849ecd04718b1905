package pomodoro

import (
	"fmt"
	"strconv"
	"time"
)

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}

// Clock renders d as mm:ss, rounding up to the next second.
func Clock(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
