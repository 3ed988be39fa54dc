package analysis

import (
	"fmt"
	"math"
)

// FormatTime renders seconds as "M:SS". Negative and non-finite inputs
// render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatTimeWithMs renders seconds as "M:SS.mmm".
func FormatTimeWithMs(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	ms := int(math.Round((seconds - float64(total)) * 1000))
	if ms >= 1000 {
		total++
		ms -= 1000
	}
	return fmt.Sprintf("%d:%02d.%03d", total/60, total%60, ms)
}
