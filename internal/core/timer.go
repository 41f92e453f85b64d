package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// slowCallThreshold keeps fast calls out of the debug log.
const slowCallThreshold = 100 * time.Millisecond

// Timer logs how long a call took, meant to be deferred with the
// start time captured at entry:
//
//	defer core.Timer(time.Now(), "pass(%s)", name)
func Timer(start time.Time, format string, args ...any) {
	elapsed := time.Since(start)
	if elapsed < slowCallThreshold {
		return
	}
	log.Debug().
		Str("call", fmt.Sprintf(format, args...)).
		Dur("elapsed", elapsed).
		Msg("slow call")
}
