package reminder

import (
	"fmt"
	"time"

	"github.com/SoarinFerret/StudyTimer/internal/timer"
)

// Due reports whether a break reminder should fire. It fires once per study
// phase, as soon as the phase has lasted threshold. last is when the previous
// reminder fired (zero if never). A zero threshold disables reminders.
func Due(st timer.State, now time.Time, threshold time.Duration, last time.Time) bool {
	if threshold <= 0 || st.Mode != timer.Studying {
		return false
	}

	if !last.IsZero() && !last.Before(st.PhaseStart) {
		// already reminded during this phase
		return false
	}

	return now.Sub(st.PhaseStart) >= threshold
}

// Message is the notification body for a study phase of length d.
func Message(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("You have been studying for %d hour(s) %d minute(s). Time for a break?", hours, minutes)
	}
	return fmt.Sprintf("You have been studying for %d minute(s). Time for a break?", minutes)
}
