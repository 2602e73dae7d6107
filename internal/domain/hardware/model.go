package hardware

import "fmt"

// Hardware is one entry from the hardware-ranking feed. Multiplier scales a
// user's competition points into displayed multiplied points. A row is never
// edited in place once a computation has referenced it; updates arrive as a
// new logical version and apply to future normalizations only.
type Hardware struct {
	ID          string
	DisplayName string
	Multiplier  float64
	AverageRank float64
}

func (h Hardware) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("hardware id is required")
	}
	if h.DisplayName == "" {
		return fmt.Errorf("hardware display name is required")
	}
	if h.Multiplier < 0 {
		return fmt.Errorf("hardware multiplier must not be negative")
	}

	return nil
}
