package team

import "fmt"

// Team is one competing team. Member ordering is significant: within-team
// ranks break ties by the order members joined.
type Team struct {
	ID          string
	Name        string
	Description string
	ForumLink   string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
