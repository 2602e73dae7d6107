package user

import "fmt"

// Category buckets users by the class of hardware they compete with. The set
// is fixed for a competition; category leaderboards always carry every
// category, including empty ones.
type Category string

const (
	CategoryAMDGPU    Category = "AMD_GPU"
	CategoryNvidiaGPU Category = "NVIDIA_GPU"
	CategoryWildcard  Category = "WILDCARD"
)

// AllCategories returns the fixed category set in display order.
func AllCategories() []Category {
	return []Category{CategoryAMDGPU, CategoryNvidiaGPU, CategoryWildcard}
}

func ParseCategory(value string) (Category, bool) {
	for _, category := range AllCategories() {
		if string(category) == value {
			return category, true
		}
	}
	return "", false
}

// User is one tracked volunteer. Passkey is the upstream access token and
// must never appear in full in logs or API payloads.
type User struct {
	ID          string
	DisplayName string
	ForumName   string
	Passkey     string
	Category    Category
	HardwareID  string
	TeamID      string
	IsCaptain   bool
	JoinOrder   int
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.DisplayName == "" {
		return fmt.Errorf("user display name is required")
	}
	if u.Passkey == "" {
		return fmt.Errorf("user passkey is required")
	}
	if _, ok := ParseCategory(string(u.Category)); !ok {
		return fmt.Errorf("user category %q is not recognised", u.Category)
	}
	if u.HardwareID == "" {
		return fmt.Errorf("user hardware id is required")
	}
	if u.TeamID == "" {
		return fmt.Errorf("user team id is required")
	}

	return nil
}

// MaskPasskey keeps the first eight characters for operator correlation and
// hides the rest.
func MaskPasskey(passkey string) string {
	if len(passkey) <= 8 {
		return passkey
	}
	return passkey[:8] + "************************"
}
