package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// MoodScore enforces the 1-5 scale used by mood logs.
func MoodScore(v int) error {
	if v < 1 || v > 5 {
		return fmt.Errorf("moodScore must be between 1 and 5")
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateProfile validates input for creating a new profile.
func CreateProfile(email, role string) error {
	if err := Email(email); err != nil {
		return err
	}
	if role != "" && role != "patient" && role != "therapist" {
		return fmt.Errorf("role must be patient or therapist")
	}
	return nil
}

// ChatMessage validates a chat submission before relaying it upstream.
func ChatMessage(message, sessionID string) error {
	if err := NonEmpty("message", message); err != nil {
		return err
	}
	if len(message) > 9000 {
		return fmt.Errorf("message exceeds 9000 characters")
	}
	return NonEmpty("sessionId", sessionID)
}
