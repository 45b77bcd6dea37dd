package model

import "strings"

// ResolveRole determines an account's role from the available signals, in
// priority order: the stored profile role, the auth-provider metadata role,
// a heuristic on the contact address, then the patient default. The result
// is always one of the two roles.
func ResolveRole(profileRole, metadataRole, email string) Role {
	if r, ok := parseRole(profileRole); ok {
		return r
	}
	if r, ok := parseRole(metadataRole); ok {
		return r
	}
	lower := strings.ToLower(email)
	if strings.Contains(lower, "therapist") || strings.Contains(lower, "psicologo") {
		return RoleTherapist
	}
	return RolePatient
}

func parseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, true
	case RoleTherapist:
		return RoleTherapist, true
	}
	return "", false
}

// ValidMoodScore reports whether a mood score is within the accepted range.
func ValidMoodScore(score int) bool {
	return score >= 1 && score <= 5
}
