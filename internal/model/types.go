package model

import "time"

// Role classifies an account as patient or therapist.
type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

// Profile represents an account in the system.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatSession groups the messages of one conversation for a patient.
type ChatSession struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	Title       *string   `json:"title,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// MessageRole is the author side of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one chat entry. Seq is assigned by the store and is strictly
// monotonic within a session; clients order and deduplicate by it.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Seq       int64       `json:"seq"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// MoodLog records a self-reported mood score for a patient.
// Score is validated to [1,5] before it reaches the store.
type MoodLog struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Score     int       `json:"moodScore"`
	Note      *string   `json:"note,omitempty"`
	LoggedAt  time.Time `json:"loggedAt"`
}

// PatientNote is the single clinical note attached to a patient.
// Writes upsert: one row per patient.
type PatientNote struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	TherapistID *string   `json:"therapistId,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TherapistPatientLink assigns a patient to a therapist.
// The (therapistID, patientID) pair is unique.
type TherapistPatientLink struct {
	ID          string    `json:"id"`
	TherapistID string    `json:"therapistId"`
	PatientID   string    `json:"patientId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MoodDatum is a per-day mood aggregate used by the session summary surface.
type MoodDatum struct {
	PatientID string    `json:"patientId"`
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
}

// ListMessagesRequest captures filters used when listing session messages.
// AfterSeq of zero means from the beginning.
type ListMessagesRequest struct {
	SessionID string
	AfterSeq  int64
	Limit     int
}

// DashboardPatient is one patient row in a therapist's dashboard view.
type DashboardPatient struct {
	Profile  Profile       `json:"profile"`
	Sessions []ChatSession `json:"sessions"`
	Note     *PatientNote  `json:"note,omitempty"`
	Active   bool          `json:"active"`
}

// DashboardStats summarizes a therapist's caseload.
type DashboardStats struct {
	TotalPatients         int     `json:"totalPatients"`
	ActivePatientsPercent float64 `json:"activePatientsPercent"`
	TotalSessions         int     `json:"totalSessions"`
	AvgSessionsPerPatient float64 `json:"avgSessionsPerPatient"`
}

// Dashboard is the full aggregation returned to a therapist.
type Dashboard struct {
	TherapistID string             `json:"therapistId"`
	Patients    []DashboardPatient `json:"patients"`
	Stats       DashboardStats     `json:"stats"`
}
