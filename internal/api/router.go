package api

import (
	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/recovery"
	"github.com/mat1312/psicologo/internal/gateway"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(a *API, relay *gateway.Relay) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Profile endpoints
	router.HandleFunc("/api/profiles", a.CreateProfile).Methods("POST")
	router.HandleFunc("/api/profiles", a.ListProfiles).Methods("GET")
	router.HandleFunc("/api/profiles/me", a.GetMe).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}", a.GetProfile).Methods("GET")

	// Session and message endpoints
	router.HandleFunc("/api/patients/{patientId}/sessions", a.CreateSession).Methods("POST")
	router.HandleFunc("/api/patients/{patientId}/sessions", a.ListSessions).Methods("GET")
	router.HandleFunc("/api/sessions/{sessionId}/messages", a.ListMessages).Methods("GET")
	router.HandleFunc("/api/sessions/{sessionId}/messages", a.AppendMessage).Methods("POST")

	// Mood endpoints
	router.HandleFunc("/api/patients/{patientId}/moods", a.LogMood).Methods("POST")
	router.HandleFunc("/api/patients/{patientId}/moods", a.ListMoods).Methods("GET")
	router.HandleFunc("/api/patients/{patientId}/mood-data", a.ListMoodData).Methods("GET")

	// Note endpoints
	router.HandleFunc("/api/patients/{patientId}/note", a.GetNote).Methods("GET")
	router.HandleFunc("/api/patients/{patientId}/note", a.PutNote).Methods("PUT")

	// Therapist endpoints
	router.HandleFunc("/api/therapists/{therapistId}/links", a.CreateLink).Methods("POST")
	router.HandleFunc("/api/therapists/{therapistId}/links", a.ListLinks).Methods("GET")
	router.HandleFunc("/api/therapists/{therapistId}/dashboard", a.GetDashboard).Methods("GET")

	// Admin bypass endpoints
	router.HandleFunc("/api/admin/overview", a.AdminOverview).Methods("GET")
	router.HandleFunc("/api/admin/notes", a.AdminGetNote).Methods("GET")
	router.HandleFunc("/api/admin/notes", a.AdminSaveNote).Methods("POST")
	router.HandleFunc("/api/admin/links", a.AdminAddLink).Methods("POST")

	// Analysis backend relay
	if relay != nil {
		router.HandleFunc("/api/chat", relay.Chat).Methods("POST")
		router.HandleFunc("/api/patient-chat", relay.PatientChat).Methods("POST")
		router.HandleFunc("/api/mood-analysis", relay.MoodAnalysis).Methods("POST")
		router.HandleFunc("/api/pathology-analysis", relay.PathologyAnalysis).Methods("POST")
		router.HandleFunc("/api/resource-recommendation", relay.ResourceRecommendation).Methods("POST")
		router.HandleFunc("/api/session-summary", relay.SessionSummary).Methods("POST")
	}

	return router
}
