package api

import (
	"github.com/rs/zerolog"

	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/services"
)

// API bundles the service dependencies shared by the REST handlers.
type API struct {
	profiles  *services.ProfileService
	sessions  *services.SessionService
	messages  *services.MessageService
	moods     *services.MoodService
	notes     *services.NoteService
	links     *services.LinkService
	dashboard *services.DashboardService

	authorizer auth.Authorizer
	log        zerolog.Logger
}

func New(
	profiles *services.ProfileService,
	sessions *services.SessionService,
	messages *services.MessageService,
	moods *services.MoodService,
	notes *services.NoteService,
	links *services.LinkService,
	dashboard *services.DashboardService,
	authorizer auth.Authorizer,
	log zerolog.Logger,
) *API {
	return &API{
		profiles:   profiles,
		sessions:   sessions,
		messages:   messages,
		moods:      moods,
		notes:      notes,
		links:      links,
		dashboard:  dashboard,
		authorizer: authorizer,
		log:        log,
	}
}
