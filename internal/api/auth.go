package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/model"
)

// requireActor authenticates the request and writes a 401 on failure.
// The second return value reports whether the handler may proceed.
func (a *API) requireActor(w http.ResponseWriter, r *http.Request) (*auth.ActorInfo, bool) {
	token, err := auth.ExtractBearer(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return nil, false
	}
	actor, err := a.authorizer.Authorize(r.Context(), token)
	if err != nil {
		respond.WriteUnauthorized(w, "invalid credential")
		return nil, false
	}
	return actor, true
}

// requireAdmin authenticates and additionally checks for the admin key type.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.ActorInfo, bool) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return nil, false
	}
	if !actor.IsAdmin() {
		respond.WriteForbidden(w, "admin credential required")
		return nil, false
	}
	return actor, true
}

// canAccessPatient is the single authoritative access check for
// patient-scoped rows: the patient themselves, an assigned therapist, or an
// admin credential.
func (a *API) canAccessPatient(ctx context.Context, actor *auth.ActorInfo, patientID string) (bool, error) {
	if actor.IsAdmin() || actor.ActorID == patientID {
		return true, nil
	}
	links, err := a.links.ListLinks(ctx, actor.ActorID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, l := range links {
		if l.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// guardPatient combines the check with the standard error responses.
func (a *API) guardPatient(w http.ResponseWriter, r *http.Request, actor *auth.ActorInfo, patientID string) bool {
	ok, err := a.canAccessPatient(r.Context(), actor, patientID)
	if err != nil {
		respond.WriteFromError(w, err)
		return false
	}
	if !ok {
		respond.WriteForbidden(w, "not allowed for this patient")
		return false
	}
	return true
}
