package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/api/validators"
	"github.com/Yashop965/CamPass/internal/locations"
	"github.com/Yashop965/CamPass/pkg/logger"
)

const maxLocationHistory = 200

// LocationRecord accepts a location ping from the authenticated student.
func LocationRecord(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body locations.RecordLocationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loc, err := svc.Record(r.Context(), studentID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loc)
	}
}

// LocationLatest returns a student's most recent ping.
func LocationLatest(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		studentID, err := pathUUID(chi.URLParam(r, "studentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loc, err := svc.Latest(r.Context(), locations.Actor{ID: userID, Role: role}, studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loc)
	}
}

// LocationHistory returns a student's recent pings, newest first.
func LocationHistory(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		studentID, err := pathUUID(chi.URLParam(r, "studentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxLocationHistory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locs, err := svc.History(r.Context(), locations.Actor{ID: userID, Role: role}, studentID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locs)
	}
}
