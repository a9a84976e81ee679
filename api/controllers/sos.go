package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/api/validators"
	"github.com/Yashop965/CamPass/internal/sos"
	"github.com/Yashop965/CamPass/pkg/logger"
)

// SOSTrigger raises a manual SOS alert for the authenticated student.
func SOSTrigger(svc sos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sos.TriggerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.Trigger(r.Context(), studentID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, alert)
	}
}

// SOSActiveList returns all open alerts for the warden dashboard.
func SOSActiveList(svc sos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alerts)
	}
}

// SOSResolve closes an open alert.
func SOSResolve(svc sos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wardenID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := pathUUID(chi.URLParam(r, "alertId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.Resolve(r.Context(), wardenID, alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}
