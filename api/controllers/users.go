package controllers

import (
	"net/http"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/api/validators"
	"github.com/Yashop965/CamPass/internal/users"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
)

type linkStudentRequest struct {
	StudentEmail string `json:"student_email" validate:"required,email"`
}

type deviceTokenRequest struct {
	DeviceToken string `json:"device_token" validate:"required"`
}

// UserProfile returns the authenticated user's own record.
func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// LinkStudent links the calling parent to a student by email. One parent per
// student; the first link wins.
func LinkStudent(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.RoleParent {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only parents can link students"))
			return
		}

		var body linkStudentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		student, err := svc.LinkStudent(r.Context(), parentID, body.StudentEmail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, student)
	}
}

// Children lists the students linked to the calling parent.
func Children(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		children, err := svc.Children(r.Context(), parentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, children)
	}
}

// RegisterDeviceToken stores the caller's FCM device token for direct pushes.
func RegisterDeviceToken(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deviceTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateDeviceToken(r.Context(), userID, body.DeviceToken); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "registered"})
	}
}
