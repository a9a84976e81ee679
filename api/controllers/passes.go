package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/api/validators"
	"github.com/Yashop965/CamPass/internal/passes"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/pagination"
)

func listParamsFromQuery(r *http.Request) (passes.ListParams, error) {
	return listParamsWithDefault(r, pagination.DefaultLimit)
}

func listParamsWithDefault(r *http.Request, defaultLimit int) (passes.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return passes.ListParams{}, err
	}
	return passes.ListParams{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}, nil
}

// PassCreate accepts a new pass request from the authenticated user.
func PassCreate(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body passes.CreatePassRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pass, err := svc.Create(r.Context(), passes.Actor{ID: userID, Role: role}, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pass)
	}
}

// PassDetail returns a single pass, subject to the caller's visibility.
func PassDetail(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		passID, err := pathUUID(chi.URLParam(r, "passId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pass, err := svc.GetByID(r.Context(), passes.Actor{ID: userID, Role: role}, passID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pass)
	}
}

// PassList returns the caller's own passes.
func PassList(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PassApprove routes an approval to the parent or warden flow by role.
func PassApprove(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		passID, err := pathUUID(chi.URLParam(r, "passId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var pass *passes.PassDTO
		switch {
		case role == enums.RoleParent:
			pass, err = svc.ApproveByParent(r.Context(), userID, passID)
		case role.CanApproveAsWarden():
			pass, err = svc.ApproveByWarden(r.Context(), userID, passID)
		default:
			err = pkgerrors.New(pkgerrors.CodeForbidden, "role cannot approve passes")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pass)
	}
}

// PassReject declines a pass with a mandatory reason.
func PassReject(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		passID, err := pathUUID(chi.URLParam(r, "passId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body passes.RejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pass, err := svc.Reject(r.Context(), passes.Actor{ID: userID, Role: role}, passID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pass)
	}
}

// PassPendingForParent lists the caller's children's passes awaiting review.
func PassPendingForParent(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPendingForParent(r.Context(), parentID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PassReviewQueue lists every pass awaiting warden review.
func PassReviewQueue(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPendingForWarden(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PassHistory lists passes across all students for staff reporting. History
// pulls pages of 100 by default so reporting exports need fewer round trips.
func PassHistory(svc passes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParamsWithDefault(r, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.History(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
