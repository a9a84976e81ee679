package controllers

import (
	"net/http"

	"github.com/Yashop965/CamPass/api/middleware"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/google/uuid"
)

// requestActor resolves the authenticated caller from the request context.
func requestActor(r *http.Request) (uuid.UUID, enums.Role, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return userID, role, nil
}

// pathUUID parses a uuid path parameter.
func pathUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return id, nil
}
