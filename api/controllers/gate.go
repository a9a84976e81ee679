package controllers

import (
	"net/http"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/api/validators"
	"github.com/Yashop965/CamPass/internal/gate"
	"github.com/Yashop965/CamPass/pkg/logger"
)

type gateScanRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

// GateScan records an exit or entry for the scanned barcode. The service
// decides the direction from the pass state.
func GateScan(svc gate.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guardID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body gateScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Scan(r.Context(), guardID, body.Barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
