package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/api/middleware"
	"github.com/plasa/shopper-settlement/api/responses"
	"github.com/plasa/shopper-settlement/api/validators"
	"github.com/plasa/shopper-settlement/internal/orderstatus"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/logger"
)

type updateOrderStatusRequest struct {
	OrderID string `json:"orderId" validate:"omitempty,uuid"`
	Status  string `json:"status"`
}

// ShopperUpdateOrderStatus moves an assigned order to a new status and runs its settlement side effects.
func ShopperUpdateOrderStatus(svc orderstatus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var orderID uuid.UUID
		if raw := strings.TrimSpace(req.OrderID); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderId"))
				return
			}
			orderID = parsed
		}

		result, err := svc.UpdateOrderStatus(r.Context(), orderstatus.UpdateStatusInput{
			OrderID:       orderID,
			Status:        validators.SanitizeString(req.Status, 32),
			ShopperUserID: userID,
			ActorRole:     enums.ActorRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
