package helpers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"auction-engine/internal/biddingerrors"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrLotNotFound):
		return http.StatusNotFound, "lot not found"
	case errors.Is(err, biddingerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, biddingerrors.ErrRegistrationNotFound):
		return http.StatusNotFound, "registration not found"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusNotFound, "no accepted bid found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid registration details"
	case errors.Is(err, biddingerrors.ErrInvalidDecision):
		return http.StatusBadRequest, "invalid decision"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrNotEligible):
		return http.StatusForbidden, "user is not eligible to bid"
	case errors.Is(err, biddingerrors.ErrCooldownActive):
		return http.StatusTooManyRequests, "registration cooldown active"
	case errors.Is(err, biddingerrors.ErrAlreadyRegistered):
		return http.StatusConflict, "active registration already exists"
	case errors.Is(err, biddingerrors.ErrBidInFlight):
		return http.StatusConflict, "another bid is pending for this lot"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrLotClosed):
		return http.StatusConflict, "lot already has a winner"
	case errors.Is(err, biddingerrors.ErrAuctionInactive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, biddingerrors.ErrInvalidState):
		return http.StatusConflict, "entity is not in the required state"
	case errors.Is(err, biddingerrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable, retry the request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HandleServiceError writes the mapped error response and logs it.
// Expected conditions are logged as warnings, faults as errors.
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)

	var details gin.H
	var cooldown *biddingerrors.CooldownActiveError
	if errors.As(err, &cooldown) {
		seconds := int(math.Ceil(cooldown.Remaining.Seconds()))
		details = gin.H{"retry_after_seconds": seconds}
		c.Header("Retry-After", fmt.Sprint(seconds))
	}
	utils.JSONErrorWithDetails(c, status, fmt.Errorf("%s: %w", message, err), message, details)

	logFields := map[string]any{"handler": handlerName, "error": err.Error()}
	for key, value := range fields {
		logFields[key] = value
	}
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", logFields)
		return
	}
	utils.Warn(handlerName+": request rejected", logFields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
