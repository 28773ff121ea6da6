package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: biddingerrors.ErrAuctionNotFound, status: http.StatusNotFound},
		{err: biddingerrors.ErrLotNotFound, status: http.StatusNotFound},
		{err: biddingerrors.ErrBidNotFound, status: http.StatusNotFound},
		{err: biddingerrors.ErrRegistrationNotFound, status: http.StatusNotFound},
		{err: biddingerrors.ErrNoBids, status: http.StatusNotFound},
		{err: biddingerrors.ErrInvalidBid, status: http.StatusBadRequest},
		{err: biddingerrors.ErrInvalidRequest, status: http.StatusBadRequest},
		{err: biddingerrors.ErrInvalidDecision, status: http.StatusBadRequest},
		{err: biddingerrors.ErrInvalidAuction, status: http.StatusBadRequest},
		{err: biddingerrors.ErrNotEligible, status: http.StatusForbidden},
		{err: &biddingerrors.CooldownActiveError{Remaining: time.Minute}, status: http.StatusTooManyRequests},
		{err: biddingerrors.ErrAlreadyRegistered, status: http.StatusConflict},
		{err: biddingerrors.ErrBidInFlight, status: http.StatusConflict},
		{err: biddingerrors.ErrBidTooLow, status: http.StatusConflict},
		{err: biddingerrors.ErrLotClosed, status: http.StatusConflict},
		{err: biddingerrors.ErrAuctionInactive, status: http.StatusConflict},
		{err: biddingerrors.ErrInvalidState, status: http.StatusConflict},
		{err: biddingerrors.Unavailable("commit", errors.New("conn reset")), status: http.StatusServiceUnavailable},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("service: failed: %w", tc.err)
			status, message := MapErrorToHTTP(wrapped)
			require.Equal(t, tc.status, status)
			require.NotEmpty(t, message)
		})
	}
}

func TestHandleServiceError_Cooldown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := fmt.Errorf("service: %w", &biddingerrors.CooldownActiveError{Remaining: 90*time.Second + 200*time.Millisecond})
	HandleServiceError(c, "TestHandler", err, map[string]any{"user_id": "alice"})

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "91", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "registration cooldown active", body["message"])
	require.Equal(t, float64(91), body["retry_after_seconds"])
}

func TestNewAuctionResponse(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := NewAuctionResponse(model.Auction{
		AuctionID: "a1",
		Title:     "Sale",
		Status:    model.AuctionActive,
		CreatedAt: created,
		Lots: []model.Lot{{
			LotID:           "l1",
			InitialBidValue: decimal.RequireFromString("1000"),
			CurrentBidValue: decimal.RequireFromString("1100"),
			BidIncrement:    decimal.RequireFromString("100"),
		}},
	})

	require.Equal(t, "2024-01-02T03:04:05Z", resp.CreatedAt)
	require.Len(t, resp.Lots, 1)
	require.Equal(t, "1100.00", resp.Lots[0].CurrentBidValue)
	require.Equal(t, "1200.00", resp.Lots[0].MinimumNextBid)
}
