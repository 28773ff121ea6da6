package handler

import (
	"net/http"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// RequestRegistrationHandler handles POST /auctions/:auction_id/registrations
func (h *BiddingHandler) RequestRegistrationHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RequestRegistrationHandler", err)
		return
	}

	reg, err := h.service.RequestRegistration(c.Request.Context(), req.UserID, auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "RequestRegistrationHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    req.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewRegistrationResponse(reg), "registration requested")
	helpers.LogSuccess("RequestRegistrationHandler", "registration requested", map[string]any{
		"registration_id": reg.RegistrationID,
		"auction_id":      auctionID,
		"user_id":         req.UserID,
	})
}

// DecideRegistrationHandler handles POST /registrations/:registration_id/decision
func (h *BiddingHandler) DecideRegistrationHandler(c *gin.Context) {
	registrationID := c.Param("registration_id")
	var req helpers.RegistrationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "DecideRegistrationHandler", err)
		return
	}

	notes := model.Notes{Internal: req.InternalNotes, Client: req.ClientNotes}
	cooldown := time.Duration(req.CooldownMinutes) * time.Minute
	reg, err := h.service.DecideRegistration(c.Request.Context(), registrationID, req.Outcome, notes, cooldown)
	if err != nil {
		helpers.HandleServiceError(c, "DecideRegistrationHandler", err, map[string]any{
			"registration_id": registrationID,
			"outcome":         string(req.Outcome),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewRegistrationResponse(reg), "registration "+string(reg.Status))
	helpers.LogSuccess("DecideRegistrationHandler", "registration decided", map[string]any{
		"registration_id": reg.RegistrationID,
		"status":          string(reg.Status),
		"cooldown":        cooldown.String(),
	})
}

// PendingRegistrationsHandler handles GET /auctions/:auction_id/registrations/pending
func (h *BiddingHandler) PendingRegistrationsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	regs, err := h.service.PendingRegistrations(c.Request.Context(), auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "PendingRegistrationsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewRegistrationResponses(regs), "pending registrations retrieved successfully")
	helpers.LogSuccess("PendingRegistrationsHandler", "pending registrations retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(regs),
	})
}

// RegistrationHistoryHandler handles GET /auctions/:auction_id/users/:user_id/registrations
func (h *BiddingHandler) RegistrationHistoryHandler(c *gin.Context) {
	auctionID, userID := c.Param("auction_id"), c.Param("user_id")
	regs, err := h.service.RegistrationsForUser(c.Request.Context(), userID, auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "RegistrationHistoryHandler", err, map[string]any{"auction_id": auctionID, "user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewRegistrationResponses(regs), "registrations retrieved successfully")
}

// EligibilityHandler handles GET /auctions/:auction_id/users/:user_id/eligibility
func (h *BiddingHandler) EligibilityHandler(c *gin.Context) {
	auctionID, userID := c.Param("auction_id"), c.Param("user_id")
	eligible, err := h.service.IsEligibleToBid(c.Request.Context(), userID, auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "EligibilityHandler", err, map[string]any{"auction_id": auctionID, "user_id": userID})
		return
	}

	resp := helpers.EligibilityResponse{UserID: userID, AuctionID: auctionID, Eligible: eligible}
	utils.JSONResponse(c, http.StatusOK, resp, "eligibility checked")
}
