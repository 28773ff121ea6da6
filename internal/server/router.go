package server

import (
	"time"

	"auction-engine/internal/metrics"
	handler "auction-engine/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application.
// A nil collector disables the metrics middleware and the /metrics endpoint.
func SetupRouter(biddingService handler.BiddingServiceInterface, collector *metrics.Collector, requestTimeout time.Duration) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	if requestTimeout > 0 {
		router.Use(RequestTimeoutMiddleware(requestTimeout))
	}
	if collector != nil {
		router.Use(collector.Middleware())
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	router.GET("/healthz", HealthHandler)

	biddingHandler := handler.NewBiddingHandler(biddingService)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", biddingHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/registrations", biddingHandler.RequestRegistrationHandler)
		auctions.GET("/:auction_id/registrations/pending", biddingHandler.PendingRegistrationsHandler)
		auctions.GET("/:auction_id/users/:user_id/registrations", biddingHandler.RegistrationHistoryHandler)
		auctions.GET("/:auction_id/users/:user_id/eligibility", biddingHandler.EligibilityHandler)
		auctions.GET("/:auction_id/bids/pending", biddingHandler.PendingBidsHandler)
		auctions.GET("/:auction_id/lots/:lot_id/bids", biddingHandler.BidsForLotHandler)
		auctions.GET("/:auction_id/lots/:lot_id/highest", biddingHandler.HighestBidHandler)
	}

	registrations := router.Group("/registrations")
	{
		registrations.POST("/:registration_id/decision", biddingHandler.DecideRegistrationHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", biddingHandler.SubmitBidHandler)
		bids.POST("/:bid_id/decision", biddingHandler.DecideBidHandler)
		bids.POST("/:bid_id/winner", biddingHandler.DeclareWinnerHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", biddingHandler.BidsByUserHandler)
	}

	return router
}
