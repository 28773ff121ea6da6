package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/metrics"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testAuction has one lot starting at 1000 with a 100 increment and a cheaper second lot.
func testAuction() model.Auction {
	return model.Auction{
		AuctionID: "auction1",
		Title:     "Estate sale",
		Status:    model.AuctionActive,
		Lots: []model.Lot{
			{LotID: "lot1", Title: "Oil painting", InitialBidValue: decimal.NewFromInt(1000), BidIncrement: decimal.NewFromInt(100)},
			{LotID: "lot2", Title: "Tea set", InitialBidValue: decimal.NewFromInt(50), BidIncrement: decimal.NewFromInt(5)},
		},
	}
}

// SetupTestRouter initializes the router over the given ledger and seeds it with auctions.
func SetupTestRouter(t *testing.T, ledger repository.Ledger, dispatcher notify.Dispatcher, auctions ...model.Auction) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts := []bidding.Option{}
	if dispatcher != nil {
		opts = append(opts, bidding.WithNotifier(dispatcher))
	}
	service := bidding.NewBiddingService(ledger, opts...)
	for _, auction := range auctions {
		_, err := service.CreateAuction(context.Background(), auction)
		require.NoError(t, err)
	}
	return server.SetupRouter(service, metrics.NewCollector(), 5*time.Second)
}

// SetupMemoryRouter is SetupTestRouter over a fresh in-memory ledger seeded with testAuction.
func SetupMemoryRouter(t *testing.T) *gin.Engine {
	return SetupTestRouter(t, repository.NewMemoryRepo(), nil, testAuction())
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(t, router, method, url, reqBody)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data returns the envelope's data object
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return d
}

// approveBidder registers userID for auction1 and approves the registration over HTTP.
func approveBidder(t *testing.T, router *gin.Engine, userID string) {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/auctions/auction1/registrations", map[string]string{"user_id": userID})
	require.Equal(t, 201, w.Code, w.Body.String())
	regID := data(t, resp)["registration_id"].(string)

	_, w = ExecuteRequestAndParse(t, router, "POST", "/registrations/"+regID+"/decision", map[string]any{"outcome": "approved"})
	require.Equal(t, 200, w.Code, w.Body.String())
}

// submitBid places a bid over HTTP and returns the response.
func submitBid(t *testing.T, router *gin.Engine, userID, lotID, amount string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	return ExecuteRequestAndParse(t, router, "POST", "/bids", map[string]string{
		"auction_id": "auction1",
		"lot_id":     lotID,
		"user_id":    userID,
		"amount":     amount,
	})
}

// decideBid approves or rejects a bid over HTTP.
func decideBid(t *testing.T, router *gin.Engine, bidID, outcome string) *httptest.ResponseRecorder {
	t.Helper()
	_, w := ExecuteRequestAndParse(t, router, "POST", "/bids/"+bidID+"/decision", map[string]any{"outcome": outcome})
	return w
}
