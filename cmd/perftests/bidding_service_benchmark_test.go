package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Benchmark 1: SubmitBid + DecideBid - Isolated Lots (Low Contention - Micro Benchmark)
func Benchmark_SubmitAndApprove_IsolatedLots(b *testing.B) {
	svc := setupService(b, b.N, 1)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		approveBid(b, svc, "user_0", fmt.Sprintf("lot_%d", i), int64(101+rand.Intn(100)))
	}
}

// Benchmark 2: SubmitBid - Shared Lot (High Contention - Concurrency Benchmark)
// Most submissions lose the race for the single pending slot.
func Benchmark_SubmitBid_ConcurrentSharedLot(b *testing.B) {
	const users = 64
	svc := setupService(b, 1, users)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 100
	var admitted, inFlight int64

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			userID := fmt.Sprintf("user_%d", rnd.Intn(users))
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			bid, err := svc.SubmitBid(ctx, userID, "bench", "lot_0", decimal.NewFromInt(nextBid))
			if err != nil {
				atomic.AddInt64(&inFlight, 1)
				continue
			}
			atomic.AddInt64(&admitted, 1)
			_, _ = svc.DecideBid(ctx, bid.BidID, model.OutcomeApproved, model.Notes{})
		}
	})
	b.ReportMetric(float64(admitted)/float64(b.N), "admitted/op")
}

// Benchmark 3: CurrentHighestBid - Single - Threaded (Low Contention)
func Benchmark_CurrentHighestBid_SingleThreaded(b *testing.B) {
	const lots = 100
	svc := setupService(b, lots, 1)
	for i := 0; i < lots; i++ {
		for j := 0; j < 10; j++ {
			approveBid(b, svc, "user_0", fmt.Sprintf("lot_%d", i), int64(101+j))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		if _, err := svc.CurrentHighestBid(ctx, "bench", fmt.Sprintf("lot_%d", i%lots)); err != nil {
			b.Fatalf("failed to get highest bid: %v", err)
		}
	}
}

// Benchmark 4: CurrentHighestBid - Concurrent (High Contention)
func Benchmark_CurrentHighestBid_ConcurrentSharedLot(b *testing.B) {
	svc := setupService(b, 1, 1)
	for j := 0; j < 100; j++ {
		approveBid(b, svc, "user_0", "lot_0", int64(101+j))
	}

	b.ReportAllocs()
	b.ResetTimer()

	ctx := context.Background()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.CurrentHighestBid(ctx, "bench", "lot_0"); err != nil {
				b.Errorf("failed to get highest bid: %v", err)
				return
			}
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedLot(b *testing.B) {
	const users = 32
	svc := setupService(b, 1, users)
	for j := 0; j < 50; j++ {
		approveBid(b, svc, "user_0", "lot_0", int64(101+j))
	}

	b.ReportAllocs()
	b.ResetTimer()

	ctx := context.Background()
	var lastBid int64 = 150

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if rnd.Intn(10) < 3 {
				userID := fmt.Sprintf("user_%d", rnd.Intn(users))
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
				if bid, err := svc.SubmitBid(ctx, userID, "bench", "lot_0", decimal.NewFromInt(nextBid)); err == nil {
					_, _ = svc.DecideBid(ctx, bid.BidID, model.OutcomeApproved, model.Notes{})
				}
				continue
			}
			_, _ = svc.CurrentHighestBid(ctx, "bench", "lot_0")
		}
	})
}
