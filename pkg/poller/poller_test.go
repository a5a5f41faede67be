package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/poller"
)

var _ = Describe("Poller", func() {
	It("returns the first terminal snapshot", func() {
		var calls atomic.Int32
		p := &poller.Poller{
			Interval: time.Millisecond,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				if calls.Add(1) < 3 {
					return poller.Snapshot{Outcome: poller.OutcomePending, Message: "processing"}, nil
				}
				return poller.Snapshot{Outcome: poller.OutcomeCompleted, Message: "indexed"}, nil
			},
		}

		snap, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Outcome).To(Equal(poller.OutcomeCompleted))
		Expect(snap.Message).To(Equal("indexed"))
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("reports a failed terminal snapshot without error", func() {
		p := &poller.Poller{
			Interval: time.Millisecond,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				return poller.Snapshot{Outcome: poller.OutcomeFailed, Message: "pipeline crashed"}, nil
			},
		}

		snap, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Outcome).To(Equal(poller.OutcomeFailed))
		Expect(snap.Message).To(Equal("pipeline crashed"))
	})

	It("exhausts the attempt budget with ErrExhausted", func() {
		var calls atomic.Int32
		p := &poller.Poller{
			Interval:    time.Millisecond,
			MaxAttempts: 5,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				calls.Add(1)
				return poller.Snapshot{Outcome: poller.OutcomePending}, nil
			},
		}

		_, err := p.Run(context.Background())
		Expect(err).To(MatchError(poller.ErrExhausted))
		Expect(calls.Load()).To(Equal(int32(5)))
	})

	It("tolerates fetch errors and keeps polling", func() {
		var calls atomic.Int32
		p := &poller.Poller{
			Interval: time.Millisecond,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				if calls.Add(1) < 3 {
					return poller.Snapshot{}, errors.New("connection refused")
				}
				return poller.Snapshot{Outcome: poller.OutcomeCompleted}, nil
			},
		}

		snap, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Outcome).To(Equal(poller.OutcomeCompleted))
	})

	It("stops on cancellation without reporting an outcome", func() {
		ctx, cancel := context.WithCancel(context.Background())

		var snapshots atomic.Int32
		p := &poller.Poller{
			Interval: 10 * time.Millisecond,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				return poller.Snapshot{Outcome: poller.OutcomePending}, nil
			},
			OnSnapshot: func(poller.Snapshot) { snapshots.Add(1) },
		}

		done := make(chan error, 1)
		go func() {
			_, err := p.Run(ctx)
			done <- err
		}()

		Eventually(func() int32 { return snapshots.Load() }).Should(BeNumerically(">=", 1))
		cancel()

		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	It("observes every snapshot through OnSnapshot", func() {
		var seen []poller.Outcome
		var calls int
		p := &poller.Poller{
			Interval: time.Millisecond,
			Fetch: func(ctx context.Context) (poller.Snapshot, error) {
				calls++
				if calls < 3 {
					return poller.Snapshot{Outcome: poller.OutcomePending}, nil
				}
				return poller.Snapshot{Outcome: poller.OutcomeCompleted}, nil
			},
			OnSnapshot: func(s poller.Snapshot) { seen = append(seen, s.Outcome) },
		}

		_, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]poller.Outcome{
			poller.OutcomePending,
			poller.OutcomePending,
			poller.OutcomeCompleted,
		}))
	})

	It("requires a fetch function", func() {
		p := &poller.Poller{}
		_, err := p.Run(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
