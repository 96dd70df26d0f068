package checkin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/checkin"
	"ticketing/entity"
	"ticketing/pkg/clock"
	"ticketing/ticketcode"
)

var (
	testCodec = ticketcode.New([]byte("checkin-test-secret"))
	testNow   = time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)
)

// fakeTickets applies the same compare-and-swap rules as the Postgres
// repository, so racing Verify calls resolve to exactly one winner.
type fakeTickets struct {
	mu      sync.Mutex
	tickets map[string]entity.Ticket
	calls   int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{tickets: map[string]entity.Ticket{}}
}

func (f *fakeTickets) add(ticket entity.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[ticket.TicketID] = ticket
}

func (f *fakeTickets) CheckIn(_ context.Context, ticketID string, now time.Time) (entity.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	ticket, ok := f.tickets[ticketID]
	if !ok {
		return entity.Ticket{}, entity.ErrTicketNotFound
	}

	switch ticket.State {
	case entity.TicketStateValid:
		ticket.State = entity.TicketStateCheckedIn
		checkedInAt := now
		ticket.CheckedInAt = &checkedInAt
		f.tickets[ticketID] = ticket
		return ticket, nil
	case entity.TicketStateCheckedIn:
		return entity.Ticket{}, entity.AlreadyCheckedInError{CheckedInAt: *ticket.CheckedInAt}
	case entity.TicketStateCancelled:
		return entity.Ticket{}, entity.ErrTicketCancelled
	default:
		return entity.Ticket{}, entity.ErrTicketNotConfirmed
	}
}

func newTicket(state entity.TicketState) entity.Ticket {
	id := uuid.New()
	return entity.Ticket{
		TicketID:        id.String(),
		EventID:         uuid.NewString(),
		AttendeeName:    "Grace Hopper",
		AttendeeEmail:   "grace@example.com",
		AttendeeCompany: "Navy",
		TicketType:      "standard",
		Code:            testCodec.Encode(id),
		State:           state,
		CreatedAt:       testNow.Add(-time.Hour),
	}
}

func requireFailure(t *testing.T, err error, kind checkin.FailureKind) *checkin.VerificationFailure {
	t.Helper()
	var failure *checkin.VerificationFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, kind, failure.Kind)
	return failure
}

func TestVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("checks in a valid ticket", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStateValid)
		tickets.add(ticket)
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		attendee, err := verifier.Verify(ctx, ticket.Code)
		require.NoError(t, err)

		assert.Equal(t, ticket.TicketID, attendee.TicketID)
		assert.Equal(t, ticket.AttendeeName, attendee.AttendeeName)
		assert.Equal(t, ticket.AttendeeEmail, attendee.AttendeeEmail)
		assert.Equal(t, ticket.TicketType, attendee.TicketType)
		assert.Equal(t, testNow, attendee.CheckedInAt)
	})

	t.Run("tolerates surrounding whitespace from the scanner", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStateValid)
		tickets.add(ticket)
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		_, err := verifier.Verify(ctx, "  "+ticket.Code+"\n")
		require.NoError(t, err)
	})

	t.Run("rejects malformed input without hitting storage", func(t *testing.T) {
		tickets := newFakeTickets()
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		for _, input := range []string{"", "not-a-code", "ZZZZ", "0189"} {
			_, err := verifier.Verify(ctx, input)
			requireFailure(t, err, checkin.FailureMalformedCode)
		}
		assert.Equal(t, 0, tickets.calls)
	})

	t.Run("rejects a well-formed code for an unknown ticket", func(t *testing.T) {
		tickets := newFakeTickets()
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		_, err := verifier.Verify(ctx, testCodec.Encode(uuid.New()))
		requireFailure(t, err, checkin.FailureNotFound)
	})

	t.Run("second scan reports the original check-in time", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStateValid)
		tickets.add(ticket)

		firstScan := testNow
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(firstScan))
		_, err := verifier.Verify(ctx, ticket.Code)
		require.NoError(t, err)

		laterVerifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(firstScan.Add(10*time.Minute)))
		_, err = laterVerifier.Verify(ctx, ticket.Code)

		failure := requireFailure(t, err, checkin.FailureAlreadyUsed)
		require.NotNil(t, failure.CheckedInAt)
		assert.Equal(t, firstScan, *failure.CheckedInAt)
	})

	t.Run("rejects cancelled tickets", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStateCancelled)
		tickets.add(ticket)
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		_, err := verifier.Verify(ctx, ticket.Code)
		requireFailure(t, err, checkin.FailureCancelled)
	})

	t.Run("rejects unconfirmed tickets", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStatePending)
		tickets.add(ticket)
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		_, err := verifier.Verify(ctx, ticket.Code)
		requireFailure(t, err, checkin.FailureNotConfirmed)
	})

	t.Run("rejects a code minted with a different secret", func(t *testing.T) {
		tickets := newFakeTickets()
		ticket := newTicket(entity.TicketStateValid)
		tickets.add(ticket)
		verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

		foreign := ticketcode.New([]byte("some-other-secret"))
		id, err := uuid.Parse(ticket.TicketID)
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, foreign.Encode(id))
		requireFailure(t, err, checkin.FailureMalformedCode)
	})

	t.Run("exactly one of two simultaneous scans succeeds", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			tickets := newFakeTickets()
			ticket := newTicket(entity.TicketStateValid)
			tickets.add(ticket)
			verifier := checkin.NewVerifier(testCodec, tickets, clock.NewFixed(testNow))

			results := make(chan error, 2)
			var wg sync.WaitGroup
			for j := 0; j < 2; j++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := verifier.Verify(ctx, ticket.Code)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			var succeeded, alreadyUsed int
			for err := range results {
				if err == nil {
					succeeded++
					continue
				}
				requireFailure(t, err, checkin.FailureAlreadyUsed)
				alreadyUsed++
			}
			require.Equal(t, 1, succeeded)
			require.Equal(t, 1, alreadyUsed)
		}
	})
}
