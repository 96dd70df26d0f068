package db

import (
	"context"
	sqldb "database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ticketing/entity"
)

const ticketColumns = `ticket_id, event_id, attendee_name, attendee_email, attendee_phone, attendee_company,
	ticket_type, price_amount, price_currency, code, state, checked_in_at, created_at`

type TicketsPostgresRepository struct {
	db *sqlx.DB
}

func NewTicketsPostgresRepository(db *sqlx.DB) *TicketsPostgresRepository {
	if db == nil {
		panic("db is nil")
	}
	return &TicketsPostgresRepository{db: db}
}

// Create inserts the ticket, its confirmation token when one is required, and
// the TicketRegistered event, all in one transaction. The partial unique index
// on (event_id, lower(attendee_email)) is the last line of defense against a
// duplicate registration that raced past the guard's pre-check; a violation is
// returned as DuplicateRegistrationError carrying the surviving ticket's ID.
func (r *TicketsPostgresRepository) Create(
	ctx context.Context,
	ticket entity.Ticket,
	token *entity.ConfirmationToken,
) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sqldb.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			err = r.asDuplicateRegistration(ctx, err, ticket)
			return
		}
		err = tx.Commit()
	}()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES (:ticket_id, :event_id, :attendee_name, :attendee_email, :attendee_phone, :attendee_company,
			:ticket_type, :price_amount, :price_currency, :code, :state, :checked_in_at, :created_at)
	`, ticket)
	if err != nil {
		return fmt.Errorf("could not insert ticket: %w", err)
	}

	if token != nil {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO confirmation_tokens (token, ticket_id, expires_at, consumed_at)
			VALUES (:token, :ticket_id, :expires_at, :consumed_at)
		`, token)
		if err != nil {
			return fmt.Errorf("could not insert confirmation token: %w", err)
		}
	}

	eventBus, err := eventBusForTx(ctx, tx.Tx)
	if err != nil {
		return err
	}

	registered := entity.TicketRegistered{
		Header:               entity.NewEventHeaderWithIdempotencyKey(ticket.TicketID),
		TicketID:             ticket.TicketID,
		EventID:              ticket.EventID,
		AttendeeName:         ticket.AttendeeName,
		AttendeeEmail:        ticket.AttendeeEmail,
		TicketType:           ticket.TicketType,
		Price:                ticket.Price(),
		RequiresConfirmation: ticket.State == entity.TicketStatePending,
	}
	if token != nil {
		registered.ConfirmationToken = token.Token
	}

	if err = eventBus.Publish(ctx, registered); err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}

// asDuplicateRegistration translates a unique violation on the active-attendee
// index into the domain rejection, looking up the ticket that won the race.
// Runs after rollback, on the plain connection.
func (r *TicketsPostgresRepository) asDuplicateRegistration(ctx context.Context, err error, ticket entity.Ticket) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != "unique_violation" || pqErr.Constraint != "tickets_active_attendee_idx" {
		return err
	}

	existing, lookupErr := r.FindActiveByEventAndEmail(ctx, ticket.EventID, ticket.AttendeeEmail)
	if lookupErr != nil || existing == nil {
		return entity.DuplicateRegistrationError{}
	}
	return entity.DuplicateRegistrationError{ExistingTicketID: existing.TicketID}
}

func (r *TicketsPostgresRepository) GetByID(ctx context.Context, ticketID string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1
	`, ticketID)
	if errors.Is(err, sqldb.ErrNoRows) {
		return entity.Ticket{}, entity.ErrTicketNotFound
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket: %w", err)
	}
	return ticket, nil
}

// FindActiveByEventAndEmail returns the non-cancelled ticket for the pair, or
// nil when there is none. Email comparison is case-insensitive.
func (r *TicketsPostgresRepository) FindActiveByEventAndEmail(ctx context.Context, eventID, email string) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE event_id = $1 AND lower(attendee_email) = lower($2) AND state != 'cancelled'
	`, eventID, email)
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not find ticket: %w", err)
	}
	return &ticket, nil
}

// CheckIn flips the ticket from valid to checked_in, stamping the check-in
// time. The transition is a single conditional UPDATE keyed on the current
// state: of two concurrent scans, exactly one matches the row, the other is
// classified from the state the winner left behind.
func (r *TicketsPostgresRepository) CheckIn(ctx context.Context, ticketID string, now time.Time) (ticket entity.Ticket, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sqldb.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	err = tx.GetContext(ctx, &ticket, `
		UPDATE tickets
		SET state = 'checked_in', checked_in_at = $2
		WHERE ticket_id = $1 AND state = 'valid'
		RETURNING `+ticketColumns+`
	`, ticketID, now)
	if errors.Is(err, sqldb.ErrNoRows) {
		return entity.Ticket{}, r.classifyCheckInFailure(ctx, tx, ticketID)
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not check in ticket: %w", err)
	}

	eventBus, err := eventBusForTx(ctx, tx.Tx)
	if err != nil {
		return entity.Ticket{}, err
	}
	err = eventBus.Publish(ctx, entity.TicketCheckedIn{
		Header:      entity.NewEventHeaderWithIdempotencyKey(ticketID + "/check-in"),
		TicketID:    ticket.TicketID,
		EventID:     ticket.EventID,
		CheckedInAt: now,
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not publish event: %w", err)
	}

	return ticket, nil
}

func (r *TicketsPostgresRepository) classifyCheckInFailure(ctx context.Context, tx *sqlx.Tx, ticketID string) error {
	var cur struct {
		State       entity.TicketState `db:"state"`
		CheckedInAt *time.Time         `db:"checked_in_at"`
	}
	err := tx.GetContext(ctx, &cur, `SELECT state, checked_in_at FROM tickets WHERE ticket_id = $1`, ticketID)
	if errors.Is(err, sqldb.ErrNoRows) {
		return entity.ErrTicketNotFound
	}
	if err != nil {
		return fmt.Errorf("could not read ticket state: %w", err)
	}

	switch cur.State {
	case entity.TicketStatePending:
		return entity.ErrTicketNotConfirmed
	case entity.TicketStateCancelled:
		return entity.ErrTicketCancelled
	case entity.TicketStateCheckedIn:
		if cur.CheckedInAt == nil {
			return entity.ErrInvalidState
		}
		return entity.AlreadyCheckedInError{CheckedInAt: *cur.CheckedInAt}
	default:
		return entity.ErrInvalidState
	}
}

// Cancel moves a pending or valid ticket to cancelled and releases its seat
// back to the event, in one transaction. Checked-in and already-cancelled
// tickets are rejected with ErrInvalidState.
func (r *TicketsPostgresRepository) Cancel(ctx context.Context, ticketID string) (ticket entity.Ticket, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sqldb.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	err = tx.GetContext(ctx, &ticket, `
		UPDATE tickets
		SET state = 'cancelled'
		WHERE ticket_id = $1 AND state IN ('pending', 'valid')
		RETURNING `+ticketColumns+`
	`, ticketID)
	if errors.Is(err, sqldb.ErrNoRows) {
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_id = $1)`, ticketID); checkErr != nil {
			return entity.Ticket{}, fmt.Errorf("could not read ticket state: %w", checkErr)
		}
		if !exists {
			return entity.Ticket{}, entity.ErrTicketNotFound
		}
		return entity.Ticket{}, entity.ErrInvalidState
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not cancel ticket: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET registered_count = registered_count - 1
		WHERE event_id = $1 AND registered_count > 0
	`, ticket.EventID)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not release seat: %w", err)
	}

	eventBus, err := eventBusForTx(ctx, tx.Tx)
	if err != nil {
		return entity.Ticket{}, err
	}
	err = eventBus.Publish(ctx, entity.TicketCancelled{
		Header:        entity.NewEventHeaderWithIdempotencyKey(ticketID + "/cancel"),
		TicketID:      ticket.TicketID,
		EventID:       ticket.EventID,
		AttendeeEmail: ticket.AttendeeEmail,
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not publish event: %w", err)
	}

	return ticket, nil
}

// UpdateAttendee edits attendee contact details. Allowed only while the
// ticket is valid and unused; ticket type, price snapshot and code are
// immutable.
func (r *TicketsPostgresRepository) UpdateAttendee(ctx context.Context, ticketID string, details entity.AttendeeDetails) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		UPDATE tickets
		SET attendee_name = $2, attendee_email = $3, attendee_phone = $4, attendee_company = $5
		WHERE ticket_id = $1 AND state = 'valid'
		RETURNING `+ticketColumns+`
	`, ticketID, details.Name, details.Email, details.Phone, details.Company)
	if errors.Is(err, sqldb.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, ticketID); getErr != nil {
			return entity.Ticket{}, getErr
		}
		return entity.Ticket{}, entity.ErrInvalidState
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "tickets_active_attendee_idx" {
			return entity.Ticket{}, entity.DuplicateRegistrationError{}
		}
		return entity.Ticket{}, fmt.Errorf("could not update attendee details: %w", err)
	}
	return ticket, nil
}
