package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
	"ticketing/registration"
)

type postRegistrationRequest struct {
	AttendeeName         string `json:"attendee_name"`
	AttendeeEmail        string `json:"attendee_email"`
	AttendeePhone        string `json:"attendee_phone"`
	AttendeeCompany      string `json:"attendee_company"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
}

type ticketResponse struct {
	TicketID      string       `json:"ticket_id"`
	EventID       string       `json:"event_id"`
	AttendeeName  string       `json:"attendee_name"`
	AttendeeEmail string       `json:"attendee_email"`
	TicketType    string       `json:"ticket_type"`
	Price         entity.Money `json:"price"`
	Code          string       `json:"code"`
	State         string       `json:"state"`
	CheckedInAt   *time.Time   `json:"checked_in_at,omitempty"`
}

func (s Server) PostRegistrations(c echo.Context) error {
	var request postRegistrationRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	ticket, err := s.registrations.Register(c.Request().Context(), registration.RegisterInput{
		EventID:              c.Param("event_id"),
		AttendeeName:         request.AttendeeName,
		AttendeeEmail:        request.AttendeeEmail,
		AttendeePhone:        request.AttendeePhone,
		AttendeeCompany:      request.AttendeeCompany,
		RequiresConfirmation: request.RequiresConfirmation,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

type postConfirmRequest struct {
	Token string `json:"token"`
}

type confirmResponse struct {
	Ticket           ticketResponse `json:"ticket"`
	AlreadyConfirmed bool           `json:"already_confirmed"`
}

func (s Server) PostConfirm(c echo.Context) error {
	var request postConfirmRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	result, err := s.registrations.Confirm(c.Request().Context(), request.Token)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, confirmResponse{
		Ticket:           toTicketResponse(result.Ticket),
		AlreadyConfirmed: result.AlreadyConfirmed,
	})
}

func toTicketResponse(ticket entity.Ticket) ticketResponse {
	return ticketResponse{
		TicketID:      ticket.TicketID,
		EventID:       ticket.EventID,
		AttendeeName:  ticket.AttendeeName,
		AttendeeEmail: ticket.AttendeeEmail,
		TicketType:    ticket.TicketType,
		Price:         ticket.Price(),
		Code:          ticket.Code,
		State:         string(ticket.State),
		CheckedInAt:   ticket.CheckedInAt,
	}
}
