package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
)

func (s Server) GetTicket(c echo.Context) error {
	ticket, err := s.registrations.GetTicket(c.Request().Context(), c.Param("ticket_id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toTicketResponse(ticket))
}

type putTicketRequest struct {
	AttendeeName    string `json:"attendee_name"`
	AttendeeEmail   string `json:"attendee_email"`
	AttendeePhone   string `json:"attendee_phone"`
	AttendeeCompany string `json:"attendee_company"`
}

func (s Server) PutTicket(c echo.Context) error {
	var request putTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	ticket, err := s.registrations.UpdateAttendee(c.Request().Context(), c.Param("ticket_id"), entity.AttendeeDetails{
		Name:    request.AttendeeName,
		Email:   request.AttendeeEmail,
		Phone:   request.AttendeePhone,
		Company: request.AttendeeCompany,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toTicketResponse(ticket))
}

func (s Server) DeleteTicket(c echo.Context) error {
	_, err := s.registrations.Cancel(c.Request().Context(), c.Param("ticket_id"))
	if err != nil {
		return domainError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
