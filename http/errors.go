package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
	"ticketing/registration"
)

type errorResponse struct {
	Error            string `json:"error"`
	ExistingTicketID string `json:"existing_ticket_id,omitempty"`
}

// domainError maps domain errors onto HTTP status codes. Anything unmapped
// bubbles up as a 500 through echo's default error handler.
func domainError(err error) error {
	var dup entity.DuplicateRegistrationError

	switch {
	case errors.Is(err, registration.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &dup):
		return echo.NewHTTPError(http.StatusConflict, errorResponse{
			Error:            "attendee already has an active registration for this event",
			ExistingTicketID: dup.ExistingTicketID,
		})
	case errors.Is(err, entity.ErrEventNotFound), errors.Is(err, entity.ErrTicketNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrEventFull):
		return echo.NewHTTPError(http.StatusConflict, "event is at capacity")
	case errors.Is(err, entity.ErrEventNotAcceptingRegistrations):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "event is not accepting registrations")
	case errors.Is(err, entity.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusNotFound, "unknown or expired confirmation token")
	case errors.Is(err, entity.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, "ticket state does not allow this operation")
	default:
		return err
	}
}
