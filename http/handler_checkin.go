package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ticketing/checkin"
)

type postCheckInRequest struct {
	Code string `json:"code"`
}

type checkInFailureResponse struct {
	Error       string     `json:"error"`
	Kind        string     `json:"kind"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

func (s Server) PostCheckIn(c echo.Context) error {
	var request postCheckInRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	attendee, err := s.verifier.Verify(c.Request().Context(), request.Code)
	if err != nil {
		var failure *checkin.VerificationFailure
		if errors.As(err, &failure) {
			return c.JSON(checkInFailureStatus(failure.Kind), checkInFailureResponse{
				Error:       failure.Error(),
				Kind:        string(failure.Kind),
				CheckedInAt: failure.CheckedInAt,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, attendee)
}

func checkInFailureStatus(kind checkin.FailureKind) int {
	switch kind {
	case checkin.FailureMalformedCode:
		return http.StatusBadRequest
	case checkin.FailureNotFound:
		return http.StatusNotFound
	default:
		// already_used, cancelled, not_confirmed
		return http.StatusConflict
	}
}
