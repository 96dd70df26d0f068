package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ticketing/entity"
)

type postEventRequest struct {
	Name           string       `json:"name"`
	Capacity       int          `json:"capacity"`
	TicketTypeName string       `json:"ticket_type_name"`
	Price          entity.Money `json:"price"`
	StartsAt       time.Time    `json:"starts_at"`
}

type eventResponse struct {
	EventID         string       `json:"event_id"`
	Name            string       `json:"name"`
	Capacity        int          `json:"capacity"`
	RegisteredCount int          `json:"registered_count"`
	Remaining       int          `json:"remaining"`
	Status          string       `json:"status"`
	TicketTypeName  string       `json:"ticket_type_name"`
	Price           entity.Money `json:"price"`
	StartsAt        time.Time    `json:"starts_at"`
}

func (s Server) PostEvents(c echo.Context) error {
	var request postEventRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if request.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "event name is required")
	}
	if request.Capacity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be positive")
	}

	ticketTypeName := request.TicketTypeName
	if ticketTypeName == "" {
		ticketTypeName = "standard"
	}

	event := entity.Event{
		EventID:        uuid.NewString(),
		Name:           request.Name,
		Capacity:       request.Capacity,
		Status:         entity.EventStatusUpcoming,
		TicketTypeName: ticketTypeName,
		PriceAmount:    request.Price.Amount,
		PriceCurrency:  request.Price.Currency,
		StartsAt:       request.StartsAt,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.eventsRepo.Store(c.Request().Context(), event); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toEventResponse(event))
}

func (s Server) GetEvent(c echo.Context) error {
	event, err := s.eventsRepo.Get(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toEventResponse(event))
}

func toEventResponse(event entity.Event) eventResponse {
	return eventResponse{
		EventID:         event.EventID,
		Name:            event.Name,
		Capacity:        event.Capacity,
		RegisteredCount: event.RegisteredCount,
		Remaining:       event.Remaining(),
		Status:          string(event.Status),
		TicketTypeName:  event.TicketTypeName,
		Price: entity.Money{
			Amount:   event.PriceAmount,
			Currency: event.PriceCurrency,
		},
		StartsAt: event.StartsAt,
	}
}
