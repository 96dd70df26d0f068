package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"ticketing/checkin"
	"ticketing/entity"
	"ticketing/pkg/ctxlog"
	"ticketing/registration"
)

type RegistrationService interface {
	Register(ctx context.Context, in registration.RegisterInput) (entity.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (entity.Ticket, error)
	Cancel(ctx context.Context, ticketID string) (entity.Ticket, error)
	UpdateAttendee(ctx context.Context, ticketID string, details entity.AttendeeDetails) (entity.Ticket, error)
	Confirm(ctx context.Context, token string) (registration.ConfirmationResult, error)
}

type CheckInVerifier interface {
	Verify(ctx context.Context, rawInput string) (checkin.VerifiedAttendee, error)
}

type EventsRepository interface {
	Store(ctx context.Context, event entity.Event) error
	Get(ctx context.Context, eventID string) (entity.Event, error)
}

type Server struct {
	addr          string
	e             *echo.Echo
	registrations RegistrationService
	verifier      CheckInVerifier
	eventsRepo    EventsRepository
}

func NewServer(
	addr string,
	registrations RegistrationService,
	verifier CheckInVerifier,
	eventsRepo EventsRepository,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(otelecho.Middleware("ticketing"))
	e.Use(correlationIDMiddleware)

	server := &Server{
		addr:          addr,
		e:             e,
		registrations: registrations,
		verifier:      verifier,
		eventsRepo:    eventsRepo,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/events", server.PostEvents)
	e.GET("/events/:event_id", server.GetEvent)
	e.POST("/events/:event_id/registrations", server.PostRegistrations)

	e.GET("/tickets/:ticket_id", server.GetTicket)
	e.PUT("/tickets/:ticket_id", server.PutTicket)
	e.DELETE("/tickets/:ticket_id", server.DeleteTicket)

	e.POST("/registrations/confirm", server.PostConfirm)
	e.POST("/check-ins", server.PostCheckIn)

	return server
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(ctx)
		if err != nil {
			ctxlog.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	ctxlog.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func correlationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get("Correlation-ID")
		if correlationID == "" {
			correlationID = shortuuid.New()
		}

		ctx := ctxlog.ContextWithCorrelationID(c.Request().Context(), correlationID)
		ctx = ctxlog.ToContext(ctx, logrus.WithField("correlation_id", correlationID))
		c.SetRequest(c.Request().WithContext(ctx))

		c.Response().Header().Set("Correlation-ID", correlationID)
		return next(c)
	}
}
