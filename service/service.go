package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ticketing/checkin"
	"ticketing/db"
	"ticketing/http"
	"ticketing/pkg/clock"
	"ticketing/pkg/ctxlog"
	"ticketing/pubsub"
	"ticketing/pubsub/event"
	"ticketing/pubsub/outbox"
	"ticketing/registration"
	"ticketing/ticketcode"
)

type Config struct {
	HTTPAddr         string
	TicketCodeSecret []byte
	// TokenTTL overrides the default confirmation token lifetime when > 0.
	TokenTTL time.Duration
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	forwarder       *forwarder.Forwarder
	httpServer      *http.Server
}

func New(
	cfg Config,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	mailerService event.MailerService,
) Service {
	watermillLogger := ctxlog.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	eventsRepo := db.NewEventsPostgresRepository(dbConn)
	ticketsRepo := db.NewTicketsPostgresRepository(dbConn)
	tokensRepo := db.NewTokensPostgresRepository(dbConn)
	auditLog := db.NewAuditLog(dbConn)

	codec := ticketcode.New(cfg.TicketCodeSecret)
	systemClock := clock.NewSystem()

	guard := registration.NewGuard(eventsRepo, ticketsRepo)

	var serviceOpts []registration.ServiceOption
	if cfg.TokenTTL > 0 {
		serviceOpts = append(serviceOpts, registration.WithTokenTTL(cfg.TokenTTL))
	}
	registrationService := registration.NewService(guard, ticketsRepo, tokensRepo, codec, systemClock, serviceOpts...)

	verifier := checkin.NewVerifier(codec, ticketsRepo, systemClock)

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)

	eventsHandler := event.NewHandler(mailerService, auditLog)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	watermillRouter, err := pubsub.NewWatermillRouter(
		eventProcessorConfig,
		eventsHandler,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	eventsForwarder, err := outbox.NewForwarder(dbConn, redisPublisher, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create outbox forwarder: %w", err))
	}

	httpServer := http.NewServer(
		cfg.HTTPAddr,
		registrationService,
		verifier,
		eventsRepo,
	)

	return Service{
		db:              dbConn,
		watermillRouter: watermillRouter,
		forwarder:       eventsForwarder,
		httpServer:      httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	if err := outbox.InitializeSchema(ctx, s.db, ctxlog.NewWatermill(ctxlog.FromContext(ctx))); err != nil {
		return fmt.Errorf("failed to initialize outbox schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		err := s.forwarder.Run(ctx)
		if err != nil {
			return fmt.Errorf("outbox forwarder failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// The HTTP server starts only once the router consumes, so the service
		// is not healthy before it can process events.
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
