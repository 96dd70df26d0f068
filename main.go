package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ticketing/gateway"
	"ticketing/pkg/ctxlog"
	"ticketing/service"
	"ticketing/tracing"
)

type options struct {
	HTTPAddr         string        `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"HTTP listen address"`
	PostgresURL      string        `long:"postgres-url" env:"POSTGRES_URL" required:"true" description:"Postgres connection URL"`
	RedisAddr        string        `long:"redis-addr" env:"REDIS_ADDR" required:"true" description:"Redis address"`
	MailerAddr       string        `long:"mailer-addr" env:"MAILER_ADDR" required:"true" description:"Mailer service base URL"`
	JaegerEndpoint   string        `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" description:"Jaeger collector endpoint"`
	TicketCodeSecret string        `long:"ticket-code-secret" env:"TICKET_CODE_SECRET" required:"true" description:"Secret used to sign ticket codes"`
	TokenTTL         time.Duration `long:"confirmation-token-ttl" env:"CONFIRMATION_TOKEN_TTL" description:"Confirmation token lifetime"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	ctxlog.Init(logrus.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp := tracing.ConfigureTraceProvider(opts.JaegerEndpoint)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("failed to shutdown trace provider")
		}
	}()

	dbConn, err := sqlx.Open("postgres", opts.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: opts.RedisAddr,
	})
	defer redisClient.Close()

	mailerClient := gateway.NewMailerClient(opts.MailerAddr)

	svc := service.New(
		service.Config{
			HTTPAddr:         opts.HTTPAddr,
			TicketCodeSecret: []byte(opts.TicketCodeSecret),
			TokenTTL:         opts.TokenTTL,
		},
		dbConn,
		redisClient,
		mailerClient,
	)

	if err := svc.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("service stopped with error")
	}
}
