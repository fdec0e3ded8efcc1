package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/config"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/server"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "sc:kv"

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	store, closeStore, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	decoder, err := newTokenDecoder(c)
	if err != nil {
		return err
	}

	gw := gateway.NewClient(c.GetGatewayURL(), c.GetGatewayTimeout())
	log.Info().Str("gateway", gw.BaseURL()).Msg("Using API gateway")

	handler, err := server.New(c, store, sessions.NewService(store, decoder), gw)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	server := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newStore picks Redis when REDIS_ADDR is set so several replicas share browser state
func newStore(c config.Config) (kvstore.Repo, func(), error) {
	ttl := c.GetBrowserCookieMaxAge()
	if c.GetRedisAddr() == "" {
		log.Info().Int("max_browsers", c.GetMaxBrowsers()).Msg("Using in-memory browser storage")
		return kvstore.NewInMemoryRepo(c.GetMaxBrowsers(), ttl), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis browser storage")
	return kvstore.NewRedisRepo(client, redisKeyPrefix, ttl), func() { _ = client.Close() }, nil
}

func newTokenDecoder(c config.Config) (sessions.TokenDecoder, error) {
	switch {
	case c.GetAuthOIDCIssuer() != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sessions.NewOIDCDecoder(ctx, c.GetAuthOIDCIssuer(), c.GetAuthOIDCClientID())
	case c.GetAuthJWTSecret() != "":
		return sessions.NewHMACDecoder(c.GetAuthJWTSecret()), nil
	default:
		log.Warn().Msg("No AUTH_JWT_SECRET or AUTH_OIDC_ISSUER set, token signatures are not verified locally")
		return sessions.UnverifiedDecoder{}, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
