package main

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthChecks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dbErr := errors.New("db down")
	checks := healthChecks(stubPinger{err: dbErr}, client)
	require.Len(t, checks, 2)

	assert.Equal(t, "postgres", checks[0].Name)
	assert.ErrorIs(t, checks[0].Ping(context.Background()), dbErr)

	assert.Equal(t, "redis", checks[1].Name)
	assert.NoError(t, checks[1].Ping(context.Background()))

	mr.Close()
	assert.Error(t, checks[1].Ping(context.Background()))
}

func TestNewEventPublisherLog(t *testing.T) {
	p, closeFn, err := newEventPublisher(&config.Config{EventPublisher: "log"}, zerolog.Nop())
	require.NoError(t, err)

	assert.IsType(t, &eventpublisher.LogPublisher{}, p)
	assert.NoError(t, closeFn())
}

func TestNewEventPublisherRejectsUnknown(t *testing.T) {
	_, _, err := newEventPublisher(&config.Config{EventPublisher: "kafka"}, zerolog.Nop())
	assert.ErrorContains(t, err, "kafka")
}

func TestNewEventPublisherAMQPInvalidURL(t *testing.T) {
	_, _, err := newEventPublisher(&config.Config{
		EventPublisher: "amqp",
		AMQPURL:        "http://localhost:5672",
		AMQPExchange:   "wallet.events",
	}, zerolog.Nop())
	assert.ErrorContains(t, err, "amqp")
}
