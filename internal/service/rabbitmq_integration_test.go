//go:build integration
// +build integration

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ad-tracker/trendmeter/internal/config"
	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRabbitMQ(t *testing.T) *config.RabbitMQConfig {
	t.Helper()
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start rabbitmq container")
	t.Cleanup(func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := rabbitmqContainer.Host(ctx)
	require.NoError(t, err)
	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.RabbitMQConfig{
		Enabled:    true,
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.runs",
		Queue:      "test.runs.completed",
		RoutingKey: "run.completed",
	}
}

func TestMessagePublisher_PublishRunCompleted(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := setupTestRabbitMQ(t)

	mp, err := NewMessagePublisher(cfg)
	require.NoError(t, err)
	defer mp.Close()
	assert.True(t, mp.IsHealthy())

	event := &models.RunCompletedEvent{
		RunID:        uuid.New(),
		Status:       models.RunStatusCompleted,
		Keywords:     []string{"reddit update"},
		VideoCount:   3,
		ChannelCount: 1,
		ChannelIDs:   []string{"UCa"},
		FinishedAt:   time.Now().UTC(),
	}
	require.NoError(t, mp.PublishRunCompleted(context.Background(), event))

	conn, err := amqp.Dial(fmt.Sprintf("amqp://guest:guest@%s:%d/", cfg.Host, cfg.Port))
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get(cfg.Queue, true)
		return err == nil && ok
	}, 10*time.Second, 200*time.Millisecond)

	assert.Equal(t, event.RunID.String(), msg.MessageId)
	var got models.RunCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, event.RunID, got.RunID)
	assert.Equal(t, []string{"UCa"}, got.ChannelIDs)
}

func TestMessagePublisher_IsHealthyAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	mp, err := NewMessagePublisher(setupTestRabbitMQ(t))
	require.NoError(t, err)

	require.NoError(t, mp.Close())
	assert.False(t, mp.IsHealthy())
}

func TestMessagePublisher_PublishAfterConnectionLoss(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	mp, err := NewMessagePublisher(setupTestRabbitMQ(t))
	require.NoError(t, err)
	defer mp.Close()

	_ = mp.conn.Close()

	err = mp.PublishRunCompleted(context.Background(), &models.RunCompletedEvent{RunID: uuid.New()})
	assert.Error(t, err)
}
