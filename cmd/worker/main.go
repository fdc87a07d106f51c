package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	services, err := setup.New(ctx, setup.ConfigFromEnv(), setup.Overrides{})
	if err != nil {
		logger.Fatal("Failed to set up services", "err", err)
	}
	defer services.Close(context.Background())

	conn, err := queue.Init(ctx, queue.URLFromEnv())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.AnalyzeQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	parallel := util.GetEnvInt("WORKER_PREFETCH", 1)
	if err := ch.Qos(parallel, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.AnalyzeQueue,
		fmt.Sprintf("%s_consumer", queue.AnalyzeQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalyzeQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.AnalyzeQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.AnalyzeQueue)
				return
			}
			handle(ctx, services, ch, msg)
		}
	}
}

func handle(ctx context.Context, services *setup.Services, ch *amqp.Channel, msg amqp.Delivery) {
	start := time.Now()
	err := queue.ProcessAnalyzeMessage(ctx, services.Graph, services.Storage, ch, msg.Body)
	services.Metrics.Analysis("worker", err)

	if err != nil {
		logger.Error("Error processing message", "queue", queue.AnalyzeQueue, "err", err)
		retry := !errors.Is(err, queue.ErrInvalidMessage)
		services.Metrics.Job(queue.HandleProcessingError(ch, msg, queue.AnalyzeQueue, retry))
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message", "err", err)
	}
	services.Metrics.Job("done")
	logger.Info("Message processed successfully", "queue", queue.AnalyzeQueue, "duration", time.Since(start))
}
