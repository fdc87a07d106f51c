package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	AnalyzeQueue = "analyze_queue"
	Exchange     = "pubsub_exchange"

	TopicAnalysisCompleted = "analysis.completed"

	retryTTL   = int32(10000)
	maxRetries = 10
)

// Publisher is the part of *amqp091.Channel used to publish messages.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// URLFromEnv builds the broker URL from the RABBITMQ_* variables.
func URLFromEnv() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnvString("RABBITMQ_USER", "guest"),
		util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

// Init dials the broker, retrying while it starts up.
func Init(ctx context.Context, url string) (*amqp091.Connection, error) {
	conn, err := util.RetryWithContext(ctx, 5, 2*time.Second, func(context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(url)
		if err != nil {
			logger.Warn("[Queue] RabbitMQ not reachable yet", "err", err)
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares the topic exchange and, for every name, the work
// queue with its "_retry" queue (dead-lettering back after a delay) and its
// "_dlq" queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("ExchangeDeclare failed: %w", err)
	}

	for _, name := range queueNames {
		for _, q := range queueDeclarations(name) {
			if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
				return fmt.Errorf("QueueDeclare %s failed: %w", q.name, err)
			}
		}
	}
	return nil
}

type queueDecl struct {
	name string
	args amqp091.Table
}

func queueDeclarations(name string) []queueDecl {
	return []queueDecl{
		{name: name},
		{name: name + "_dlq"},
		{name: name + "_retry", args: amqp091.Table{
			"x-message-ttl":             retryTTL,
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": name,
		}},
	}
}

func PublishFIFO(p Publisher, queueName string, data []byte) error {
	return p.Publish("", queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}

func PublishTopic(p Publisher, topic string, data []byte) error {
	return p.Publish(Exchange, topic, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}
