package queue

import (
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Outcome of a failed delivery.
const (
	OutcomeRetry = "retry"
	OutcomeDead  = "dead"
)

// HandleProcessingError moves a failed delivery to queueName's retry queue,
// or to its dead-letter queue once it has been retried maxRetries times or
// when retry is false. The delivery is acked once republished and requeued
// if republishing fails.
func HandleProcessingError(p Publisher, msg amqp091.Delivery, queueName string, retry bool) string {
	retries := retryCount(msg.Headers)

	if !retry || retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		err := p.Publish("", dlqName, false, false, amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     msg.Headers,
		})
		if err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			_ = msg.Nack(false, true)
			return OutcomeRetry
		}
		_ = msg.Ack(false)
		return OutcomeDead
	}

	retryName := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)

	err := p.Publish("", retryName, false, false, amqp091.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     headers,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		_ = msg.Nack(false, true)
		return OutcomeRetry
	}
	_ = msg.Ack(false)
	return OutcomeRetry
}

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
