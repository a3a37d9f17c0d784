package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/logger"
)

const retryHeader = "x-retry-count"

// Channel is the part of *amqp.Channel the queue uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// AMQPQueue publishes JSON payloads to durable queues named after the topic.
// A failing delivery is republished with an incremented x-retry-count until MaxRetries.
type AMQPQueue struct {
	ch         Channel
	conn       *amqp.Connection
	MaxRetries int
	Logger     *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
	wg       sync.WaitGroup
}

// DialAMQP connects to the broker and opens one channel.
func DialAMQP(url string, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q := NewAMQPQueue(ch, log)
	q.conn = conn
	return q, nil
}

func NewAMQPQueue(ch Channel, log *zap.Logger) *AMQPQueue {
	return &AMQPQueue{
		ch:         ch,
		MaxRetries: 3,
		Logger:     logger.OrNop(log),
		declared:   map[string]bool{},
	}
}

func (q *AMQPQueue) declare(topic string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	return q.publish(topic, payload, 0)
}

func (q *AMQPQueue) publish(topic string, payload any, retries int) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: int32(retries)},
		Body:         body,
	})
}

// Subscribe starts consuming in the background. The handler receives the decoded JSON value.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", topic, err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			q.handle(topic, d, handler)
		}
	}()
	return nil
}

// delivery is the part of amqp.Delivery a handled message needs.
type delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler func(payload any) error) {
	q.process(topic, d.Body, d.Headers, d, handler)
}

func (q *AMQPQueue) process(topic string, body []byte, headers amqp.Table, d delivery, handler func(payload any) error) {
	log := logger.OrNop(q.Logger)

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("invalid job payload", zap.String("topic", topic), zap.Error(err))
		d.Ack(false)
		return
	}

	err := handler(payload)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := RetryCount(headers)
	log.Warn("job failed", zap.Any("payload", payload), zap.Int("attempt", retries+1), zap.Error(err))
	if retries >= q.MaxRetries {
		log.Error("job permanently failed", zap.Any("payload", payload), zap.Int("attempts", retries+1))
		d.Ack(false)
		return
	}
	if err := q.publish(topic, payload, retries+1); err != nil {
		log.Error("requeue failed", zap.Error(err))
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

// RetryCount reads the x-retry-count header; brokers may hand back any integer width.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// Close stops consuming and waits for in-flight handlers.
func (q *AMQPQueue) Close() error {
	err := q.ch.Close()
	q.wg.Wait()
	if q.conn != nil {
		if cerr := q.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ Queue = (*AMQPQueue)(nil)
