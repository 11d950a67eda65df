package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"resumescore/internal/errors"
)

// Config holds the broker settings.
type Config struct {
	URL             string
	Queue           string
	UpdatesExchange string
	Workers         int
	Prefetch        int
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = "resume_analysis"
	}
	if c.UpdatesExchange == "" {
		c.UpdatesExchange = "analysis_updates"
	}
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 1
	}
	return c
}

// AMQPPublisher publishes updates to a topic exchange, routed by job id.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher opens a channel on conn and declares the exchange.
func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to open channel", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to declare updates exchange", err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

// Publish sends update as JSON.
func (p *AMQPPublisher) Publish(_ context.Context, update Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeQueueFailed, "failed to encode update", err)
	}

	// Channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, RoutingKey(update.JobID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to publish update", err)
	}
	return nil
}

// Close closes the channel.
func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

// Enqueue publishes a job to the work queue, declaring it first.
func Enqueue(conn *amqp.Connection, queue string, job Job) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to open channel", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to declare queue", err)
	}
	body, err := json.Marshal(job)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeQueueFailed, "failed to encode job", err)
	}
	if err := ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Body:         body,
	}); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to publish job", err)
	}
	return nil
}

// Worker consumes the work queue with a pool of consumers.
type Worker struct {
	cfg       Config
	processor *Processor
	logger    *errors.Logger
}

// NewWorker creates a worker pool for cfg.
func NewWorker(cfg Config, processor *Processor, logger *errors.Logger) *Worker {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Worker{cfg: cfg.withDefaults(), processor: processor, logger: logger}
}

// Dial connects to the broker.
func Dial(url string) (*amqp.Connection, error) {
	if url == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "queue URL is required", nil)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to connect to broker", err)
	}
	return conn, nil
}

// Run starts cfg.Workers consumers on conn and blocks until ctx is done or
// the connection closes.
func (w *Worker) Run(ctx context.Context, conn *amqp.Connection) error {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, w.cfg.Workers)
	for id := 1; id <= w.cfg.Workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.consume(ctx, id, conn); err != nil {
				errs <- err
				cancel()
			}
		}()
	}

	w.logger.Info("Queue worker pool started", "workers", w.cfg.Workers, "queue", w.cfg.Queue)

	var runErr error
	select {
	case <-ctx.Done():
	case amqpErr := <-closed:
		if amqpErr != nil {
			runErr = errors.NewNetworkError(errors.ErrCodeQueueFailed, "broker connection closed", amqpErr)
		}
		cancel()
	}
	wg.Wait()

	select {
	case err := <-errs:
		if runErr == nil {
			runErr = err
		}
	default:
	}
	w.logger.Info("Queue worker pool stopped")
	return runErr
}

func (w *Worker) consume(ctx context.Context, id int, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to open channel", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(w.cfg.Queue, true, false, false, false, nil); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to declare queue", err)
	}
	if err := ch.Qos(w.cfg.Prefetch, 0, false); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to set prefetch", err)
	}

	tag := fmt.Sprintf("resumescore-worker-%d", id)
	msgs, err := ch.Consume(w.cfg.Queue, tag, false, false, false, false, nil)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to consume queue", err)
	}

	logger := w.logger.With("worker_id", id)
	logger.Debug("Consumer started", "consumer_tag", tag)

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(tag, false)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.deliver(ctx, logger, msg)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, logger *errors.Logger, msg amqp.Delivery) {
	err := w.processor.HandleMessage(ctx, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.LogError(ackErr, "Failed to ack message")
		}
		return
	}

	// Malformed messages will never succeed; anything else goes back once.
	requeue := !msg.Redelivered
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeValidation {
		requeue = false
	}
	logger.LogError(err, "Failed to handle message", "requeue", requeue, "message_id", msg.MessageId)
	if nackErr := msg.Nack(false, requeue); nackErr != nil {
		logger.LogError(nackErr, "Failed to nack message")
	}
}
