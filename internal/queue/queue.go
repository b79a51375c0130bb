package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/downloader/internal/config"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

const (
	ExchangeName    = "downloads"
	EventsQueueName = "download_events"

	EventDownloadAdded     = "download.added"
	EventDownloadCancelled = "download.cancelled"
)

// DownloadEvent is the message body handed to the download worker
type DownloadEvent struct {
	Event      string                `json:"event"`
	DownloadID string                `json:"download_id"`
	URL        string                `json:"url"`
	Status     models.DownloadStatus `json:"status"`
	TargetPath *string               `json:"target_path,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// NewDownloadEvent builds the event for a download row
func NewDownloadEvent(event string, d *models.Download) DownloadEvent {
	return DownloadEvent{
		Event:      event,
		DownloadID: d.ID,
		URL:        d.URL,
		Status:     d.Status,
		TargetPath: d.TargetPath,
		OccurredAt: time.Now().UTC(),
	}
}

// publisher is the subset of *amqp.Channel used for publishing
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// inspector is the subset of *amqp.Channel used to read queue depth
type inspector interface {
	QueueInspect(name string) (amqp.Queue, error)
}

// Queue provides message queue operations
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pub     publisher
	insp    inspector
}

// New creates a new queue client
func New(cfg config.QueueConfig) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange
	err = channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		EventsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to every download.* routing key
	err = channel.QueueBind(
		EventsQueueName,
		"download.*",
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Queue{
		conn:    conn,
		channel: channel,
		pub:     channel,
		insp:    channel,
	}, nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishDownloadEvent publishes an event using its name as routing key
func (q *Queue) PublishDownloadEvent(ctx context.Context, event DownloadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.pub.PublishWithContext(ctx,
		ExchangeName,
		event.Event,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.DownloadID,
			Body:         body,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Event, err)
	}

	return nil
}

// GetQueueDepth returns the number of unconsumed events
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.insp.QueueInspect(EventsQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}

// MonitorDepth samples the queue depth into metrics until ctx is done
func (q *Queue) MonitorDepth(ctx context.Context, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		depth, err := q.GetQueueDepth()
		if err != nil {
			logger.WithError(err).Warn("Failed to read queue depth")
		} else {
			metrics.SetQueueDepth(depth)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
