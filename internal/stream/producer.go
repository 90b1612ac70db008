package stream

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/IBM/sarama"
)

// Producer publishes seat and booking lifecycle events to Kafka. All
// publishing is best effort: a broker outage is logged and swallowed,
// never surfaced to the request path.
type Producer struct {
	producer sarama.SyncProducer
	cfg      *config.KafkaConfig
	log      *logger.Logger
}

// NewProducer connects a sync producer. Returns nil without error when
// Kafka is disabled in config; callers treat a nil Producer as a no-op.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = cfg.ProducerRetry
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	// Hash partitioner keeps each show's events on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka event producer created",
		"brokers", cfg.Brokers, "seat_topic", cfg.SeatTopic, "booking_topic", cfg.BookingTopic)

	return &Producer{
		producer: producer,
		cfg:      cfg,
		log:      log,
	}, nil
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

func (p *Producer) publish(ctx context.Context, topic string, event *Event) {
	if p == nil || p.producer == nil {
		return
	}

	event.Timestamp = time.Now()
	payload, err := event.ToJSON()
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to encode stream event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ShowID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("producer"), Value: []byte("cinebook-api")},
		},
		Timestamp: event.Timestamp,
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		p.log.ErrorWithContext(ctx, "failed to publish stream event", err, map[string]interface{}{
			"type":  event.Type,
			"topic": topic,
		})
	}
}

// Seat lock events, from locks.EventPublisher.

func (p *Producer) PublishSeatsLocked(ctx context.Context, showID, lockID string, seats []string) {
	p.publish(ctx, p.cfg.SeatTopic, &Event{
		Type:   EventSeatsLocked,
		ShowID: showID,
		LockID: lockID,
		Seats:  seats,
	})
}

func (p *Producer) PublishSeatsReleased(ctx context.Context, showID, lockID string, seats []string) {
	p.publish(ctx, p.cfg.SeatTopic, &Event{
		Type:   EventSeatsReleased,
		ShowID: showID,
		LockID: lockID,
		Seats:  seats,
	})
}

// Booking lifecycle events, from bookings.EventPublisher.

func (p *Producer) PublishBookingCreated(ctx context.Context, booking *bookings.Booking) {
	p.publish(ctx, p.cfg.BookingTopic, &Event{
		Type:      EventBookingCreated,
		ShowID:    booking.ShowID.String(),
		BookingID: booking.ID.String(),
		UserID:    booking.UserID.String(),
		LockID:    booking.LockID,
		Seats:     booking.Seats,
		Amount:    booking.Amount,
	})
}

func (p *Producer) PublishBookingConfirmed(ctx context.Context, booking *bookings.Booking) {
	p.publish(ctx, p.cfg.BookingTopic, &Event{
		Type:      EventBookingConfirmed,
		ShowID:    booking.ShowID.String(),
		BookingID: booking.ID.String(),
		UserID:    booking.UserID.String(),
		Seats:     booking.Seats,
		Amount:    booking.Amount,
	})
}

func (p *Producer) PublishBookingCancelled(ctx context.Context, booking *bookings.Booking, reason bookings.CancelReason) {
	p.publish(ctx, p.cfg.BookingTopic, &Event{
		Type:      EventBookingCancelled,
		ShowID:    booking.ShowID.String(),
		BookingID: booking.ID.String(),
		UserID:    booking.UserID.String(),
		Seats:     booking.Seats,
		Reason:    string(reason),
	})
}
