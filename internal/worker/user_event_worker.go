package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"user-service/internal/platform/rabbitmq"
)

// CacheEvictor drops cached username lookups.
type CacheEvictor interface {
	Evict(ctx context.Context, usernames ...string) error
}

// UserEventWorker consumes user events and evicts the usernames they touch a
// second time, after the write is committed. The service already evicts
// synchronously; this pass removes entries a concurrent read refilled from
// the pre-write row.
type UserEventWorker struct {
	conn      *amqp.Connection
	cache     CacheEvictor
	queueName string
	log       logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUserEventWorker(conn *amqp.Connection, cache CacheEvictor, queueName string, log logrus.FieldLogger) *UserEventWorker {
	return &UserEventWorker{
		conn:      conn,
		cache:     cache,
		queueName: queueName,
		log:       log.WithField("worker", "user_events"),
	}
}

func (w *UserEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()

	w.log.WithField("queue", w.queueName).Info("worker started")
	return nil
}

func (w *UserEventWorker) process(ctx context.Context, d amqp.Delivery) {
	event, err := rabbitmq.DecodeUserEvent(d.Body)
	if err != nil {
		w.log.WithError(err).WithField("message_id", d.MessageId).Error("worker decode event failed")
		_ = d.Nack(false, false)
		return
	}

	entry := w.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"user_id":    event.UserID,
	})

	if err := w.cache.Evict(ctx, event.Usernames()...); err != nil {
		entry.WithError(err).Error("worker evict cache failed")
		_ = d.Nack(false, false)
		return
	}

	entry.Debug("user event handled")
	_ = d.Ack(false)
}

func (w *UserEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
