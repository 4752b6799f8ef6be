package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"valentine-server/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPermanent marks a handler failure that must not be redelivered.
var ErrPermanent = errors.New("permanent processing failure")

// EventHandler обрабатывает событие о сохранённом ответе.
type EventHandler interface {
	HandleResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error
}

// Delivery is the part of amqp.Delivery the processor needs.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Processor decodes a message, hands it to the handler and settles it.
type Processor struct {
	logger  *zap.Logger
	handler EventHandler
	timeout time.Duration
}

func NewProcessor(handler EventHandler, timeout time.Duration, logger *zap.Logger) *Processor {
	return &Processor{
		logger:  logger.Named("processor"),
		handler: handler,
		timeout: timeout,
	}
}

// Process: невалидный JSON и ErrPermanent -> nack без requeue,
// прочие ошибки -> nack с requeue, если сообщение ещё не передоставлялось.
func (p *Processor) Process(ctx context.Context, body []byte, redelivered bool, d Delivery) {
	var event domain.ResponseRecordedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		p.logger.Error("Ошибка десериализации JSON", zap.Error(err), zap.ByteString("body", body))
		p.nack(d, false)
		return
	}
	log := p.logger.With(zap.Int64("response_id", event.ResponseID), zap.Bool("answer", event.Answer))

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.handler.HandleResponseRecorded(processCtx, event); err != nil {
		requeue := !redelivered && !errors.Is(err, ErrPermanent)
		log.Error("Ошибка обработки события", zap.Error(err), zap.Bool("requeue", requeue))
		p.nack(d, requeue)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("Ошибка Ack сообщения", zap.Error(err))
		return
	}
	log.Info("Событие обработано")
}

func (p *Processor) nack(d Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		p.logger.Error("Ошибка Nack сообщения", zap.Error(err))
	}
}

// Consumer reads author_notifications with a fixed number of workers.
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, queueName string, concurrency int, processor *Processor, logger *zap.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("consumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stop:        make(chan struct{}),
	}
}

// Start declares the topology and blocks until Stop is called or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", c.queueName, err)
	}
	if err := ch.QueueBind(q.Name, "", ExchangeLetterEvents, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", q.Name, ExchangeLetterEvents, err)
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "author-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}
	c.logger.Info("Консьюмер запущен", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Info("Канал сообщений закрыт, воркер завершает работу")
						return
					}
					c.processor.Process(ctx, d.Body, d.Redelivered, d)
				}
			}
		}(i)
	}

	workersDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(workersDone)
	}()

	select {
	case <-c.stop:
		c.logger.Info("Получен сигнал остановки")
	case <-ctx.Done():
	case <-workersDone:
		// канал доставки закрылся сам: соединение или канал RabbitMQ потеряны
		return errors.New("канал доставки RabbitMQ закрыт")
	}
	cancel()
	<-workersDone
	c.logger.Info("Все воркеры консьюмера остановлены")
	return nil
}

func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
