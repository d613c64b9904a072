package mailer

import (
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/exceptions"
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type rabbitMQMailerService struct {
	mu          sync.Mutex
	Channel     publisher
	openChannel func() (publisher, error)
	Queue       string
	Log         *zap.Logger
}

// NewRabbitMQMailerService opens the first channel eagerly so a broken broker
// fails startup. Channels the broker closes later are reopened on demand.
func NewRabbitMQMailerService(rabbitMQConnection *amqp091.Connection, queue string, log *zap.Logger) (contracts.MailerService, error) {
	s := &rabbitMQMailerService{
		Queue: queue,
		Log:   log,
	}
	s.openChannel = func() (publisher, error) {
		return s.declareChannel(rabbitMQConnection)
	}

	if _, err := s.currentChannel(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *rabbitMQMailerService) declareChannel(conn *amqp091.Connection) (publisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = channel.QueueDeclare(s.Queue, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		return nil, err
	}

	closed := channel.NotifyClose(make(chan *amqp091.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			s.Log.Warn("rabbitMQMailerService channel closed by broker",
				zap.String(constvars.LoggingQueueKey, s.Queue),
				zap.Error(amqpErr),
			)
		}
		s.discardChannel(channel)
	}()

	return channel, nil
}

func (s *rabbitMQMailerService) currentChannel() (publisher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Channel != nil {
		return s.Channel, nil
	}
	if s.openChannel == nil {
		return nil, amqp091.ErrClosed
	}

	channel, err := s.openChannel()
	if err != nil {
		return nil, err
	}
	s.Channel = channel
	return channel, nil
}

func (s *rabbitMQMailerService) discardChannel(channel publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Channel == channel {
		s.Channel = nil
	}
}

func (s *rabbitMQMailerService) SendEmail(ctx context.Context, request *requests.EmailPayload) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	body, err := json.Marshal(request)
	if err != nil {
		return "", exceptions.ErrCannotMarshalJSON(err)
	}

	messageID := uuid.NewString()
	headers := amqp091.Table{
		"message_type":     "JSON",
		"requeue_strategy": "DROP",
	}
	for key, value := range request.Headers {
		headers[key] = value
	}

	message := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    messageID,
		Priority:     0,
		Headers:      headers,
	}

	// One retry on a fresh channel when the current one turns out to be closed.
	for attempt := 0; ; attempt++ {
		channel, err := s.currentChannel()
		if err != nil {
			return "", exceptions.ErrRabbitMQPublishMessage(err, s.Queue)
		}

		err = channel.PublishWithContext(ctx, "", s.Queue, false, false, message)
		if err == nil {
			break
		}
		if !errors.Is(err, amqp091.ErrClosed) || attempt > 0 {
			return "", exceptions.ErrRabbitMQPublishMessage(err, s.Queue)
		}

		s.Log.Warn("rabbitMQMailerService.SendEmail reopening closed channel",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingQueueKey, s.Queue),
		)
		s.discardChannel(channel)
	}

	s.Log.Debug("rabbitMQMailerService.SendEmail published",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingMessageIDKey, messageID),
	)
	return messageID, nil
}
