package mailer

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/drivers/mailer"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/exceptions"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// NewMailerService picks the dispatch backend named by MAILER_DRIVER.
func NewMailerService(internalConfig *config.InternalConfig, smtpClient *mailer.SMTPClient, rabbitMQConnection *amqp091.Connection, log *zap.Logger) (contracts.MailerService, error) {
	switch internalConfig.Mailer.Driver {
	case constvars.MailerDriverRabbitMQ:
		return NewRabbitMQMailerService(rabbitMQConnection, internalConfig.RabbitMQ.MailerQueue, log)
	case constvars.MailerDriverSMTP:
		return NewSMTPMailerService(smtpClient, log), nil
	default:
		return nil, exceptions.ErrMailerUnknownDriver(internalConfig.Mailer.Driver)
	}
}
