package constvars

const (
	MailerDriverRabbitMQ = "rabbitmq"
	MailerDriverSMTP     = "smtp"
)

const (
	MailerHeaderKind      = "kind"
	MailerKindMagicLink   = "magic_link"
)
