package config

type (
	DriverConfig struct {
		Postgres Postgres
		Redis    Redis
		Logger   Logger
		RabbitMQ RabbitMQ
		Minio    Minio
		SMTP     SMTP
	}
	Postgres struct {
		Host            string
		Port            string
		Username        string
		Password        string
		DbName          string
		SSLMode         string
		MaxConns        int
		MinConns        int
		MaxConnLifetime int
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}
	RabbitMQ struct {
		Port     string
		Host     string
		Username string
		Password string
	}
	Minio struct {
		Port     string
		Host     string
		Username string
		Password string
		UseSSL   bool
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}
)
