package cmd

import (
	"time"

	"github.com/dukex/flowrun/pkg/nodes/email"
	cli "github.com/urfave/cli/v3"
)

// CommonFlags configure logging, storage, the run queue, the event bus and tracing.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence (file://, postgres://, sqlite://)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "queue-url",
			Usage:   "Run queue URL (memory://, redis://host:port/db)",
			Value:   "memory://",
			Sources: cli.EnvVars("QUEUE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// RegistryFlags configure the node handlers.
func RegistryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "OpenAI API key for llm nodes",
			Sources: cli.EnvVars("OPENAI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Usage:   "OpenAI compatible API base URL",
			Sources: cli.EnvVars("OPENAI_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "Gemini API key for llm nodes",
			Sources: cli.EnvVars("GEMINI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "Default SMTP host for email nodes",
			Sources: cli.EnvVars("SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Usage:   "Default SMTP port for email nodes",
			Value:   587,
			Sources: cli.EnvVars("SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-user",
			Usage:   "Default SMTP user for email nodes",
			Sources: cli.EnvVars("SMTP_USER"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "Default SMTP password for email nodes",
			Sources: cli.EnvVars("SMTP_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Default sender address for email nodes",
			Sources: cli.EnvVars("SMTP_FROM"),
		},
		&cli.StringFlag{
			Name:    "mcp-servers-file",
			Usage:   "JSON file listing the MCP servers tool.mcp nodes may call",
			Sources: cli.EnvVars("MCP_SERVERS_FILE"),
		},
	}
}

// RegistryConfigFrom reads RegistryFlags.
func RegistryConfigFrom(command *cli.Command) RegistryConfig {
	from := command.String("smtp-from")
	if from == "" {
		from = command.String("smtp-user")
	}

	return RegistryConfig{
		OpenAIAPIKey:  command.String("openai-api-key"),
		OpenAIBaseURL: command.String("openai-base-url"),
		GeminiAPIKey:  command.String("gemini-api-key"),
		SMTP: email.SMTPSettings{
			Host:     command.String("smtp-host"),
			Port:     int(command.Int("smtp-port")),
			User:     command.String("smtp-user"),
			Password: command.String("smtp-password"),
			From:     from,
		},
		MCPServersFile: command.String("mcp-servers-file"),
	}
}

// WorkerFlags configure the job consumer.
func WorkerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		&cli.IntFlag{
			Name:    "worker-concurrency",
			Usage:   "Runs executed at the same time",
			Value:   5,
			Sources: cli.EnvVars("WORKER_CONCURRENCY"),
		},
		&cli.IntFlag{
			Name:    "max-attempts",
			Usage:   "Attempts per run before it is marked failed",
			Value:   3,
			Sources: cli.EnvVars("WORKER_MAX_ATTEMPTS"),
		},
	}
}

// SchedulerFlags configure the schedule poller.
func SchedulerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "scheduler-interval",
			Usage:   "How often schedule triggers are evaluated",
			Value:   time.Minute,
			Sources: cli.EnvVars("SCHEDULER_INTERVAL"),
		},
		&cli.StringFlag{
			Name:    "timezone",
			Usage:   "IANA time zone schedules are evaluated in (default: local)",
			Sources: cli.EnvVars("SCHEDULER_TIMEZONE"),
		},
	}
}

// APIFlags configure the intake server.
func APIFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   9091,
			Sources: cli.EnvVars("PORT"),
		},
	}
}
