// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/flowrun/pkg/nodes/condition"
	"github.com/dukex/flowrun/pkg/nodes/email"
	"github.com/dukex/flowrun/pkg/nodes/feed"
	"github.com/dukex/flowrun/pkg/nodes/httprequest"
	"github.com/dukex/flowrun/pkg/nodes/llm"
	"github.com/dukex/flowrun/pkg/nodes/marketdata"
	"github.com/dukex/flowrun/pkg/nodes/mcp"
	"github.com/dukex/flowrun/pkg/nodes/output"
	"github.com/dukex/flowrun/pkg/nodes/sms"
	"github.com/dukex/flowrun/pkg/nodes/transform"
	"github.com/dukex/flowrun/pkg/nodes/trigger"
	"github.com/dukex/flowrun/pkg/registry"
)

const toolHTTPTimeout = 30 * time.Second

// RegistryConfig carries the credentials and endpoints node handlers need.
type RegistryConfig struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	SMTP           email.SMTPSettings
	MCPServersFile string
}

func registerNativeTriggers(reg *registry.Registry) {
	reg.Register(trigger.NewScheduleFactory())
	reg.Register(trigger.NewWebhookFactory())
}

func registerNativeLogic(reg *registry.Registry) {
	reg.Register(transform.NewFactory())
	reg.Register(condition.NewFactory())
	reg.Register(output.NewFactory())
}

func registerNativeTools(reg *registry.Registry, logger *slog.Logger, config RegistryConfig) error {
	client := &http.Client{Timeout: toolHTTPTimeout}

	reg.Register(httprequest.NewFactory(client))
	reg.Register(httprequest.NewWebhookFactory(client))
	reg.Register(email.NewFactory(email.NewSMTPSender(), config.SMTP))
	reg.Register(sms.NewFactory(sms.NewClient(client, "")))
	reg.Register(feed.NewFactory(feed.NewClient(client, "")))
	reg.Register(marketdata.NewFactory(marketdata.NewClient(client, marketdata.DefaultEndpoints()), logger))

	servers, err := mcp.LoadServers(config.MCPServersFile)
	if err != nil {
		return err
	}

	reg.Register(mcp.NewFactory(mcp.NewClient(mcp.DefaultTimeout, logger), servers))

	return nil
}

func registerLLM(ctx context.Context, reg *registry.Registry, config RegistryConfig) error {
	var openAI, gemini llm.Provider

	if config.OpenAIAPIKey != "" {
		openAI = llm.NewOpenAIProvider(config.OpenAIAPIKey, config.OpenAIBaseURL)
	}

	if config.GeminiAPIKey != "" {
		provider, err := llm.NewGeminiProvider(ctx, config.GeminiAPIKey)
		if err != nil {
			return err
		}

		gemini = provider
	}

	reg.Register(llm.NewFactory(llm.NewGateway(openAI, gemini)))

	return nil
}

// NewRegistry registers every built-in node type.
func NewRegistry(ctx context.Context, logger *slog.Logger, config RegistryConfig) (*registry.Registry, error) {
	reg := registry.New(logger)

	registerNativeTriggers(reg)
	registerNativeLogic(reg)

	if err := registerNativeTools(reg, logger, config); err != nil {
		return nil, fmt.Errorf("failed to register tool nodes: %w", err)
	}

	if err := registerLLM(ctx, reg, config); err != nil {
		return nil, fmt.Errorf("failed to register llm node: %w", err)
	}

	return reg, nil
}
