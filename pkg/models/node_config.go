package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every config decoding failure.
var ErrInvalidConfig = errors.New("invalid node configuration")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// NodeConfig is the typed configuration of a node. Each built-in node type has
// its own variant; unknown types decode to GenericConfig.
type NodeConfig interface {
	NodeType() NodeType
}

// ScheduleTriggerConfig configures a trigger.schedule node. Schedule holds
// either a string ("daily", "hourly", a cron expression) or a structured
// {hour, minute, days} object.
type ScheduleTriggerConfig struct {
	Schedule any `json:"schedule,omitempty"`
}

func (ScheduleTriggerConfig) NodeType() NodeType { return NodeTypeScheduleTrigger }

// WebhookTriggerConfig configures a trigger.webhook node.
type WebhookTriggerConfig struct {
	Secret string `json:"secret,omitempty"`
}

func (WebhookTriggerConfig) NodeType() NodeType { return NodeTypeWebhookTrigger }

// LLMConfig configures an llm node.
type LLMConfig struct {
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	UserPrompt   string   `json:"userPrompt,omitempty"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

func (LLMConfig) NodeType() NodeType { return NodeTypeLLM }

// Transform kinds.
const (
	TransformPassThrough  = "pass-through"
	TransformMapFields    = "map-fields"
	TransformJSONPath     = "jsonpath"
	TransformSqueezeScore = "squeezeScore"
)

// TransformConfig configures a transform node.
type TransformConfig struct {
	Type    string            `json:"type,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`
	Path    string            `json:"path,omitempty"`
}

func (TransformConfig) NodeType() NodeType { return NodeTypeTransform }

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
}

func (ConditionConfig) NodeType() NodeType { return NodeTypeCondition }

// HTTPConfig configures a tool.http node.
type HTTPConfig struct {
	URL     string            `json:"url"               validate:"required"`
	Method  string            `json:"method,omitempty"  validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

func (HTTPConfig) NodeType() NodeType { return NodeTypeHTTP }

// WebhookConfig configures a tool.webhook node.
type WebhookConfig struct {
	URL string `json:"url" validate:"required"`
}

func (WebhookConfig) NodeType() NodeType { return NodeTypeWebhook }

// EmailConfig configures a tool.email node. Recipient, subject and body may
// also arrive through the node input.
type EmailConfig struct {
	To           string   `json:"to,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Body         string   `json:"body,omitempty"`
	HTML         bool     `json:"html,omitempty"`
	From         string   `json:"from,omitempty"`
	FromName     string   `json:"fromName,omitempty"`
	Cc           []string `json:"cc,omitempty"`
	Bcc          []string `json:"bcc,omitempty"`
	Provider     string   `json:"provider,omitempty"     validate:"omitempty,oneof=smtp"`
	SMTPHost     string   `json:"smtpHost,omitempty"`
	SMTPPort     int      `json:"smtpPort,omitempty"     validate:"omitempty,gt=0,lte=65535"`
	SMTPUser     string   `json:"smtpUser,omitempty"`
	SMTPPassword string   `json:"smtpPassword,omitempty"`
}

func (EmailConfig) NodeType() NodeType { return NodeTypeEmail }

// SMSConfig configures a tool.sms node.
type SMSConfig struct {
	To               string `json:"to,omitempty"`
	Message          string `json:"message,omitempty"`
	From             string `json:"from,omitempty"`
	Provider         string `json:"provider,omitempty"         validate:"omitempty,oneof=twilio custom"`
	TwilioAccountSID string `json:"twilioAccountSid,omitempty"`
	TwilioAuthToken  string `json:"twilioAuthToken,omitempty"`
	TwilioFromNumber string `json:"twilioFromNumber,omitempty"`
	CustomEndpoint   string `json:"customEndpoint,omitempty"`
	CustomAPIKey     string `json:"customApiKey,omitempty"`
}

func (SMSConfig) NodeType() NodeType { return NodeTypeSMS }

// Feed operations.
const (
	FeedFetchPosts    = "fetchPosts"
	FeedFetchComments = "fetchComments"
	FeedSearchPosts   = "searchPosts"
)

// FeedConfig configures a tool.reddit content-feed node.
type FeedConfig struct {
	Operation  string `json:"operation,omitempty"`
	Subreddit  string `json:"subreddit,omitempty"`
	Sort       string `json:"sort,omitempty"       validate:"omitempty,oneof=hot new top rising"`
	Limit      int    `json:"limit,omitempty"      validate:"omitempty,gt=0,lte=100"`
	TimeFilter string `json:"timeFilter,omitempty" validate:"omitempty,oneof=hour day week month year all"`
	Permalink  string `json:"permalink,omitempty"`
	Query      string `json:"query,omitempty"`
}

func (FeedConfig) NodeType() NodeType { return NodeTypeFeed }

// MarketDataConfig configures a tool.stock node.
type MarketDataConfig struct {
	Ticker         string `json:"ticker,omitempty"`
	Provider       string `json:"provider,omitempty"       validate:"omitempty,oneof=yahoo alphavantage fintel custom"`
	APIKey         string `json:"apiKey,omitempty"`
	CustomEndpoint string `json:"customEndpoint,omitempty" validate:"required_if=Provider custom"`
}

func (MarketDataConfig) NodeType() NodeType { return NodeTypeMarketData }

// MCPConfig configures a tool.mcp node.
type MCPConfig struct {
	ServerID          string         `json:"serverId,omitempty"`
	ToolName          string         `json:"toolName,omitempty"`
	ArgumentsTemplate map[string]any `json:"argumentsTemplate,omitempty"`
}

func (MCPConfig) NodeType() NodeType { return NodeTypeMCP }

// OutputConfig configures an output node.
type OutputConfig struct{}

func (OutputConfig) NodeType() NodeType { return NodeTypeOutput }

// GenericConfig carries the raw configuration of node types without a
// dedicated variant.
type GenericConfig struct {
	Type   NodeType
	Values map[string]any
}

func (c GenericConfig) NodeType() NodeType { return c.Type }

// DecodeConfig converts the node's raw configuration into its typed variant
// and validates it.
func DecodeConfig(node *Node) (NodeConfig, error) {
	var target NodeConfig

	switch node.Type {
	case NodeTypeScheduleTrigger:
		target = &ScheduleTriggerConfig{}
	case NodeTypeWebhookTrigger:
		target = &WebhookTriggerConfig{}
	case NodeTypeLLM:
		target = &LLMConfig{}
	case NodeTypeTransform:
		target = &TransformConfig{}
	case NodeTypeCondition:
		target = &ConditionConfig{}
	case NodeTypeHTTP:
		target = &HTTPConfig{}
	case NodeTypeWebhook:
		target = &WebhookConfig{}
	case NodeTypeEmail:
		target = &EmailConfig{}
	case NodeTypeSMS:
		target = &SMSConfig{}
	case NodeTypeFeed:
		target = &FeedConfig{}
	case NodeTypeMarketData:
		target = &MarketDataConfig{}
	case NodeTypeMCP:
		target = &MCPConfig{}
	case NodeTypeOutput:
		target = &OutputConfig{}
	default:
		values := make(map[string]any, len(node.Config))
		for k, v := range node.Config {
			values[k] = v
		}

		return GenericConfig{Type: node.Type, Values: values}, nil
	}

	if len(node.Config) > 0 {
		raw, err := json.Marshal(node.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, node.Type, err)
		}

		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, node.Type, err)
		}
	}

	if err := validate.Struct(target); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, node.Type, describeValidation(err))
	}

	return target, nil
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))

	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required", "required_if", "required_with":
			parts = append(parts, fieldErr.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fieldErr.Field(), fieldErr.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
		}
	}

	return strings.Join(parts, "; ")
}
