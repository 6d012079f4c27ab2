package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Bedrock implements Provider on top of Amazon Bedrock's
// InvokeModel API. Only Anthropic model families are supported.
type Bedrock struct {
	model   string
	timeout time.Duration
	svc     *bedrockruntime.Client
}

// credentialTimeout bounds the AWS credential chain resolution, which
// can hang on unreachable IMDS endpoints.
const credentialTimeout = 10 * time.Second

// NewBedrock resolves AWS credentials through the default chain and
// returns a client bound to the given model ID. The region argument
// overrides whatever the AWS profile or environment would select.
func NewBedrock(region, model string, timeout time.Duration) (*Bedrock, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("no bedrock model configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), credentialTimeout)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if r := strings.TrimSpace(region); r != "" {
		opts = append(opts, awsconfig.WithRegion(r))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS region not resolved. Set llm.region, AWS_REGION or a region in the active AWS profile")
	}

	return &Bedrock{
		model:   model,
		timeout: timeout,
		svc:     bedrockruntime.NewFromConfig(cfg),
	}, nil
}

// Name identifies the provider in logs and errors.
func (b *Bedrock) Name() string { return "bedrock" }

// claudeRequest is the Claude messages payload for InvokeModel.
type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// Generate invokes the configured model with a single user message.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	if detectBedrockFamily(b.model) != "anthropic" {
		return "", fmt.Errorf("unsupported Bedrock model family for %q", b.model)
	}

	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		Temperature:      0.2,
		Messages: []claudeMessage{
			{Role: "user", Content: []claudeContent{{Type: "text", Text: prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("could not encode invoke payload: %w", err)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	modelID := qualifyModelID(b.model)
	out, err := b.svc.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", bedrockInvokeError(err, modelID)
	}

	return parseClaudeResponse(out.Body)
}

// qualifyModelID appends the :0 revision that bare model IDs need.
// ARNs and inference profile IDs pass through untouched.
func qualifyModelID(model string) string {
	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "arn:") || strings.Contains(lower, "inference-profile/") {
		return model
	}
	if strings.Contains(model, ":") {
		return model
	}
	return model + ":0"
}

func parseClaudeResponse(raw []byte) (string, error) {
	var resp claudeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// Titan-style responses carry a single outputText field
		var titan struct {
			OutputText string `json:"outputText"`
		}
		if err2 := json.Unmarshal(raw, &titan); err2 == nil && strings.TrimSpace(titan.OutputText) != "" {
			return strings.TrimSpace(titan.OutputText), nil
		}
		return "", fmt.Errorf("could not decode model response: %w", err)
	}

	for _, block := range resp.Content {
		if text := strings.TrimSpace(block.Text); block.Type == "text" && text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("empty response from Bedrock model")
}

func detectBedrockFamily(model string) string {
	id := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.Contains(id, "anthropic."):
		return "anthropic"
	case strings.Contains(id, "meta."):
		return "meta"
	case strings.Contains(id, "amazon.titan"):
		return "titan"
	}
	return ""
}

// bedrockInvokeError folds common InvokeModel failures into errors with
// actionable hints about model ID formats.
func bedrockInvokeError(err error, modelID string) error {
	wrapped := fmt.Errorf("bedrock invoke error: %w", err)
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "validationexception") && strings.Contains(lower, "throughput isn't supported"):
		return fmt.Errorf("%v\nHint: this model may require an inference profile. Point llm.model at the profile ID or ARN for %q", wrapped, modelID)
	case strings.Contains(lower, "provided model identifier is invalid"):
		return fmt.Errorf("%v\nHint: verify the exact Bedrock model ID. Regional prefixes (us.) and the :0 revision suffix may be required", wrapped)
	case strings.Contains(lower, "accessdeniedexception"):
		return fmt.Errorf("%v\nHint: the active AWS credentials have no access to %q. Request model access in the Bedrock console or switch profiles", wrapped, modelID)
	}
	return wrapped
}
