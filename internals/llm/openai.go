package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient talks to the OpenAI Responses API with function calling.
type OpenAIClient struct {
	model  string
	client *openai.Client
}

// NewOpenAIClient constructs the adapter. The timeout bounds each round trip
// to the reasoning service.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai client requires an API key")
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	apiClient := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &OpenAIClient{model: model, client: &apiClient}, nil
}

func (c *OpenAIClient) Start(ctx context.Context, input string, tools []ToolSpec, instructions string) (*Turn, error) {
	return c.respond(ctx, []Item{UserItem(input)}, tools, instructions)
}

func (c *OpenAIClient) Continue(ctx context.Context, history []Item, tools []ToolSpec, instructions string) (*Turn, error) {
	return c.respond(ctx, history, tools, instructions)
}

func (c *OpenAIClient) respond(ctx context.Context, history []Item, tools []ToolSpec, instructions string) (*Turn, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInput(history),
		},
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return convertResponse(resp), nil
}

func buildInput(history []Item) responses.ResponseInputParam {
	input := make(responses.ResponseInputParam, 0, len(history))
	for _, item := range history {
		switch item.Kind {
		case ItemUser:
			input = append(input, responses.ResponseInputItemParamOfMessage(item.Text, responses.EasyInputMessageRoleUser))
		case ItemAssistant:
			if strings.TrimSpace(item.Text) != "" {
				input = append(input, responses.ResponseInputItemParamOfMessage(item.Text, responses.EasyInputMessageRoleAssistant))
			}
		case ItemToolCall:
			if item.Call != nil {
				input = append(input, responses.ResponseInputItemParamOfFunctionCall(item.Call.Arguments, item.Call.CallID, item.Call.Name))
			}
		case ItemToolResult:
			if item.Result != nil {
				input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(item.Result.CallID, item.Result.Output))
			}
		}
	}
	return input
}

func convertTools(tools []ToolSpec) []responses.ToolUnionParam {
	result := make([]responses.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		variant := responses.ToolParamOfFunction(tool.Name, tool.Parameters, false)
		if tool.Description != "" && variant.OfFunction != nil {
			variant.OfFunction.Description = openai.String(tool.Description)
		}
		result = append(result, variant)
	}
	return result
}

func convertResponse(resp *responses.Response) *Turn {
	turn := &Turn{Text: resp.OutputText()}
	if turn.Text != "" {
		turn.Items = append(turn.Items, AssistantItem(turn.Text))
	}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		call := item.AsFunctionCall()
		id := call.CallID
		if id == "" {
			id = call.ID
		}
		tc := ToolCall{CallID: id, Name: call.Name, Arguments: call.Arguments}
		turn.Calls = append(turn.Calls, tc)
		turn.Items = append(turn.Items, CallItem(tc))
	}
	return turn
}
