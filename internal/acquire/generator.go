package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// entityValue is one cell of a generated row.
type entityValue struct {
	Entity string  `json:"entity" jsonschema:"description=Entity name exactly as requested"`
	Value  float64 `json:"value" jsonschema:"description=Non-negative value for that year"`
}

// generatedRow is one year of generated data.
type generatedRow struct {
	Year      int           `json:"year" jsonschema:"description=Calendar year"`
	Values    []entityValue `json:"values" jsonschema:"description=One value per requested entity"`
	Milestone string        `json:"milestone" jsonschema:"description=Short label of a notable event in that year or an empty string"`
}

// chunkResponse is the structured output requested from the model.
type chunkResponse struct {
	Rows []generatedRow `json:"rows" jsonschema:"description=One row per year in ascending order"`
}

var chunkResponseSchema = generateSchema[chunkResponse]()

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

const systemPrompt = `You produce realistic historical time series for bar chart race animations.
Answer only with JSON matching the provided schema. Use one row per year, no gaps and no duplicates.
Values must be non-negative numbers in a single consistent unit.`

// OpenAIGenerator asks an OpenAI-compatible chat endpoint (for example a local Ollama) for chunk rows.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

var _ contract.ChunkGenerator = &OpenAIGenerator{}

// NewOpenAIGenerator creates a generator from the acquisition settings.
// Retries are handled by RetryPolicy, so the client itself does not retry.
func NewOpenAIGenerator(cfg *contract.Config) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// Local endpoints ignore the key but the client requires one
		opts = append(opts, option.WithAPIKey("barrace"))
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), model: cfg.Model}
}

// Name returns the model name.
func (g *OpenAIGenerator) Name() string {
	return g.model
}

// Generate requests and validates the rows of one chunk.
func (g *OpenAIGenerator) Generate(ctx context.Context, req schema.ChunkRequest) ([]schema.ChunkRow, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "chunk_response",
					Description: openai.String("Yearly values per entity"),
					Schema:      chunkResponseSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		Temperature: openai.Float(0.1),
		Model:       openai.ChatModel(g.model),
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return ParseResponse(completion.Choices[0].Message.Content, req)
}

// BuildPrompt renders the user prompt of a chunk.
func BuildPrompt(req schema.ChunkRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Years: %d to %d inclusive (%d rows)\n", req.StartYear, req.EndYear, req.Years())
	fmt.Fprintf(&b, "Entities: %s\n", strings.Join(req.Entities, ", "))
	b.WriteString("Give every entity a value in every year. Add a milestone label only for years with a notable event.")
	return b.String()
}

// ParseResponse decodes model output into rows and validates them against the request.
func ParseResponse(content string, req schema.ChunkRequest) ([]schema.ChunkRow, error) {
	var resp chunkResponse
	if err := decodeModelJSON(content, &resp); err != nil {
		return nil, err
	}
	rows := make([]schema.ChunkRow, len(resp.Rows))
	for i, r := range resp.Rows {
		values := make(map[string]float64, len(r.Values))
		for _, v := range r.Values {
			values[strings.TrimSpace(v.Entity)] = v.Value
		}
		rows[i] = schema.ChunkRow{Year: r.Year, Values: values, Milestone: strings.TrimSpace(r.Milestone)}
	}
	if err := ValidateRows(req, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// decodeModelJSON unmarshals model output, falling back to the outermost JSON object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
