package tips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"google.golang.org/genai"

	"github.com/energywise/energywise/pkg/common"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/observability"
	"github.com/energywise/energywise/pkg/types"
)

const defaultModel = "gemini-2.5-flash"

var errNoAPIKey = errors.New("no api key configured")

// FallbackTips are served whenever personalized tips can't be generated.
func FallbackTips() []types.Tip {
	return []types.Tip{
		{
			Title:       "Reduce Phantom Load",
			Description: "Unplug electronics when not in use. Devices in standby mode can still draw a significant amount of power over time.",
		},
		{
			Title:       "Optimize Your Thermostat",
			Description: "Set your thermostat a few degrees lower in the winter and higher in the summer. A smart thermostat can automate this for you.",
		},
		{
			Title:       "Switch to LED Lighting",
			Description: "LED bulbs use up to 80% less energy and last much longer than traditional incandescent bulbs. It's a small change with a big impact.",
		},
	}
}

// Suggester asks a Gemini model for tips based on a residence's consumption.
type Suggester struct {
	httpClient *http.Client
	// baseURL overrides the Gemini endpoint, empty means the SDK default
	baseURL string
	apiKey  string
	model   string
	metrics *observability.Metrics

	mu     sync.Mutex
	client *genai.Client
	cache  struct {
		key  uint64
		tips []types.Tip
	}
}

// NewSuggester returns a Suggester. An empty apiKey always yields the
// fallback tips.
func NewSuggester(apiKey, model string, metrics *observability.Metrics) *Suggester {
	if model == "" {
		model = defaultModel
	}
	return &Suggester{
		httpClient: common.HTTPClient(30 * time.Second),
		apiKey:     apiKey,
		model:      model,
		metrics:    metrics,
	}
}

// Configured registers the gemini flags.
func Configured(metrics *observability.Metrics) *Suggester {
	apiKey := lflag.String("gemini-api-key", "", "API key for personalized tips (defaults to $API_KEY)")
	model := lflag.String("gemini-model", defaultModel, "Gemini model used for personalized tips")

	s := NewSuggester("", "", metrics)
	lflag.Do(func() {
		s.apiKey = *apiKey
		if s.apiKey == "" {
			s.apiKey = os.Getenv("API_KEY")
		}
		if *model != "" {
			s.model = *model
		}
	})
	return s
}

// Suggest returns three personalized tips for series. It never fails: any
// problem is logged and the fallback tips are returned instead.
func (s *Suggester) Suggest(ctx context.Context, series []types.MonthlyDatum) []types.Tip {
	if len(series) == 0 {
		s.metrics.TipFallback("no_data")
		return FallbackTips()
	}
	if s.apiKey == "" {
		log.Ctx(ctx).WarnContext(ctx, "no api key set, using fallback tips")
		s.metrics.TipFallback("no_api_key")
		return FallbackTips()
	}

	key := fingerprint(series)
	s.mu.Lock()
	if s.cache.tips != nil && s.cache.key == key {
		tips := append([]types.Tip(nil), s.cache.tips...)
		s.mu.Unlock()
		s.metrics.TipServed(true)
		return tips
	}
	s.mu.Unlock()

	tips, err := s.generate(ctx, prompt(series))
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch personalized tips", slog.Any("error", err))
		s.metrics.TipFallback("request_failed")
		return FallbackTips()
	}

	s.mu.Lock()
	s.cache.key = key
	s.cache.tips = append([]types.Tip(nil), tips...)
	s.mu.Unlock()
	s.metrics.TipServed(false)
	return tips
}

func prompt(series []types.MonthlyDatum) string {
	latest := series[len(series)-1]
	generation := "N/A"
	if latest.GenerationKWH != nil {
		generation = fmt.Sprintf("%.2f kWh", *latest.GenerationKWH)
	}
	previous := "N/A."
	if len(series) > 1 {
		previous = fmt.Sprintf("%.2f kWh.", series[len(series)-2].ConsumptionKWH)
	}

	var b strings.Builder
	b.WriteString("You are an energy efficiency expert named 'Energy Wise'. ")
	b.WriteString("Based on the following user energy data summary, provide 3 actionable and personalized energy-saving tips.\n")
	b.WriteString("The user is looking for practical advice to reduce their electricity bill. ")
	b.WriteString(`Format the output as a valid JSON array of objects, where each object has a "title" and a "description". `)
	b.WriteString("Do not include any other text or markdown formatting.\n\n")
	b.WriteString("User Data Summary:\n")
	fmt.Fprintf(&b, "- Latest month's consumption: %.2f kWh.\n", latest.ConsumptionKWH)
	fmt.Fprintf(&b, "- Latest month's solar generation: %s.\n", generation)
	fmt.Fprintf(&b, "- Previous month's consumption: %s\n", previous)
	return b.String()
}

// fingerprint identifies a series for the single-entry cache.
func fingerprint(series []types.MonthlyDatum) uint64 {
	h := fnv.New64a()
	for _, d := range series {
		fmt.Fprintf(h, "%s|%g|", d.Month, d.ConsumptionKWH)
		if d.GenerationKWH != nil {
			fmt.Fprintf(h, "%g", *d.GenerationKWH)
		} else {
			h.Write([]byte("-"))
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// genaiClient builds the Gemini client on first use.
func (s *Suggester) genaiClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      s.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *Suggester) generate(ctx context.Context, text string) ([]types.Tip, error) {
	if s.apiKey == "" {
		return nil, errNoAPIKey
	}
	client, err := s.genaiClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return nil, errors.New("empty response")
	}
	return parseTips(out)
}

// parseTips decodes the model's JSON array, tolerating a markdown fence.
func parseTips(text string) ([]types.Tip, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var tips []types.Tip
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &tips); err != nil {
		return nil, fmt.Errorf("malformed tips: %w", err)
	}
	out := tips[:0]
	for _, t := range tips {
		if strings.TrimSpace(t.Title) == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("no tips in response")
	}
	return out, nil
}
