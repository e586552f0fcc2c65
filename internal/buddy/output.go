package buddy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/lemore/letgo-buddy/internal/envelope"
)

// parseModelJSON strictly parses the model's text output as JSON. Markdown
// code fences are tolerated since models occasionally add them despite
// instructions. A parse failure is the upstream's fault, not the caller's,
// so it surfaces as internal_error.
func parseModelJSON(content string, v any) *envelope.Error {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(text), v); err != nil {
		return envelope.Internal("Invalid JSON response from AI")
	}
	return nil
}

func outputError(reason string) *envelope.Error {
	return envelope.Internal("AI response failed validation: " + reason)
}

// analysisOutput is the unvalidated wire shape of the model's analysis.
// usage_score is decoded as a float since models sometimes return "42.0".
type analysisOutput struct {
	Category       string  `json:"category"`
	Condition      string  `json:"condition"`
	UsageScore     float64 `json:"usage_score"`
	Sentiment      string  `json:"sentiment"`
	Recommendation string  `json:"recommendation"`
	Rationale      string  `json:"rationale"`
}

func parseAnalysisResult(_ AnalysisRequest, content string) (*AnalysisResult, *envelope.Error) {
	var out analysisOutput
	if err := parseModelJSON(content, &out); err != nil {
		return nil, err
	}

	if out.Category == "" {
		return nil, outputError("category is missing")
	}
	if out.Condition == "" {
		return nil, outputError("condition is missing")
	}
	if out.Rationale == "" {
		return nil, outputError("rationale is missing")
	}
	if !validRecommendations[out.Recommendation] {
		return nil, outputError(fmt.Sprintf("recommendation %q is not one of keep, sell, donate, dispose", out.Recommendation))
	}

	// Out-of-range scores are clamped rather than rejected.
	score := int(math.Round(out.UsageScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &AnalysisResult{
		Category:       out.Category,
		Condition:      out.Condition,
		UsageScore:     score,
		Sentiment:      out.Sentiment,
		Recommendation: out.Recommendation,
		Rationale:      out.Rationale,
	}, nil
}

func parseListingResult(req ListingRequest, content string) (*ListingResult, *envelope.Error) {
	var out ListingResult
	if err := parseModelJSON(content, &out); err != nil {
		return nil, err
	}

	// Every requested locale must be present and well formed. Extra locales
	// the model invented are dropped by building the filtered map from the
	// request, not from the response.
	filtered := make(map[string]ListingVariant, len(req.LocalesTo))
	for _, locale := range req.LocalesTo {
		variant, ok := out.Listings[locale]
		if !ok {
			return nil, outputError(fmt.Sprintf("listing for locale %q is missing", locale))
		}
		if variant.Title == "" {
			return nil, outputError(fmt.Sprintf("listing %q has an empty title", locale))
		}
		// Characters, not bytes: a short Korean body must not pass on its
		// UTF-8 byte length.
		if utf8.RuneCountInString(variant.Body) < 10 {
			return nil, outputError(fmt.Sprintf("listing %q body is shorter than 10 characters", locale))
		}
		if len(variant.Hashtags) < 1 || len(variant.Hashtags) > 10 {
			return nil, outputError(fmt.Sprintf("listing %q must have between 1 and 10 hashtags", locale))
		}
		filtered[locale] = variant
	}

	return &ListingResult{Listings: filtered}, nil
}

func parsePriceResult(_ PriceRequest, content string) (*PriceResult, *envelope.Error) {
	var out PriceResult
	if err := parseModelJSON(content, &out); err != nil {
		return nil, err
	}

	if out.PriceLow < 0 || out.PriceMid < 0 || out.PriceHigh < 0 {
		return nil, outputError("prices must be non-negative")
	}
	// Violated ordering is a hard failure, never silently reordered.
	if out.PriceLow > out.PriceMid || out.PriceMid > out.PriceHigh {
		return nil, outputError(fmt.Sprintf("price ordering violated: %v <= %v <= %v does not hold", out.PriceLow, out.PriceMid, out.PriceHigh))
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, outputError(fmt.Sprintf("confidence %v is outside [0, 1]", out.Confidence))
	}
	if out.Factors == nil {
		out.Factors = []string{}
	}

	return &out, nil
}

func parseMovingPlanResult(_ MovingPlanRequest, content string) (*MovingPlanResult, *envelope.Error) {
	var out MovingPlanResult
	if err := parseModelJSON(content, &out); err != nil {
		return nil, err
	}

	if len(out.Timeline) == 0 {
		return nil, outputError("timeline is empty")
	}
	for i, week := range out.Timeline {
		if week.Week < 1 {
			return nil, outputError(fmt.Sprintf("timeline[%d].week must be 1-based", i))
		}
		if !validPriorities[week.Priority] {
			return nil, outputError(fmt.Sprintf("timeline[%d].priority %q is not one of high, medium, low", i, week.Priority))
		}
		if out.Timeline[i].Tasks == nil {
			out.Timeline[i].Tasks = []string{}
		}
	}
	if out.EstimatedBoxes < 0 {
		return nil, outputError("estimatedBoxes must be non-negative")
	}
	if out.ActionItems == nil {
		out.ActionItems = []string{}
	}
	if out.Tips == nil {
		out.Tips = []string{}
	}
	if out.SpecialConsiderations == nil {
		out.SpecialConsiderations = []string{}
	}

	return &out, nil
}
