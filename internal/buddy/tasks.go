package buddy

import (
	"time"

	"github.com/lemore/letgo-buddy/internal/chat"
)

// Task names, used in logs, metrics and the usage log.
const (
	TaskAnalyzeItem     = "analyze_item"
	TaskListingGenerate = "listing_generate"
	TaskPriceSuggest    = "price_suggest"
	TaskMovingPlan      = "moving_plan"
)

// Models selects which upstream model serves each task. Price suggestion
// deliberately runs on a cheaper tier since it is text-only and called often.
type Models struct {
	Analyze string
	Listing string
	Price   string
	Plan    string
}

// AnalyzeItemTask builds the vision-capable item analysis pipeline. The
// longer timeout accounts for the provider fetching the referenced images.
func AnalyzeItemTask(models Models) Task[AnalysisRequest, *AnalysisResult] {
	return Task[AnalysisRequest, *AnalysisResult]{
		Name: TaskAnalyzeItem,
		Options: chat.Options{
			Model:       models.Analyze,
			MaxTokens:   600,
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Decode: decodeAnalysisRequest,
		Prompt: buildAnalysisPrompt,
		Output: parseAnalysisResult,
	}
}

// ListingGenerateTask builds the multi-locale listing drafting pipeline.
func ListingGenerateTask(models Models) Task[ListingRequest, *ListingResult] {
	return Task[ListingRequest, *ListingResult]{
		Name: TaskListingGenerate,
		Options: chat.Options{
			Model:       models.Listing,
			MaxTokens:   1000,
			Temperature: 0.7,
			Timeout:     20 * time.Second,
		},
		Decode: decodeListingRequest,
		Prompt: buildListingPrompt,
		Output: parseListingResult,
	}
}

// PriceSuggestTask builds the price band pipeline. Low temperature favors
// deterministic pricing.
func PriceSuggestTask(models Models) Task[PriceRequest, *PriceResult] {
	return Task[PriceRequest, *PriceResult]{
		Name: TaskPriceSuggest,
		Options: chat.Options{
			Model:       models.Price,
			MaxTokens:   400,
			Temperature: 0.3,
			Timeout:     20 * time.Second,
		},
		Decode: decodePriceRequest,
		Prompt: buildPricePrompt,
		Output: parsePriceResult,
	}
}

// MovingPlanTask builds the moving-plan pipeline.
func MovingPlanTask(models Models) Task[MovingPlanRequest, *MovingPlanResult] {
	return Task[MovingPlanRequest, *MovingPlanResult]{
		Name: TaskMovingPlan,
		Options: chat.Options{
			Model:       models.Plan,
			MaxTokens:   1000,
			Temperature: 0.7,
			Timeout:     20 * time.Second,
		},
		Decode: decodeMovingPlanRequest,
		Prompt: buildMovingPlanPrompt,
		Output: parseMovingPlanResult,
	}
}
