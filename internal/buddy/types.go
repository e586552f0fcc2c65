// Package buddy implements the Let Go Buddy AI request pipeline: request
// validation, prompt construction, model invocation and strict output
// validation for the four assistant tasks (item analysis, listing generation,
// price suggestion and moving plan).
package buddy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lemore/letgo-buddy/internal/envelope"
)

// Closed sets enforced on requests and model output.
var (
	validRecommendations = map[string]bool{"keep": true, "sell": true, "donate": true, "dispose": true}
	validLocales         = map[string]bool{"en": true, "ko": true}
	validTones           = map[string]bool{"plain": true, "friendly": true}
	validPriorities      = map[string]bool{"high": true, "medium": true, "low": true}
)

// AnalysisContext gives the model optional situational hints.
type AnalysisContext struct {
	Scenario string `json:"scenario,omitempty"`
	Region   string `json:"region,omitempty"`
}

// AnalysisRequest asks whether an item should be kept, sold, donated or
// disposed of, based on photos and optional text details.
type AnalysisRequest struct {
	Photos  []string         `json:"photos"`
	Context *AnalysisContext `json:"context,omitempty"`
	Title   string           `json:"title,omitempty"`
	Notes   string           `json:"notes,omitempty"`
	Locale  string           `json:"locale,omitempty"`
}

// AnalysisResult is the validated item analysis.
type AnalysisResult struct {
	Category       string `json:"category"`
	Condition      string `json:"condition"`
	UsageScore     int    `json:"usage_score"`
	Sentiment      string `json:"sentiment"`
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale"`
}

// ListingRequest asks for marketplace listing drafts in one or more locales.
type ListingRequest struct {
	Title      string   `json:"title"`
	Features   []string `json:"features"`
	Condition  string   `json:"condition"`
	LocaleFrom string   `json:"locale_from"`
	LocalesTo  []string `json:"locales_to"`
	Tone       string   `json:"tone"`
}

// ListingVariant is a single-locale listing draft.
type ListingVariant struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags"`
}

// ListingResult maps each requested locale to its draft. It never contains
// locales the caller did not ask for.
type ListingResult struct {
	Listings map[string]ListingVariant `json:"listings"`
}

// PriceRequest asks for a resale price band.
type PriceRequest struct {
	Title     string            `json:"title"`
	Category  string            `json:"category"`
	Condition string            `json:"condition"`
	Region    string            `json:"region"`
	Comps     []json.RawMessage `json:"comps,omitempty"`
}

// PriceResult is the validated price band. PriceLow <= PriceMid <= PriceHigh
// always holds.
type PriceResult struct {
	PriceLow   float64  `json:"price_low"`
	PriceMid   float64  `json:"price_mid"`
	PriceHigh  float64  `json:"price_high"`
	Confidence float64  `json:"confidence"`
	Factors    []string `json:"factors"`
}

// InventoryItem describes one item group in a moving-plan request.
type InventoryItem struct {
	Category   string   `json:"category,omitempty"`
	HasImages  bool     `json:"hasImages"`
	ImageCount int      `json:"imageCount"`
	Images     []string `json:"images"`
}

// MovingPlanRequest asks for a week-by-week decluttering plan leading up to a
// move.
type MovingPlanRequest struct {
	MoveDate  string          `json:"moveDate"`
	Region    string          `json:"region"`
	Inventory []InventoryItem `json:"inventory"`
}

// TimelineWeek is one week of the moving plan. Week numbers are 1-based.
type TimelineWeek struct {
	Week      int      `json:"week"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Tasks     []string `json:"tasks"`
	Priority  string   `json:"priority"`
}

// MovingPlanResult is the validated moving plan.
type MovingPlanResult struct {
	Timeline              []TimelineWeek `json:"timeline"`
	ActionItems           []string       `json:"actionItems"`
	Tips                  []string       `json:"tips"`
	EstimatedBoxes        int            `json:"estimatedBoxes"`
	SpecialConsiderations []string       `json:"specialConsiderations"`
}

const moveDateLayout = "2006-01-02"

// decodeAnalysisRequest unmarshals and validates an analysis request.
// Defaults are applied before validation. All violations are collected so the
// caller sees every problem at once.
func decodeAnalysisRequest(raw []byte) (AnalysisRequest, []envelope.FieldError) {
	var req AnalysisRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, []envelope.FieldError{{Field: "body", Reason: "must be a valid JSON object"}}
	}

	if req.Locale == "" {
		req.Locale = "en"
	}

	var errs []envelope.FieldError
	if len(req.Photos) == 0 {
		errs = append(errs, envelope.FieldError{Field: "photos", Reason: "at least one photo URL is required"})
	}
	return req, errs
}

// decodeListingRequest unmarshals and validates a listing request.
func decodeListingRequest(raw []byte) (ListingRequest, []envelope.FieldError) {
	var req ListingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, []envelope.FieldError{{Field: "body", Reason: "must be a valid JSON object"}}
	}

	if req.Features == nil {
		req.Features = []string{}
	}
	if req.Tone == "" {
		req.Tone = "plain"
	}
	if req.LocaleFrom == "" {
		req.LocaleFrom = "en"
	}

	var errs []envelope.FieldError
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, envelope.FieldError{Field: "title", Reason: "is required"})
	}
	if strings.TrimSpace(req.Condition) == "" {
		errs = append(errs, envelope.FieldError{Field: "condition", Reason: "is required"})
	}
	if len(req.LocalesTo) == 0 {
		errs = append(errs, envelope.FieldError{Field: "locales_to", Reason: "at least one target locale is required"})
	}
	for i, locale := range req.LocalesTo {
		if !validLocales[locale] {
			errs = append(errs, envelope.FieldError{
				Field:  fmt.Sprintf("locales_to[%d]", i),
				Reason: fmt.Sprintf("%q is not a supported locale (en, ko)", locale),
			})
		}
	}
	if !validTones[req.Tone] {
		errs = append(errs, envelope.FieldError{
			Field:  "tone",
			Reason: fmt.Sprintf("%q is not a supported tone (plain, friendly)", req.Tone),
		})
	}
	return req, errs
}

// decodePriceRequest unmarshals and validates a price suggestion request.
func decodePriceRequest(raw []byte) (PriceRequest, []envelope.FieldError) {
	var req PriceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, []envelope.FieldError{{Field: "body", Reason: "must be a valid JSON object"}}
	}

	var errs []envelope.FieldError
	required := []struct {
		field string
		value string
	}{
		{"title", req.Title},
		{"category", req.Category},
		{"condition", req.Condition},
		{"region", req.Region},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, envelope.FieldError{Field: r.field, Reason: "is required"})
		}
	}
	return req, errs
}

// decodeMovingPlanRequest unmarshals and validates a moving-plan request.
func decodeMovingPlanRequest(raw []byte) (MovingPlanRequest, []envelope.FieldError) {
	var req MovingPlanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, []envelope.FieldError{{Field: "body", Reason: "must be a valid JSON object"}}
	}

	if req.Inventory == nil {
		req.Inventory = []InventoryItem{}
	}

	var errs []envelope.FieldError
	if strings.TrimSpace(req.MoveDate) == "" {
		errs = append(errs, envelope.FieldError{Field: "moveDate", Reason: "is required"})
	} else if _, err := time.Parse(moveDateLayout, req.MoveDate); err != nil {
		errs = append(errs, envelope.FieldError{Field: "moveDate", Reason: "must be an ISO date (YYYY-MM-DD)"})
	}
	if strings.TrimSpace(req.Region) == "" {
		errs = append(errs, envelope.FieldError{Field: "region", Reason: "is required"})
	}
	for i, item := range req.Inventory {
		if item.ImageCount < 0 {
			errs = append(errs, envelope.FieldError{
				Field:  fmt.Sprintf("inventory[%d].imageCount", i),
				Reason: "must not be negative",
			})
		}
	}
	return req, errs
}
