package buddy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/lithammer/dedent"
)

const analysisSystemPrompt = `
	You are the decluttering assistant of the Lemore secondhand marketplace. Analyze the user's item and advise whether to keep, sell, donate or dispose of it.

	Respond in JSON format with these fields:
	- category: the item category (e.g. "furniture", "electronics", "clothing")
	- condition: estimated condition (e.g. "like new", "good", "fair", "poor")
	- usage_score: integer from 0 to 100 estimating how much use the item has left
	- sentiment: the emotional attachment suggested by the photos and notes ("positive", "neutral" or "negative")
	- recommendation: exactly one of "keep", "sell", "donate", "dispose"
	- rationale: 1-2 sentences explaining the recommendation

	Example response:
	{"category": "furniture", "condition": "good", "usage_score": 42, "sentiment": "neutral", "recommendation": "sell", "rationale": "The chair is sturdy and resellable but shows wear you no longer need to live with."}

	Respond ONLY with the JSON object, no markdown or other text.`

const listingSystemPrompt = `
	You write listing drafts for the Lemore secondhand marketplace. Produce a draft for EVERY requested locale; a missing locale makes the whole response unusable.

	Respond in JSON format shaped like this example:
	{"listings": {"en": {"title": "Minimalist desk lamp", "body": "Warm white desk lamp in great shape. Adjustable arm, no scratches, works perfectly.", "hashtags": ["lamp", "homeoffice", "secondhand"]}, "ko": {"title": "...", "body": "...", "hashtags": ["..."]}}}

	Rules:
	- body: 2-4 sentences, at least 10 characters, in the listing's locale
	- hashtags: between 1 and 10 entries, no leading # character
	- match the requested tone exactly
	- translate naturally, do not transliterate

	Respond ONLY with the JSON object, no markdown or other text.`

const priceSystemPrompt = `
	You estimate resale prices for the Lemore secondhand marketplace. Consider brand, condition, regional demand, seasonality and the comparison items if any are given.

	Respond in JSON format with these fields:
	- price_low: conservative asking price, a non-negative number
	- price_mid: recommended asking price
	- price_high: optimistic asking price
	- confidence: number between 0 and 1
	- factors: short strings naming the main pricing factors

	price_low <= price_mid <= price_high must hold.

	Example response:
	{"price_low": 20, "price_mid": 35, "price_high": 50, "confidence": 0.7, "factors": ["popular brand", "minor wear", "high local demand"]}

	Respond ONLY with the JSON object, no markdown or other text.`

const movingPlanSystemPrompt = `
	You plan decluttering timelines for people preparing to move, for the Lemore secondhand marketplace. Work backwards from the move date and spread selling, donating and packing tasks over the remaining weeks.

	Respond in JSON format shaped like this example:
	{"timeline": [{"week": 1, "startDate": "2025-05-05", "endDate": "2025-05-11", "tasks": ["List furniture for sale", "Sort clothes into keep/donate"], "priority": "high"}], "actionItems": ["Book a donation pickup"], "tips": ["Photograph items in daylight"], "estimatedBoxes": 25, "specialConsiderations": ["Fragile glassware needs extra padding"]}

	Rules:
	- week numbers start at 1 and increase toward the move date
	- priority is exactly one of "high", "medium", "low"
	- estimatedBoxes is a non-negative integer
	- dates use the YYYY-MM-DD format

	Respond ONLY with the JSON object, no markdown or other text.`

// textOnlyNote is appended to the user prompt when every supplied photo URL
// was dropped as unusable. The request still proceeds as a text-only
// analysis rather than being rejected.
const textOnlyNote = "Note: no usable photo URLs were provided, so base the analysis on the text details only."

// isHTTPURL reports whether s is a syntactically valid http(s) URL. Only
// such URLs are forwarded to the model as image references.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// usablePhotoURLs silently drops malformed entries. Dropping is deliberate:
// a request is never rejected solely because its photo references are
// unusable.
func usablePhotoURLs(photos []string) []string {
	var valid []string
	for _, p := range photos {
		if isHTTPURL(p) {
			valid = append(valid, p)
		}
	}
	return valid
}

func promptText(text string) string {
	return strings.TrimSpace(dedent.Dedent(text))
}

func buildAnalysisPrompt(req AnalysisRequest) chat.Prompt {
	var b strings.Builder
	b.WriteString("Analyze this item for decluttering.\n")
	if req.Title != "" {
		fmt.Fprintf(&b, "- Title: %s\n", req.Title)
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", req.Notes)
	}
	if req.Context != nil {
		if req.Context.Scenario != "" {
			fmt.Fprintf(&b, "- Scenario: %s\n", req.Context.Scenario)
		}
		if req.Context.Region != "" {
			fmt.Fprintf(&b, "- Region: %s\n", req.Context.Region)
		}
	}
	fmt.Fprintf(&b, "- Write the rationale in locale %q.\n", req.Locale)

	images := usablePhotoURLs(req.Photos)
	if len(images) == 0 {
		b.WriteString("\n" + textOnlyNote + "\n")
	}

	return chat.Prompt{
		System:    promptText(analysisSystemPrompt),
		User:      strings.TrimSpace(b.String()),
		ImageURLs: images,
	}
}

func buildListingPrompt(req ListingRequest) chat.Prompt {
	var b strings.Builder
	b.WriteString("Draft marketplace listings for this item.\n")
	fmt.Fprintf(&b, "- Title: %s\n", req.Title)
	fmt.Fprintf(&b, "- Condition: %s\n", req.Condition)
	if len(req.Features) > 0 {
		b.WriteString("- Features:\n")
		for _, f := range req.Features {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	fmt.Fprintf(&b, "- Source locale: %s\n", req.LocaleFrom)
	fmt.Fprintf(&b, "- Target locales: %s\n", strings.Join(req.LocalesTo, ", "))
	fmt.Fprintf(&b, "- Tone: %s\n", req.Tone)

	return chat.Prompt{
		System: promptText(listingSystemPrompt),
		User:   strings.TrimSpace(b.String()),
	}
}

func buildPricePrompt(req PriceRequest) chat.Prompt {
	var b strings.Builder
	b.WriteString("Suggest a resale price band for this item.\n")
	fmt.Fprintf(&b, "- Title: %s\n", req.Title)
	fmt.Fprintf(&b, "- Category: %s\n", req.Category)
	fmt.Fprintf(&b, "- Condition: %s\n", req.Condition)
	fmt.Fprintf(&b, "- Region: %s\n", req.Region)
	if len(req.Comps) > 0 {
		b.WriteString("- Comparison items:\n")
		for _, c := range req.Comps {
			fmt.Fprintf(&b, "  %s\n", string(c))
		}
	}

	return chat.Prompt{
		System: promptText(priceSystemPrompt),
		User:   strings.TrimSpace(b.String()),
	}
}

func buildMovingPlanPrompt(req MovingPlanRequest) chat.Prompt {
	var b strings.Builder
	b.WriteString("Create a decluttering and packing plan for this move.\n")
	fmt.Fprintf(&b, "- Move date: %s\n", req.MoveDate)
	fmt.Fprintf(&b, "- Region: %s\n", req.Region)
	if len(req.Inventory) == 0 {
		b.WriteString("- Inventory: not provided\n")
	} else {
		b.WriteString("- Inventory:\n")
		for _, item := range req.Inventory {
			category := item.Category
			if category == "" {
				category = "uncategorized"
			}
			fmt.Fprintf(&b, "  - %s (%d photos on file)\n", category, item.ImageCount)
		}
	}

	return chat.Prompt{
		System: promptText(movingPlanSystemPrompt),
		User:   strings.TrimSpace(b.String()),
	}
}
