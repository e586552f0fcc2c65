package buddy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnalysisRequestDefaultsLocale(t *testing.T) {
	req, errs := decodeAnalysisRequest([]byte(`{"photos":["https://x/a.jpg"]}`))
	assert.Empty(t, errs)
	assert.Equal(t, "en", req.Locale)
}

func TestDecodeAnalysisRequestRequiresPhotos(t *testing.T) {
	_, errs := decodeAnalysisRequest([]byte(`{"title":"Wooden Chair"}`))
	require.Len(t, errs, 1)
	assert.Equal(t, "photos", errs[0].Field)
}

func TestDecodeAnalysisRequestInvalidJSON(t *testing.T) {
	_, errs := decodeAnalysisRequest([]byte(`{not json`))
	require.Len(t, errs, 1)
	assert.Equal(t, "body", errs[0].Field)
}

func TestDecodeAnalysisRequestKeepsMalformedPhotoURLs(t *testing.T) {
	// Malformed photo URLs are not a validation failure; they are dropped
	// later during prompt construction.
	req, errs := decodeAnalysisRequest([]byte(`{"photos":["not a url"]}`))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"not a url"}, req.Photos)
}

func TestDecodeListingRequestDefaults(t *testing.T) {
	req, errs := decodeListingRequest([]byte(`{"title":"Lamp","condition":"Good","locales_to":["en"]}`))
	assert.Empty(t, errs)
	assert.Equal(t, []string{}, req.Features)
	assert.Equal(t, "plain", req.Tone)
	assert.Equal(t, "en", req.LocaleFrom)
}

func TestDecodeListingRequestAggregatesAllViolations(t *testing.T) {
	_, errs := decodeListingRequest([]byte(`{"features":[],"locales_to":["fr"],"tone":"shouty"}`))
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"title", "condition", "locales_to[0]", "tone"}, fields)
}

func TestDecodeListingRequestRejectsUnsupportedLocale(t *testing.T) {
	_, errs := decodeListingRequest([]byte(`{"title":"Lamp","condition":"Good","locales_to":["en","ja"]}`))
	require.Len(t, errs, 1)
	assert.Equal(t, "locales_to[1]", errs[0].Field)
	assert.True(t, strings.Contains(errs[0].Reason, "ja"))
}

func TestDecodePriceRequestRequiresAllFields(t *testing.T) {
	_, errs := decodePriceRequest([]byte(`{"title":"Lamp"}`))
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"category", "condition", "region"}, fields)
}

func TestDecodeMovingPlanRequestValidatesDate(t *testing.T) {
	_, errs := decodeMovingPlanRequest([]byte(`{"moveDate":"June 1st","region":"Seoul"}`))
	require.Len(t, errs, 1)
	assert.Equal(t, "moveDate", errs[0].Field)

	req, errs := decodeMovingPlanRequest([]byte(`{"moveDate":"2025-06-01","region":"Seoul"}`))
	assert.Empty(t, errs)
	assert.Equal(t, []InventoryItem{}, req.Inventory)
}

func TestDecodeMovingPlanRequestRejectsNegativeImageCount(t *testing.T) {
	_, errs := decodeMovingPlanRequest([]byte(`{"moveDate":"2025-06-01","region":"Seoul","inventory":[{"hasImages":true,"imageCount":-1,"images":[]}]}`))
	require.Len(t, errs, 1)
	assert.Equal(t, "inventory[0].imageCount", errs[0].Field)
}
