package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structuredPage = `<html><head>
<title>Awesome Color Picker - Chrome Web Store</title>
<meta property="og:title" content="Different Meta Title">
<meta property="og:description" content="Meta description.">
<script type="application/ld+json">
{"@type":"SoftwareApplication","name":"Awesome Color Picker","description":"Pick colors fast.","softwareVersion":"2.1.0","applicationCategory":"Productivity","image":"https://example.com/icon.png","aggregateRating":{"ratingValue":4.6,"ratingCount":128}}
</script>
</head><body>
<div>Offered by: PickerSoft</div>
<div>Updated: March 5, 2025</div>
<div>400,000+ users</div>
<div>This extension requests: activeTab and storage</div>
</body></html>`

func TestExtract_StructuredDataIsAuthoritative(t *testing.T) {
	listing, err := Extract(structuredPage)
	require.NoError(t, err)
	require.True(t, listing.Valid())

	// Structured-data fields are never overwritten by meta or label scans.
	assert.Equal(t, "Awesome Color Picker", listing.Name)
	assert.Equal(t, "Pick colors fast.", listing.Description)
	assert.Equal(t, "2.1.0", listing.Version)
	assert.Equal(t, "Productivity", listing.Category)
	assert.Equal(t, "https://example.com/icon.png", listing.IconURL)
	assert.Equal(t, 4.6, listing.Rating)
	assert.Equal(t, 128, listing.RatingCount)

	// Later strategies still fill fields structured data does not carry.
	assert.Equal(t, 400000, listing.UserCount)
	assert.Equal(t, "PickerSoft", listing.Developer)
	assert.Equal(t, "March 5, 2025", listing.LastUpdated)
}

func TestExtract_StructuredDataStringNumbers(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@type":"SoftwareApplication","name":"Tab Counter","aggregateRating":{"ratingValue":"4.2","ratingCount":"57"}}
	</script></head><body></body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Tab Counter", listing.Name)
	assert.Equal(t, 4.2, listing.Rating)
	assert.Equal(t, 57, listing.RatingCount)
}

func TestExtract_StructuredDataArrayBlock(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	[{"@type":"Organization","name":"Vendor"},{"@type":"SoftwareApplication","name":"Grid Notes"}]
	</script></head><body></body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Grid Notes", listing.Name)
}

func TestExtract_MetaFallback(t *testing.T) {
	page := `<html><head>
	<title>Awesome Color Picker - Chrome Web Store</title>
	<meta name="description" content="Pick any color from any page.">
	</head><body></body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Awesome Color Picker", listing.Name)
	assert.Equal(t, "Pick any color from any page.", listing.Description)
}

func TestExtract_MalformedStructuredDataFallsThrough(t *testing.T) {
	page := `<html><head>
	<script type="application/ld+json">{not json at all</script>
	<meta property="og:title" content="Fallback Name | Chrome Web Store">
	</head><body></body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Fallback Name", listing.Name)
}

func TestExtract_NoNameIsInvalid(t *testing.T) {
	listing, err := Extract(`<html><body><p>Please enable JavaScript.</p></body></html>`)
	require.NoError(t, err)
	assert.False(t, listing.Valid())
}

func TestExtract_UserCountSeparators(t *testing.T) {
	for raw, want := range map[string]int{
		"400,000+ users":   400000,
		"1.200.000+ users": 1200000,
		"8,000 users":      8000,
		"300 users":        300,
	} {
		listing, err := Extract(`<html><body><div>` + raw + `</div></body></html>`)
		require.NoError(t, err)
		assert.Equal(t, want, listing.UserCount, "input %q", raw)
	}
}

func TestExtract_PermissionScanVocabularyOrder(t *testing.T) {
	page := `<html><body>
	<div>Permissions</div>
	<ul><li>storage</li><li>activeTab</li><li>webRequest</li></ul>
	<div>Read and change all your data on all websites</div>
	</body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)

	// Vocabulary order, not document order.
	assert.Equal(t, []string{
		"Read and change all your data on all websites",
		"webRequest",
		"activeTab",
		"storage",
	}, listing.Permissions)
}

func TestExtract_PermissionScanNoDuplicates(t *testing.T) {
	page := `<html><body><p>activeTab</p><p>activeTab again</p></body></html>`

	listing, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"activeTab"}, listing.Permissions)
}
