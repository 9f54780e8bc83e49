package types

import (
	"path"
	"strings"
)

// Item represents a single game resource or material.
//
// Items are created eagerly the first time any recipe references them, and
// enriched later (tier, authoritative image) when their own wiki page is
// processed. Image and Tier stay null in the JSON output until then.
type Item struct {
	// ID is the display name with spaces replaced by underscores.
	ID string `json:"id" bson:"id"`

	// Name maps a locale code to the display string. Only "en" is populated.
	Name map[string]string `json:"name" bson:"name"`

	// Image is the export-relative image path, or null if none was found.
	Image *string `json:"image" bson:"image"`

	// Tier is the scraped tier string, or null if the page lists none.
	Tier *string `json:"tier" bson:"tier"`
}

// NewItem creates an Item from its English display name.
func NewItem(displayName string) *Item {
	return &Item{
		ID:   PageID(displayName),
		Name: map[string]string{"en": displayName},
	}
}

// EnglishName returns the "en" display string.
func (i *Item) EnglishName() string {
	return i.Name["en"]
}

// Facility represents a crafting or processing structure.
type Facility struct {
	ID   string  `json:"id" bson:"id"`
	Name string  `json:"name" bson:"name"`
	Tier *string `json:"tier" bson:"tier"`

	// PowerConsumption is the raw scraped string, or the numeric default 0
	// when the page's info box has no Power row.
	PowerConsumption any `json:"powerConsumption" bson:"powerConsumption"`

	// SupportedRecipes lists, in page order, the IDs of every recipe
	// generated from this facility's page.
	SupportedRecipes []string `json:"supportedRecipes" bson:"supportedRecipes"`

	// Image is the export-relative image path, or null.
	Image *string `json:"image" bson:"image"`
}

// Ingredient is one side of a recipe line: an item reference and a quantity.
type Ingredient struct {
	ItemID string `json:"itemId" bson:"itemId"`
	Amount int    `json:"amount" bson:"amount"`
}

// Recipe is one input->output transformation performable at a facility.
type Recipe struct {
	// ID has the form {facilityId}__{firstOutputItemId}__{seq}, where seq
	// increments per distinct first-output item within the facility.
	ID string `json:"id" bson:"id"`

	FacilityID string       `json:"facilityId" bson:"facilityId"`
	Inputs     []Ingredient `json:"inputs" bson:"inputs"`
	Outputs    []Ingredient `json:"outputs" bson:"outputs"`

	// CraftingTime is the raw scraped cell text, units unparsed.
	CraftingTime string `json:"craftingTime" bson:"craftingTime"`
}

// ImageJob is a pending image download: an absolute source URL and the
// local destination path. Jobs are consumed once by the download phase.
type ImageJob struct {
	URL  string
	Path string
}

// PageID converts a display name into the identifier form shared by wiki
// page titles and record IDs (spaces become underscores).
func PageID(displayName string) string {
	return strings.ReplaceAll(displayName, " ", "_")
}

// FileStem returns a filename without its extension, in PageID form.
func FileStem(filename string) string {
	return PageID(strings.TrimSuffix(filename, path.Ext(filename)))
}

// String returns p dereferenced, or "" for nil. Convenience for tests.
func String(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
