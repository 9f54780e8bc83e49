package export

import (
	"net/url"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/efdb-export/internal/parser"
	"github.com/IshaanNene/efdb-export/internal/types"
)

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	base, err := url.Parse("https://endfield.wiki.gg")
	if err != nil {
		t.Fatal(err)
	}
	return NewAggregator(base, "export")
}

func smelterPage() *parser.FacilityPage {
	return &parser.FacilityPage{
		MainImage: "/images/Smelter.png",
		ItemImages: []string{
			"/images/thumb/Iron_Ore.png/64px-Iron_Ore.png",
			"/images/thumb/Iron_Ingot.png/64px-Iron_Ingot.png",
		},
		Info: map[string]string{"Tier": "2", "Power": "30"},
		Recipes: []parser.RecipeRow{
			{
				Inputs: []parser.Material{{Name: "Iron Ore", Quantity: 2}},
				Output: parser.Material{Name: "Iron Ingot", Quantity: 1},
				Time:   "5s",
			},
			{
				Inputs: []parser.Material{
					{Name: "Iron Ore", Quantity: 4},
					{Name: "Coal", Quantity: 1},
				},
				Output: parser.Material{Name: "Iron Ingot", Quantity: 2},
				Time:   "8s",
			},
		},
	}
}

func TestAddFacilityRecords(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	if len(ds.Facilities()) != 1 {
		t.Fatalf("expected 1 facility, got %d", len(ds.Facilities()))
	}
	fac := ds.Facilities()[0]

	if fac.ID != "Smelter" || fac.Name != "Smelter" {
		t.Errorf("facility identity: got %q / %q", fac.ID, fac.Name)
	}
	if types.String(fac.Tier) != "2" {
		t.Errorf("facility tier: got %v", fac.Tier)
	}
	if fac.PowerConsumption != "30" {
		t.Errorf("power: got %v", fac.PowerConsumption)
	}
	if types.String(fac.Image) != "images/facilities/Smelter.png" {
		t.Errorf("facility image: got %v", fac.Image)
	}
}

func TestRecipeIDSequence(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	if len(ds.Recipes()) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(ds.Recipes()))
	}

	// Two recipes with the same first output get distinct sequence
	// suffixes.
	if ds.Recipes()[0].ID != "Smelter__Iron_Ingot__1" {
		t.Errorf("first recipe id: got %q", ds.Recipes()[0].ID)
	}
	if ds.Recipes()[1].ID != "Smelter__Iron_Ingot__2" {
		t.Errorf("second recipe id: got %q", ds.Recipes()[1].ID)
	}

	seen := make(map[string]bool)
	for _, r := range ds.Recipes() {
		if seen[r.ID] {
			t.Errorf("duplicate recipe id %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestSupportedRecipesMatchesRecipes(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	fac := ds.Facilities()[0]
	var fromRecipes []string
	for _, r := range ds.Recipes() {
		if r.FacilityID != fac.ID {
			t.Errorf("recipe %q points at facility %q", r.ID, r.FacilityID)
		}
		fromRecipes = append(fromRecipes, r.ID)
	}

	if len(fac.SupportedRecipes) != len(fromRecipes) {
		t.Fatalf("supportedRecipes %v != recipe ids %v", fac.SupportedRecipes, fromRecipes)
	}
	for i, id := range fromRecipes {
		if fac.SupportedRecipes[i] != id {
			t.Errorf("supportedRecipes[%d] = %q, want %q", i, fac.SupportedRecipes[i], id)
		}
	}
}

func TestEveryIngredientHasAnItem(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	for _, r := range ds.Recipes() {
		for _, ing := range append(append([]types.Ingredient{}, r.Inputs...), r.Outputs...) {
			if _, ok := ds.Item(ing.ItemID); !ok {
				t.Errorf("recipe %q references unknown item %q", r.ID, ing.ItemID)
			}
		}
	}

	if len(ds.Items()) != 3 {
		t.Errorf("expected 3 items (Iron_Ore, Iron_Ingot, Coal), got %d", len(ds.Items()))
	}
}

func TestThumbnailImagesLinkToItems(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	ore, ok := ds.Item("Iron_Ore")
	if !ok {
		t.Fatal("Iron_Ore missing")
	}
	if types.String(ore.Image) != "images/items/Iron_Ore.png" {
		t.Errorf("ore image: got %v", ore.Image)
	}

	// Coal has no tooltip image on the page, so it stays null.
	coal, _ := ds.Item("Coal")
	if coal.Image != nil {
		t.Errorf("coal image should be null, got %v", *coal.Image)
	}

	// One facility portrait plus two item thumbnails.
	if len(ds.Jobs()) != 3 {
		t.Fatalf("expected 3 image jobs, got %d", len(ds.Jobs()))
	}
	if ds.Jobs()[0].URL != "https://endfield.wiki.gg/images/Smelter.png" {
		t.Errorf("facility job url: got %q", ds.Jobs()[0].URL)
	}
	if ds.Jobs()[0].Path != filepath.Join("export", "images", "facilities", "Smelter.png") {
		t.Errorf("facility job path: got %q", ds.Jobs()[0].Path)
	}
	if ds.Jobs()[1].URL != "https://endfield.wiki.gg/images/Iron_Ore.png" {
		t.Errorf("thumbnail job url not normalized: got %q", ds.Jobs()[1].URL)
	}
}

func TestPowerDefaultsToZero(t *testing.T) {
	agg := testAggregator(t)
	page := &parser.FacilityPage{Info: map[string]string{}}
	if err := agg.AddFacility("Packer", page); err != nil {
		t.Fatalf("add facility: %v", err)
	}

	fac := agg.Dataset().Facilities()[0]
	if fac.PowerConsumption != 0 {
		t.Errorf("power default: got %v (%T)", fac.PowerConsumption, fac.PowerConsumption)
	}
	if fac.Tier != nil {
		t.Errorf("tier should be null, got %v", *fac.Tier)
	}
	if fac.Image != nil {
		t.Errorf("image should be null, got %v", *fac.Image)
	}
	if len(fac.SupportedRecipes) != 0 {
		t.Errorf("supportedRecipes should be empty, got %v", fac.SupportedRecipes)
	}
}

func TestApplyItemDetails(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	ds := agg.Dataset()

	names := ds.ItemNames()
	if len(names) != 3 || names[0] != "Iron Ore" {
		t.Fatalf("item names: got %v", names)
	}

	jobsBefore := len(ds.Jobs())

	details := []*parser.ItemPage{
		{MainImage: "/images/Iron_Ore_main.png", Info: map[string]string{"Tier": "1"}},
		{Info: map[string]string{"Tier": "2"}},
		{},
	}
	if err := agg.ApplyItemDetails(details); err != nil {
		t.Fatalf("apply details: %v", err)
	}

	ore, _ := ds.Item("Iron_Ore")
	if types.String(ore.Tier) != "1" {
		t.Errorf("ore tier: got %v", ore.Tier)
	}
	// The item page's main image supersedes the recipe thumbnail.
	if types.String(ore.Image) != "images/items/Iron_Ore_main.png" {
		t.Errorf("ore image override: got %v", ore.Image)
	}
	if len(ds.Jobs()) != jobsBefore+1 {
		t.Errorf("expected one new image job, got %d -> %d", jobsBefore, len(ds.Jobs()))
	}

	ingot, _ := ds.Item("Iron_Ingot")
	if types.String(ingot.Tier) != "2" {
		t.Errorf("ingot tier: got %v", ingot.Tier)
	}
	// No main image on the detail page keeps the thumbnail-derived one.
	if types.String(ingot.Image) != "images/items/Iron_Ingot.png" {
		t.Errorf("ingot image: got %v", ingot.Image)
	}

	coal, _ := ds.Item("Coal")
	if coal.Tier != nil {
		t.Errorf("coal tier should stay null, got %v", *coal.Tier)
	}
}

func TestApplyItemDetailsLengthMismatch(t *testing.T) {
	agg := testAggregator(t)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}
	if err := agg.ApplyItemDetails([]*parser.ItemPage{{}}); err == nil {
		t.Fatal("expected error for mismatched detail count")
	}
}
