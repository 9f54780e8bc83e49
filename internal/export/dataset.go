// Package export aggregates parsed wiki pages into the cross-referenced
// item/facility/recipe datasets and persists them through sinks.
package export

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/IshaanNene/efdb-export/internal/parser"
	"github.com/IshaanNene/efdb-export/internal/types"
)

// Dataset holds the aggregated records in insertion order, plus the
// pending image downloads collected along the way.
type Dataset struct {
	items     []*types.Item
	itemsByID map[string]*types.Item

	facilities []*types.Facility
	recipes    []*types.Recipe
	jobs       []types.ImageJob
}

// Items returns all items in first-reference order.
func (d *Dataset) Items() []*types.Item { return d.items }

// Facilities returns all facilities in discovery order.
func (d *Dataset) Facilities() []*types.Facility { return d.facilities }

// Recipes returns all recipes in page order across facilities.
func (d *Dataset) Recipes() []*types.Recipe { return d.recipes }

// Jobs returns the pending image downloads.
func (d *Dataset) Jobs() []types.ImageJob { return d.jobs }

// Item looks up an item by ID.
func (d *Dataset) Item(id string) (*types.Item, bool) {
	it, ok := d.itemsByID[id]
	return it, ok
}

// ItemNames returns the English display names of all items, in the same
// order Items() iterates. The item-detail fetch phase fans out over this
// list and detail results are applied back positionally.
func (d *Dataset) ItemNames() []string {
	names := make([]string, len(d.items))
	for i, it := range d.items {
		names[i] = it.EnglishName()
	}
	return names
}

// Aggregator folds parsed facility and item pages into a Dataset. It is
// pure in-memory transformation: no I/O happens here, image downloads are
// only queued as jobs.
type Aggregator struct {
	base *url.URL
	dir  string
	ds   *Dataset
}

// NewAggregator creates an aggregator resolving image srcs against the
// wiki origin and queueing downloads under the given export directory.
func NewAggregator(base *url.URL, exportDir string) *Aggregator {
	return &Aggregator{
		base: base,
		dir:  exportDir,
		ds: &Dataset{
			items:      []*types.Item{},
			itemsByID:  make(map[string]*types.Item),
			facilities: []*types.Facility{},
			recipes:    []*types.Recipe{},
		},
	}
}

// Dataset returns the accumulated dataset.
func (a *Aggregator) Dataset() *Dataset { return a.ds }

// AddFacility folds one parsed facility page into the dataset: the
// facility record, eagerly-created items for every recipe ingredient,
// uniquely-identified recipes, and image jobs for the facility portrait
// and every item thumbnail.
//
// Facilities must be added in discovery order; recipe IDs and record
// ordering depend on it.
func (a *Aggregator) AddFacility(name string, page *parser.FacilityPage) error {
	facilityID := types.PageID(name)

	var power any = 0
	if v, ok := page.Info["Power"]; ok {
		power = v
	}
	var tier *string
	if v, ok := page.Info["Tier"]; ok {
		tier = types.StringPtr(v)
	}

	var image *string
	if page.MainImage != "" {
		fullURL, err := a.resolve(page.MainImage)
		if err != nil {
			return err
		}
		rel := "images/facilities/" + facilityID + ".png"
		a.ds.jobs = append(a.ds.jobs, types.ImageJob{
			URL:  fullURL,
			Path: filepath.Join(a.dir, "images", "facilities", facilityID+".png"),
		})
		image = types.StringPtr(rel)
	}

	facility := &types.Facility{
		ID:               facilityID,
		Name:             name,
		Tier:             tier,
		PowerConsumption: power,
		SupportedRecipes: []string{},
		Image:            image,
	}
	a.ds.facilities = append(a.ds.facilities, facility)

	// Every ingredient referenced by a recipe must exist as an item
	// before the recipe is constructed.
	for _, row := range page.Recipes {
		for _, mat := range row.Inputs {
			a.ensureItem(mat.Name)
		}
		a.ensureItem(row.Output.Name)
	}

	// Recipe IDs disambiguate multiple recipes producing the same first
	// output with a per-facility sequence counter.
	recipeSeq := make(map[string]int)
	for _, row := range page.Recipes {
		firstOutID := types.PageID(row.Output.Name)
		recipeSeq[firstOutID]++
		recipeID := fmt.Sprintf("%s__%s__%d", facilityID, firstOutID, recipeSeq[firstOutID])

		inputs := make([]types.Ingredient, 0, len(row.Inputs))
		for _, mat := range row.Inputs {
			inputs = append(inputs, types.Ingredient{ItemID: types.PageID(mat.Name), Amount: mat.Quantity})
		}

		a.ds.recipes = append(a.ds.recipes, &types.Recipe{
			ID:         recipeID,
			FacilityID: facilityID,
			Inputs:     inputs,
			Outputs: []types.Ingredient{
				{ItemID: firstOutID, Amount: row.Output.Quantity},
			},
			CraftingTime: row.Time,
		})
		facility.SupportedRecipes = append(facility.SupportedRecipes, recipeID)
	}

	// Thumbnail images give items a provisional image until their own
	// page supplies the authoritative one.
	for _, src := range page.ItemImages {
		fullSrc := parser.NormalizeThumbURL(src)
		fullURL, err := a.resolve(fullSrc)
		if err != nil {
			return err
		}
		filename := parser.DecodedBasename(fullSrc)
		a.ds.jobs = append(a.ds.jobs, types.ImageJob{
			URL:  fullURL,
			Path: filepath.Join(a.dir, "images", "items", filename),
		})
		if item, ok := a.ds.itemsByID[types.FileStem(filename)]; ok {
			item.Image = types.StringPtr("images/items/" + filename)
		}
	}

	return nil
}

// ApplyItemDetails folds item-page results back into the items, in the
// same order ItemNames() produced the fetch list. The detail tier wins
// when present, and the detail main image supersedes any
// thumbnail-derived image.
func (a *Aggregator) ApplyItemDetails(details []*parser.ItemPage) error {
	if len(details) != len(a.ds.items) {
		return fmt.Errorf("item details mismatch: %d details for %d items", len(details), len(a.ds.items))
	}

	for i, detail := range details {
		item := a.ds.items[i]

		if tier, ok := detail.Info["Tier"]; ok && tier != "" {
			item.Tier = types.StringPtr(tier)
		}

		if detail.MainImage != "" {
			fullURL, err := a.resolve(detail.MainImage)
			if err != nil {
				return err
			}
			filename := parser.DecodedBasename(detail.MainImage)
			a.ds.jobs = append(a.ds.jobs, types.ImageJob{
				URL:  fullURL,
				Path: filepath.Join(a.dir, "images", "items", filename),
			})
			item.Image = types.StringPtr("images/items/" + filename)
		}
	}

	return nil
}

// ensureItem inserts an item record on first reference.
func (a *Aggregator) ensureItem(displayName string) *types.Item {
	id := types.PageID(displayName)
	if item, ok := a.ds.itemsByID[id]; ok {
		return item
	}
	item := types.NewItem(displayName)
	a.ds.itemsByID[id] = item
	a.ds.items = append(a.ds.items, item)
	return item
}

// resolve makes an image src absolute against the wiki origin.
func (a *Aggregator) resolve(src string) (string, error) {
	u, err := a.base.Parse(src)
	if err != nil {
		return "", fmt.Errorf("resolve image src %q: %w", src, err)
	}
	return u.String(), nil
}
