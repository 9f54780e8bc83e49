package export

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/efdb-export/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestJSONSinkWritesAllFiles(t *testing.T) {
	dir := t.TempDir()

	base, _ := url.Parse("https://endfield.wiki.gg")
	agg := NewAggregator(base, dir)
	if err := agg.AddFacility("Smelter", smelterPage()); err != nil {
		t.Fatalf("add facility: %v", err)
	}

	sink := NewJSONSink(dir, testLogger)
	if err := sink.Write(context.Background(), agg.Dataset()); err != nil {
		t.Fatalf("write: %v", err)
	}

	var items []types.Item
	readJSON(t, filepath.Join(dir, "items.json"), &items)
	if len(items) != 3 {
		t.Errorf("items.json: got %d records", len(items))
	}
	if items[0].Name["en"] != "Iron Ore" {
		t.Errorf("items.json first record: got %+v", items[0])
	}

	var facilities []types.Facility
	readJSON(t, filepath.Join(dir, "facilities.json"), &facilities)
	if len(facilities) != 1 || facilities[0].ID != "Smelter" {
		t.Errorf("facilities.json: got %+v", facilities)
	}

	var recipes []types.Recipe
	readJSON(t, filepath.Join(dir, "recipes.json"), &recipes)
	if len(recipes) != 2 || recipes[0].CraftingTime != "5s" {
		t.Errorf("recipes.json: got %+v", recipes)
	}
}

func TestJSONSinkEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	base, _ := url.Parse("https://endfield.wiki.gg")
	agg := NewAggregator(base, dir)

	sink := NewJSONSink(dir, testLogger)
	if err := sink.Write(context.Background(), agg.Dataset()); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Empty collections serialize as [] rather than null.
	data, err := os.ReadFile(filepath.Join(dir, "items.json"))
	if err != nil {
		t.Fatal(err)
	}
	var v []any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("items.json not an array: %v", err)
	}
	if v == nil {
		t.Error("items.json decoded to null, want []")
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
