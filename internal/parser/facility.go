package parser

import (
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/efdb-export/internal/types"
)

// Material is one recipe line entry: a canonical item name and quantity.
type Material struct {
	Name     string
	Quantity int
}

// RecipeRow is one parsed row of a facility's recipe table.
type RecipeRow struct {
	Inputs []Material
	Output Material
	Time   string
}

// FacilityPage holds everything extracted from a facility's wiki page.
type FacilityPage struct {
	// MainImage is the infobox portrait src, or "" when absent.
	MainImage string

	// ItemImages are thumbnail srcs from recipe item tooltips.
	ItemImages []string

	// Info maps general-information labels to their values.
	Info map[string]string

	Recipes []RecipeRow
}

// ParseFacilityPage extracts the main image, item thumbnails, general
// info, and recipe table from a facility page. page names the page for
// error reporting only.
func ParseFacilityPage(doc *html.Node, page string) (*FacilityPage, error) {
	info, err := generalInfo(doc, page)
	if err != nil {
		return nil, err
	}

	recipes, err := recipeRows(doc, page)
	if err != nil {
		return nil, err
	}

	return &FacilityPage{
		MainImage:  MainImageSrc(doc),
		ItemImages: ItemImageSrcs(doc),
		Info:       info,
		Recipes:    recipes,
	}, nil
}

// generalInfo extracts the "General Information" infobox section as a
// label->value map. Rows missing a label element, a value element, or any
// non-blank text for either are skipped.
func generalInfo(doc *html.Node, page string) (map[string]string, error) {
	info := make(map[string]string)

	rows := htmlquery.Find(doc,
		`//section[h2[text()="General Information"]]//div[contains(@class, "pi-data")]`)
	for _, row := range rows {
		labelEl := htmlquery.FindOne(row, `./h3[contains(@class, "pi-data-label")]`)
		if labelEl == nil {
			continue
		}
		labelText, ok := leadingText(labelEl)
		if !ok {
			return nil, &types.ParseError{Page: page, Detail: "info label", Err: types.ErrNoTextNode}
		}
		label := strings.TrimSpace(labelText)

		valueEl := htmlquery.FindOne(row, `./div[contains(@class, "pi-data-value")]`)
		if valueEl == nil {
			continue
		}
		value := strings.TrimSpace(strings.Join(textNodes(valueEl), " "))

		if label == "" || value == "" {
			continue
		}
		info[label] = value
	}

	return info, nil
}

// recipeRows extracts the data rows of the first mrfz-wtable. Column 1
// holds input materials, column 2 the single output, column 3 the
// crafting time. Rows with no input or no output tooltips are not recipe
// rows and are skipped; a tooltip without data-name, a count without an
// integer, or a time cell without text is a hard error.
func recipeRows(doc *html.Node, page string) ([]RecipeRow, error) {
	var recipes []RecipeRow

	rows := htmlquery.Find(doc, `(//table[@class="mrfz-wtable"])[1]/tbody/tr[position() > 1]`)
	for _, row := range rows {
		inputs, ok, err := materials(row, 1, page)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		outputs, ok, err := materials(row, 2, page)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if len(outputs) == 0 {
			return nil, &types.ParseError{Page: page, Detail: "output count", Err: types.ErrNoTextNode}
		}
		// Only the first output pair is used; multi-output recipes have
		// not been observed on the wiki.
		output := outputs[0]

		timeCell := htmlquery.FindOne(row, `./td[3]`)
		if timeCell == nil {
			continue
		}
		timeText, ok := leadingText(timeCell)
		if !ok {
			return nil, &types.ParseError{Page: page, Detail: "crafting time", Err: types.ErrNoTextNode}
		}

		recipes = append(recipes, RecipeRow{
			Inputs: inputs,
			Output: output,
			Time:   strings.TrimSpace(timeText),
		})
	}

	return recipes, nil
}

// materials extracts the item-tooltip/item-count pairs of the given table
// column. Names and counts are paired positionally, stopping at the
// shorter list. ok is false when the column has no tooltip elements.
func materials(row *html.Node, column int, page string) (mats []Material, ok bool, err error) {
	col := strconv.Itoa(column)
	names := htmlquery.Find(row, `./td[`+col+`]//div[@class='item-tooltip']`)
	if len(names) == 0 {
		return nil, false, nil
	}
	counts := htmlquery.Find(row, `./td[`+col+`]//div[@class='item-count']`)

	n := len(names)
	if len(counts) < n {
		n = len(counts)
	}
	for i := 0; i < n; i++ {
		name := htmlquery.SelectAttr(names[i], "data-name")
		if name == "" {
			return nil, false, &types.ParseError{Page: page, Detail: "item-tooltip data-name", Err: types.ErrNoTextNode}
		}
		countText, hasText := leadingText(counts[i])
		if !hasText {
			return nil, false, &types.ParseError{Page: page, Detail: "item count", Err: types.ErrNoTextNode}
		}
		quantity, convErr := strconv.Atoi(strings.TrimSpace(countText))
		if convErr != nil {
			return nil, false, &types.ParseError{Page: page, Detail: "item count", Err: convErr}
		}
		mats = append(mats, Material{Name: name, Quantity: quantity})
	}

	return mats, true, nil
}

// leadingText returns the text between a node's start tag and its first
// child element, the way infobox labels and table cells carry their
// scalar values. ok is false when the first child is not a text node.
func leadingText(n *html.Node) (string, bool) {
	c := n.FirstChild
	if c == nil || c.Type != html.TextNode {
		return "", false
	}
	return c.Data, true
}

// textNodes collects every descendant text node of n in document order.
func textNodes(n *html.Node) []string {
	var texts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			texts = append(texts, node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return texts
}
