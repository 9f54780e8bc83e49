package parser

import (
	"golang.org/x/net/html"
)

// ItemPage holds what an item's own wiki page contributes: its
// authoritative main image and the general-information map (primarily
// the tier). Item pages carry no recipe table worth extracting.
type ItemPage struct {
	// MainImage is the infobox portrait src, or "" when absent.
	MainImage string

	// Info maps general-information labels to their values.
	Info map[string]string
}

// ParseItemPage extracts the main image and general info from an item
// page. page names the page for error reporting only.
func ParseItemPage(doc *html.Node, page string) (*ItemPage, error) {
	info, err := generalInfo(doc, page)
	if err != nil {
		return nil, err
	}
	return &ItemPage{
		MainImage: MainImageSrc(doc),
		Info:      info,
	}, nil
}
