// Package parser extracts structured game data from rendered wiki pages.
// All selectors are tied to the wiki.gg infobox and mrfz table markup.
package parser

import (
	"bytes"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/efdb-export/internal/types"
)

// DiscoveryParser extracts facility page titles from the database index
// page. Facilities are linked from list boxes that follow a heading div
// naming their section ("Processing", "Assembly").
type DiscoveryParser struct {
	sections []string
	logger   *slog.Logger
}

// NewDiscoveryParser creates a discovery parser for the given section
// headings.
func NewDiscoveryParser(sections []string, logger *slog.Logger) *DiscoveryParser {
	return &DiscoveryParser{
		sections: sections,
		logger:   logger.With("component", "discovery_parser"),
	}
}

// FacilityNames returns the deduplicated facility titles linked from the
// configured sections, in first-seen document order.
func (p *DiscoveryParser) FacilityNames(pageHTML []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, &types.ParseError{Page: "index", Detail: "html", Err: err}
	}

	seen := make(map[string]bool)
	var names []string

	for _, section := range p.sections {
		p.sectionListBoxes(doc, section).Find("a[title]").Each(func(_ int, a *goquery.Selection) {
			title, ok := a.Attr("title")
			if !ok || title == "" {
				return
			}
			if !seen[title] {
				seen[title] = true
				names = append(names, title)
			}
		})
	}

	if len(names) == 0 {
		return nil, &types.ParseError{Page: "index", Err: types.ErrNoFacilities}
	}

	p.logger.Debug("facilities discovered", "count", len(names))
	return names, nil
}

// sectionListBoxes selects the ranger-listbox divs that follow the div
// whose child heading div carries exactly the section text.
func (p *DiscoveryParser) sectionListBoxes(doc *goquery.Document, section string) *goquery.Selection {
	heading := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ChildrenFiltered("div").FilterFunction(func(_ int, d *goquery.Selection) bool {
			return d.Text() == section
		}).Length() > 0
	})
	return heading.NextAll().Filter("div.ranger-listbox")
}
