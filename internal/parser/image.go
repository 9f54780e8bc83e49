package parser

import (
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// MainImageSrc returns the src of the first image inside a pi-image
// figure (the page's infobox portrait), or "" when the page has none.
func MainImageSrc(doc *html.Node) string {
	img := htmlquery.FindOne(doc, `//figure[contains(@class,"pi-image")]//img`)
	if img == nil {
		return ""
	}
	return htmlquery.SelectAttr(img, "src")
}

// ItemImageSrcs returns every image src inside an item-tooltip div. These
// are resized thumbnail renditions; see NormalizeThumbURL.
func ItemImageSrcs(doc *html.Node) []string {
	var srcs []string
	for _, img := range htmlquery.Find(doc, `//div[@class="item-tooltip"]//img`) {
		if src := htmlquery.SelectAttr(img, "src"); src != "" {
			srcs = append(srcs, src)
		}
	}
	return srcs
}

// NormalizeThumbURL recovers the full-resolution image URL from a resized
// thumbnail URL. Thumbnails live under a /thumb/ path segment whose first
// component is the original filename:
//
//	/images/thumb/Iron_Ore.png/64px-Iron_Ore.png?foo -> /images/Iron_Ore.png?foo
//
// URLs without a /thumb/ segment are returned unchanged.
func NormalizeThumbURL(src string) string {
	const thumb = "/thumb/"
	if !strings.Contains(src, thumb) {
		return src
	}
	rest := src[strings.Index(src, thumb)+len(thumb):]
	filename := rest
	if i := strings.Index(filename, "/"); i >= 0 {
		filename = filename[:i]
	}
	query := ""
	if i := strings.Index(src, "?"); i >= 0 {
		query = src[i:]
	}
	return "/images/" + filename + query
}

// DecodedBasename returns the URL-decoded final path segment of src with
// any query string stripped. This is the on-disk filename for item images.
func DecodedBasename(src string) string {
	name := src
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}
