package backfill

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
)

// Identifier extraction patterns. The wiki generator writes an explicit
// "Fileview ID: synNNN" line; older pages only carry the identifier inside a
// link, so a bare-identifier fallback is kept.
var (
	fileviewIDPattern = regexp.MustCompile(`(?i)Fileview ID[*:\x60\s]*?(syn\d+)`)
	bareIDPattern     = regexp.MustCompile(`(syn\d{8,})`)
)

// ExtractFileviewID finds the fileview identifier embedded in a documentation
// artifact. HTML artifacts are reduced to text first (anchor hrefs, then an
// html-to-markdown pass); markdown artifacts are scanned directly. Returns an
// empty string when no identifier is present.
func ExtractFileviewID(artifact string) string {
	if looksLikeHTML(artifact) {
		if id := extractFromAnchors(artifact); id != "" {
			return id
		}
		converter := md.NewConverter("", true, nil)
		if converted, err := converter.ConvertString(artifact); err == nil {
			artifact = converted
		}
	}

	if m := fileviewIDPattern.FindStringSubmatch(artifact); m != nil {
		return m[1]
	}
	if m := bareIDPattern.FindStringSubmatch(artifact); m != nil {
		return m[1]
	}
	return ""
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}

// extractFromAnchors walks an HTML artifact's anchor hrefs looking for an
// embedded identifier.
func extractFromAnchors(artifact string) string {
	doc, err := html.Parse(strings.NewReader(artifact))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if m := bareIDPattern.FindStringSubmatch(attr.Val); m != nil {
					found = m[1]
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
