package sheet

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// ErrNoDocumentID is returned for a share link without a d= parameter.
var ErrNoDocumentID = errors.New("share link has no document id (?d=...)")

// EmbedSource builds the Office Online embed URL for a OneDrive/SharePoint
// share link, opened on sheetName with cell active. An empty cell means A1.
func EmbedSource(shareURL, sheetName, cell string) (string, error) {
	u, err := url.Parse(shareURL)
	if err != nil {
		return "", fmt.Errorf("parse share link: %w", err)
	}

	docID := u.Query().Get("d")
	if docID == "" {
		return "", ErrNoDocumentID
	}
	docID = strings.TrimPrefix(docID, "w")
	if len(docID) < 20 {
		return "", fmt.Errorf("document id %q is too short", docID)
	}

	guid := fmt.Sprintf("{%s-%s-%s-%s-%s}", docID[0:8], docID[8:12], docID[12:16], docID[16:20], docID[20:])

	base := u.Path
	if i := strings.Index(base, "/Documents"); i >= 0 {
		base = base[:i]
	}

	if cell == "" {
		cell = "A1"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s://%s%s/_layouts/15/Doc.aspx?", u.Scheme, u.Host, base)
	fmt.Fprintf(&b, "sourcedoc=%s&action=embedview", guid)
	b.WriteString("&wdAllowInteractivity=False")
	b.WriteString("&AllowTyping=True")
	fmt.Fprintf(&b, "&ActiveCell='%s'!%s", sheetName, cell)
	b.WriteString("&wdHideGridlines=True")
	b.WriteString("&wdHideHeaders=True")
	b.WriteString("&wdDownloadButton=True")
	b.WriteString("&wdInConfigurator=True")
	return b.String(), nil
}

// EmbedFrame wraps EmbedSource in a full-size iframe element.
func EmbedFrame(shareURL, sheetName, cell string) (string, error) {
	src, err := EmbedSource(shareURL, sheetName, cell)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		`<iframe width="100%%" height="100%%" frameborder="0" scrolling="no" allowfullscreen loading="lazy" referrerpolicy="no-referrer" src="%s"></iframe>`,
		html.EscapeString(src),
	), nil
}
