package render

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

var (
	newlinePattern = regexp.MustCompile(`\r\n|\n\r|\n|\r`)

	// Fallback for tweets without url annotations.
	linkPattern = regexp.MustCompile(`(http|https|ftp|ftps)://[a-zA-Z0-9\-.]+\.[a-zA-Z]{2,3}(/\S*)?`)

	quoteEntities = strings.NewReplacer(
		"&amp;", "&",
		"&quot;", `"`,
		"&#039;", "'",
		"&#39;", "'",
		"&lt;", "<",
		"&gt;", ">",
	)
)

// CleanBody inserts a <br /> before every line break.
func CleanBody(text string) string {
	return newlinePattern.ReplaceAllString(text, "<br />$0")
}

// ExpandLinks replaces each annotated short link with an anchor to its
// expanded form. Without annotations only the first URL matched in the body
// is linkified; further URLs are left as plain text.
func ExpandLinks(body string, urls []twitter.URLEntity) string {
	found := false
	for _, u := range urls {
		if u.URL == "" {
			continue
		}
		anchor := `<a href="` + u.ExpandedURL + `">` + u.DisplayURL + `</a>`
		body = strings.ReplaceAll(body, u.URL, anchor)
		found = true
	}
	if found {
		return body
	}

	loc := linkPattern.FindStringIndex(body)
	if loc == nil {
		return body
	}
	link := body[loc[0]:loc[1]]
	return body[:loc[0]] + "<a href='" + link + "' target='_blank'>" + link + "</a> " + body[loc[1]:]
}

// StripTags returns the text content of an HTML fragment.
func StripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

// DecodeQuotes reverses HTML special-character escaping in a single pass,
// including both quote styles.
func DecodeQuotes(s string) string {
	return quoteEntities.Replace(s)
}
