// Package render turns a classified tweet into a display-ready feed item:
// HTML body with expanded links, title, author line, avatar and media markup.
package render

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
	"github.com/gauthierbraillon/tweetfeed/internal/classify"
	"github.com/gauthierbraillon/tweetfeed/internal/entity"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

// TwitterURI is the public site that canonical item URIs point to.
const TwitterURI = "https://twitter.com/"

// Options controls what ends up in the rendered content.
type Options struct {
	HideAvatar          bool
	HideMedia           bool
	DisableImageScaling bool
	IDAsTitle           bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the entry used to report skipped media.
func WithLogger(entry *logrus.Entry) Option {
	return func(r *Renderer) {
		r.log = entry
	}
}

// Renderer renders the tweets of one response.
type Renderer struct {
	opts  Options
	index *entity.Index
	log   *logrus.Entry
}

// New creates a renderer resolving media through index.
func New(index *entity.Index, opts Options, options ...Option) *Renderer {
	r := &Renderer{
		opts:  opts,
		index: index,
		log:   applog.Log,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Render builds the feed item for c. Identity, timestamp and author all come
// from the displayed tweet; the wrapper only contributes the "RT: " marker.
func (r *Renderer) Render(c classify.Result) aggregator.FeedItem {
	tweet := c.Effective
	author := c.Author

	body := ExpandLinks(CleanBody(tweet.Text), tweet.URLs())

	item := aggregator.FeedItem{
		ID:          tweet.ID,
		Username:    author.Username,
		FullName:    author.Name,
		Avatar:      author.ProfileImageURL,
		Timestamp:   tweet.CreatedAt,
		PublishedAt: ParseTimestamp(tweet.CreatedAt),
		URI:         TwitterURI + author.Username + "/status/" + tweet.ID,
		Author:      AuthorLine(c.IsRetweet, author),
		Title:       Title(tweet.ID, body, c.IsRetweet, c.IsReply, r.opts.IDAsTitle),
		IsRetweet:   c.IsRetweet,
		IsReply:     c.IsReply,
	}

	var avatarHTML string
	if !r.opts.HideAvatar {
		avatarHTML = Avatar(author)
	}

	var mediaHTML string
	if !r.opts.HideMedia {
		mediaHTML, item.Enclosures = r.Media(tweet)
	}

	item.Content = DecodeQuotes(Content(avatarHTML, body, mediaHTML))
	return item
}

// AuthorLine formats "Full Name (@username)", prefixed with "RT: " for
// retweets and quotes.
func AuthorLine(isRetweet bool, u twitter.User) string {
	prefix := ""
	if isRetweet {
		prefix = "RT: "
	}
	return prefix + u.Name + " (@" + u.Username + ")"
}

// Title is either the tweet id or the tag-stripped body. Retweet titles
// starting with "RT @" become "RT: @"; reply titles get an "R: " prefix
// unless the id is used.
func Title(id, body string, isRetweet, isReply, idAsTitle bool) string {
	var title string
	if idAsTitle {
		title = id
	} else {
		title = StripTags(body)
	}

	switch {
	case isRetweet && strings.HasPrefix(title, "RT @"):
		title = title[:2] + ":" + title[2:]
	case isReply && !idAsTitle:
		title = "R: " + title
	}
	return title
}

// Avatar links the author's profile picture to their profile. It returns an
// empty string when the author has no avatar.
func Avatar(u twitter.User) string {
	if u.ProfileImageURL == "" {
		return ""
	}
	return `<a href="` + TwitterURI + u.Username + `">
<img
	style="margin-right: 10px; margin-bottom: 10px;"
	alt="` + u.Username + `"
	src="` + u.ProfileImageURL + `"
	title="` + u.Name + `" />
</a>`
}

// Content lays out avatar, body and media markup as one fragment.
func Content(avatarHTML, body, mediaHTML string) string {
	return `<div style="float: left;">
	` + avatarHTML + `
</div>
<div style="display: table;">
	` + body + `
</div>
<div style="display: block; margin-top: 16px;">
	` + mediaHTML + `
</div>`
}

// ParseTimestamp parses an API created_at value. Unparseable or empty input
// yields the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
