// Package classify decides what a timeline tweet is (plain, reply, retweet or
// quote) and which tweet and author are actually displayed for it.
package classify

import (
	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/entity"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

// Result is the classification of one timeline tweet.
type Result struct {
	// Wrapper is the tweet as listed in the timeline.
	Wrapper twitter.Tweet
	// Effective is the tweet whose text, media and author are displayed:
	// the resolved original for retweets and quotes, else the wrapper.
	Effective twitter.Tweet

	IsReply   bool
	IsRetweet bool

	// OriginalFound is false for a retweet whose original is missing from
	// the includes; Effective then falls back to the wrapper.
	OriginalFound bool

	// Author is the displayed author. AuthorFound is false when it could not
	// be resolved, leaving Author as an empty placeholder.
	Author      twitter.User
	AuthorFound bool

	// SelfRetweet marks a retweet of the queried user's own tweet.
	SelfRetweet bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the entry used to report degraded resolution.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Classifier) {
		c.log = entry
	}
}

// Classifier classifies tweets of one response against its entity index.
type Classifier struct {
	index       *entity.Index
	contextUser *twitter.User
	log         *logrus.Entry
}

// New creates a classifier. contextUser is the queried author in username
// mode and nil otherwise.
func New(index *entity.Index, contextUser *twitter.User, opts ...Option) *Classifier {
	c := &Classifier{
		index:       index,
		contextUser: contextUser,
		log:         applog.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify inspects the first referenced tweet only. The displayed author is
// left for ResolveAuthor, so tweets rejected by the early filter stages never
// trigger an author lookup.
func (c *Classifier) Classify(t twitter.Tweet) Result {
	r := Result{Wrapper: t, Effective: t, OriginalFound: true}

	if len(t.ReferencedTweets) > 0 {
		ref := t.ReferencedTweets[0]
		switch ref.Type {
		case twitter.ReferenceRetweeted, twitter.ReferenceQuoted:
			r.IsRetweet = true
			if original, ok := c.index.FindPost(ref.ID); ok {
				r.Effective = original
			} else {
				r.OriginalFound = false
				c.log.WithFields(logrus.Fields{
					"warning":    applog.WarningDegradedResolution,
					"tweet_id":   t.ID,
					"referenced": ref.ID,
				}).Warn("referenced tweet not found in includes, keeping wrapper")
			}
		case twitter.ReferenceRepliedTo:
			r.IsReply = true
		}
	}

	// An unresolved wrapper is always authored by the queried user and says
	// nothing about the original's author.
	r.SelfRetweet = r.IsRetweet && r.OriginalFound && c.contextUser != nil &&
		r.Effective.AuthorID == c.contextUser.ID

	return r
}

// ResolveAuthor fills in the displayed author of r. Tweets shown as
// themselves in username mode belong to the queried user; everything else is
// looked up in the includes.
func (c *Classifier) ResolveAuthor(r Result) Result {
	if c.contextUser != nil && (!r.IsRetweet || !r.OriginalFound) {
		r.Author = *c.contextUser
		r.AuthorFound = true
		return r
	}

	// The secondary batch was fetched specifically for retweet originals, so
	// it is searched before the primary one.
	if u, ok := c.index.FindAuthorIn(r.Effective.AuthorID, entity.SourceSecondary, entity.SourcePrimary); ok {
		r.Author = u
		r.AuthorFound = true
	} else {
		c.log.WithFields(logrus.Fields{
			"warning":   applog.WarningDegradedResolution,
			"tweet_id":  r.Effective.ID,
			"author_id": r.Effective.AuthorID,
		}).Warn("author not found in includes, using placeholder")
	}

	return r
}

// HasMedia reports whether the displayed tweet carries attachments.
func (r Result) HasMedia() bool {
	return len(r.Effective.MediaKeys()) > 0
}
