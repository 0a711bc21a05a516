// Package bridge collects one feed: it plans the API calls, fetches the
// timeline and the retweet originals, then classifies, filters, renders and
// orders the tweets.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
	"github.com/gauthierbraillon/tweetfeed/internal/classify"
	"github.com/gauthierbraillon/tweetfeed/internal/entity"
	"github.com/gauthierbraillon/tweetfeed/internal/filter"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/query"
	"github.com/gauthierbraillon/tweetfeed/internal/render"
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest wraps option errors detected before any API call.
	ErrInvalidRequest = errors.New("invalid request")
)

// NotFoundError reports that the queried user, list or search yielded
// nothing. It aborts the collection.
type NotFoundError struct {
	Mode    query.Mode
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Gateway is the Twitter API as seen by the bridge.
type Gateway interface {
	FetchUser(ctx context.Context, path string, params url.Values) (*twitter.UserResponse, error)
	FetchTweets(ctx context.Context, path string, params url.Values) (*twitter.TweetsResponse, error)
}

// Options is one feed request.
type Options struct {
	Mode  query.Mode
	Value string

	Filter          string
	ExcludeReplies  bool
	ExcludeRetweets bool
	ExcludePinned   bool
	MaxResults      int
	MediaOnly       bool

	HideAvatar          bool
	HideMedia           bool
	DisableImageScaling bool
	IDAsTitle           bool
}

// Feed is the result of a collection.
type Feed struct {
	Title string                `json:"title"`
	URI   string                `json:"uri"`
	Items []aggregator.FeedItem `json:"items"`
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the entry the bridge and its stages log through.
func WithLogger(entry *logrus.Entry) Option {
	return func(b *Bridge) {
		b.log = entry
	}
}

// Bridge collects feeds through a Gateway. It holds no per-request state and
// is safe for concurrent use when the gateway is.
type Bridge struct {
	gateway Gateway
	log     *logrus.Entry
}

// New creates a bridge on top of gw.
func New(gw Gateway, opts ...Option) *Bridge {
	b := &Bridge{
		gateway: gw,
		log:     applog.Log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Collect runs one invocation. Calls are strictly sequential: the optional
// username lookup, the timeline call, then the secondary lookup whose ids
// come from the timeline's includes.
func (b *Bridge) Collect(ctx context.Context, opts Options) (*Feed, error) {
	plan, err := query.Build(opts.Mode, opts.Value, query.Options{
		ExcludeReplies:  opts.ExcludeReplies,
		ExcludeRetweets: opts.ExcludeRetweets,
		MaxResults:      opts.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	log := b.log.WithFields(logrus.Fields{"mode": plan.Mode, "value": plan.Value})

	var user *twitter.User
	if plan.Mode == query.ModeUsername {
		resp, err := b.gateway.FetchUser(ctx, plan.UserPath, plan.UserParams)
		if err != nil {
			return nil, err
		}
		if len(resp.Errors) > 0 || resp.Data == nil {
			log.WithField("errors", resp.Errors).Debug("username lookup failed")
			return nil, &NotFoundError{Mode: plan.Mode, Message: plan.NotFound}
		}
		user = resp.Data
	}

	data, err := b.gateway.FetchTweets(ctx, plan.Path(userID(user)), plan.Params)
	if err != nil {
		return nil, err
	}
	if data.Empty() {
		log.WithField("errors", data.Errors).Debug("timeline returned no results")
		return nil, &NotFoundError{Mode: plan.Mode, Message: plan.NotFound}
	}

	index := entity.New()
	index.Add(entity.SourcePrimary, data.Includes)

	if referenced := data.ReferencedTweets(); !opts.HideMedia && !opts.ExcludeRetweets && len(referenced) > 0 {
		ids := make([]string, 0, len(referenced))
		for _, t := range referenced {
			ids = append(ids, t.ID)
		}
		secondary, err := b.gateway.FetchTweets(ctx, query.LookupPath, query.LookupParams(ids))
		if err != nil {
			return nil, err
		}
		index.Add(entity.SourceSecondary, secondary.Includes)
	}

	classifier := classify.New(index, user, classify.WithLogger(log))
	renderer := render.New(index, render.Options{
		HideAvatar:          opts.HideAvatar,
		HideMedia:           opts.HideMedia,
		DisableImageScaling: opts.DisableImageScaling,
		IDAsTitle:           opts.IDAsTitle,
	}, render.WithLogger(log))
	pipeline := filter.New(filter.Options{
		ExcludePinned:   opts.ExcludePinned,
		PinnedID:        pinnedID(user),
		ExcludeReplies:  opts.ExcludeReplies,
		ExcludeRetweets: opts.ExcludeRetweets,
		Keyword:         opts.Filter,
		MediaOnly:       opts.MediaOnly,
	})

	items := make([]aggregator.FeedItem, 0, len(data.Data))
	for _, tweet := range data.Data {
		result := classifier.Classify(tweet)

		keep, stage := pipeline.Apply(filter.Candidate{
			Result: result,
			Body:   render.CleanBody(tweet.Text),
		})
		if !keep {
			log.WithFields(logrus.Fields{"tweet_id": tweet.ID, "stage": stage}).Debug("tweet skipped")
			continue
		}

		items = append(items, renderer.Render(classifier.ResolveAuthor(result)))
	}

	return &Feed{
		Title: plan.Title,
		URI:   render.TwitterURI,
		Items: aggregator.Assemble(items, aggregator.FeedOptions{}),
	}, nil
}

func userID(u *twitter.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func pinnedID(u *twitter.User) string {
	if u == nil {
		return ""
	}
	return u.PinnedTweetID
}
