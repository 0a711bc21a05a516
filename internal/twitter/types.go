// Package twitter provides a client for the Twitter API v2.
//
// The payload types mirror the v2 JSON shapes used by tweetfeed:
// - user lookups (/users/by/username/{name})
// - tweet collections (timelines, search, list timelines, /tweets lookups)
// - the "includes" side-tables that carry referenced tweets, users and media
//
// Optional parts of a payload are pointers or nil slices; a missing field is
// nil, never a zero struct pretending to be present.
package twitter

// ReferenceType identifies how a tweet references another tweet.
type ReferenceType string

const (
	ReferenceRepliedTo ReferenceType = "replied_to"
	ReferenceRetweeted ReferenceType = "retweeted"
	ReferenceQuoted    ReferenceType = "quoted"
)

// MediaType identifies the kind of an attached media item.
type MediaType string

const (
	MediaPhoto       MediaType = "photo"
	MediaVideo       MediaType = "video"
	MediaAnimatedGIF MediaType = "animated_gif"
)

// Tweet is a single post as returned in "data" or "includes.tweets".
type Tweet struct {
	ID               string            `json:"id"`
	AuthorID         string            `json:"author_id,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	Text             string            `json:"text"`
	Entities         *Entities         `json:"entities,omitempty"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty"`
	Attachments      *Attachments      `json:"attachments,omitempty"`
}

// MediaKeys returns the attached media keys, or nil when there are none.
func (t Tweet) MediaKeys() []string {
	if t.Attachments == nil {
		return nil
	}
	return t.Attachments.MediaKeys
}

// URLs returns the in-text link annotations, or nil when there are none.
func (t Tweet) URLs() []URLEntity {
	if t.Entities == nil {
		return nil
	}
	return t.Entities.URLs
}

// Entities holds structured annotations of a tweet's text.
type Entities struct {
	URLs []URLEntity `json:"urls,omitempty"`
}

// URLEntity is a shortened link found in a tweet's text.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
}

// ReferencedTweet links a tweet to the tweet it replies to, retweets or quotes.
type ReferencedTweet struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

// Attachments lists the media attached to a tweet.
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

// User is a Twitter account.
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	PinnedTweetID   string `json:"pinned_tweet_id,omitempty"`
}

// Media is an attached photo, video or animated GIF.
type Media struct {
	MediaKey        string    `json:"media_key"`
	Type            MediaType `json:"type"`
	URL             string    `json:"url,omitempty"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
}

// Includes carries the entities referenced by id from "data".
type Includes struct {
	Users  []User  `json:"users,omitempty"`
	Media  []Media `json:"media,omitempty"`
	Tweets []Tweet `json:"tweets,omitempty"`
}

// Meta describes a tweet collection page.
type Meta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
	NextToken   string `json:"next_token,omitempty"`
}

// APIError is a partial or total failure reported in a 200 response body.
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

// UserResponse is the body of a user lookup.
type UserResponse struct {
	Data   *User      `json:"data,omitempty"`
	Errors []APIError `json:"errors,omitempty"`
}

// TweetsResponse is the body of any endpoint returning a list of tweets.
type TweetsResponse struct {
	Data     []Tweet    `json:"data,omitempty"`
	Includes *Includes  `json:"includes,omitempty"`
	Meta     *Meta      `json:"meta,omitempty"`
	Errors   []APIError `json:"errors,omitempty"`
}

// Empty reports whether the response carries no usable tweets: either the API
// reported errors without data, or the page is explicitly empty.
func (r *TweetsResponse) Empty() bool {
	if r == nil {
		return true
	}
	if len(r.Errors) > 0 && r.Data == nil {
		return true
	}
	return r.Meta != nil && r.Meta.ResultCount == 0
}

// ReferencedTweets returns the includes' referenced tweets, or nil.
func (r *TweetsResponse) ReferencedTweets() []Tweet {
	if r == nil || r.Includes == nil {
		return nil
	}
	return r.Includes.Tweets
}
