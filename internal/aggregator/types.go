// Package aggregator assembles rendered tweets into a feed.
//
// This package enables tweetfeed to:
// - Carry everything a feed consumer needs to render an item
// - Order items newest first
// - Trim a feed by count or date range
package aggregator

import "time"

// FeedItem is a display-ready tweet. All fields describe the displayed
// tweet, which for retweets is the original rather than the wrapper.
type FeedItem struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullname"`
	Avatar      string    `json:"avatar,omitempty"`
	Timestamp   string    `json:"timestamp"`
	PublishedAt time.Time `json:"published_at"`
	URI         string    `json:"uri"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Enclosures  []string  `json:"enclosures,omitempty"`
	IsRetweet   bool      `json:"is_retweet"`
	IsReply     bool      `json:"is_reply"`
}

// FeedOptions configures feed assembly.
type FeedOptions struct {
	Limit int
	Since time.Time
	Until time.Time
}
