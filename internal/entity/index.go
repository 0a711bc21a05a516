// Package entity resolves ids found in tweets to the users, media and tweets
// carried by one or more "includes" batches.
package entity

import (
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

// Source names an includes batch.
type Source string

const (
	// SourcePrimary is the includes of the timeline/search/list response.
	SourcePrimary Source = "primary"
	// SourceSecondary is the includes of the /tweets lookup made for
	// retweeted and quoted originals.
	SourceSecondary Source = "secondary"
)

type batch struct {
	source Source
	users  map[string]twitter.User
	media  map[string]twitter.Media
	tweets map[string]twitter.Tweet
}

// Index looks entities up across batches in the order they were added. A key
// found in an earlier batch always wins over the same key in a later one,
// and within a batch the first occurrence wins.
type Index struct {
	batches []*batch
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Add appends a batch. A nil includes adds nothing. Adding to a source that
// already exists merges into it without replacing existing keys.
func (ix *Index) Add(src Source, inc *twitter.Includes) {
	if inc == nil {
		return
	}

	b := ix.batch(src)
	if b == nil {
		b = &batch{
			source: src,
			users:  make(map[string]twitter.User, len(inc.Users)),
			media:  make(map[string]twitter.Media, len(inc.Media)),
			tweets: make(map[string]twitter.Tweet, len(inc.Tweets)),
		}
		ix.batches = append(ix.batches, b)
	}

	for _, u := range inc.Users {
		if _, ok := b.users[u.ID]; !ok {
			b.users[u.ID] = u
		}
	}
	for _, m := range inc.Media {
		if _, ok := b.media[m.MediaKey]; !ok {
			b.media[m.MediaKey] = m
		}
	}
	for _, t := range inc.Tweets {
		if _, ok := b.tweets[t.ID]; !ok {
			b.tweets[t.ID] = t
		}
	}
}

// Has reports whether a batch for src was added.
func (ix *Index) Has(src Source) bool {
	return ix.batch(src) != nil
}

// FindAuthor returns the user with the given id from the first batch holding it.
func (ix *Index) FindAuthor(id string) (twitter.User, bool) {
	return ix.FindAuthorIn(id, ix.order()...)
}

// FindAuthorIn searches only the named batches, in the given order.
func (ix *Index) FindAuthorIn(id string, order ...Source) (twitter.User, bool) {
	for _, src := range order {
		if b := ix.batch(src); b != nil {
			if u, ok := b.users[id]; ok {
				return u, true
			}
		}
	}
	return twitter.User{}, false
}

// FindMedia returns the media item with the given key from the first batch holding it.
func (ix *Index) FindMedia(key string) (twitter.Media, bool) {
	return ix.FindMediaIn(key, ix.order()...)
}

// FindMediaIn searches only the named batches, in the given order.
func (ix *Index) FindMediaIn(key string, order ...Source) (twitter.Media, bool) {
	for _, src := range order {
		if b := ix.batch(src); b != nil {
			if m, ok := b.media[key]; ok {
				return m, true
			}
		}
	}
	return twitter.Media{}, false
}

// FindPost returns the tweet with the given id from the first batch holding it.
func (ix *Index) FindPost(id string) (twitter.Tweet, bool) {
	for _, b := range ix.batches {
		if t, ok := b.tweets[id]; ok {
			return t, true
		}
	}
	return twitter.Tweet{}, false
}

func (ix *Index) batch(src Source) *batch {
	for _, b := range ix.batches {
		if b.source == src {
			return b
		}
	}
	return nil
}

func (ix *Index) order() []Source {
	order := make([]Source, len(ix.batches))
	for i, b := range ix.batches {
		order[i] = b.source
	}
	return order
}
