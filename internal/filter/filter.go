// Package filter decides which classified tweets make it into a feed.
//
// Stages run in a fixed order and the first one that rejects a tweet stops
// the evaluation:
//  1. pinned: the queried user's pinned tweet
//  2. replies / retweets: client-side exclusion
//  3. keyword: case-insensitive substring match on the cleaned body
//  4. self-retweet: retweets of the queried user's own tweets
//  5. media-only: displayed tweet without attachments
package filter

import (
	"strings"

	"github.com/gauthierbraillon/tweetfeed/internal/classify"
)

// Stage names, reported when a tweet is rejected.
const (
	StagePinned      = "pinned"
	StageReplies     = "replies"
	StageRetweets    = "retweets"
	StageKeyword     = "keyword"
	StageSelfRetweet = "self_retweet"
	StageMediaOnly   = "media_only"
)

// Options enables the user-controlled stages. The self-retweet stage is
// always active.
type Options struct {
	ExcludePinned bool
	// PinnedID is the queried user's pinned tweet id, empty when unknown.
	PinnedID string

	ExcludeReplies  bool
	ExcludeRetweets bool

	// Keyword, when non-empty, must occur in the cleaned body.
	Keyword string

	MediaOnly bool
}

// Candidate is a tweet awaiting a verdict.
type Candidate struct {
	classify.Result
	// Body is the cleaned body text the keyword is matched against.
	Body string
}

type stage struct {
	name string
	skip func(Candidate) bool
}

// Pipeline is an ordered list of rejection stages.
type Pipeline struct {
	stages []stage
}

// New builds the pipeline for opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{}

	if opts.ExcludePinned {
		pinned := opts.PinnedID
		p.add(StagePinned, func(c Candidate) bool {
			return pinned != "" && c.Wrapper.ID == pinned
		})
	}
	if opts.ExcludeReplies {
		p.add(StageReplies, func(c Candidate) bool { return c.IsReply })
	}
	if opts.ExcludeRetweets {
		p.add(StageRetweets, func(c Candidate) bool { return c.IsRetweet })
	}
	if opts.Keyword != "" {
		keyword := strings.ToLower(opts.Keyword)
		p.add(StageKeyword, func(c Candidate) bool {
			return !strings.Contains(strings.ToLower(c.Body), keyword)
		})
	}
	p.add(StageSelfRetweet, func(c Candidate) bool { return c.SelfRetweet })
	if opts.MediaOnly {
		p.add(StageMediaOnly, func(c Candidate) bool { return !c.HasMedia() })
	}

	return p
}

func (p *Pipeline) add(name string, skip func(Candidate) bool) {
	p.stages = append(p.stages, stage{name: name, skip: skip})
}

// Apply returns true when c is kept, otherwise false and the name of the
// rejecting stage.
func (p *Pipeline) Apply(c Candidate) (bool, string) {
	for _, s := range p.stages {
		if s.skip(c) {
			return false, s.name
		}
	}
	return true, ""
}

// Stages lists the active stage names in evaluation order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}
