// Package query turns a feed request into the Twitter API v2 calls that
// answer it.
//
// Three modes are supported, each with its own way of expressing server-side
// exclusion of replies and retweets:
// - username: an "exclude" parameter on the user timeline
// - keyword: "-is:reply" / "-is:retweet" operators appended to the search text
// - list: none, exclusion happens client-side only
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Mode selects the kind of timeline to fetch.
type Mode string

const (
	ModeUsername Mode = "username"
	ModeKeyword  Mode = "keyword"
	ModeList     Mode = "list"
)

const (
	DefaultMaxResults = 10
	MaxMaxResults     = 100
)

const (
	tweetFields      = "created_at,referenced_tweets,entities,attachments,author_id"
	mediaFields      = "type,url,preview_image_url"
	timelineExpands  = "referenced_tweets.id.author_id,entities.mentions.username,attachments.media_keys"
	lookupUserFields = "pinned_tweet_id,profile_image_url"
)

// Options are the request-shaping settings shared by all modes.
type Options struct {
	ExcludeReplies  bool
	ExcludeRetweets bool
	MaxResults      int
}

// Plan describes the calls needed for one feed request.
type Plan struct {
	Mode  Mode
	Value string

	// UserPath and UserParams are set for ModeUsername only: the username
	// must be resolved to an id before the timeline can be fetched.
	UserPath   string
	UserParams url.Values

	// Params are the query parameters of the primary timeline call.
	Params url.Values

	// NotFound is the message reported when the API yields nothing.
	NotFound string

	// Title names the resulting feed.
	Title string

	path string
}

// Path returns the primary timeline endpoint. For ModeUsername the resolved
// author id is required; other modes ignore it.
func (p *Plan) Path(userID string) string {
	if p.Mode == ModeUsername {
		return "/users/" + url.PathEscape(userID) + "/tweets"
	}
	return p.path
}

// Build creates the plan for mode with its parameter value.
func Build(mode Mode, value string, opts Options) (*Plan, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("missing %s parameter", paramName(mode))
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(ClampMaxResults(opts.MaxResults)))
	params.Set("tweet.fields", tweetFields)
	params.Set("media.fields", mediaFields)

	p := &Plan{Mode: mode, Value: value, Params: params}

	switch mode {
	case ModeUsername:
		p.UserPath = "/users/by/username/" + url.PathEscape(value)
		p.UserParams = url.Values{"user.fields": {lookupUserFields}}
		params.Set("expansions", timelineExpands)
		params.Set("user.fields", "pinned_tweet_id")
		if exclude := excludeValue(opts); exclude != "" {
			params.Set("exclude", exclude)
		}
		p.NotFound = "Requested username cannot be found."
		p.Title = "Twitter @" + value

	case ModeKeyword:
		search := value
		if opts.ExcludeReplies {
			search += " -is:reply"
		}
		if opts.ExcludeRetweets {
			search += " -is:retweet"
		}
		params.Set("query", search)
		params.Set("expansions", timelineExpands+",author_id")
		params.Set("user.fields", "profile_image_url")
		p.path = "/tweets/search/recent"
		p.NotFound = "No results for this query."
		p.Title = "Twitter search " + value

	case ModeList:
		params.Set("expansions", timelineExpands+",author_id")
		params.Set("user.fields", "profile_image_url")
		p.path = "/lists/" + url.PathEscape(value) + "/tweets"
		p.NotFound = "Requested list cannot be found."
		p.Title = "Twitter List #" + value

	default:
		return nil, fmt.Errorf("invalid query context %q", mode)
	}

	return p, nil
}

// LookupPath is the batch tweet lookup endpoint used for retweet originals.
const LookupPath = "/tweets"

// LookupParams builds the parameters of the secondary lookup that resolves
// authors and media of the given referenced tweet ids.
func LookupParams(ids []string) url.Values {
	return url.Values{
		"ids":          {strings.Join(ids, ",")},
		"tweet.fields": {"entities,attachments"},
		"expansions":   {"author_id,attachments.media_keys"},
		"media.fields": {mediaFields},
		"user.fields":  {"id,profile_image_url"},
	}
}

// ClampMaxResults maps a requested page size into [1, 100], with 0 meaning
// the default of 10.
func ClampMaxResults(n int) int {
	switch {
	case n == 0:
		return DefaultMaxResults
	case n < 1:
		return 1
	case n > MaxMaxResults:
		return MaxMaxResults
	default:
		return n
	}
}

func excludeValue(opts Options) string {
	switch {
	case opts.ExcludeReplies && opts.ExcludeRetweets:
		return "replies,retweets"
	case opts.ExcludeReplies:
		return "replies"
	case opts.ExcludeRetweets:
		return "retweets"
	default:
		return ""
	}
}

func paramName(mode Mode) string {
	switch mode {
	case ModeKeyword:
		return "query"
	case ModeList:
		return "listId"
	default:
		return string(mode)
	}
}
