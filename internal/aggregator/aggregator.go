package aggregator

import "sort"

// Assemble returns a new slice holding the items that fall within the
// options' date range, newest first, truncated to the limit. Items with equal
// timestamps come out in no guaranteed order.
func Assemble(items []FeedItem, opts FeedOptions) []FeedItem {
	feed := make([]FeedItem, 0, len(items))
	for _, item := range items {
		if !opts.Since.IsZero() && item.PublishedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && item.PublishedAt.After(opts.Until) {
			continue
		}
		feed = append(feed, item)
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].PublishedAt.After(feed[j].PublishedAt)
	})

	if opts.Limit > 0 && len(feed) > opts.Limit {
		feed = feed[:opts.Limit]
	}

	return feed
}
