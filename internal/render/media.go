package render

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/entity"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
)

// Media renders the tweet's attachments in media key order and returns the
// markup with the photo enclosure URLs. Keys are looked up in the primary
// includes first, then in the secondary ones.
func (r *Renderer) Media(t twitter.Tweet) (string, []string) {
	var (
		b          strings.Builder
		enclosures []string
	)

	for _, key := range t.MediaKeys() {
		m, ok := r.index.FindMediaIn(key, entity.SourcePrimary, entity.SourceSecondary)
		if !ok {
			r.log.WithFields(logrus.Fields{
				"warning":   applog.WarningDegradedResolution,
				"tweet_id":  t.ID,
				"media_key": key,
			}).Warn("media not found in includes")
			continue
		}

		switch m.Type {
		case twitter.MediaPhoto:
			image := m.URL
			if !r.opts.DisableImageScaling {
				image = m.URL + "?name=orig"
			}
			enclosures = append(enclosures, image)
			b.WriteString(`<a href="` + image + `">
<img
	referrerpolicy="no-referrer"
	src="` + m.URL + `" />
</a>`)

		case twitter.MediaVideo, twitter.MediaAnimatedGIF:
			// Only the preview is exposed; there is no link to the original.
			b.WriteString(`<img
	referrerpolicy="no-referrer"
	src="` + m.PreviewImageURL + `" />`)

		default:
			r.log.WithFields(logrus.Fields{
				"warning":    applog.WarningUnsupportedMedia,
				"tweet_id":   t.ID,
				"media_key":  key,
				"media_type": m.Type,
			}).Warn("missing support for media type")
		}
	}

	return b.String(), enclosures
}
