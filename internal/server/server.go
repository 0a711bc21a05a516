// Package server exposes feed collection over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/bridge"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/query"
)

// Collector produces one feed per request.
type Collector interface {
	Collect(ctx context.Context, opts bridge.Options) (*bridge.Feed, error)
}

// FeedRequest carries the query parameters of GET /feed. Exactly one of
// username, query and listId selects the mode.
type FeedRequest struct {
	Username string `form:"username"`
	Query    string `form:"query"`
	ListID   string `form:"listId"`

	Filter          string `form:"filter"`
	ExcludeReplies  bool   `form:"excludeReplies"`
	ExcludeRetweets bool   `form:"excludeRetweets"`
	ExcludePinned   bool   `form:"excludePinned"`
	MaxResults      int    `form:"maxResults"`
	MediaOnly       bool   `form:"mediaOnly"`

	HideAvatar          bool `form:"hideAvatar"`
	HideMedia           bool `form:"hideMedia"`
	DisableImageScaling bool `form:"disableImageScaling"`
	IDAsTitle           bool `form:"idAsTitle"`
}

// shortRequest is the terse parameter set of existing bridge URLs. Each
// field aliases the FeedRequest field of the same name.
type shortRequest struct {
	Username string `form:"u"`
	ListID   string `form:"listid"`

	ExcludeReplies  bool `form:"norep"`
	ExcludeRetweets bool `form:"noretweet"`
	ExcludePinned   bool `form:"nopinned"`
	MaxResults      int  `form:"maxresults"`
	MediaOnly       bool `form:"imgonly"`

	HideAvatar          bool `form:"nopic"`
	HideMedia           bool `form:"noimg"`
	DisableImageScaling bool `form:"noimgscaling"`
	IDAsTitle           bool `form:"idastitle"`
}

// merge fills r from the aliases. Flags are enabled by either spelling; the
// long spelling wins for values. A mode named more than once, in any
// spelling, is rejected.
func (r *FeedRequest) merge(s shortRequest) error {
	modes := 0
	for _, v := range []string{r.Username, s.Username, r.Query, r.ListID, s.ListID} {
		if v != "" {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("username, query and listId are mutually exclusive")
	}

	if r.Username == "" {
		r.Username = s.Username
	}
	if r.ListID == "" {
		r.ListID = s.ListID
	}
	if r.MaxResults == 0 {
		r.MaxResults = s.MaxResults
	}
	r.ExcludeReplies = r.ExcludeReplies || s.ExcludeReplies
	r.ExcludeRetweets = r.ExcludeRetweets || s.ExcludeRetweets
	r.ExcludePinned = r.ExcludePinned || s.ExcludePinned
	r.MediaOnly = r.MediaOnly || s.MediaOnly
	r.HideAvatar = r.HideAvatar || s.HideAvatar
	r.HideMedia = r.HideMedia || s.HideMedia
	r.DisableImageScaling = r.DisableImageScaling || s.DisableImageScaling
	r.IDAsTitle = r.IDAsTitle || s.IDAsTitle
	return nil
}

// Options converts the request into collection options.
func (r FeedRequest) Options() (bridge.Options, error) {
	var (
		mode  query.Mode
		value string
		set   int
	)
	if r.Username != "" {
		mode, value = query.ModeUsername, r.Username
		set++
	}
	if r.Query != "" {
		mode, value = query.ModeKeyword, r.Query
		set++
	}
	if r.ListID != "" {
		mode, value = query.ModeList, r.ListID
		set++
	}
	switch set {
	case 0:
		return bridge.Options{}, errors.New("one of username, query or listId is required")
	case 1:
	default:
		return bridge.Options{}, errors.New("username, query and listId are mutually exclusive")
	}

	return bridge.Options{
		Mode:                mode,
		Value:               value,
		Filter:              r.Filter,
		ExcludeReplies:      r.ExcludeReplies,
		ExcludeRetweets:     r.ExcludeRetweets,
		ExcludePinned:       r.ExcludePinned,
		MaxResults:          r.MaxResults,
		MediaOnly:           r.MediaOnly,
		HideAvatar:          r.HideAvatar,
		HideMedia:           r.HideMedia,
		DisableImageScaling: r.DisableImageScaling,
		IDAsTitle:           r.IDAsTitle,
	}, nil
}

// Option configures the router.
type Option func(*handler)

// WithLogger sets the entry requests are logged through.
func WithLogger(entry *logrus.Entry) Option {
	return func(h *handler) {
		h.log = entry
	}
}

type handler struct {
	collector Collector
	log       *logrus.Entry
}

// NewRouter builds the HTTP router serving feeds from c.
func NewRouter(c Collector, opts ...Option) *gin.Engine {
	h := &handler{collector: c, log: applog.Log}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()
	// Feed readers running in a browser fetch /feed cross-origin.
	router.Use(gin.Recovery(), cors.Default(), requestID(), h.logRequests())
	router.GET("/healthz", handleHealth)
	router.GET("/feed", h.handleFeed)
	return router
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) handleFeed(c *gin.Context) {
	var (
		req   FeedRequest
		short shortRequest
	)
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindQuery(&short); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.merge(short); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := req.Options()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feed, err := h.collector.Collect(c.Request.Context(), opts)
	switch {
	case errors.Is(err, bridge.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bridge.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDHeader),
			"mode":       opts.Mode,
		}).Error("feed collection failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, feed)
	}
}

// RequestIDHeader is echoed back, or generated when the client sent none.
const RequestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *handler) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDHeader),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request served")
	}
}
