package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
	"github.com/gauthierbraillon/tweetfeed/internal/bridge"
	"github.com/gauthierbraillon/tweetfeed/internal/query"
)

type stubCollector struct {
	feed *bridge.Feed
	err  error
	got  []bridge.Options
}

func (s *stubCollector) Collect(_ context.Context, opts bridge.Options) (*bridge.Feed, error) {
	s.got = append(s.got, opts)
	return s.feed, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, c Collector, target string) (*httptest.ResponseRecorder, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	router := NewRouter(c, WithLogger(logrus.NewEntry(logger)))

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	return w, hook
}

func TestHealthz(t *testing.T) {
	w, _ := serve(t, &stubCollector{}, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ok"}`, w.Body.String())
}

func TestFeed_ReturnsCollectedFeed(t *testing.T) {
	c := &stubCollector{feed: &bridge.Feed{
		Title: "Twitter @jack",
		URI:   "https://twitter.com/",
		Items: []aggregator.FeedItem{{ID: "20", Title: "hello"}},
	}}

	w, hook := serve(t, c, "/feed?username=jack")

	require.Equal(t, http.StatusOK, w.Code)
	var got bridge.Feed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Twitter @jack", got.Title)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "20", got.Items[0].ID)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "/feed", hook.LastEntry().Data["path"])
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestFeed_BindsAllParameters(t *testing.T) {
	c := &stubCollector{feed: &bridge.Feed{}}

	w, _ := serve(t, c, "/feed?query=%23golang&filter=gopher&excludeReplies=1&excludeRetweets=true"+
		"&excludePinned=0&maxResults=50&mediaOnly=1&hideAvatar=1&hideMedia=1&disableImageScaling=1&idAsTitle=1")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, c.got, 1)
	assert.Equal(t, bridge.Options{
		Mode:                query.ModeKeyword,
		Value:               "#golang",
		Filter:              "gopher",
		ExcludeReplies:      true,
		ExcludeRetweets:     true,
		ExcludePinned:       false,
		MaxResults:          50,
		MediaOnly:           true,
		HideAvatar:          true,
		HideMedia:           true,
		DisableImageScaling: true,
		IDAsTitle:           true,
	}, c.got[0])
}

func TestFeed_ListMode(t *testing.T) {
	c := &stubCollector{feed: &bridge.Feed{}}

	serve(t, c, "/feed?listId=31748")

	require.Len(t, c.got, 1)
	assert.Equal(t, query.ModeList, c.got[0].Mode)
	assert.Equal(t, "31748", c.got[0].Value)
}

func TestFeed_AcceptsShortParameterNames(t *testing.T) {
	c := &stubCollector{feed: &bridge.Feed{}}

	w, _ := serve(t, c, "/feed?u=jack&norep=1&noretweet=1&nopinned=1&maxresults=20"+
		"&imgonly=1&nopic=1&noimg=1&noimgscaling=1&idastitle=1")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, c.got, 1)
	assert.Equal(t, bridge.Options{
		Mode:                query.ModeUsername,
		Value:               "jack",
		ExcludeReplies:      true,
		ExcludeRetweets:     true,
		ExcludePinned:       true,
		MaxResults:          20,
		MediaOnly:           true,
		HideAvatar:          true,
		HideMedia:           true,
		DisableImageScaling: true,
		IDAsTitle:           true,
	}, c.got[0])

	serve(t, c, "/feed?listid=31748&maxResults=5&maxresults=50")
	require.Len(t, c.got, 2)
	assert.Equal(t, query.ModeList, c.got[1].Mode)
	assert.Equal(t, 5, c.got[1].MaxResults, "long spelling wins")
}

func TestFeed_ModeSelection(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"no mode", "/feed"},
		{"two modes", "/feed?username=jack&query=golang"},
		{"two modes, short spelling", "/feed?u=jack&listid=1"},
		{"username in both spellings", "/feed?username=jack&u=bob"},
		{"list in both spellings", "/feed?listId=1&listid=2"},
		{"same user in both spellings", "/feed?username=jack&u=jack"},
		{"malformed number", "/feed?u=jack&maxresults=many"},
		{"malformed flag", "/feed?u=jack&norep=yes"},
		{"malformed long flag", "/feed?username=jack&excludeReplies=yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubCollector{}

			w, _ := serve(t, c, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, c.got, "collector must not run on a bad request")
		})
	}
}

func TestFeed_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &bridge.NotFoundError{Mode: query.ModeUsername, Message: "Requested username cannot be found."}, http.StatusNotFound},
		{"invalid request", bridge.ErrInvalidRequest, http.StatusBadRequest},
		{"upstream failure", errors.New("rate limit exceeded"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := serve(t, &stubCollector{err: tt.err}, "/feed?u=jack")

			assert.Equal(t, tt.want, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	w, hook := serve(t, &stubCollector{}, "/healthz")

	id := w.Header().Get(RequestIDHeader)
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
	assert.Equal(t, id, hook.LastEntry().Data["request_id"])

	logger, _ := logtest.NewNullLogger()
	router := NewRouter(&stubCollector{}, WithLogger(logrus.NewEntry(logger)))
	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS_AllowsCrossOriginReaders(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	router := NewRouter(&stubCollector{feed: &bridge.Feed{}}, WithLogger(logrus.NewEntry(logger)))

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/feed?u=jack", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://reader.example")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
