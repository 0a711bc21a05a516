package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveBody(t *testing.T, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient("test-bearer", WithBaseURL(server.URL))
}

func TestAC400_TwitterAPI_HandlesNullFields(t *testing.T) {
	client := serveBody(t, `{
		"data": [{"id": "1", "text": "hi", "entities": null, "attachments": null, "referenced_tweets": null}],
		"includes": null,
		"meta": {"result_count": 1}
	}`)

	resp, err := client.FetchTweets(context.Background(), "/users/12/tweets", nil)

	if err != nil {
		t.Fatalf("user should see tweets even with null optional fields, got error: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatal("user should see the tweet despite null fields")
	}
	if resp.Data[0].MediaKeys() != nil || resp.Data[0].URLs() != nil {
		t.Error("null attachments and entities should read as none")
	}
	if resp.ReferencedTweets() != nil {
		t.Error("null includes should yield no referenced tweets")
	}
}

func TestAC401_TwitterAPI_HandlesMinimalTweets(t *testing.T) {
	client := serveBody(t, `{"data": [{"id": "1", "text": "bare"}]}`)

	resp, err := client.FetchTweets(context.Background(), "/tweets/search/recent", nil)

	if err != nil {
		t.Fatalf("user should see tweets without optional fields, got error: %v", err)
	}
	if resp.Empty() {
		t.Error("a page with data and no meta is not empty")
	}
	if resp.Data[0].CreatedAt != "" || resp.Data[0].AuthorID != "" {
		t.Error("absent fields should decode to their zero values")
	}
}

func TestAC402_TwitterAPI_HandlesEmptyPage(t *testing.T) {
	client := serveBody(t, `{"meta": {"result_count": 0}}`)

	resp, err := client.FetchTweets(context.Background(), "/lists/1/tweets", nil)

	if err != nil {
		t.Fatalf("an empty page is not a transport error: %v", err)
	}
	if !resp.Empty() {
		t.Error("result_count 0 should be reported as empty")
	}
}

func TestAC403_TwitterAPI_HandlesPartialResponseDuringNetworkIssue(t *testing.T) {
	client := serveBody(t, `{"data": [{"id": "1", "text": "trunc`)

	_, err := client.FetchTweets(context.Background(), "/users/12/tweets", nil)

	if err == nil {
		t.Fatal("user should see error when response is incomplete due to network issue")
	}
	if !strings.Contains(err.Error(), "/users/12/tweets") {
		t.Errorf("error should name the endpoint, got: %v", err)
	}
}

func TestAC404_TwitterAPI_HandlesUserWithoutPinnedTweet(t *testing.T) {
	client := serveBody(t, `{"data": {"id": "12", "username": "jack", "name": "jack", "pinned_tweet_id": null}}`)

	resp, err := client.FetchUser(context.Background(), "/users/by/username/jack", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data == nil || resp.Data.PinnedTweetID != "" {
		t.Errorf("user without pinned tweet should decode with empty pinned id, got %+v", resp.Data)
	}
}
