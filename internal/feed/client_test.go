package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", 39, 2024, 600, nil)
}

func TestLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-apisports-key"))
		assert.Equal(t, "all", r.URL.Query().Get("live"))
		assert.Equal(t, "39", r.URL.Query().Get("league"))
		fmt.Fprint(w, `{"response":[{
			"fixture":{"id":1035042,"status":{"long":"Second Half","seconds":"67:12"}},
			"teams":{
				"home":{"id":42,"name":"Arsenal","goals":2},
				"away":{"id":49,"name":"Chelsea","goals":1}
			}
		}]}`)
	}))
	defer srv.Close()

	matches, err := newTestClient(srv.URL).Live(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "1035042", m.FixtureID)
	assert.Equal(t, 2, m.HomeGoals)
	assert.Equal(t, 1, m.AwayGoals)
	assert.Equal(t, "Second Half", m.Status)
	assert.Equal(t, "67:12", m.Elapsed)
}

func TestUpcomingFiltersWindow(t *testing.T) {
	now := time.Now().UTC()
	inWindow := now.Add(48 * time.Hour)
	tooFar := now.Add(40 * 24 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NS", r.URL.Query().Get("status"))
		fmt.Fprintf(w, `{"response":[
			{"fixture":{"id":1,"date":%q,"timestamp":%d},
			 "teams":{"home":{"id":42,"name":"Arsenal"},"away":{"id":49,"name":"Chelsea"}}},
			{"fixture":{"id":2,"date":%q,"timestamp":%d},
			 "teams":{"home":{"id":50,"name":"City"},"away":{"id":40,"name":"Liverpool"}}}
		]}`,
			inWindow.Format(time.RFC3339), inWindow.Unix(),
			tooFar.Format(time.RFC3339), tooFar.Unix())
	}))
	defer srv.Close()

	upcoming, err := newTestClient(srv.URL).Upcoming(context.Background(), 20*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "1", upcoming[0].ID)
	assert.Equal(t, inWindow.Unix(), upcoming[0].Timestamp)
	assert.Equal(t, "Arsenal", upcoming[0].Home.Name)
}

func TestGetNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Live(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
