package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"community-hub/models"
	"community-hub/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskFeedClient_PollOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/risk/members", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Service-Token"))
		_, _ = w.Write([]byte(`{
		  "members":[
		    {"id":"7","name":"Pat Kim","email":"pat@example.com","last_active":"9 days ago","risk_score":77,"usage_trend":"down","status":"At Risk","avatar_url":""},
		    {"id":"8","name":"Bad Row","risk_score":140,"usage_trend":"down","status":"At Risk"},
		    {"id":"9","name":"Odd Status","risk_score":10,"usage_trend":"up","status":"Dormant"}
		  ],
		  "retention_rate":91.5,
		  "upcoming_milestones":2
		}`))
	}))
	defer srv.Close()

	cache := services.NewRiskCache(services.StaticRiskSource{Data: services.DefaultRiskSnapshot})
	require.NoError(t, NewRiskFeedClient(srv.URL, "tok", cache).PollOnce(context.Background()))

	snap := cache.Snapshot()
	require.Len(t, snap.Members, 1)
	assert.Equal(t, "Pat Kim", snap.Members[0].Name)
	assert.Equal(t, models.MemberStatusAtRisk, snap.Members[0].Status)
	assert.Equal(t, 91.5, snap.RetentionRate)
	assert.Equal(t, 2, snap.UpcomingMilestones)
}

func TestRiskFeedClient_ErrorKeepsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := services.NewRiskCache(services.StaticRiskSource{Data: services.DefaultRiskSnapshot})
	err := NewRiskFeedClient(srv.URL, "", cache).PollOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, cache.Snapshot().Members, 3)
}

func TestRiskFeedClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"members":`))
	}))
	defer srv.Close()

	cache := services.NewRiskCache(services.StaticRiskSource{Data: services.DefaultRiskSnapshot})
	assert.Error(t, NewRiskFeedClient(srv.URL, "", cache).PollOnce(context.Background()))
	assert.Len(t, cache.Snapshot().Members, 3)
}
