package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "bot@example.com", "token")
	require.NoError(t, err)
	return client
}

func TestSearchIssuesDefaultsMaxResults(t *testing.T) {
	var gotMaxResults string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMaxResults = r.URL.Query().Get("maxResults")
		_, _ = w.Write([]byte(`{"issues": []}`))
	})

	_, err := client.SearchIssues(context.Background(), "PAY", 0, false)
	require.NoError(t, err)
	// maxResults=0 would make Jira return nothing; an uncapped call must
	// fall back to the default page size.
	assert.Equal(t, "100", gotMaxResults)
}

func TestSearchIssuesPassesExplicitMaxResults(t *testing.T) {
	var gotMaxResults string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMaxResults = r.URL.Query().Get("maxResults")
		_, _ = w.Write([]byte(`{"issues": []}`))
	})

	_, err := client.SearchIssues(context.Background(), "PAY", 25, false)
	require.NoError(t, err)
	assert.Equal(t, "25", gotMaxResults)
}

func TestSearchIssuesExcludesClosedByDefault(t *testing.T) {
	var gotJQL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotJQL = r.URL.Query().Get("jql")
		_, _ = w.Write([]byte(`{"issues": []}`))
	})

	_, err := client.SearchIssues(context.Background(), "PAY", 10, false)
	require.NoError(t, err)
	assert.Contains(t, gotJQL, `status NOT IN ("Done", "Closed", "Resolved")`)

	_, err = client.SearchIssues(context.Background(), "PAY", 10, true)
	require.NoError(t, err)
	assert.NotContains(t, gotJQL, "status NOT IN")
}
