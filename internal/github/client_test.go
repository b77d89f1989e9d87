package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobsPage(t *testing.T, w http.ResponseWriter, jobs []Job) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"jobs": jobs}))
}

func TestListJobsSinglePage(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/actions/runs/42/jobs", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		pages = append(pages, r.URL.Query().Get("page"))
		jobsPage(t, w, []Job{
			{ID: 1, Name: "build", Conclusion: ConclusionFailure},
			{ID: 2, Name: "test", Conclusion: ConclusionSuccess},
		})
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL)
	jobs, err := c.ListJobs(context.Background(), "owner", "repo", 42)

	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "build", jobs[0].Name)
	assert.Equal(t, []string{"1"}, pages)
}

func TestListJobsPagination(t *testing.T) {
	fullPage := make([]Job, perPage)
	for i := range fullPage {
		fullPage[i] = Job{ID: int64(i + 1), Name: fmt.Sprintf("job-%d", i+1)}
	}
	shortPage := []Job{
		{ID: 101, Name: "job-101"},
		{ID: 102, Name: "job-102"},
	}

	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			jobsPage(t, w, fullPage)
			return
		}
		jobsPage(t, w, shortPage)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	jobs, err := c.ListJobs(context.Background(), "owner", "repo", 42)

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, jobs, perPage+2)

	// Listing order is preserved across the page boundary.
	for i, job := range jobs {
		assert.Equal(t, int64(i+1), job.ID)
	}
}

func TestListJobsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "rate limited"}`)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.ListJobs(context.Background(), "owner", "repo", 42)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestFetchJobLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/actions/jobs/7/logs", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		fmt.Fprint(w, "line 1\nline 2\n")
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	log, err := c.FetchJobLog(context.Background(), "owner", "repo", 7)

	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", log)
}

func TestFetchJobLogError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		fmt.Fprint(w, "log expired")
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.FetchJobLog(context.Background(), "owner", "repo", 7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGone, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "log expired")
}

func TestUpsertCommentCreates(t *testing.T) {
	var created string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			assert.Equal(t, "/repos/owner/repo/issues/5/comments", r.URL.Path)
			fmt.Fprint(w, `[{"id": 9, "body": "unrelated comment"}]`)
		case r.Method == http.MethodPost:
			assert.Equal(t, "/repos/owner/repo/issues/5/comments", r.URL.Path)
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			created = payload["body"]
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	err := c.UpsertComment(context.Background(), "owner", "repo", 5, "<!-- marker -->", "<!-- marker -->\ndiagnosis")

	require.NoError(t, err)
	assert.Contains(t, created, "diagnosis")
}

func TestUpsertCommentReplaces(t *testing.T) {
	var patchedPath, patchedBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `[{"id": 9, "body": "other"}, {"id": 10, "body": "<!-- marker -->\nold diagnosis"}]`)
		case http.MethodPatch:
			patchedPath = r.URL.Path
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			patchedBody = payload["body"]
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	err := c.UpsertComment(context.Background(), "owner", "repo", 5, "<!-- marker -->", "<!-- marker -->\nnew diagnosis")

	require.NoError(t, err)
	assert.Equal(t, "/repos/owner/repo/issues/comments/10", patchedPath)
	assert.Contains(t, patchedBody, "new diagnosis")
}

func TestUpsertCommentPaginatesComments(t *testing.T) {
	fullPage := make([]Comment, perPage)
	for i := range fullPage {
		fullPage[i] = Comment{ID: int64(i + 1), Body: "comment " + strconv.Itoa(i+1)}
	}

	var patched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("page") == "1" {
				require.NoError(t, json.NewEncoder(w).Encode(fullPage))
				return
			}
			fmt.Fprint(w, `[{"id": 200, "body": "<!-- marker --> found on page two"}]`)
		case http.MethodPatch:
			patched = true
			assert.Equal(t, "/repos/owner/repo/issues/comments/200", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	err := c.UpsertComment(context.Background(), "owner", "repo", 5, "<!-- marker -->", "body")

	require.NoError(t, err)
	assert.True(t, patched)
}

func TestNewAPIRequest(t *testing.T) {
	c := NewClient("test-token", "")
	req, err := c.newAPIRequest(context.Background(), http.MethodGet, "https://api.github.com/test", nil)

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", req.Header.Get("Accept"))
}

func TestNewAPIRequestNoToken(t *testing.T) {
	c := NewClient("", "")
	req, err := c.newAPIRequest(context.Background(), http.MethodGet, "https://api.github.com/test", nil)

	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAPIErrorOmitsCredentials(t *testing.T) {
	err := &APIError{StatusCode: 401, Status: "401 Unauthorized", Body: "bad credentials"}
	assert.NotContains(t, err.Error(), "Bearer")
}
