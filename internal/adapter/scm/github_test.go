package scm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharnesh67/neurohub/internal/port"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"plain", "https://github.com/acme/widgets", "acme", "widgets", false},
		{"trailing git suffix", "https://github.com/acme/widgets.git", "acme", "widgets", false},
		{"trailing slash", "https://github.com/acme/widgets/", "acme", "widgets", false},
		{"deep path keeps first two segments", "https://github.com/acme/widgets/tree/main", "acme", "widgets", false},
		{"wrong host", "https://gitlab.com/acme/widgets", "", "", true},
		{"missing repo", "https://github.com/acme", "", "", true},
		{"empty", "", "", "", true},
		{"not a url", "://nope", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				var cfgErr *port.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "repo_url", cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOwner, owner)
			assert.Equal(t, tc.wantRepo, repo)
		})
	}
}

func TestListCommits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/commits", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"sha":"aaa","commit":{"message":"older","author":{"name":"alice","date":"2025-01-01T10:00:00Z"}}},
			{"sha":"bbb","commit":{"message":"newer","author":{"name":"bob","date":"2025-02-01T10:00:00Z"}},"author":{"avatar_url":"https://img/bob"}}
		]`)
	}))
	defer srv.Close()

	c := NewGitHubClient(srv.URL, "tok")
	commits, err := c.ListCommits(context.Background(), "acme", "widgets", 5)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "bbb", commits[0].Hash, "newest first")
	assert.Equal(t, "https://img/bob", commits[0].AuthorAvatar)
	assert.Equal(t, "aaa", commits[1].Hash)
	assert.Empty(t, commits[1].AuthorAvatar)
}

func TestGetCommitStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/commits/abc", r.URL.Path)
		fmt.Fprint(w, `{"stats":{"additions":10,"deletions":3},"files":[{"filename":"a.go"},{"filename":"b.go"}]}`)
	}))
	defer srv.Close()

	c := NewGitHubClient(srv.URL, "")
	stats, err := c.GetCommitStats(context.Background(), "acme", "widgets", "abc")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Additions)
	assert.Equal(t, 3, stats.Deletions)
	assert.Equal(t, []string{"a.go", "b.go"}, stats.FilesChanged)
}

func TestDefaultBranch_FallsBackToMain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewGitHubClient(srv.URL, "")
	branch, err := c.DefaultBranch(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestListFiles_BlobsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{"tree":[
			{"path":"src","type":"tree"},
			{"path":"src/main.go","type":"blob"},
			{"path":"README.md","type":"blob"}
		]}`)
	}))
	defer srv.Close()

	c := NewGitHubClient(srv.URL, "")
	files, err := c.ListFiles(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go", "README.md"}, files)
}

func TestReadFile_DecodesBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/contents/src/main.go", r.URL.Path)
		content := base64.StdEncoding.EncodeToString([]byte("package main\n"))
		fmt.Fprintf(w, `{"encoding":"base64","content":"%s"}`, content)
	}))
	defer srv.Close()

	c := NewGitHubClient(srv.URL, "")
	got, err := c.ReadFile(context.Background(), "acme", "widgets", "main", "src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", got)
}

func TestWithToken_ScopesAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	base := NewGitHubClient(srv.URL, "global-token")

	scoped := base.WithToken("repo-token")
	_, err := scoped.ListCommits(context.Background(), "acme", "widgets", 5)
	require.NoError(t, err)
	assert.Equal(t, "Bearer repo-token", gotAuth)

	// An empty token keeps the client's own credentials.
	same := base.WithToken("")
	_, err = same.ListCommits(context.Background(), "acme", "widgets", 5)
	require.NoError(t, err)
	assert.Equal(t, "Bearer global-token", gotAuth)

	// Scoping never mutates the base client.
	_, err = base.ListCommits(context.Background(), "acme", "widgets", 5)
	require.NoError(t, err)
	assert.Equal(t, "Bearer global-token", gotAuth)
}

func TestGet_ErrorClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadGateway, true},
		{http.StatusNotFound, false},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			c := NewGitHubClient(srv.URL, "")
			_, err := c.ListCommits(context.Background(), "acme", "widgets", 5)
			require.Error(t, err)

			var svcErr *port.ExternalServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tc.status, svcErr.Status)
			assert.Equal(t, tc.wantTransient, port.IsTransient(err))
		})
	}
}
