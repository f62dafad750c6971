package bundle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("zipdata"))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("stubcheck/test"))
	data, err := c.Download(context.Background(), srv.URL+"/stubs.zip")
	require.NoError(t, err)
	assert.Equal(t, "zipdata", string(data))
	assert.Equal(t, "stubcheck/test", gotUA)
}

func TestDownload_FallsBackToMirror(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer primary.Close()

	var mirrorPath string
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirrorPath = r.URL.Path
		w.Write([]byte("from mirror"))
	}))
	defer mirror.Close()

	c := NewClient(WithMirrors("", mirror.URL+"/bundles/"))
	data, err := c.Download(context.Background(), primary.URL+"/v1/stubs.zip")
	require.NoError(t, err)
	assert.Equal(t, "from mirror", string(data))
	assert.Equal(t, "/bundles/stubs.zip", mirrorPath)
}

func TestDownload_ServerErrorStops(t *testing.T) {
	mirrorHit := false
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirrorHit = true
	}))
	defer mirror.Close()

	_, err := NewClient(WithMirrors(mirror.URL)).Download(context.Background(), primary.URL+"/stubs.zip")
	assert.ErrorContains(t, err, "unexpected status 500")
	assert.False(t, mirrorHit)
}

func TestDownload_NotFoundAnywhere(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	_, err := NewClient().Download(context.Background(), gone.URL+"/stubs.zip")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_NoFileName(t *testing.T) {
	_, err := NewClient().Download(context.Background(), "https://example.invalid/")
	assert.ErrorContains(t, err, "has no file name")
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/stubs.zip"))
	assert.True(t, IsURL("http://example.com/stubs.zip"))
	assert.False(t, IsURL("./stubs.zip"))
}
