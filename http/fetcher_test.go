package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/readable"
	readablehttp "github.com/fwojciec/readable/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ readable.Fetcher = (*readablehttp.Fetcher)(nil)

const storyHTML = `<html><head><title>Harbour lights return</title></head><body><article><p>The harbour lights came back on.</p></article></body></html>`

// newsServer serves storyHTML at /local/harbour-lights and answers every
// other path with status.
func newsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/local/harbour-lights" {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(storyHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns the article page body", func(t *testing.T) {
		t.Parallel()

		srv := newsServer(t, http.StatusNotFound)

		html, err := readablehttp.NewFetcher().Fetch(context.Background(), srv.URL+"/local/harbour-lights")

		require.NoError(t, err)
		assert.Equal(t, storyHTML, html)
	})

	for _, tc := range []struct {
		status int
		code   string
	}{
		{status: http.StatusNotFound, code: readable.ENOTFOUND},
		{status: http.StatusGone, code: readable.ENOTFOUND},
		{status: http.StatusBadGateway, code: readable.EINTERNAL},
		{status: http.StatusTooManyRequests, code: readable.EINTERNAL},
	} {
		t.Run("fails with status "+http.StatusText(tc.status), func(t *testing.T) {
			t.Parallel()

			srv := newsServer(t, tc.status)

			_, err := readablehttp.NewFetcher().Fetch(context.Background(), srv.URL+"/local/ferry-times")

			var statusErr *readable.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.StatusCode)
			assert.Equal(t, srv.URL+"/local/ferry-times", statusErr.URL)
			assert.Equal(t, tc.code, readable.ErrorCode(err))
		})
	}

	t.Run("sends the user agent and asks for HTML", func(t *testing.T) {
		t.Parallel()

		var ua, accept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua, accept = r.Header.Get("User-Agent"), r.Header.Get("Accept")
		}))
		defer srv.Close()

		_, err := readablehttp.NewFetcher(readablehttp.WithUserAgent("gazette-reader/2.0")).Fetch(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, "gazette-reader/2.0", ua)
		assert.Contains(t, accept, "text/html")
	})

	t.Run("uses the default user agent", func(t *testing.T) {
		t.Parallel()

		var ua string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua = r.Header.Get("User-Agent")
		}))
		defer srv.Close()

		_, err := readablehttp.NewFetcher().Fetch(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, readablehttp.DefaultUserAgent, ua)
	})

	t.Run("limits the body size", func(t *testing.T) {
		t.Parallel()

		srv := newsServer(t, http.StatusNotFound)
		url := srv.URL + "/local/harbour-lights"

		_, err := readablehttp.NewFetcher(readablehttp.WithMaxBodyBytes(int64(len(storyHTML)-1))).Fetch(context.Background(), url)
		assert.Equal(t, readable.ELIMIT, readable.ErrorCode(err))

		html, err := readablehttp.NewFetcher(readablehttp.WithMaxBodyBytes(int64(len(storyHTML)))).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, storyHTML, html)
	})

	t.Run("times out slow servers", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := readablehttp.NewFetcher(readablehttp.WithTimeout(20*time.Millisecond)).Fetch(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Zero(t, readable.HTTPStatus(err))
	})

	t.Run("uses the supplied client", func(t *testing.T) {
		t.Parallel()

		srv := newsServer(t, http.StatusNotFound)
		client := &http.Client{Transport: srv.Client().Transport}

		html, err := readablehttp.NewFetcher(readablehttp.WithHTTPClient(client)).Fetch(context.Background(), srv.URL+"/local/harbour-lights")

		require.NoError(t, err)
		assert.Equal(t, storyHTML, html)
	})

	t.Run("returns the context error", func(t *testing.T) {
		t.Parallel()

		srv := newsServer(t, http.StatusNotFound)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := readablehttp.NewFetcher().Fetch(ctx, srv.URL+"/local/harbour-lights")

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rejects malformed URLs", func(t *testing.T) {
		t.Parallel()

		_, err := readablehttp.NewFetcher().Fetch(context.Background(), "http://[::1")

		assert.Equal(t, readable.EINVALID, readable.ErrorCode(err))
	})
}
