package slog_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/fwojciec/readable"
	"github.com/fwojciec/readable/mock"
	readableslog "github.com/fwojciec/readable/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cafePage = `<html><body><p>Café crème, naïve résumé, façade déjà vu: the piñata arrived.</p></body></html>`

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	const url = "https://gazette.example/local/harbour-lights"

	for _, tc := range []struct {
		name    string
		page    string
		err     error
		wantLog []string
	}{
		{
			name: "logs status, size and charset of the page",
			page: cafePage,
			wantLog: []string{
				"level=INFO", "msg=fetch", "url=" + url, "status=200",
				fmt.Sprintf("bytes=%d", len(cafePage)), "charset=UTF-8", "duration=",
			},
		},
		{
			name:    "logs the HTTP status of a failed fetch",
			err:     fmt.Errorf("fetch: %w", &readable.StatusError{URL: url, StatusCode: 404}),
			wantLog: []string{"level=WARN", "msg=fetch", "status=404", "bytes=0", `err="fetch: HTTP 404 for ` + url + `"`},
		},
		{
			name:    "logs status 0 for transport errors",
			err:     errors.New("connection reset"),
			wantLog: []string{"level=WARN", "status=0", `err="connection reset"`},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			inner := &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string) (string, error) {
					return tc.page, tc.err
				},
			}

			f := readableslog.NewLoggingFetcher(inner, slog.New(slog.NewTextHandler(&buf, nil)))
			page, err := f.Fetch(context.Background(), url)

			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.NotContains(t, buf.String(), "charset=")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.page, page)
			}
			for _, want := range tc.wantLog {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	closed := 0
	inner := &mock.Fetcher{
		CloseFn: func() error {
			closed++
			return errors.New("browser gone")
		},
	}

	err := readableslog.NewLoggingFetcher(inner, slog.New(slog.DiscardHandler)).Close()

	assert.EqualError(t, err, "browser gone")
	assert.Equal(t, 1, closed)
}
