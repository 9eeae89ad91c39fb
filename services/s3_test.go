package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Uploader(t *testing.T, endpoint string, timeout time.Duration) *S3Uploader {
	t.Helper()
	uploader, err := NewS3Uploader(context.Background(), S3Options{
		Bucket:          "campus-media",
		Region:          "us-east-1",
		PublicBaseURL:   "https://cdn.example.com/",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UploadTimeout:   timeout,
	})
	require.NoError(t, err)
	return uploader
}

func TestS3UploadPutsUnderProjects(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := newTestS3Uploader(t, server.URL, time.Second)
	url, err := uploader.Upload(context.Background(), MediaFile{
		Name:        "Shot.PNG",
		ContentType: "image/png",
		Size:        3,
		Body:        strings.NewReader("png"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/projects/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.True(t, strings.HasPrefix(gotPath, "/campus-media/projects/"), gotPath)
	assert.Contains(t, gotBody, "png")
}

func TestS3UploadStalledHostIsRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	uploader := newTestS3Uploader(t, server.URL, 100*time.Millisecond)

	start := time.Now()
	_, err := uploader.Upload(context.Background(), MediaFile{
		Name: "shot.png",
		Size: 3,
		Body: strings.NewReader("png"),
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	assert.True(t, errs.IsUpstream(err))
	assert.False(t, errs.IsMediaUploadError(err))
	assert.Equal(t, http.StatusServiceUnavailable, errs.StatusCode(err))
}
