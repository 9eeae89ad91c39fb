package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKitUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "private_key", user)
		assert.Empty(t, pass)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "/projects", r.FormValue("folder"))
		assert.Equal(t, "true", r.FormValue("useUniqueFileName"))
		assert.True(t, strings.HasSuffix(r.FormValue("fileName"), ".png"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "shot.png", header.Filename)
		assert.Equal(t, "png-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fileId":"f1","name":"shot.png","url":"https://ik.imagekit.io/campus/shot.png"}`))
	}))
	defer server.Close()

	uploader := NewImageKitUploader("private_key", server.URL, "/projects")
	url, err := uploader.Upload(context.Background(), MediaFile{Name: "shot.png", Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "https://ik.imagekit.io/campus/shot.png", url)
}

func TestImageKitUploadFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	}))
	defer server.Close()

	_, err := NewImageKitUploader("bad_key", server.URL, "").Upload(context.Background(), MediaFile{Name: "a.jpg", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, errs.IsMediaUploadError(err))
	assert.True(t, errs.IsUpstream(err))
	assert.Contains(t, err.(*errs.ApiErr).GetFullError(), "cannot be authenticated")

	_, err = NewImageKitUploader("", server.URL, "").Upload(context.Background(), MediaFile{Name: "a.jpg", Body: strings.NewReader("x")})
	assert.True(t, errs.IsMediaUploadError(err))
}
