package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rs/zerolog/log"
)

// ImageKitUploadResponse is the subset of the upload API response we read
type ImageKitUploadResponse struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ImageKitErrorResponse represents an error response from the upload API
type ImageKitErrorResponse struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

// ImageKitUploader posts files to the ImageKit upload API using the account's private key.
type ImageKitUploader struct {
	privateKey string
	endpoint   string
	folder     string
	client     *http.Client
}

func NewImageKitUploader(privateKey, endpoint, folder string) *ImageKitUploader {
	return &ImageKitUploader{
		privateKey: privateKey,
		endpoint:   endpoint,
		folder:     folder,
		client:     &http.Client{Timeout: defaultUploadTimeout},
	}
}

func (u *ImageKitUploader) Provider() string {
	return "imagekit"
}

// Upload sends the file as multipart/form-data. Requires:
//   - file: the binary
//   - fileName: stored name; ImageKit appends a suffix when useUniqueFileName is set
//   - folder: destination folder, from IMAGEKIT_FOLDER
func (u *ImageKitUploader) Upload(ctx context.Context, file MediaFile) (string, error) {
	if u.privateKey == "" {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("IMAGEKIT_PRIVATE_KEY is not configured"))
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("read upload: %w", err))
	}

	fields := map[string]string{
		"fileName":          objectName(file.Name),
		"useUniqueFileName": "true",
	}
	if u.folder != "" {
		fields["folder"] = u.folder
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("write field %s: %w", key, err))
		}
	}
	if err := writer.Close(); err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("close multipart body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("create request: %w", err))
	}
	req.SetBasicAuth(u.privateKey, "")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ImageKitErrorResponse
		if json.Unmarshal(bodyBytes, &errorResp) == nil && errorResp.Message != "" {
			return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("status %d: %s", resp.StatusCode, errorResp.Message))
		}
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var uploadResp ImageKitUploadResponse
	if err := json.Unmarshal(bodyBytes, &uploadResp); err != nil {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("decode response: %w", err))
	}
	if uploadResp.URL == "" {
		return "", errs.NewMediaUploadError(u.Provider(), fmt.Errorf("response carried no url"))
	}

	log.Debug().Str("fileId", uploadResp.FileID).Str("url", uploadResp.URL).Msg("Uploaded media to ImageKit")
	return uploadResp.URL, nil
}
