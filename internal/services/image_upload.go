package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	imgurEndpoint = "https://api.imgur.com/3/image"

	// MaxImageSize caps uploads and downloaded generated images.
	MaxImageSize = 10 << 20
)

// ErrImageStoreDisabled is returned when no Imgur client id is configured.
var ErrImageStoreDisabled = errors.New("image store not configured")

// ImageStore persists images somewhere durable and returns a stable URL.
type ImageStore interface {
	SaveFromURL(ctx context.Context, imageURL, name string) (string, error)
}

type imgurResponse struct {
	Data struct {
		ID         string `json:"id"`
		Link       string `json:"link"`
		DeleteHash string `json:"deletehash"`
		Type       string `json:"type"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// ImageUploadResult describes a stored image. URL points at the local
// /img proxy rather than at Imgur.
type ImageUploadResult struct {
	URL         string `json:"url"`
	OriginalURL string `json:"original_url"`
	ID          string `json:"id"`
}

// ImgurStore uploads images to Imgur anonymously.
type ImgurStore struct {
	clientID string
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

func NewImgurStore(clientID string, log *zap.Logger) *ImgurStore {
	return &ImgurStore{
		clientID: clientID,
		endpoint: imgurEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

func (s *ImgurStore) Enabled() bool {
	return s.clientID != ""
}

// Upload sends the raw image bytes to Imgur.
func (s *ImgurStore) Upload(ctx context.Context, data []byte, filename string) (*ImageUploadResult, error) {
	if !s.Enabled() {
		return nil, ErrImageStoreDisabled
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("image", base64.StdEncoding.EncodeToString(data)); err != nil {
		return nil, fmt.Errorf("write upload body: %w", err)
	}
	if err := writer.WriteField("type", "base64"); err != nil {
		return nil, fmt.Errorf("write upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+s.clientID)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var parsed imgurResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("imgur upload failed: status %d", parsed.Status)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = extensionFor(parsed.Data.Type)
	}

	s.log.Info("image uploaded", zap.String("id", parsed.Data.ID), zap.Int("bytes", len(data)))
	return &ImageUploadResult{
		URL:         fmt.Sprintf("/img/%s%s", parsed.Data.ID, ext),
		OriginalURL: parsed.Data.Link,
		ID:          parsed.Data.ID,
	}, nil
}

// SaveFromURL downloads a temporary image (a generated one, usually) and
// re-uploads it so the article keeps a working URL.
func (s *ImgurStore) SaveFromURL(ctx context.Context, imageURL, name string) (string, error) {
	if !s.Enabled() {
		return "", ErrImageStoreDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("image larger than %d bytes", MaxImageSize)
	}

	filename := name + extensionFor(resp.Header.Get("Content-Type"))
	result, err := s.Upload(ctx, data, filename)
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

func extensionFor(contentType string) string {
	switch strings.TrimSpace(strings.Split(contentType, ";")[0]) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
