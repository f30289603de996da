package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type StorageService interface {
	UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	GetSignedURL(ctx context.Context, fileURL string) (string, error)
}

// ImageUpload is an optional image attached to a create or update request.
type ImageUpload struct {
	File     multipart.File
	Filename string
}

const (
	folderExercises        = "exercises"
	folderTrainingSessions = "training-sessions"
	signedURLTTLSeconds    = 3600
)

type SupabaseStorageService struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorageService(baseURL, bucket, serviceKey string) *SupabaseStorageService {
	return &SupabaseStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: http.DefaultClient,
	}
}

func (s *SupabaseStorageService) UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error) {
	objectPath := path.Join(strings.Trim(folder, "/"), filename)

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/object/"+s.bucket+"/"+objectPath, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Content-Type", http.DetectContentType(content))

	if _, err := s.do(req, "upload file"); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

func (s *SupabaseStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodDelete, "/object/"+s.bucket+"/"+objectPath, nil)
	if err != nil {
		return err
	}

	body, err := s.do(req, "delete file")
	if errors.Is(err, errObjectNotFound) {
		return nil
	}
	if body != nil {
		body.Close()
	}
	return err
}

func (s *SupabaseStorageService) GetSignedURL(ctx context.Context, fileURL string) (string, error) {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]int{"expiresIn": signedURLTTLSeconds})
	if err != nil {
		return "", fmt.Errorf("marshal signed url payload: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/object/sign/"+s.bucket+"/"+objectPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req, "get signed url")
	if err != nil {
		return "", err
	}
	defer body.Close()

	var response struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode signed url response: %w", err)
	}
	if response.SignedURL == "" {
		return "", fmt.Errorf("signed url missing from response")
	}

	return fmt.Sprintf("%s/storage/v1%s", s.baseURL, response.SignedURL), nil
}

var errObjectNotFound = errors.New("storage object not found")

func (s *SupabaseStorageService) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/storage/v1"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	return req, nil
}

// do returns the open response body on success; the caller closes it.
func (s *SupabaseStorageService) do(req *http.Request, action string) (io.ReadCloser, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errObjectNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%s: status %d: %s", action, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.Body, nil
}

func (s *SupabaseStorageService) objectPathFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	publicPrefix := "/storage/v1/object/public/" + s.bucket + "/"
	objectPrefix := "/storage/v1/object/" + s.bucket + "/"

	switch {
	case strings.HasPrefix(parsed.Path, publicPrefix):
		return strings.TrimPrefix(parsed.Path, publicPrefix), nil
	case strings.HasPrefix(parsed.Path, objectPrefix):
		return strings.TrimPrefix(parsed.Path, objectPrefix), nil
	default:
		return "", fmt.Errorf("file url does not belong to configured bucket")
	}
}

func objectName(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

// uploadImage stores upload under folder. A nil upload yields a nil URL.
func uploadImage(ctx context.Context, storage StorageService, upload *ImageUpload, folder string) (*string, error) {
	if upload == nil || upload.File == nil {
		return nil, nil
	}
	if storage == nil {
		return nil, ErrStorageUnavailable
	}

	fileURL, err := storage.UploadFile(ctx, upload.File, objectName(upload.Filename), folder)
	if err != nil {
		return nil, err
	}
	return &fileURL, nil
}

// discardImage removes an uploaded object after the row that referenced it
// failed to persist.
func discardImage(ctx context.Context, storage StorageService, fileURL *string, cause error) error {
	if storage == nil || fileURL == nil {
		return cause
	}
	if err := storage.DeleteFile(ctx, *fileURL); err != nil {
		return errors.Join(cause, fmt.Errorf("cleanup failed: %w", err))
	}
	return cause
}

// replaceImage drops the previous object once a new one is stored.
func replaceImage(ctx context.Context, storage StorageService, previous, current *string) {
	if current == nil || (previous != nil && *previous == *current) {
		return
	}
	removeImage(ctx, storage, previous)
}

func removeImage(ctx context.Context, storage StorageService, fileURL *string) {
	if storage == nil || fileURL == nil || *fileURL == "" {
		return
	}
	if err := storage.DeleteFile(ctx, *fileURL); err != nil {
		log.WithError(err).WithField("url", *fileURL).Warn("failed to delete image")
	}
}
