package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UploadObject streams the payload into the default bucket under
// <prefix>/<unix-millis>_<filename> and returns the public URL.
func (c *Client) UploadObject(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	if c == nil || c.tokenSource == nil {
		return "", errors.New("gcs client not initialized")
	}

	objectName := BuildObjectName(prefix, filename, time.Now())

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf(uploadEndpoint, url.PathEscape(c.defaultBucket), url.QueryEscape(objectName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	return c.PublicURL(objectName), nil
}

// DeleteObject removes an object from the default bucket. A missing
// object returns ErrObjectNotFound so callers can treat repeat
// deletions as settled.
func (c *Client) DeleteObject(ctx context.Context, objectName string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if objectName == "" {
		return errors.New("object name is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(objectEndpoint, url.PathEscape(c.defaultBucket), url.PathEscape(objectName))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrObjectNotFound
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
}

// DeleteByURL resolves a public object URL back to its object name and
// deletes it.
func (c *Client) DeleteByURL(ctx context.Context, publicURL string) error {
	objectName, err := ObjectNameFromURL(publicURL, c.defaultBucket)
	if err != nil {
		return err
	}
	return c.DeleteObject(ctx, objectName)
}

// PublicURL returns the unauthenticated download URL for an object.
func (c *Client) PublicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, c.defaultBucket, objectName)
}

// BuildObjectName produces <prefix>/<unix-millis>_<filename> with the
// filename reduced to a safe character set.
func BuildObjectName(prefix, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", strings.Trim(prefix, "/"), now.UnixMilli(), sanitizeFilename(filename))
}

// ObjectNameFromURL extracts the object name from a public URL,
// verifying the URL points at the expected bucket.
func ObjectNameFromURL(publicURL, bucket string) (string, error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("%w: parsing %q: %v", ErrInvalidObjectURL, publicURL, err)
	}
	wantPrefix := "/" + bucket + "/"
	if parsed.Host != "storage.googleapis.com" || !strings.HasPrefix(parsed.Path, wantPrefix) {
		return "", fmt.Errorf("%w: %q does not reference bucket %q", ErrInvalidObjectURL, publicURL, bucket)
	}
	objectName := strings.TrimPrefix(parsed.Path, wantPrefix)
	if objectName == "" {
		return "", fmt.Errorf("%w: %q has no object path", ErrInvalidObjectURL, publicURL)
	}
	return objectName, nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
