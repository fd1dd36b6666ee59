package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore uploads attachments into a Supabase Storage bucket and keeps
// the public object URL as the location.
type SupabaseStore struct {
	client  *storage_go.Client
	baseURL string
	bucket  string
	prefix  string
}

func NewSupabaseStore(supabaseURL, key, bucket string) (*SupabaseStore, error) {
	if supabaseURL == "" || key == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase store")
	}
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStore{
		client:  storage_go.NewClient(baseURL+"/storage/v1", key, nil),
		baseURL: baseURL,
		bucket:  bucket,
		prefix:  "journals/",
	}, nil
}

func (s *SupabaseStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	objectPath := s.prefix + name
	if _, err := s.client.UploadFile(s.bucket, objectPath, r); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.publicURL(objectPath), nil
}

func (s *SupabaseStore) Remove(_ context.Context, location string) error {
	objectPath, ok := s.objectPath(location)
	if !ok {
		return fmt.Errorf("location %q is not in bucket %s", location, s.bucket)
	}
	_, err := s.client.RemoveFile(s.bucket, []string{objectPath})
	return err
}

func (s *SupabaseStore) publicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStore) objectPath(location string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if !strings.HasPrefix(location, prefix) {
		return "", false
	}
	return strings.TrimPrefix(location, prefix), true
}
