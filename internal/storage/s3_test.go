package storage

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestNewS3StorageWithClient_DefaultRetries(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1"})

	st := NewS3StorageWithClient(client, "bucket", S3Config{})
	if st.maxRetries != 3 {
		t.Errorf("expected default of 3 retries, got %d", st.maxRetries)
	}

	st = NewS3StorageWithClient(client, "bucket", S3Config{MaxRetries: 7})
	if st.maxRetries != 7 {
		t.Errorf("expected 7 retries, got %d", st.maxRetries)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrObjectNotFound, true},
		{fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{&types.NotFound{}, true},
		{fmt.Errorf("connection reset"), false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
