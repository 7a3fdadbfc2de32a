package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// AudioStore uploads generated podcast audio to an S3-compatible bucket.
type AudioStore struct {
	logger    zerolog.Logger
	endpoint  string
	accessKey string
	secretKey string
	bucket    string
}

// NewAudioStore creates a new AudioStore for the given bucket.
func NewAudioStore(logger zerolog.Logger, endpoint, accessKey, secretKey, bucket string) *AudioStore {
	return &AudioStore{
		logger:    logger.With().Str("component", "audio-store").Logger(),
		endpoint:  endpoint,
		accessKey: accessKey,
		secretKey: secretKey,
		bucket:    bucket,
	}
}

// s3Client returns an S3 client configured for the storage endpoint.
func (s *AudioStore) s3Client() *s3.Client {
	return s3.New(s3.Options{
		BaseEndpoint: aws.String(s.endpoint),
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, ""),
		UsePathStyle: true,
	})
}

// Put uploads MP3 audio under the given key and returns the public URL.
func (s *AudioStore) Put(ctx context.Context, key string, audio []byte) (string, error) {
	s.logger.Info().Str("key", key).Int("bytes", len(audio)).Msg("uploading podcast audio")

	_, err := s.s3Client().PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("put audio object %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key), nil
}

// Delete removes an uploaded audio object. Used when a podcast row is
// deleted or a failed workflow cleans up after itself.
func (s *AudioStore) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client().DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete audio object %s: %w", key, err)
	}
	return nil
}
