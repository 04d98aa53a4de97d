package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockS3Client struct {
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params)
	}
	return &s3.PutObjectOutput{}, nil
}

type mockPresigner struct {
	presignFunc func(ctx context.Context, params *s3.GetObjectInput) (*v4.PresignedHTTPRequest, error)
}

func (m *mockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return m.presignFunc(ctx, params)
}

func TestS3Storage_Upload(t *testing.T) {
	var got *s3.PutObjectInput
	var body []byte
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			got = params
			var err error
			body, err = io.ReadAll(params.Body)
			return &s3.PutObjectOutput{}, err
		},
	}
	storage := newS3Storage(client, &mockPresigner{}, "reports-bucket", zap.NewNop())

	err := storage.Upload(context.Background(), "sales_tax/in/report.csv", []byte("ID\n"), "text/csv")
	require.NoError(t, err)

	assert.Equal(t, "reports-bucket", aws.ToString(got.Bucket))
	assert.Equal(t, "sales_tax/in/report.csv", aws.ToString(got.Key))
	assert.Equal(t, "text/csv", aws.ToString(got.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(got.ContentLength))
	assert.Equal(t, []byte("ID\n"), body)
}

func TestS3Storage_UploadError(t *testing.T) {
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errors.New("AccessDenied")
		},
	}
	storage := newS3Storage(client, &mockPresigner{}, "reports-bucket", zap.NewNop())

	err := storage.Upload(context.Background(), "k.csv", []byte("x"), "text/csv")
	assert.ErrorContains(t, err, "AccessDenied")
	assert.ErrorContains(t, err, "s3://reports-bucket/k.csv")
}

func TestS3Storage_PresignGet(t *testing.T) {
	client := s3.New(s3.Options{
		Region:       "ap-south-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
		BaseEndpoint: aws.String("https://s3.example.com"),
		UsePathStyle: true,
	})
	storage := newS3Storage(client, s3.NewPresignClient(client), "reports-bucket", zap.NewNop())

	link, err := storage.PresignGet(context.Background(), "sales_tax/in/report.csv", 7*24*time.Hour)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "s3.example.com", parsed.Host)
	assert.Equal(t, "/reports-bucket/sales_tax/in/report.csv", parsed.Path)
	assert.Equal(t, "604800", parsed.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{Region: "ap-south-1"}, zap.NewNop())
	assert.Error(t, err)
}
