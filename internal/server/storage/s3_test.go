package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/dmitrijs2005/alumnae/internal/server/config"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "alumnae",
		PresignTTL:     5 * time.Minute,
	}
}

func stubSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := putObject
	origDel := deleteObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		deleteObject = origDel
		presignGetObject = origPresign
	})
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	st, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "alumnae", st.bucket)
	assert.Equal(t, 5*time.Minute, st.ttl)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_LoadError(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), testConfig())
	assert.ErrorContains(t, err, "no config")
}

func TestS3Store_PutDeleteURL(t *testing.T) {
	stubSeams(t)

	st := &S3Store{client: &s3.Client{}, presign: &s3.PresignClient{}, bucket: "alumnae", ttl: time.Minute}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		assert.Equal(t, "alumnae", *in.Bucket)
		assert.Equal(t, "alumni/x.jpg", *in.Key)
		assert.Equal(t, "image/jpeg", *in.ContentType)
		assert.Equal(t, int64(3), *in.ContentLength)
		b, _ := io.ReadAll(in.Body)
		assert.Equal(t, "abc", string(b))
		return &s3.PutObjectOutput{}, nil
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		if *in.Key == "missing" {
			return nil, errors.New("boom")
		}
		return &s3.DeleteObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://signed/" + *in.Key}, nil
	}

	require.NoError(t, st.Put(context.Background(), "alumni/x.jpg", strings.NewReader("abc"), 3, "image/jpeg"))
	require.NoError(t, st.Delete(context.Background(), "alumni/x.jpg"))
	assert.ErrorContains(t, st.Delete(context.Background(), "missing"), "boom")

	url, err := st.URL(context.Background(), "alumni/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://signed/alumni/x.jpg", url)

	url, err = st.URL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestNewKey(t *testing.T) {
	re := regexp.MustCompile(`^alumni/\d{4}/\d{1,2}/\d{1,2}/[0-9a-f-]{36}\.png$`)
	assert.Regexp(t, re, NewKey("alumni", ".PNG"))
	assert.Regexp(t, regexp.MustCompile(`^x/\d{4}/\d{1,2}/\d{1,2}/[0-9a-f-]{36}$`), NewKey("x", ""))
	assert.NotEqual(t, NewKey("a", "jpg"), NewKey("a", "jpg"))
}
