package utils

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/config"
)

// presignTTL is how long generated links stay valid
const presignTTL = time.Hour

// URLGenerator builds the links shown for a file
type URLGenerator struct {
	presigner  *s3.PresignClient
	config     *config.Config
	bucketName string
}

// NewURLGenerator creates a generator. s3Client may be nil, in which case
// only custom domain links are produced.
func NewURLGenerator(s3Client *s3.Client, cfg *config.Config, bucketName string) *URLGenerator {
	g := &URLGenerator{config: cfg, bucketName: bucketName}
	if s3Client != nil {
		g.presigner = s3.NewPresignClient(s3Client)
	}
	return g
}

// GenerateFileURL returns the custom domain link and a presigned link for key
func (g *URLGenerator) GenerateFileURL(ctx context.Context, key string) (customURL string, presignedURL string, err error) {
	customURL = g.GenerateCustomDomainURL(key)

	presignedURL, err = g.GeneratePresignedURL(ctx, key)
	if err != nil {
		logrus.Errorf("Failed to generate presigned URL for %s: %v", key, err)
		return customURL, "", err
	}

	return customURL, presignedURL, nil
}

// GenerateCustomDomainURL returns the public link for key, empty without a custom domain
func (g *URLGenerator) GenerateCustomDomainURL(key string) string {
	domain := g.config.R2.CustomDomain(g.bucketName)
	if domain == "" {
		return ""
	}

	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")

	return fmt.Sprintf("https://%s/%s", domain, EscapeKey(key))
}

// GeneratePresignedURL returns a temporary GET link for key
func (g *URLGenerator) GeneratePresignedURL(ctx context.Context, key string) (string, error) {
	if g.presigner == nil {
		return "", nil
	}

	request, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %w", err)
	}

	return request.URL, nil
}

// GetPreferredURL prefers the custom domain link over the presigned one
func (g *URLGenerator) GetPreferredURL(ctx context.Context, key string) (string, error) {
	if customURL := g.GenerateCustomDomainURL(key); customURL != "" {
		return customURL, nil
	}
	return g.GeneratePresignedURL(ctx, key)
}

// GenerateAllURLs returns every available link keyed by label
func (g *URLGenerator) GenerateAllURLs(ctx context.Context, key string) (map[string]string, error) {
	customURL, presignedURL, err := g.GenerateFileURL(ctx, key)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string)
	if customURL != "" {
		urls["Custom Domain"] = customURL
	}
	if presignedURL != "" {
		urls["Presigned URL"] = presignedURL
	}

	return urls, nil
}

// EscapeKey escapes each path segment of an object key
func EscapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
