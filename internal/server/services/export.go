package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	sc "github.com/dmitrijs2005/gemspark/internal/server/config"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

const exportLinkValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportDocument is the JSON body written to object storage.
type ExportDocument struct {
	SessionID  string           `json:"session_id"`
	Name       string           `json:"name"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []models.Message `json:"messages"`
}

// ExportService uploads a session transcript to S3-compatible storage and
// hands back a time-limited download link.
type ExportService struct {
	sessions *SessionService
	config   *sc.Config
	logger   logging.Logger
}

func NewExportService(sessions *SessionService, cfg *sc.Config, logger logging.Logger) *ExportService {
	return &ExportService{sessions: sessions, config: cfg, logger: logger.With("module", "export")}
}

// Enabled reports whether a bucket is configured.
func (s *ExportService) Enabled() bool {
	return s.config.S3Bucket != ""
}

// Export uploads the transcript of a session owned by userID and returns a
// presigned GET URL valid for 15 minutes.
func (s *ExportService) Export(ctx context.Context, userID, sessionID string) (string, error) {
	if !s.Enabled() {
		return "", common.ErrExportDisabled
	}

	cs, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	msgs, err := s.sessions.History(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(ExportDocument{
		SessionID:  cs.ID,
		Name:       cs.Name,
		ExportedAt: time.Now().UTC(),
		Messages:   msgs,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := ExportKey(userID, sessionID, time.Now())
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportLinkValidity))
	if err != nil {
		return "", fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info(ctx, "transcript exported", "session_id", sessionID, "key", key, "messages", len(msgs))
	return req.URL, nil
}

// ExportKey places exports under the owning user, one object per export.
func ExportKey(userID, sessionID string, t time.Time) string {
	return fmt.Sprintf("exports/%s/%s/%s.json", userID, sessionID, t.UTC().Format("20060102T150405.000000000Z"))
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}
