package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/metrics/smithyotelmetrics"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
)

var authErrorCodes = []string{
	"Forbidden",
	"AccessDenied",
	"InvalidAccessKeyId",
	"SignatureDoesNotMatch",
}

// Session talks to one bucket of an S3 service. The bucket is the endpoint
// host, the service URL comes from the endpoint settings.
type Session struct {
	logger logr.Logger

	mu       sync.Mutex
	api      API
	bucket   string
	tracker  protoc.ResponseTracker
	partSize int64
}

var _ protoc.FileSession = (*Session)(nil)

func NewSession(logger logr.Logger) *Session {
	return &Session{logger: logger.WithName("s3.session"), partSize: defaultPartSize}
}

// Open builds the S3 client and checks the bucket is reachable with the
// endpoint credentials.
func (s *Session) Open(ctx context.Context, endpoint protoc.Endpoint) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return
	}
	var api *awss3.Client
	if api, err = newAPI(endpoint); err != nil {
		return
	}
	if _, err = api.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(endpoint.Host),
	}); err != nil {
		err = mapError(err)
		return
	}
	s.api, s.bucket = api, endpoint.Host
	s.logger.V(1).Info("opened s3 session", "endpoint", endpoint.String())
	return
}

func (s *Session) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return
	}
	s.api = nil
	return s.tracker.Discard()
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api != nil
}

func (s *Session) DrainPending() error {
	return s.tracker.Drain()
}

func (s *Session) Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error) {
	var api API
	if api, err = s.client(); err != nil {
		return
	}
	var objInfo *awss3.HeadObjectOutput
	if objInfo, err = api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(filePath)),
	}); err != nil {
		err = mapError(err)
		return
	}
	info = vfsfile.NewInfo(
		filePath,
		lo.FromPtr(objInfo.ContentLength),
		lo.FromPtr(objInfo.LastModified),
		false,
	)
	return
}

func (s *Session) RetrieveFileFromOffset(
	ctx context.Context,
	filePath string,
	offset int64,
) (reader io.ReadCloser, err error) {
	var api API
	if api, err = s.client(); err != nil {
		return
	}
	input := &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(filePath)),
	}
	if offset > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	var objOutput *awss3.GetObjectOutput
	if objOutput, err = api.GetObject(ctx, input); err != nil {
		err = mapError(err)
		return
	}
	reader = s.tracker.Track(objOutput.Body)
	return
}

func (s *Session) CreateOrOverwriteFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	var api API
	if api, err = s.client(); err != nil {
		return
	}
	return s.upload(ctx, api, objectKey(filePath), reader)
}

func (s *Session) AppendToFile(context.Context, string, io.Reader) error {
	return fmt.Errorf("%w: s3 objects cannot be appended to", protoc.ErrUnsupportedOperation)
}

// MakeDirectoryAll is a no-op, prefixes exist as soon as an object uses them.
func (s *Session) MakeDirectoryAll(context.Context, string) (err error) {
	_, err = s.client()
	return
}

func (s *Session) DeleteFile(ctx context.Context, filePath string) (err error) {
	var api API
	if api, err = s.client(); err != nil {
		return
	}
	if _, err = api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(filePath)),
	}); err != nil {
		err = mapError(err)
	}
	return
}

func (s *Session) client() (API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return nil, protoc.ErrSessionClosed
	}
	return s.api, nil
}

func newAPI(endpoint protoc.Endpoint) (api *awss3.Client, err error) {
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tr.TLSClientConfig.InsecureSkipVerify = endpoint.Settings.InsecureSkipVerify
		if endpoint.HasProxy() {
			tr.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: endpoint.ProxyAddress()})
		}
	})
	if endpoint.Settings.Timeout > 0 {
		httpClient = httpClient.WithTimeout(endpoint.Settings.Timeout)
	}
	region := endpoint.Settings.Region
	if region == "" {
		region = defaultRegion
	}
	s3Options := awss3.Options{
		Region:     region,
		HTTPClient: httpClient,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     endpoint.Credentials.Username,
				SecretAccessKey: endpoint.Credentials.Password,
			}, nil
		}),
		MeterProvider: smithyotelmetrics.Adapt(otel.GetMeterProvider()),
	}
	if endpoint.Settings.BaseURL != "" {
		s3Options.BaseEndpoint = aws.String(endpoint.Settings.BaseURL)
		s3Options.UsePathStyle = true
	}
	api = awss3.New(s3Options)
	return
}

func objectKey(filePath string) string {
	return strings.TrimPrefix(filePath, "/")
}

// mapError translates S3 failures into the protocol-agnostic errors.
func mapError(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && lo.Contains(authErrorCodes, apiErr.ErrorCode()) {
		return fmt.Errorf("%w: %w", protoc.ErrAuthenticationFailed, err)
	}
	return err
}
