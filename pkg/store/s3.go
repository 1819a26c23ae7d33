package store

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

const payloadContentType = "application/msgpack"

// S3Store keeps the same payloads as FileStore, one object per source file
// under a key prefix of a bucket. It lets CI jobs share tracking state.
type S3Store struct {
	svc      s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store returns an S3Store for bucket using sess.
func NewS3Store(sess *session.Session, bucket, prefix string) *S3Store {
	svc := s3.New(sess)
	return &S3Store{
		svc:      svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3Store) key(filePath string) string {
	return path.Join(s.prefix, objectName(filePath))
}

// Read loads the issues saved for filePath. It reports false when the object does not exist.
func (s *S3Store) Read(filePath string) ([]trackable.Tracked, bool, error) {
	payload, err := s.readPayload(s.key(filePath))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, issueerrors.NewStoreError("read", filePath, err)
	}
	issues, err := payload.tracked(filePath)
	if err != nil {
		return nil, false, issueerrors.NewStoreError("read", filePath, err)
	}
	return issues, true, nil
}

func (s *S3Store) readPayload(key string) (*filePayload, error) {
	result, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	return decodePayload(result.Body, key)
}

// Save replaces the object holding the issues of filePath.
func (s *S3Store) Save(filePath string, issues []trackable.Tracked) error {
	buf, err := encodePayload(filePath, issues)
	if err != nil {
		return issueerrors.NewStoreError("save", filePath, err)
	}

	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(filePath)),
		Body:        buf,
		ContentType: aws.String(payloadContentType),
	})
	if err != nil {
		return issueerrors.NewStoreError("save", filePath, err)
	}
	return nil
}

// Paths lists every source path with saved issues, sorted. Each object is
// fetched because keys only carry a digest of the path.
func (s *S3Store) Paths() ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	var keys []string
	err := s.svc.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if path.Dir(key) != s.prefixDir() || !strings.HasSuffix(key, fileExt) {
				continue
			}
			keys = append(keys, key)
		}
		return true
	})
	if err != nil {
		return nil, issueerrors.NewStoreError("list", s.bucket, err)
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		payload, err := s.readPayload(key)
		if err != nil {
			return nil, issueerrors.NewStoreError("list", key, err)
		}
		paths = append(paths, payload.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *S3Store) prefixDir() string {
	if s.prefix == "" {
		return "."
	}
	return s.prefix
}

// Close is a no-op; the S3 client holds no per-store resources.
func (s *S3Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}
