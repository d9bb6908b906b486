package fsxs3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/Abraxas-365/slotx/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// API is the part of *s3.Client the reader uses.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem implements fsx.FileReader over a bucket. Keys are treated as
// slash separated paths below prefix; a "directory" is any key prefix.
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

var _ fsx.FileReader = (*S3FileSystem)(nil)

// NewS3FileSystem creates a reader for bucket. prefix may be empty.
func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3FileSystem{client: client, bucket: bucket, prefix: prefix}
}

// Bucket returns the bucket name.
func (s *S3FileSystem) Bucket() string { return s.bucket }

func (s *S3FileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return s.get(ctx, name, nil)
}

// ReadHead fetches only the first n bytes with a ranged GET.
func (s *S3FileSystem) ReadHead(ctx context.Context, name string, n int64) ([]byte, error) {
	if n <= 0 {
		return s.get(ctx, name, nil)
	}
	data, err := s.get(ctx, name, aws.String(fmt.Sprintf("bytes=0-%d", n-1)))
	if err != nil {
		var apiErr smithy.APIError
		// S3 rejects any range on an empty object.
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return []byte{}, nil
		}
		return nil, err
	}
	if int64(len(data)) > n {
		data = data[:n]
	}
	return data, nil
}

func (s *S3FileSystem) get(ctx context.Context, name string, rng *string) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  rng,
	})
	if err != nil {
		return nil, mapErr(name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fsx.ReadFailed(name, err)
	}
	return data, nil
}

// Stat reports an object, or a directory when name is the root or a prefix
// of at least one key.
func (s *S3FileSystem) Stat(ctx context.Context, name string) (fsx.FileInfo, error) {
	rel, err := relPath(name)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	if rel == "" {
		return fsx.FileInfo{Name: "/", Path: ".", IsDir: true}, nil
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + rel),
	})
	if err == nil {
		return fsx.FileInfo{
			Name:        path.Base(rel),
			Path:        rel,
			Size:        aws.ToInt64(out.ContentLength),
			ModTime:     aws.ToTime(out.LastModified),
			ContentType: aws.ToString(out.ContentType),
		}, nil
	}
	if !isNotFound(err) {
		return fsx.FileInfo{}, fsx.ReadFailed(name, err)
	}

	isDir, err := s.hasChildren(ctx, rel)
	if err != nil {
		return fsx.FileInfo{}, fsx.ReadFailed(name, err)
	}
	if !isDir {
		return fsx.FileInfo{}, fsx.NotFound(name)
	}
	return fsx.FileInfo{Name: path.Base(rel), Path: rel, IsDir: true}, nil
}

// List returns the objects and sub-prefixes directly under name, sorted.
func (s *S3FileSystem) List(ctx context.Context, name string) ([]fsx.FileInfo, error) {
	rel, err := relPath(name)
	if err != nil {
		return nil, err
	}

	listPrefix := s.prefix
	if rel != "" {
		listPrefix += rel + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(listPrefix),
		Delimiter: aws.String("/"),
	})

	var out []fsx.FileInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fsx.ReadFailed(name, err)
		}
		for _, cp := range page.CommonPrefixes {
			p := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), s.prefix), "/")
			out = append(out, fsx.FileInfo{Name: path.Base(p), Path: p, IsDir: true})
		}
		for _, obj := range page.Contents {
			p := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.HasSuffix(p, "/") {
				continue
			}
			out = append(out, fsx.FileInfo{
				Name:    path.Base(p),
				Path:    p,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	if len(out) == 0 && rel != "" {
		return nil, fsx.NotFound(name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *S3FileSystem) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Stat(ctx, name)
	if err == nil {
		return true, nil
	}
	if fsx.ErrNotFound.Is(err) {
		return false, nil
	}
	return false, err
}

func (s *S3FileSystem) hasChildren(ctx context.Context, rel string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix + rel + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

func (s *S3FileSystem) key(name string) (string, error) {
	rel, err := relPath(name)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fsx.NotFound(name)
	}
	return s.prefix + rel, nil
}

// relPath cleans name to a key suffix; "" is the root.
func relPath(name string) (string, error) {
	rel := path.Clean(strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/"))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fsx.OutsideRoot(name)
	}
	if rel == "." {
		rel = ""
	}
	return rel, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func mapErr(name string, err error) error {
	if isNotFound(err) {
		return fsx.NotFound(name)
	}
	return fsx.ReadFailed(name, err)
}
