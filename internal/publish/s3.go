package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"rasteralign/internal/config"
	"rasteralign/internal/fileutil"
)

// S3Publisher uploads outputs to a single bucket under an optional prefix.
type S3Publisher struct {
	client        *s3.Client
	bucket        string
	prefix        string
	companionExts []string
}

// NewS3 creates an S3 publisher. Static credentials are used when the config
// carries them; otherwise the default AWS credential chain applies. optFns
// customise the client, e.g. its HTTP transport.
func NewS3(ctx context.Context, cfg config.Publish, companionExts []string, optFns ...func(*s3.Options)) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)...)
	return &S3Publisher{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		companionExts: companionExts,
	}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, root string, files []string) (Result, error) {
	res := Result{Destination: "s3://" + path.Join(p.bucket, p.prefix)}
	for _, file := range files {
		rel, err := relativeTo(root, file)
		if err != nil {
			return res, err
		}
		key := p.key(rel)
		if err := p.put(ctx, file, key); err != nil {
			return res, err
		}
		res.Written = append(res.Written, key)

		companions, err := fileutil.Companions(file, p.companionExts)
		if err != nil {
			return res, fmt.Errorf("list companions of %s: %w", file, err)
		}
		stem := strings.TrimSuffix(key, path.Ext(key))
		for _, c := range companions {
			companionKey := stem + c.Suffix
			if err := p.put(ctx, c.Path, companionKey); err != nil {
				return res, err
			}
			res.Written = append(res.Written, companionKey)
		}
	}
	return res, nil
}

func (p *S3Publisher) key(rel string) string {
	return path.Join(p.prefix, filepath.ToSlash(rel))
}

func (p *S3Publisher) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(file); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", filepath.Base(file), p.bucket, key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".asc", ".agr", ".prj", ".txt", ".wld", ".pgw":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".xml":
		return "application/xml"
	default:
		return ""
	}
}
