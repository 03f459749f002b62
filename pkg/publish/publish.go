// Package publish uploads a built site to an S3 compatible bucket.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/moosedocs/pkg/observability"
)

// ErrNoBucket is returned when publishing without a bucket.
var ErrNoBucket = errors.New("no bucket configured")

// Uploader is the subset of the S3 API used for publishing.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the bucket client.
type Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	AccessKey    string
	SecretKey    string
}

// NewS3Client creates an S3 client. Static credentials are used when both
// keys are set, otherwise the default credential chain.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// Result summarizes a publish run.
type Result struct {
	Objects  int
	Bytes    int64
	Duration time.Duration
}

// Publisher mirrors a site directory into a bucket.
type Publisher struct {
	client  Uploader
	bucket  string
	prefix  string
	threads int
	log     *logrus.Logger
}

// NewPublisher creates a Publisher. threads <= 0 uses one worker per CPU.
func NewPublisher(client Uploader, bucket, prefix string, threads int, log *logrus.Logger) *Publisher {
	if log == nil {
		log = logrus.New()
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Publisher{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		threads: threads,
		log:     log,
	}
}

// Key returns the object key for a slash separated path relative to the
// site root.
func (p *Publisher) Key(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return p.prefix + "/" + rel
}

// Publish uploads every regular file under siteDir. Hidden files are skipped.
func (p *Publisher) Publish(ctx context.Context, siteDir string) (Result, error) {
	if p.bucket == "" {
		return Result{}, ErrNoBucket
	}

	ctx, span := observability.StartSpan(ctx, "site.publish",
		attribute.String("s3.bucket", p.bucket),
		attribute.String("s3.prefix", p.prefix),
	)
	defer span.End()

	start := time.Now()
	files, err := collect(siteDir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return Result{}, err
	}

	var size atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.threads)
	for _, rel := range files {
		g.Go(func() error {
			n, err := p.upload(gctx, siteDir, rel)
			if err != nil {
				return fmt.Errorf("upload %s: %w", rel, err)
			}
			size.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return Result{}, err
	}

	res := Result{Objects: len(files), Bytes: size.Load(), Duration: time.Since(start)}
	span.SetAttributes(attribute.Int("publish.objects", res.Objects))
	span.SetStatus(codes.Ok, "site published")
	p.log.WithFields(logrus.Fields{
		"bucket":   p.bucket,
		"prefix":   p.prefix,
		"objects":  res.Objects,
		"bytes":    res.Bytes,
		"duration": res.Duration.String(),
	}).Info("Published site")
	return res, nil
}

func (p *Publisher) upload(ctx context.Context, siteDir, rel string) (int64, error) {
	data, err := os.ReadFile(filepath.Join(siteDir, filepath.FromSlash(rel)))
	if err != nil {
		return 0, err
	}

	hash := sha256.Sum256(data)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(rel)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(rel, data)),
		Metadata: map[string]string{
			"checksum-sha256": hex.EncodeToString(hash[:]),
		},
	})
	if err != nil {
		return 0, err
	}
	p.log.WithField("key", p.Key(rel)).Debug("Uploaded object")
	return int64(len(data)), nil
}

// ContentType picks the media type from the extension, sniffing the content
// when the extension is unknown.
func ContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// collect lists regular files under root as sorted slash paths.
func collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	return files, nil
}
