package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/moosedocs/pkg/publish"
)

// newUploader creates the bucket client; tests replace it.
var newUploader = func(ctx context.Context, opts publish.Options) (publish.Uploader, error) {
	client, err := publish.NewS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newPublishCommand() *Command {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	flags := addConfigFlags(fs)

	var (
		bucket = fs.String("bucket", "", "Target bucket (overrides config)")
		prefix = fs.String("prefix", "", "Key prefix (overrides config)")
		build  = fs.Bool("build", false, "Build the site before publishing")
	)

	return &Command{
		Name:        "publish",
		Description: "Upload the built site to an S3 bucket",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPublish(ctx, flags, *bucket, *prefix, *build)
		},
	}
}

func runPublish(ctx context.Context, flags *configFlags, bucket, prefix string, build bool) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	if bucket != "" {
		cfg.S3.Bucket = bucket
	}
	if prefix != "" {
		cfg.S3.Prefix = prefix
	}
	if cfg.S3.Bucket == "" {
		return publish.ErrNoBucket
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if build {
		if err := a.loadSchema(ctx); err != nil {
			return err
		}
		if _, err := a.builder().Build(ctx); err != nil {
			return err
		}
	}

	client, err := newUploader(ctx, publish.Options{
		Bucket:       cfg.S3.Bucket,
		Prefix:       cfg.S3.Prefix,
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
	})
	if err != nil {
		return err
	}

	res, err := publish.NewPublisher(client, cfg.S3.Bucket, cfg.S3.Prefix, cfg.Threads, a.log).Publish(ctx, cfg.SiteDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Published %d objects (%d bytes) to s3://%s/%s\n",
		res.Objects, res.Bytes, cfg.S3.Bucket, cfg.S3.Prefix)
	return nil
}
