package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/blobstore"
	"github.com/hupe1980/owlite/blobstore/minio"
	"github.com/hupe1980/owlite/blobstore/s3"
	"github.com/hupe1980/owlite/config"
	"github.com/hupe1980/owlite/image"
)

func openBlobStore(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	bs, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheBytes > 0 {
		return blobstore.NewCachingStore(bs, cfg.CacheBytes, nil), nil
	}
	return bs, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	switch cfg.Kind {
	case "local":
		return blobstore.NewLocalStore(cfg.Local.Root), nil
	case "s3":
		var opts []s3.Option
		if cfg.S3.Prefix != "" {
			opts = append(opts, s3.WithPrefix(cfg.S3.Prefix))
		}
		if cfg.S3.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.S3.Region))
		}
		if cfg.S3.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.S3.Endpoint))
		}
		return s3.New(ctx, cfg.S3.Bucket, opts...)
	case "minio":
		st, err := minio.New(minio.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Secure:    cfg.MinIO.Secure,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: storage kind %q", owlite.ErrInvalidArgument, cfg.Kind)
	}
}

func publishCmd(flags *globalFlags) *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "publish IMAGE NAME",
		Short: "Pack an image and upload it to the configured storage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if compression != "" {
				cfg.Image.Compression = compression
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			bs, err := openBlobStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}

			n, err := image.Publish(ctx, bs, args[1], args[0],
				image.WithCompression(cfg.Compression()),
				image.WithPublishResourceController(cfg.ResourceController()),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s as %s (%s, %d bytes)\n", args[0], args[1], cfg.Compression(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&compression, "compression", "", "none, lz4 or zstd (overrides config)")
	return cmd
}

func fetchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch NAME IMAGE",
		Short: "Download a published image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			bs, err := openBlobStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}

			v, err := image.FetchTo(ctx, bs, args[0], args[1],
				image.WithPublishResourceController(cfg.ResourceController()))
			if err != nil {
				return err
			}
			defer func() { _ = v.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s to %s: %d triples\n", args[0], args[1], v.TripleCount())
			return nil
		},
	}
}
