// Package s3 implements blobstore.BlobStore on Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("graphs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	err = image.Publish(ctx, store, "people.owlz", "people.owli", image.CompressionZSTD)
//
// # Features
//
//   - Range reads
//   - CRC32C-checked single-part puts, multipart uploads above PartSize
//   - Automatic pagination for listing
//   - Configurable key prefix
package s3
