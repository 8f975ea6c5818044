package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// ObjectConfig configures a bucket+key object-store Provider. The same
// shape serves S3, GCS, and MinIO (all S3-API-compatible via Endpoint) and
// Azure Blob containers (the container is modeled as Bucket, per
// SPEC_FULL.md §3.1 — Azure exposes no first-party SDK anywhere in the
// retrieved example pack, so its container+blob model is served through
// this same bucket+key client against an S3-compatible gateway endpoint).
type ObjectConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Anonymous bool
}

// Object is a Provider backed by an S3-API-compatible bucket.
type Object struct {
	client *oss.Client
	bucket string
	prefix string
}

// NewObject builds an Object provider from cfg.
func NewObject(cfg ObjectConfig) (*Object, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore: object config missing bucket")
	}
	ossCfg := &oss.Config{
		Region:   oss.Ptr(cfg.Region),
		Endpoint: oss.Ptr(cfg.Endpoint),
	}
	if cfg.Anonymous {
		ossCfg.CredentialsProvider = credentials.NewAnonymousCredentialsProvider()
	} else {
		ossCfg.CredentialsProvider = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey)
	}
	return &Object{
		client: oss.NewClient(ossCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (o *Object) joinPrefix(prefix string) string {
	switch {
	case o.prefix == "":
		return prefix
	case prefix == "":
		return o.prefix
	default:
		return o.prefix + "/" + prefix
	}
}

func (o *Object) List(ctx context.Context, prefix string) ([]Blob, error) {
	full := o.joinPrefix(prefix)
	var out []Blob
	paginator := o.client.NewListObjectsV2Paginator(&oss.ListObjectsV2Request{
		Bucket: oss.Ptr(o.bucket),
		Prefix: oss.Ptr(full),
	})
	for paginator.HasNext() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("blobstore: list %s/%s: %w", o.bucket, full, err)
		}
		for _, c := range page.Contents {
			out = append(out, Blob{
				Key:          oss.ToString(c.Key),
				Size:         c.Size,
				LastModified: oss.ToTime(c.LastModified),
			})
		}
	}
	return out, nil
}

func (o *Object) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := o.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(o.bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: get %s/%s: %w", o.bucket, key, err)
	}
	return result.Body, nil
}
