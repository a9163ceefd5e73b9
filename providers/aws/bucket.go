package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// BucketResult identifies a provisioned bucket
type BucketResult struct {
	Bucket  string `json:"bucket"`
	ARN     string `json:"arn"`
	Created bool   `json:"created"`
}

const listBucketsPageSize = 1000

// EnsureBucket creates the named bucket unless it already exists. An empty
// name generates one.
func (c *Client) EnsureBucket(ctx context.Context, name string) (*BucketResult, error) {
	if name == "" {
		name = GenerateName()
	}
	result := &BucketResult{Bucket: name, ARN: "arn:aws:s3:::" + name}

	exists, err := c.bucketExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		c.logf("Bucket %s already exists", name)
		return result, nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 is the default location and must not be sent as a constraint
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	_, err = c.s3Client.CreateBucket(ctx, input)
	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		c.logf("Bucket %s already exists", name)
		return result, nil
	}
	if err != nil {
		return nil, upstream("s3 CreateBucket", err)
	}

	result.Created = true
	c.logf("Created bucket %s", name)
	return result, nil
}

// bucketExists drains every ListBuckets page looking for name
func (c *Client) bucketExists(ctx context.Context, name string) (bool, error) {
	var token *string
	for {
		out, err := c.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{
			ContinuationToken: token,
			MaxBuckets:        aws.Int32(listBucketsPageSize),
		})
		if err != nil {
			return false, upstream("s3 ListBuckets", err)
		}

		for _, b := range out.Buckets {
			if aws.ToString(b.Name) == name {
				return true, nil
			}
		}

		if aws.ToString(out.ContinuationToken) == "" {
			return false, nil
		}
		token = out.ContinuationToken
	}
}
