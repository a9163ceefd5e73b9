package aws

import (
	"context"
	"fmt"
	"io"

	"encoder-pipeline/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/elastictranscoder"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// S3API is the part of the S3 client used for bucket provisioning
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// IAMAPI is the part of the IAM client used for role provisioning
type IAMAPI interface {
	ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
}

// SNSAPI is the part of the SNS client used for topics and subscriptions
type SNSAPI interface {
	ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	ListSubscriptionsByTopic(ctx context.Context, params *sns.ListSubscriptionsByTopicInput, optFns ...func(*sns.Options)) (*sns.ListSubscriptionsByTopicOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
}

// TranscoderAPI is the part of the Elastic Transcoder client used for
// pipeline provisioning
type TranscoderAPI interface {
	ListPipelines(ctx context.Context, params *elastictranscoder.ListPipelinesInput, optFns ...func(*elastictranscoder.Options)) (*elastictranscoder.ListPipelinesOutput, error)
	CreatePipeline(ctx context.Context, params *elastictranscoder.CreatePipelineInput, optFns ...func(*elastictranscoder.Options)) (*elastictranscoder.CreatePipelineOutput, error)
	UpdatePipeline(ctx context.Context, params *elastictranscoder.UpdatePipelineInput, optFns ...func(*elastictranscoder.Options)) (*elastictranscoder.UpdatePipelineOutput, error)
	TestRole(ctx context.Context, params *elastictranscoder.TestRoleInput, optFns ...func(*elastictranscoder.Options)) (*elastictranscoder.TestRoleOutput, error)
}

// Client is the AWS provider client
type Client struct {
	s3Client         S3API
	iamClient        IAMAPI
	snsClient        SNSAPI
	transcoderClient TranscoderAPI
	region           string
	out              io.Writer
}

// NewClient creates a client for region using the configured static
// credentials. Missing credentials are reported before any client is built.
func NewClient(ctx context.Context, creds config.AWSConfig, region string) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		s3Client:         s3.NewFromConfig(cfg),
		iamClient:        iam.NewFromConfig(cfg),
		snsClient:        sns.NewFromConfig(cfg),
		transcoderClient: elastictranscoder.NewFromConfig(cfg),
		region:           region,
		out:              io.Discard,
	}, nil
}

// NewClientFromAPIs builds a client around already constructed service
// clients. Any of them may be nil if the caller never uses it.
func NewClientFromAPIs(region string, s3c S3API, iamc IAMAPI, snsc SNSAPI, etc TranscoderAPI) *Client {
	return &Client{
		s3Client:         s3c,
		iamClient:        iamc,
		snsClient:        snsc,
		transcoderClient: etc,
		region:           region,
		out:              io.Discard,
	}
}

// SetOutput directs the human readable progress narrative to w.
// Passing nil silences it.
func (c *Client) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	c.out = w
}

// Region returns the region the client talks to
func (c *Client) Region() string {
	return c.region
}

func (c *Client) logf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
