package aws

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elastictranscoder"
	ettypes "github.com/aws/aws-sdk-go-v2/service/elastictranscoder/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// page returns the slice of items for the page starting at token
func page[T any](items []T, token *string, size int) ([]T, *string) {
	start := 0
	if token != nil {
		start, _ = strconv.Atoi(*token)
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end >= len(items) {
		return items[start:], nil
	}
	return items[start:end], aws.String(strconv.Itoa(end))
}

type fakeS3 struct {
	buckets   []string
	pageSize  int
	creates   []*s3.CreateBucketInput
	listCalls int
	createErr error
}

func (f *fakeS3) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.listCalls++
	names, next := page(f.buckets, in.ContinuationToken, f.pageSize)
	out := &s3.ListBucketsOutput{ContinuationToken: next}
	for _, n := range names {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(n)})
	}
	return out, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates = append(f.creates, in)
	f.buckets = append(f.buckets, aws.ToString(in.Bucket))
	return &s3.CreateBucketOutput{Location: aws.String("/" + aws.ToString(in.Bucket))}, nil
}

type fakeIAM struct {
	roles    []iamtypes.Role
	pageSize int
	creates  []*iam.CreateRoleInput
	policies []*iam.PutRolePolicyInput
}

func (f *fakeIAM) ListRoles(ctx context.Context, in *iam.ListRolesInput, _ ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	roles, next := page(f.roles, in.Marker, f.pageSize)
	return &iam.ListRolesOutput{Roles: roles, Marker: next, IsTruncated: next != nil}, nil
}

func (f *fakeIAM) CreateRole(ctx context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.creates = append(f.creates, in)
	role := iamtypes.Role{
		RoleName: in.RoleName,
		Arn:      aws.String("arn:aws:iam::123456789012:role/" + aws.ToString(in.RoleName)),
	}
	f.roles = append(f.roles, role)
	return &iam.CreateRoleOutput{Role: &role}, nil
}

func (f *fakeIAM) PutRolePolicy(ctx context.Context, in *iam.PutRolePolicyInput, _ ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	f.policies = append(f.policies, in)
	return &iam.PutRolePolicyOutput{}, nil
}

type fakeSNS struct {
	region        string
	topics        []string
	pageSize      int
	creates       []string
	subscriptions []snstypes.Subscription
	subscribes    []*sns.SubscribeInput
}

func (f *fakeSNS) topicARN(name string) string {
	return fmt.Sprintf("arn:aws:sns:%s:123456789012:%s", f.region, name)
}

func (f *fakeSNS) ListTopics(ctx context.Context, in *sns.ListTopicsInput, _ ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	names, next := page(f.topics, in.NextToken, f.pageSize)
	out := &sns.ListTopicsOutput{NextToken: next}
	for _, n := range names {
		out.Topics = append(out.Topics, snstypes.Topic{TopicArn: aws.String(f.topicARN(n))})
	}
	return out, nil
}

func (f *fakeSNS) CreateTopic(ctx context.Context, in *sns.CreateTopicInput, _ ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	name := aws.ToString(in.Name)
	f.creates = append(f.creates, name)
	f.topics = append(f.topics, name)
	return &sns.CreateTopicOutput{TopicArn: aws.String(f.topicARN(name))}, nil
}

func (f *fakeSNS) ListSubscriptionsByTopic(ctx context.Context, in *sns.ListSubscriptionsByTopicInput, _ ...func(*sns.Options)) (*sns.ListSubscriptionsByTopicOutput, error) {
	var matching []snstypes.Subscription
	for _, s := range f.subscriptions {
		if aws.ToString(s.TopicArn) == aws.ToString(in.TopicArn) {
			matching = append(matching, s)
		}
	}
	subs, next := page(matching, in.NextToken, f.pageSize)
	return &sns.ListSubscriptionsByTopicOutput{Subscriptions: subs, NextToken: next}, nil
}

func (f *fakeSNS) Subscribe(ctx context.Context, in *sns.SubscribeInput, _ ...func(*sns.Options)) (*sns.SubscribeOutput, error) {
	f.subscribes = append(f.subscribes, in)
	f.subscriptions = append(f.subscriptions, snstypes.Subscription{
		TopicArn:        in.TopicArn,
		Protocol:        in.Protocol,
		Endpoint:        in.Endpoint,
		SubscriptionArn: aws.String(pendingConfirmation),
	})
	return &sns.SubscribeOutput{SubscriptionArn: aws.String("pending confirmation")}, nil
}

type fakeTranscoder struct {
	pipelines []ettypes.Pipeline
	pageSize  int
	creates   []*elastictranscoder.CreatePipelineInput
	updates   []*elastictranscoder.UpdatePipelineInput
	testRole  *elastictranscoder.TestRoleOutput
	testErr   error
}

func (f *fakeTranscoder) ListPipelines(ctx context.Context, in *elastictranscoder.ListPipelinesInput, _ ...func(*elastictranscoder.Options)) (*elastictranscoder.ListPipelinesOutput, error) {
	pipelines, next := page(f.pipelines, in.PageToken, f.pageSize)
	return &elastictranscoder.ListPipelinesOutput{Pipelines: pipelines, NextPageToken: next}, nil
}

func (f *fakeTranscoder) CreatePipeline(ctx context.Context, in *elastictranscoder.CreatePipelineInput, _ ...func(*elastictranscoder.Options)) (*elastictranscoder.CreatePipelineOutput, error) {
	f.creates = append(f.creates, in)
	id := fmt.Sprintf("1111111111111-%06d", len(f.pipelines)+1)
	p := ettypes.Pipeline{
		Id:   aws.String(id),
		Arn:  aws.String("arn:aws:elastictranscoder:us-east-1:123456789012:pipeline/" + id),
		Name: in.Name,
	}
	f.pipelines = append(f.pipelines, p)
	return &elastictranscoder.CreatePipelineOutput{Pipeline: &p}, nil
}

func (f *fakeTranscoder) UpdatePipeline(ctx context.Context, in *elastictranscoder.UpdatePipelineInput, _ ...func(*elastictranscoder.Options)) (*elastictranscoder.UpdatePipelineOutput, error) {
	f.updates = append(f.updates, in)
	for i := range f.pipelines {
		if aws.ToString(f.pipelines[i].Id) == aws.ToString(in.Id) {
			p := f.pipelines[i]
			return &elastictranscoder.UpdatePipelineOutput{Pipeline: &p}, nil
		}
	}
	return nil, fmt.Errorf("pipeline %s not found", aws.ToString(in.Id))
}

func (f *fakeTranscoder) TestRole(ctx context.Context, in *elastictranscoder.TestRoleInput, _ ...func(*elastictranscoder.Options)) (*elastictranscoder.TestRoleOutput, error) {
	if f.testErr != nil {
		return nil, f.testErr
	}
	return f.testRole, nil
}

type fakes struct {
	s3         *fakeS3
	iam        *fakeIAM
	sns        *fakeSNS
	transcoder *fakeTranscoder
}

func newFakeClient(region string) (*Client, *fakes) {
	f := &fakes{
		s3:         &fakeS3{pageSize: 2},
		iam:        &fakeIAM{pageSize: 2},
		sns:        &fakeSNS{region: region, pageSize: 2},
		transcoder: &fakeTranscoder{pageSize: 2},
	}
	return NewClientFromAPIs(region, f.s3, f.iam, f.sns, f.transcoder), f
}
