package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// TopicResult identifies a provisioned SNS topic
type TopicResult struct {
	Name    string `json:"name"`
	ARN     string `json:"arn"`
	Created bool   `json:"created"`
}

// EnsureTopic creates the named topic unless it already exists. name is
// the last colon delimited part of the topic ARN; empty generates one.
func (c *Client) EnsureTopic(ctx context.Context, name string) (*TopicResult, error) {
	if name == "" {
		name = GenerateName()
	}

	c.logf("Retrieving all sns topics")
	topics, err := c.listTopics(ctx)
	if err != nil {
		return nil, err
	}

	if arn, ok := topics[name]; ok {
		c.logf("Topic already existed. ARN is %q.", arn)
		return &TopicResult{Name: name, ARN: arn}, nil
	}

	c.logf("Topic %q did not exist.", name)
	out, err := c.snsClient.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(name)})
	if err != nil {
		return nil, upstream("sns CreateTopic", err)
	}

	arn := aws.ToString(out.TopicArn)
	c.logf("Created topic with arn %q.", arn)
	return &TopicResult{Name: name, ARN: arn, Created: true}, nil
}

// listTopics maps topic names to ARNs across every ListTopics page
func (c *Client) listTopics(ctx context.Context) (map[string]string, error) {
	topics := make(map[string]string)
	var token *string
	for {
		out, err := c.snsClient.ListTopics(ctx, &sns.ListTopicsInput{NextToken: token})
		if err != nil {
			return nil, upstream("sns ListTopics", err)
		}

		for _, t := range out.Topics {
			arn := aws.ToString(t.TopicArn)
			topics[TopicName(arn)] = arn
		}

		if aws.ToString(out.NextToken) == "" {
			return topics, nil
		}
		token = out.NextToken
	}
}

// TopicName returns the name part of a topic ARN
func TopicName(arn string) string {
	if i := strings.LastIndex(arn, ":"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
