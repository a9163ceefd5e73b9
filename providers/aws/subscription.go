package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const pendingConfirmation = "PendingConfirmation"

// SubscriptionResult describes the subscription of an endpoint to a topic
type SubscriptionResult struct {
	TopicARN        string `json:"topic_arn"`
	Endpoint        string `json:"endpoint"`
	SubscriptionARN string `json:"subscription_arn"`
	Pending         bool   `json:"pending"`
}

// EndpointURL builds the public URL SNS should deliver to
func EndpointURL(protocol, domain, alias, path string) (string, error) {
	protocol = strings.ToLower(protocol)
	if protocol == "" {
		protocol = "http"
	}
	if protocol != "http" && protocol != "https" {
		return "", fmt.Errorf("invalid protocol specified. You entered %q. Protocol must be http or https", protocol)
	}
	if domain == "" {
		return "", fmt.Errorf("%w: domain", ErrMissingParameter)
	}
	return fmt.Sprintf("%s://%s%s%s", protocol, domain, alias, path), nil
}

// SubscribeEndpoint subscribes an HTTP(S) endpoint to the topic. A
// confirmed subscription for the same endpoint is reused as is.
func (c *Client) SubscribeEndpoint(ctx context.Context, topicARN, endpoint string) (*SubscriptionResult, error) {
	protocol := "http"
	if strings.HasPrefix(endpoint, "https://") {
		protocol = "https"
	}

	existing, err := c.findSubscription(ctx, topicARN, protocol, endpoint)
	if err != nil {
		return nil, err
	}
	if existing != "" && existing != pendingConfirmation {
		c.logf("%s is already subscribed", endpoint)
		return &SubscriptionResult{TopicARN: topicARN, Endpoint: endpoint, SubscriptionARN: existing}, nil
	}

	c.logf("Subscribing %s", endpoint)
	out, err := c.snsClient.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicARN),
		Protocol: aws.String(protocol),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, upstream("sns Subscribe", err)
	}

	arn := aws.ToString(out.SubscriptionArn)
	pending := arn == "" || strings.EqualFold(strings.ReplaceAll(arn, " ", ""), pendingConfirmation)
	if pending {
		c.logf("Subscription is now pending confirmation. Confirmation should occur automatically in just a moment.")
	}
	return &SubscriptionResult{TopicARN: topicARN, Endpoint: endpoint, SubscriptionARN: arn, Pending: pending}, nil
}

func (c *Client) findSubscription(ctx context.Context, topicARN, protocol, endpoint string) (string, error) {
	var token *string
	for {
		out, err := c.snsClient.ListSubscriptionsByTopic(ctx, &sns.ListSubscriptionsByTopicInput{
			TopicArn:  aws.String(topicARN),
			NextToken: token,
		})
		if err != nil {
			return "", upstream("sns ListSubscriptionsByTopic", err)
		}

		for _, s := range out.Subscriptions {
			if aws.ToString(s.Protocol) == protocol && aws.ToString(s.Endpoint) == endpoint {
				return aws.ToString(s.SubscriptionArn), nil
			}
		}

		if aws.ToString(out.NextToken) == "" {
			return "", nil
		}
		token = out.NextToken
	}
}
