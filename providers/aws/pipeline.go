package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elastictranscoder"
	"github.com/aws/aws-sdk-go-v2/service/elastictranscoder/types"
)

// PipelineSpec is the desired configuration of a transcoder pipeline
type PipelineSpec struct {
	Name         string
	InputBucket  string
	OutputBucket string
	TopicARN     string
	Role         string // role ARN
}

// Validate reports the first missing field
func (s PipelineSpec) Validate() error {
	switch {
	case s.InputBucket == "":
		return fmt.Errorf("%w: one of either the 'inputbucket' flag or 'ELASTIC_TRANSCODER_INPUT_BUCKET' setting is required", ErrMissingParameter)
	case s.OutputBucket == "":
		return fmt.Errorf("%w: one of either the 'outputbucket' flag or 'ELASTIC_TRANSCODER_OUTPUT_BUCKET' setting is required", ErrMissingParameter)
	case s.TopicARN == "":
		return fmt.Errorf("%w: one of either the 'topicarn' flag or 'ELASTIC_TRANSCODER_TOPIC_ARN' setting is required", ErrMissingParameter)
	case s.Role == "":
		return fmt.Errorf("%w: one of either the 'role' flag or 'ELASTIC_TRANSCODER_IAM_ROLE' setting is required", ErrMissingParameter)
	}
	return nil
}

// PipelineResult identifies a provisioned pipeline
type PipelineResult struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	ARN     string `json:"arn"`
	Created bool   `json:"created"`
}

const outputStorageClass = "ReducedRedundancy"

// EnsurePipeline creates the pipeline, or updates it in place when one with
// the same name exists. An empty name generates one.
func (c *Client) EnsurePipeline(ctx context.Context, spec PipelineSpec) (*PipelineResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = GenerateName()
	}

	c.logf("Retrieving all elastic transcoder pipelines")
	existing, err := c.findPipeline(ctx, spec.Name)
	if err != nil {
		return nil, err
	}

	outputConfig := &types.PipelineOutputConfig{
		Bucket:       aws.String(spec.OutputBucket),
		StorageClass: aws.String(outputStorageClass),
	}
	notifications := &types.Notifications{
		Progressing: aws.String(spec.TopicARN),
		Completed:   aws.String(spec.TopicARN),
		Warning:     aws.String(spec.TopicARN),
		Error:       aws.String(spec.TopicARN),
	}

	if existing == nil {
		c.logf("Pipeline %q did not exist.", spec.Name)
		out, err := c.transcoderClient.CreatePipeline(ctx, &elastictranscoder.CreatePipelineInput{
			Name:            aws.String(spec.Name),
			InputBucket:     aws.String(spec.InputBucket),
			Role:            aws.String(spec.Role),
			Notifications:   notifications,
			ContentConfig:   outputConfig,
			ThumbnailConfig: outputConfig,
		})
		if err != nil {
			return nil, upstream("elastictranscoder CreatePipeline", err)
		}
		result := pipelineResult(spec.Name, out.Pipeline)
		result.Created = true
		c.logf("Created pipeline with id %q.", result.ID)
		return result, nil
	}

	c.logf("Pipeline %q already exists, updating now.", spec.Name)
	out, err := c.transcoderClient.UpdatePipeline(ctx, &elastictranscoder.UpdatePipelineInput{
		Id:              existing.Id,
		Name:            aws.String(spec.Name),
		InputBucket:     aws.String(spec.InputBucket),
		Role:            aws.String(spec.Role),
		Notifications:   notifications,
		ContentConfig:   outputConfig,
		ThumbnailConfig: outputConfig,
	})
	if err != nil {
		return nil, upstream("elastictranscoder UpdatePipeline", err)
	}
	updated := out.Pipeline
	if updated == nil {
		updated = existing
	}
	result := pipelineResult(spec.Name, updated)
	c.logf("Updated pipeline with id %q.", result.ID)
	return result, nil
}

// findPipeline pages through the pipelines until one named name is found
func (c *Client) findPipeline(ctx context.Context, name string) (*types.Pipeline, error) {
	var token *string
	for {
		out, err := c.transcoderClient.ListPipelines(ctx, &elastictranscoder.ListPipelinesInput{PageToken: token})
		if err != nil {
			return nil, upstream("elastictranscoder ListPipelines", err)
		}

		for i := range out.Pipelines {
			if aws.ToString(out.Pipelines[i].Name) == name {
				return &out.Pipelines[i], nil
			}
		}

		if aws.ToString(out.NextPageToken) == "" {
			return nil, nil
		}
		token = out.NextPageToken
	}
}

func pipelineResult(name string, p *types.Pipeline) *PipelineResult {
	result := &PipelineResult{Name: name}
	if p != nil {
		result.ID = aws.ToString(p.Id)
		result.ARN = aws.ToString(p.Arn)
	}
	return result
}

// RoleTestResult is the outcome of a TestRole call
type RoleTestResult struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

// TestRole asks Elastic Transcoder whether role can be used with the given
// buckets and topic.
func (c *Client) TestRole(ctx context.Context, spec PipelineSpec) (*RoleTestResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c.logf("Testing IAM role for usage with an elastic transcoder pipeline.")
	out, err := c.transcoderClient.TestRole(ctx, &elastictranscoder.TestRoleInput{
		Role:         aws.String(spec.Role),
		InputBucket:  aws.String(spec.InputBucket),
		OutputBucket: aws.String(spec.OutputBucket),
		Topics:       []string{spec.TopicARN},
	})
	if err != nil {
		return nil, upstream("elastictranscoder TestRole", err)
	}

	return &RoleTestResult{
		Success:  strings.EqualFold(aws.ToString(out.Success), "true"),
		Messages: out.Messages,
	}, nil
}
