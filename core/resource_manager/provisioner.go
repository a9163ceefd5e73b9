package resource_manager

import (
	"context"
	"fmt"
	"io"

	"encoder-pipeline/providers/aws"
)

// Backend is the provisioning surface Setup drives. *aws.Client implements it.
type Backend interface {
	EnsureBucket(ctx context.Context, name string) (*aws.BucketResult, error)
	EnsureRole(ctx context.Context, name string) (*aws.RoleResult, error)
	EnsureTopic(ctx context.Context, name string) (*aws.TopicResult, error)
	EnsurePipeline(ctx context.Context, spec aws.PipelineSpec) (*aws.PipelineResult, error)
}

// SetupRequest names the resources to provision. Empty names are generated.
type SetupRequest struct {
	InputBucket  string
	OutputBucket string
	Role         string
	Topic        string
	Pipeline     string
}

// Summary lists every resource a setup run produced or reused
type Summary struct {
	Region     string `json:"region"`
	InBucket   string `json:"in_bucket"`
	OutBucket  string `json:"out_bucket"`
	Role       string `json:"role"`
	RoleARN    string `json:"role_arn"`
	Topic      string `json:"topic"`
	TopicARN   string `json:"topic_arn"`
	Pipeline   string `json:"pipeline"`
	PipelineID string `json:"pipeline_id"`
}

// Provisioner sequences the individual provisioning steps into a complete
// transcoding setup.
type Provisioner struct {
	backend Backend
	region  string
	out     io.Writer
}

// NewProvisioner creates a provisioner narrating its progress to out
func NewProvisioner(backend Backend, region string, out io.Writer) *Provisioner {
	if out == nil {
		out = io.Discard
	}
	return &Provisioner{
		backend: backend,
		region:  region,
		out:     out,
	}
}

// Setup creates the input bucket, output bucket, role, topic and pipeline in
// that order, feeding each step's identifiers into the pipeline. The first
// failure stops the run; anything already created is left in place and will
// be reused on the next run.
func (p *Provisioner) Setup(ctx context.Context, req SetupRequest) (*Summary, error) {
	summary := &Summary{Region: p.region}

	p.step("Creating input bucket")
	in, err := p.backend.EnsureBucket(ctx, req.InputBucket)
	if err != nil {
		return summary, fmt.Errorf("failed to create input bucket: %w", err)
	}
	summary.InBucket = in.Bucket

	p.step("Creating output bucket")
	out, err := p.backend.EnsureBucket(ctx, req.OutputBucket)
	if err != nil {
		return summary, fmt.Errorf("failed to create output bucket: %w", err)
	}
	summary.OutBucket = out.Bucket

	p.step("Creating IAM role")
	role, err := p.backend.EnsureRole(ctx, req.Role)
	if err != nil {
		return summary, fmt.Errorf("failed to create role: %w", err)
	}
	summary.Role = role.Role
	summary.RoleARN = role.ARN

	p.step("Creating SNS topic")
	topic, err := p.backend.EnsureTopic(ctx, req.Topic)
	if err != nil {
		return summary, fmt.Errorf("failed to create topic: %w", err)
	}
	summary.Topic = topic.Name
	summary.TopicARN = topic.ARN

	pipelineName := req.Pipeline
	if pipelineName == "" {
		pipelineName = aws.GenerateName()
	}

	p.step("Creating pipeline")
	pipeline, err := p.backend.EnsurePipeline(ctx, aws.PipelineSpec{
		Name:         pipelineName,
		InputBucket:  summary.InBucket,
		OutputBucket: summary.OutBucket,
		TopicARN:     summary.TopicARN,
		Role:         summary.RoleARN,
	})
	if err != nil {
		return summary, fmt.Errorf("failed to create pipeline: %w", err)
	}
	summary.Pipeline = pipeline.Name
	summary.PipelineID = pipeline.ID

	return summary, nil
}

func (p *Provisioner) step(title string) {
	fmt.Fprintf(p.out, "\n==> %s\n", title)
}

// WriteSummary prints the summary as aligned key/value lines
func WriteSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "Setup complete.")
	for _, kv := range [][2]string{
		{"region", s.Region},
		{"in_bucket", s.InBucket},
		{"out_bucket", s.OutBucket},
		{"role", s.Role},
		{"role_arn", s.RoleARN},
		{"topic", s.Topic},
		{"topic_arn", s.TopicARN},
		{"pipeline", s.Pipeline},
		{"pipeline_id", s.PipelineID},
	} {
		fmt.Fprintf(w, "  %-12s %s\n", kv[0], kv[1])
	}
}
