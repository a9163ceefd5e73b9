package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"encoder-pipeline/config"
	"encoder-pipeline/core/resource_manager"
	"encoder-pipeline/providers/aws"

	flag "github.com/spf13/pflag"
)

// commonFlags are accepted by every provisioning command
type commonFlags struct {
	settings string
	region   string
	json     bool
}

func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	common := &commonFlags{}
	fs.StringVar(&common.settings, "settings", "", "YAML settings file (defaults to $"+config.EnvSettingsFile+")")
	fs.StringVar(&common.region, "region", "", "AWS region, overrides AWS_REGION")
	fs.BoolVar(&common.json, "json", false, "print the result as JSON")
	return fs, common
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	register(command{name: "create-bucket", summary: "Create an S3 bucket unless it exists", run: runCreateBucket})
	register(command{name: "create-role", summary: "Create the Elastic Transcoder IAM role", run: runCreateRole})
	register(command{name: "create-topic", summary: "Create the SNS notification topic", run: runCreateTopic})
	register(command{name: "subscribe-endpoint", summary: "Subscribe the webhook endpoint to the topic", run: runSubscribeEndpoint})
	register(command{name: "update-pipeline", summary: "Create or update the Elastic Transcoder pipeline", run: runUpdatePipeline})
	register(command{name: "test-role", summary: "Check the IAM role can be used by a pipeline", run: runTestRole})
	register(command{name: "setup", summary: "Provision everything needed to start encoding", run: runSetup})
	register(command{name: "list-sns-regions", summary: "List regions SNS can be used in", run: listRegionsFor(aws.ServiceSNS)})
	register(command{name: "list-transcoder-regions", summary: "List regions Elastic Transcoder can be used in", run: listRegionsFor(aws.ServiceTranscoder)})
	register(command{name: "list-regions", summary: "List regions for --service s3|iam|sns|transcoder", run: runListRegions})
}

func runCreateBucket(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("create-bucket", a.stderr)
	name := fs.String("bucket", "", "bucket name, generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, _, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceS3))
	if err != nil {
		return err
	}

	res, err := backend.EnsureBucket(ctx, *name)
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "bucket: %s\narn: %s\n", res.Bucket, res.ARN)
	return nil
}

func runCreateRole(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("create-role", a.stderr)
	name := fs.String("role", "", "role name, generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, _, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceIAM))
	if err != nil {
		return err
	}

	res, err := backend.EnsureRole(ctx, *name)
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "role: %s\narn: %s\n", res.Role, res.ARN)
	return nil
}

func runCreateTopic(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("create-topic", a.stderr)
	name := fs.String("topic", "", "topic name (last part of the ARN), generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, _, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceSNS))
	if err != nil {
		return err
	}

	res, err := backend.EnsureTopic(ctx, *name)
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "name: %s\narn: %s\n", res.Name, res.ARN)
	return nil
}

func runSubscribeEndpoint(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("subscribe-endpoint", a.stderr)
	topic := fs.String("topic", "", "topic name, created when missing; generated when empty")
	protocol := fs.String("protocol", "http", `"http" or "https"`)
	domain := fs.String("domain", "", `e.g. "www.example.com" or "203.0.113.1:8080"`)
	alias := fs.String("alias", "", `e.g. "/script/url/alias" if needed`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *domain == "" {
		return fmt.Errorf("%w: the 'domain' flag is required", aws.ErrMissingParameter)
	}

	// Settings are needed for the endpoint path before any AWS call
	cfg, err := a.loadConfig(common.settings)
	if err != nil {
		return err
	}
	endpoint, err := aws.EndpointURL(*protocol, *domain, *alias, cfg.Transcoder.EndpointPath)
	if err != nil {
		return err
	}

	backend, _, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceSNS))
	if err != nil {
		return err
	}

	topicRes, err := backend.EnsureTopic(ctx, *topic)
	if err != nil {
		return err
	}

	res, err := backend.SubscribeEndpoint(ctx, topicRes.ARN, endpoint)
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "topic_arn: %s\nendpoint: %s\nsubscription: %s\n", res.TopicARN, res.Endpoint, res.SubscriptionARN)
	return nil
}

// pipelineFlags registers the resource flags shared by update-pipeline and
// test-role. Unset flags fall back to the settings.
type pipelineFlags struct {
	inputBucket  *string
	outputBucket *string
	topicARN     *string
	role         *string
}

func addPipelineFlags(fs *flag.FlagSet) *pipelineFlags {
	return &pipelineFlags{
		inputBucket:  fs.String("inputbucket", "", "input bucket, defaults to ELASTIC_TRANSCODER_INPUT_BUCKET"),
		outputBucket: fs.String("outputbucket", "", "output bucket, defaults to ELASTIC_TRANSCODER_OUTPUT_BUCKET"),
		topicARN:     fs.String("topicarn", "", "notification topic ARN, defaults to ELASTIC_TRANSCODER_TOPIC_ARN"),
		role:         fs.String("role", "", "IAM role ARN, defaults to ELASTIC_TRANSCODER_IAM_ROLE"),
	}
}

func (p *pipelineFlags) spec(name string, t config.TranscoderConfig) aws.PipelineSpec {
	pick := func(flagValue, setting string) string {
		if flagValue != "" {
			return flagValue
		}
		return setting
	}
	return aws.PipelineSpec{
		Name:         name,
		InputBucket:  pick(*p.inputBucket, t.InputBucket),
		OutputBucket: pick(*p.outputBucket, t.OutputBucket),
		TopicARN:     pick(*p.topicARN, t.TopicARN),
		Role:         pick(*p.role, t.IAMRole),
	}
}

func runUpdatePipeline(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("update-pipeline", a.stderr)
	name := fs.String("pipeline", "", "pipeline name, defaults to ELASTIC_TRANSCODER_PIPELINE or a generated one")
	resources := addPipelineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, cfg, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceTranscoder))
	if err != nil {
		return err
	}

	pipelineName := *name
	if pipelineName == "" {
		pipelineName = cfg.Transcoder.Pipeline
	}

	res, err := backend.EnsurePipeline(ctx, resources.spec(pipelineName, cfg.Transcoder))
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "pipeline: %s\nid: %s\n", res.Name, res.ID)
	return nil
}

func runTestRole(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("test-role", a.stderr)
	resources := addPipelineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, cfg, _, err := a.connect(ctx, common, aws.Regions(aws.ServiceTranscoder))
	if err != nil {
		return err
	}

	res, err := backend.TestRole(ctx, resources.spec("", cfg.Transcoder))
	if err != nil {
		return err
	}
	if common.json {
		return writeJSON(a.stdout, res)
	}

	if res.Success {
		fmt.Fprintln(a.stdout, "Test successful")
	} else {
		fmt.Fprintln(a.stdout, "Test failed")
	}
	for i, msg := range res.Messages {
		fmt.Fprintf(a.stdout, "  %d. %s\n", i+1, msg)
	}
	return nil
}

func runSetup(ctx context.Context, a *app, args []string) error {
	fs, common := newFlagSet("setup", a.stderr)
	var req resource_manager.SetupRequest
	fs.StringVar(&req.InputBucket, "input-bucket", "", "input bucket name, generated when empty")
	fs.StringVar(&req.OutputBucket, "output-bucket", "", "output bucket name, generated when empty")
	fs.StringVar(&req.Role, "role", "", "IAM role name, generated when empty")
	fs.StringVar(&req.Topic, "topic", "", "SNS topic name, generated when empty")
	fs.StringVar(&req.Pipeline, "pipeline", "", "pipeline name, generated when empty")
	writeSettings := fs.String("write-settings", "", "store the resulting resource names in this YAML settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, cfg, region, err := a.connect(ctx, common, aws.SetupRegions())
	if err != nil {
		return err
	}

	narration := a.stdout
	if common.json {
		narration = io.Discard
	}
	summary, err := resource_manager.NewProvisioner(backend, region, narration).Setup(ctx, req)
	if err != nil {
		return err
	}

	if *writeSettings != "" {
		t := cfg.Transcoder
		t.InputBucket = summary.InBucket
		t.OutputBucket = summary.OutBucket
		t.IAMRole = summary.RoleARN
		t.TopicARN = summary.TopicARN
		t.Pipeline = summary.Pipeline
		if err := config.SaveSettings(*writeSettings, t); err != nil {
			return err
		}
	}

	if common.json {
		return writeJSON(a.stdout, summary)
	}
	fmt.Fprintln(a.stdout, strings.Repeat("~", 16))
	resource_manager.WriteSummary(a.stdout, summary)
	return nil
}

func listRegionsFor(svc aws.Service) func(ctx context.Context, a *app, args []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fmt.Fprintln(a.stdout, formatRegions(aws.Regions(svc)))
		return nil
	}
}

func runListRegions(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list-regions", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	service := fs.String("service", "", "one of s3, iam, sns, transcoder; every setup region when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *service == "" {
		fmt.Fprintln(a.stdout, formatRegions(aws.SetupRegions()))
		return nil
	}
	svc, err := aws.ParseService(*service)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, formatRegions(aws.Regions(svc)))
	return nil
}
