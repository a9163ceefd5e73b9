// Command encoderctl provisions the AWS resources the encoder webhook
// depends on: buckets, the transcoder IAM role, the SNS topic and its
// endpoint subscription, and the Elastic Transcoder pipeline.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"encoder-pipeline/config"
	"encoder-pipeline/core/logging"
	"encoder-pipeline/providers/aws"
)

// Backend is the provider surface the commands drive. *aws.Client
// implements it.
type Backend interface {
	EnsureBucket(ctx context.Context, name string) (*aws.BucketResult, error)
	EnsureRole(ctx context.Context, name string) (*aws.RoleResult, error)
	EnsureTopic(ctx context.Context, name string) (*aws.TopicResult, error)
	EnsurePipeline(ctx context.Context, spec aws.PipelineSpec) (*aws.PipelineResult, error)
	SubscribeEndpoint(ctx context.Context, topicARN, endpoint string) (*aws.SubscriptionResult, error)
	TestRole(ctx context.Context, spec aws.PipelineSpec) (*aws.RoleTestResult, error)
	SetOutput(w io.Writer)
}

// BackendFactory builds a Backend for a region
type BackendFactory func(ctx context.Context, creds config.AWSConfig, region string) (Backend, error)

func newAWSBackend(ctx context.Context, creds config.AWSConfig, region string) (Backend, error) {
	return aws.NewClient(ctx, creds, region)
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{}

func register(c command) {
	commands[c.name] = c
}

// app carries what every command shares
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	newBackend BackendFactory
	loadConfig func(path string) (*config.Config, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		logger:     logging.NewText(os.Stderr, slog.LevelInfo),
		newBackend: newAWSBackend,
		loadConfig: config.Load,
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *app) usage() {
	fmt.Fprintln(a.stderr, "Usage: encoderctl <command> [flags]")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %-24s %s\n", name, commands[name].summary)
	}
}

// connect loads the configuration, resolves the region against regions and
// builds the backend. Credentials are checked before anything else.
func (a *app) connect(ctx context.Context, common *commonFlags, regions []string) (Backend, *config.Config, string, error) {
	cfg, err := a.loadConfig(common.settings)
	if err != nil {
		return nil, nil, "", err
	}
	if err := cfg.AWS.Validate(); err != nil {
		return nil, nil, "", err
	}

	region, defaulted, err := aws.ResolveRegion(regions, common.region, cfg.AWS.Region)
	if err != nil {
		return nil, nil, "", err
	}
	if defaulted {
		a.logger.Warn("region was not specified on the command line or in the settings, this is not recommended",
			"region", region)
	}

	backend, err := a.newBackend(ctx, cfg.AWS, region)
	if err != nil {
		return nil, nil, "", err
	}
	if !common.json {
		backend.SetOutput(a.stdout)
	}
	return backend, cfg, region, nil
}

func formatRegions(regions []string) string {
	return strings.Join(regions, "\n")
}
