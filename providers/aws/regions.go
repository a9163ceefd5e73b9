package aws

import (
	"fmt"
	"sort"
	"strings"
)

// Service names a provisioned AWS service
type Service string

const (
	ServiceS3         Service = "s3"
	ServiceIAM        Service = "iam"
	ServiceSNS        Service = "sns"
	ServiceTranscoder Service = "elastictranscoder"
)

// DefaultRegion is used when neither a flag nor the settings name a region
const DefaultRegion = "us-east-1"

var commercialRegions = []string{
	"af-south-1",
	"ap-east-1",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-northeast-3",
	"ap-south-1",
	"ap-southeast-1",
	"ap-southeast-2",
	"ca-central-1",
	"eu-central-1",
	"eu-north-1",
	"eu-south-1",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"me-south-1",
	"sa-east-1",
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
}

// Elastic Transcoder only ever launched in a handful of regions
var transcoderRegions = []string{
	"ap-northeast-1",
	"ap-south-1",
	"ap-southeast-1",
	"ap-southeast-2",
	"eu-west-1",
	"us-east-1",
	"us-west-1",
	"us-west-2",
}

var supportedRegions = map[Service][]string{
	ServiceS3:         commercialRegions,
	ServiceIAM:        commercialRegions,
	ServiceSNS:        commercialRegions,
	ServiceTranscoder: transcoderRegions,
}

// Regions returns the sorted set of regions svc can be provisioned in
func Regions(svc Service) []string {
	regions := append([]string(nil), supportedRegions[svc]...)
	sort.Strings(regions)
	return regions
}

// SetupRegions returns every region accepted by at least one service
func SetupRegions() []string {
	seen := make(map[string]bool)
	var regions []string
	for _, list := range supportedRegions {
		for _, r := range list {
			if !seen[r] {
				seen[r] = true
				regions = append(regions, r)
			}
		}
	}
	sort.Strings(regions)
	return regions
}

// ParseService maps a command line service name to a Service
func ParseService(name string) (Service, error) {
	switch strings.ToLower(name) {
	case "s3":
		return ServiceS3, nil
	case "iam":
		return ServiceIAM, nil
	case "sns":
		return ServiceSNS, nil
	case "transcoder", "elastictranscoder", "ets":
		return ServiceTranscoder, nil
	}
	return "", fmt.Errorf("unknown service %q", name)
}

// ResolveRegion picks the region for svc: the requested one, otherwise the
// configured default, otherwise DefaultRegion. defaulted reports the last
// case so callers can warn about it.
func ResolveRegion(regions []string, requested, configured string) (region string, defaulted bool, err error) {
	switch {
	case requested != "":
		if !contains(regions, requested) {
			return "", false, fmt.Errorf("%w %q: region must be one of %s", ErrInvalidRegion, requested, strings.Join(regions, ", "))
		}
		return requested, false, nil
	case configured != "":
		if !contains(regions, configured) {
			return "", false, fmt.Errorf("%w %q specified as AWS_REGION: region must be one of %s", ErrInvalidRegion, configured, strings.Join(regions, ", "))
		}
		return configured, false, nil
	default:
		return DefaultRegion, true, nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
