package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// RoleResult identifies a provisioned IAM role
type RoleResult struct {
	Role    string `json:"role"`
	ARN     string `json:"arn"`
	Created bool   `json:"created"`
}

// AssumeRolePolicy lets Elastic Transcoder assume the role
const AssumeRolePolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"elastictranscoder.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

// AccessPolicyName is the inline policy attached to new roles
const AccessPolicyName = "ets-console-generated-policy-copied-on-2014-05-18"

// AccessPolicy matches the default the Elastic Transcoder console attaches
const AccessPolicy = `{"Version":"2008-10-17","Statement":[{"Sid":"1","Effect":"Allow","Action":["s3:ListBucket","s3:Put*","s3:Get*","s3:*MultipartUpload*"],"Resource":"*"},{"Sid":"2","Effect":"Allow","Action":"sns:Publish","Resource":"*"},{"Sid":"3","Effect":"Deny","Action":["s3:*Policy*","sns:*Permission*","sns:*Delete*","s3:*Delete*","sns:*Remove*"],"Resource":"*"}]}`

// EnsureRole creates the named role with the transcoder trust and access
// policies unless a role with that name exists. An empty name generates one.
func (c *Client) EnsureRole(ctx context.Context, name string) (*RoleResult, error) {
	if name == "" {
		name = GenerateName()
	}

	arn, err := c.findRoleARN(ctx, name)
	if err != nil {
		return nil, err
	}
	if arn != "" {
		c.logf("Role %q already exists with ARN %q", name, arn)
		return &RoleResult{Role: name, ARN: arn}, nil
	}

	out, err := c.iamClient.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(AssumeRolePolicy),
		Path:                     aws.String("/"),
	})
	if err != nil {
		return nil, upstream("iam CreateRole", err)
	}

	_, err = c.iamClient.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(name),
		PolicyName:     aws.String(AccessPolicyName),
		PolicyDocument: aws.String(AccessPolicy),
	})
	if err != nil {
		return nil, upstream("iam PutRolePolicy", err)
	}

	arn = aws.ToString(out.Role.Arn)
	c.logf("Created role %q with ARN %q", name, arn)
	return &RoleResult{Role: name, ARN: arn, Created: true}, nil
}

func (c *Client) findRoleARN(ctx context.Context, name string) (string, error) {
	var marker *string
	for {
		out, err := c.iamClient.ListRoles(ctx, &iam.ListRolesInput{Marker: marker})
		if err != nil {
			return "", upstream("iam ListRoles", err)
		}

		for _, r := range out.Roles {
			if aws.ToString(r.RoleName) == name {
				return aws.ToString(r.Arn), nil
			}
		}

		if !out.IsTruncated || out.Marker == nil {
			return "", nil
		}
		marker = out.Marker
	}
}
