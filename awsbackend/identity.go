package awsbackend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/eventbridge-contrib/session-harness/harness"
)

// stsAPI is the subset of the STS client used by STSIdentity.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// STSIdentity implements harness.IdentityBackend on an STS client.
type STSIdentity struct {
	client stsAPI
}

var _ harness.IdentityBackend = &STSIdentity{}

func NewSTSIdentity(client stsAPI) *STSIdentity {
	return &STSIdentity{client: client}
}

func (s *STSIdentity) CallerAccountID(ctx context.Context) (string, error) {
	out, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting caller identity: %w", err)
	}
	if aws.ToString(out.Account) == "" {
		return "", fmt.Errorf("getting caller identity: response had no account ID")
	}
	return *out.Account, nil
}
