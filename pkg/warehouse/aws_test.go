package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

func TestAWSPreflight_StaticCredentials(t *testing.T) {
	p := &AWSPreflight{Options: []func(*config.LoadOptions) error{
		config.WithRegion("eu-central-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "")),
	}}

	if err := p.Check(context.Background(), Settings{Timeout: 2 * time.Second}); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestAWSPreflight_NoIdentity(t *testing.T) {
	p := &AWSPreflight{Options: []func(*config.LoadOptions) error{
		config.WithRegion("eu-central-1"),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, errors.New("no EC2 IMDS role found")
		})),
	}}

	err := p.Check(context.Background(), Settings{Timeout: 2 * time.Second})
	if err == nil || !strings.Contains(err.Error(), "ambient workload identity unavailable") {
		t.Errorf("expected identity error, got %v", err)
	}
}

func TestWorkloadIdentity_WithAWSPreflight(t *testing.T) {
	w := &WorkloadIdentity{Preflight: (&AWSPreflight{Options: []func(*config.LoadOptions) error{
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "token")),
	}}).Check}

	cfg, err := w.Config(context.Background(), Settings{Account: "acc", Timeout: time.Second})
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.WorkloadIdentityProvider != "AWS" {
		t.Errorf("provider = %q", cfg.WorkloadIdentityProvider)
	}
}
