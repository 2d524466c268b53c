package email

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// sesAPI is the part of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends through AWS SES v2.
type SES struct {
	client           sesAPI
	configurationSet string
}

// NewSES loads AWS config for cfg.Region. Static keys are used when both are
// set; otherwise the default credential chain applies.
func NewSES(ctx context.Context, cfg config.SESConfig) (*SES, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewSESWithClient(sesv2.NewFromConfig(awsCfg), cfg.ConfigurationSet), nil
}

// NewSESWithClient wraps an existing client.
func NewSESWithClient(client sesAPI, configurationSet string) *SES {
	return &SES{client: client, configurationSet: configurationSet}
}

// Configured reports whether a client exists.
func (s *SES) Configured() bool { return s.client != nil }

// Provider returns domain.ProviderSES.
func (s *SES) Provider() domain.Provider { return domain.ProviderSES }

// Send delivers msg as a simple SES message.
func (s *SES) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("ses: %w", ErrNotConfigured)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	if s.configurationSet != "" {
		input.ConfigurationSetName = aws.String(s.configurationSet)
	}
	if len(msg.Tags) > 0 {
		names := make([]string, 0, len(msg.Tags))
		for k := range msg.Tags {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			input.EmailTags = append(input.EmailTags, types.MessageTag{Name: aws.String(k), Value: aws.String(msg.Tags[k])})
		}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ses: send: %w", err)
	}
	id := aws.ToString(out.MessageId)
	logger.Debug("ses accepted message", "recipient", msg.To, "message_id", id)
	return &domain.SendResult{MessageID: id, Provider: domain.ProviderSES, SentAt: time.Now().UTC()}, nil
}
