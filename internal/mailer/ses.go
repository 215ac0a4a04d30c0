package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/givebridge/givebridge/internal/config"
)

// SESProvider sends mail through the AWS SES v2 API.
type SESProvider struct {
	client  *sesv2.Client
	from    string
	timeout config.SESConfig
}

// NewSESProvider creates an SES provider with static credentials.
func NewSESProvider(ctx context.Context, cfg config.MailerConfig) (*SESProvider, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.SES.AccessKey,
		cfg.SES.SecretKey,
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.SES.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESProvider{
		client:  sesv2.NewFromConfig(awsCfg),
		from:    formatAddress(cfg.FromName, cfg.FromEmail),
		timeout: cfg.SES,
	}, nil
}

// Send delivers one message via SES. A per-send timeout bounds slow API
// calls so one stuck recipient cannot stall the whole batch.
func (p *SESProvider) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout.Timeout())
	defer cancel()

	body := &types.Body{
		Html: &types.Content{Data: aws.String(msg.HTMLBody)},
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.from),
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(msg.ToName, msg.To)},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    body,
			},
		},
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
