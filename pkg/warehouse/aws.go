package warehouse

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"
)

// AWSPreflight проверяет, что цепочка учетных данных AWS SDK находит
// роль инстанса. Без нее Snowflake WIF упадет позже с менее понятной ошибкой.
type AWSPreflight struct {
	// Options передаются в config.LoadDefaultConfig (регион, провайдер учетных данных)
	Options []func(*config.LoadOptions) error
}

// Check загружает конфигурацию SDK и запрашивает учетные данные
func (p *AWSPreflight) Check(ctx context.Context, s Settings) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cfg, err := config.LoadDefaultConfig(ctx, p.Options...)
	if err != nil {
		return fmt.Errorf("aws: load default config: %w", err)
	}
	if cfg.Credentials == nil {
		return fmt.Errorf("aws: no credentials provider in default chain")
	}

	var creds aws.Credentials
	creds, err = cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("aws: ambient workload identity unavailable: %w", err)
	}

	log.Debug().
		Str("source", creds.Source).
		Str("region", cfg.Region).
		Bool("expires", creds.CanExpire).
		Msg("aws ambient identity resolved")
	return nil
}

// AmbientIdentity - проверка с цепочкой SDK по умолчанию
func AmbientIdentity(ctx context.Context, s Settings) error {
	return (&AWSPreflight{}).Check(ctx, s)
}
