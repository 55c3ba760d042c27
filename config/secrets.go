package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Secret sources.
const (
	SecretsFromEnv = "env" // config file and environment only
	SecretsFromSSM = "ssm" // AWS SSM Parameter Store
)

// SecretsConfig names the SSM parameters holding credentials. An empty name
// leaves the file/env value in place.
type SecretsConfig struct {
	Source           string `mapstructure:"source"`
	Region           string `mapstructure:"region"`
	BybitAPIKey      string `mapstructure:"bybit_api_key"`
	BybitAPISecret   string `mapstructure:"bybit_api_secret"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
}

// ParameterGetter is the part of *ssm.Client used here.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

const ssmTimeout = 5 * time.Second

func newSSMClient(ctx context.Context, region string) (ParameterGetter, error) {
	ctx, cancel := context.WithTimeout(ctx, ssmTimeout)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// resolveSecrets overwrites credentials with decrypted parameter values.
func resolveSecrets(ctx context.Context, cfg *Config, getter ParameterGetter) error {
	targets := []struct {
		name string
		dst  *string
	}{
		{cfg.Secrets.BybitAPIKey, &cfg.Bybit.APIKey},
		{cfg.Secrets.BybitAPISecret, &cfg.Bybit.APISecret},
		{cfg.Secrets.TelegramBotToken, &cfg.Telegram.BotToken},
	}

	for _, t := range targets {
		if t.name == "" {
			continue
		}
		value, err := getParameterStoreValue(ctx, getter, t.name, true)
		if err != nil {
			return err
		}
		*t.dst = value
	}
	return nil
}

func getParameterStoreValue(ctx context.Context, getter ParameterGetter, parameterName string, decrypt bool) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, ssmTimeout)
	defer cancel()

	result, err := getter.GetParameter(ctxWithTimeout, &ssm.GetParameterInput{
		Name:           aws.String(parameterName),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", fmt.Errorf("ssm parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %s: no value", parameterName)
	}

	return *result.Parameter.Value, nil
}
