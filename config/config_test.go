package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")
	t.Setenv("ACCOUNT_TYPE", "UNIFIED")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_GROUP_ID", "-100")
	t.Setenv("CHECK_INTERVAL", "60")
}

// go test -v --run TestLoadFromLegacyEnv
func TestLoadFromLegacyEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.Bybit.APIKey)
	assert.Equal(t, "secret", cfg.Bybit.APISecret)
	assert.Equal(t, "UNIFIED", cfg.Bybit.AccountType)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "-100", cfg.Telegram.GroupID)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval())

	// defaults
	assert.Equal(t, "https://api.bybit.com/v5", cfg.Bybit.REST.BaseURL)
	assert.Equal(t, "20000", cfg.Bybit.REST.RecvWindow)
	assert.Equal(t, 15*time.Second, cfg.Bybit.REST.Timeout)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.BaseURL)
	assert.Equal(t, 10, cfg.Scheduler.PositionsLimit)
	assert.Equal(t, 100, cfg.Scheduler.ClosedPnlLimit)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.StageTimeout)
	assert.Equal(t, "1m", cfg.Report.Timeframe)
	assert.Equal(t, SecretsFromEnv, cfg.Secrets.Source)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
bybit:
  rest:
    timeout: 5s
  api_key: file-key
  api_secret: file-secret
  account_type: CONTRACT
telegram:
  bot_token: file-token
  group_id: "42"
scheduler:
  check_interval: 300
  positions_limit: 20
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("BYBIT_API_KEY", "env-key")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Bybit.APIKey)
	assert.Equal(t, "file-secret", cfg.Bybit.APISecret)
	assert.Equal(t, "CONTRACT", cfg.Bybit.AccountType)
	assert.Equal(t, 5*time.Second, cfg.Bybit.REST.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval())
	assert.Equal(t, 20, cfg.Scheduler.PositionsLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFailsFastOnMissing(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "key")

	_, err := Load(context.Background(), t.TempDir())
	require.Error(t, err)
	for _, key := range []string{"bybit.api_secret", "bybit.account_type", "telegram.bot_token", "telegram.group_id"} {
		assert.Contains(t, err.Error(), key)
	}
	assert.NotContains(t, err.Error(), "bybit.api_key,")
}

func TestLoadRejectsBadInterval(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("CHECK_INTERVAL", "0")
	_, err := Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "check_interval")

	t.Setenv("CHECK_INTERVAL", "hourly")
	_, err = Load(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("bybit: [unterminated"), 0o600))

	_, err := Load(context.Background(), dir)
	assert.ErrorContains(t, err, "failed to read config")
}

type fakeSSM struct {
	values map[string]string
	calls  []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	f.calls = append(f.calls, name)
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	v, ok := f.values[name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{
		Bybit:    BybitConfig{APIKey: "env-key", APISecret: "env-secret"},
		Telegram: TelegramConfig{BotToken: "env-token"},
		Secrets: SecretsConfig{
			Source:         SecretsFromSSM,
			BybitAPIKey:    "/notifier/bybit/key",
			BybitAPISecret: "/notifier/bybit/secret",
		},
	}
	getter := &fakeSSM{values: map[string]string{
		"/notifier/bybit/key":    "ssm-key",
		"/notifier/bybit/secret": "ssm-secret",
	}}

	require.NoError(t, resolveSecrets(context.Background(), cfg, getter))
	assert.Equal(t, "ssm-key", cfg.Bybit.APIKey)
	assert.Equal(t, "ssm-secret", cfg.Bybit.APISecret)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, []string{"/notifier/bybit/key", "/notifier/bybit/secret"}, getter.calls)
}

func TestResolveSecretsMissingParameter(t *testing.T) {
	cfg := &Config{Secrets: SecretsConfig{Source: SecretsFromSSM, TelegramBotToken: "/notifier/telegram/token"}}

	err := resolveSecrets(context.Background(), cfg, &fakeSSM{})
	assert.ErrorContains(t, err, "/notifier/telegram/token")
}
