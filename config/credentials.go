package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/viper"
)

const (
	CredentialsSourceFile = "file"
	CredentialsSourceSSM  = "ssm"
)

// CredentialsConfig says where the Bybit API key pair comes from.
type CredentialsConfig struct {
	Source         string `mapstructure:"source"` // "file" or "ssm"
	File           string `mapstructure:"file"`
	SSMKeyParam    string `mapstructure:"ssm_key_param"`
	SSMSecretParam string `mapstructure:"ssm_secret_param"`
}

// Credentials is the API key pair used to sign private requests.
type Credentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

var ErrMissingCredentials = errors.New("api_key and api_secret are required")

// LoadCredentials reads the key pair once at startup. Any error here is fatal
// for the process.
func LoadCredentials(ctx context.Context, cfg CredentialsConfig) (Credentials, error) {
	var (
		creds Credentials
		err   error
	)

	switch cfg.Source {
	case "", CredentialsSourceFile:
		creds, err = credentialsFromFile(cfg.File)
	case CredentialsSourceSSM:
		creds, err = credentialsFromSSM(ctx, cfg.SSMKeyParam, cfg.SSMSecretParam)
	default:
		return Credentials{}, fmt.Errorf("unknown credentials source %q", cfg.Source)
	}
	if err != nil {
		return Credentials{}, err
	}

	if creds.APIKey == "" || creds.APISecret == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}

// credentialsFromFile reads a JSON file of the form
// {"api_key": "...", "api_secret": "..."}.
func credentialsFromFile(path string) (Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials file %s: %w", path, err)
	}
	return creds, nil
}

func credentialsFromSSM(ctx context.Context, keyParam, secretParam string) (Credentials, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return Credentials{}, fmt.Errorf("load aws config: %w", err)
	}
	client := ssm.NewFromConfig(awsCfg)

	key, err := getParameterStoreValue(ctxWithTimeout, client, keyParam)
	if err != nil {
		return Credentials{}, err
	}
	secret, err := getParameterStoreValue(ctxWithTimeout, client, secretParam)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{APIKey: key, APISecret: secret}, nil
}

// parameterGetter is the slice of the SSM client used here.
type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func getParameterStoreValue(ctx context.Context, client parameterGetter, parameterName string) (string, error) {
	decrypt := true
	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("get ssm parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %s has no value", parameterName)
	}

	return *result.Parameter.Value, nil
}
