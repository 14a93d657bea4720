// Package lambdaboot runs the Lambda cold-start bootstrap: AWS config, the Gemini API
// key from SSM Parameter Store, and the startup summary.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/auth"
	"github.com/fpang/auralens/internal/logging"
)

// DefaultAPIKeyParam is the SSM parameter holding the Gemini API key.
const DefaultAPIKeyParam = "/auralens/prod/gemini-api-key"

// apiKeyEnv is where a key fetched from SSM is exported for config.FromEnv.
const apiKeyEnv = "GEMINI_API_KEY"

// AWSClients holds the AWS SDK clients used at cold start.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// ParameterGetter is the SSM call LoadGeminiKey makes. *ssm.Client satisfies it.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config from the Lambda environment.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{Config: cfg, SSM: ssm.NewFromConfig(cfg)}, nil
}

// APIKeyParam returns the SSM parameter name, overridable via SSM_API_KEY_PARAM.
func APIKeyParam() string {
	return logging.EnvOrDefault("SSM_API_KEY_PARAM", DefaultAPIKeyParam)
}

// LoadGeminiKey exports the API key from SSM unless the environment already carries
// one. A parameter that exists but is blank is an error: deploying without a key
// should fail at cold start rather than on the first request.
func LoadGeminiKey(ctx context.Context, client ParameterGetter) error {
	if cred := auth.EnvCredential(); cred.Present() {
		log.Debug().Str("source", cred.Source()).Msg("API key already in environment; skipping SSM")
		return nil
	}

	name := APIKeyParam()
	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to read API key from SSM parameter %s: %w", name, err)
	}

	var value string
	if out.Parameter != nil {
		value = aws.ToString(out.Parameter.Value)
	}
	if !auth.NewCredential(value, name).Present() {
		return fmt.Errorf("SSM parameter %s is empty", name)
	}
	if err := os.Setenv(apiKeyEnv, value); err != nil {
		return fmt.Errorf("failed to export API key: %w", err)
	}

	log.Debug().Str("param", name).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return nil
}

// Startup returns the startup summary for a Lambda binary, with the init duration
// measured from initStart and the key parameter recorded.
func Startup(name string, initStart time.Time) logging.Startup {
	return logging.Startup{
		Name:         name,
		InitDuration: time.Since(initStart),
		Params:       map[string]string{"geminiKey": APIKeyParam()},
	}
}
