package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName names the cache directory and the keyring service.
const AppName = "inboxdraft"

// Defaults for the optional settings.
const (
	DefaultIMAPAddr      = "imap.gmail.com:993"
	DefaultSMTPAddr      = "smtp.gmail.com:465"
	DefaultDraftsMailbox = "[Gmail]/Drafts"
	DefaultModel         = "claude-sonnet-4-20250514"
	DefaultMaxTokens     = 1000
	DefaultMaxResults    = 10
)

// Configuration keys. Each one is bound to the environment variable of the
// same name in upper case.
const (
	keyEmailUser         = "email_user"
	keyEmailPassword     = "email_app_password"
	keyEmailUseKeyring   = "email_use_keyring"
	keyAnthropicAPIKey   = "anthropic_api_key"
	keyGuidelinesDocID   = "guidelines_doc_id"
	keyIMAPAddr          = "imap_addr"
	keySMTPAddr          = "smtp_addr"
	keyDraftsMailbox     = "drafts_mailbox"
	keyAnthropicModel    = "anthropic_model"
	keyAnthropicMaxToken = "anthropic_max_tokens"
	keyCredentialsFile   = "google_credentials_file"
	keyTokenFile         = "google_token_file"
	keyLogLevel          = "log_level"
	keyLogFormat         = "log_format"
)

// ErrMissingRequired is returned by Validate when a required setting is absent.
var ErrMissingRequired = errors.New("missing required configuration")

// Config is the startup configuration of the server.
type Config struct {
	// EmailUser is the mailbox address. It also selects the to_me/cc_me bucket.
	EmailUser string
	// EmailPassword is the application-scoped mailbox secret.
	EmailPassword string
	// AnthropicAPIKey authenticates reply generation.
	AnthropicAPIKey string
	// GuidelinesDocID is the Google Doc holding writing guidelines. Empty disables guidelines.
	GuidelinesDocID string

	IMAPAddr      string
	SMTPAddr      string
	DraftsMailbox string

	Model     string
	MaxTokens int

	// GoogleCredentialsFile holds the OAuth client secrets ("installed" app JSON).
	GoogleCredentialsFile string
	// GoogleTokenFile caches the Docs OAuth token between runs.
	GoogleTokenFile string

	LogLevel  string
	LogFormat string
}

// Options tune how Load resolves settings.
type Options struct {
	// ConfigFile is an optional YAML file read before the environment.
	ConfigFile string
	// EnvFile is the dotenv file to load. Empty means ".env" in the working directory.
	EnvFile string
	// Secrets resolves the mailbox secret when EMAIL_USE_KEYRING is set.
	// Nil means the system keyring.
	Secrets SecretStore
	// Partial skips the keyring lookup and validation, for commands that only
	// need the file locations and optional settings.
	Partial bool
}

// Load resolves the configuration from a dotenv file, an optional config
// file and the process environment, in increasing order of precedence, and
// validates it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Debug("dotenv file not loaded, using environment variables", "file", envFile, "error", err)
	}

	v := newViper()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", opts.ConfigFile, err)
		}
	}

	cfg := fromViper(v)
	if opts.Partial {
		return cfg, nil
	}

	if cfg.EmailPassword == "" && v.GetBool(keyEmailUseKeyring) && cfg.EmailUser != "" {
		secrets := opts.Secrets
		if secrets == nil {
			secrets = NewKeyringStore()
		}
		secret, err := secrets.Get(cfg.EmailUser)
		if err != nil {
			return nil, fmt.Errorf("reading mailbox secret from keyring: %w", err)
		}
		cfg.EmailPassword = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	cacheDir := filepath.Join(UserCacheDir(), AppName)
	v.SetDefault(keyIMAPAddr, DefaultIMAPAddr)
	v.SetDefault(keySMTPAddr, DefaultSMTPAddr)
	v.SetDefault(keyDraftsMailbox, DefaultDraftsMailbox)
	v.SetDefault(keyAnthropicModel, DefaultModel)
	v.SetDefault(keyAnthropicMaxToken, DefaultMaxTokens)
	v.SetDefault(keyCredentialsFile, filepath.Join(cacheDir, "credentials.json"))
	v.SetDefault(keyTokenFile, filepath.Join(cacheDir, "docs.token"))
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyEmailUseKeyring, false)

	for _, key := range []string{
		keyEmailUser, keyEmailPassword, keyEmailUseKeyring, keyAnthropicAPIKey,
		keyGuidelinesDocID, keyIMAPAddr, keySMTPAddr, keyDraftsMailbox,
		keyAnthropicModel, keyAnthropicMaxToken, keyCredentialsFile, keyTokenFile,
		keyLogLevel, keyLogFormat,
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		EmailUser:             strings.TrimSpace(v.GetString(keyEmailUser)),
		EmailPassword:         v.GetString(keyEmailPassword),
		AnthropicAPIKey:       strings.TrimSpace(v.GetString(keyAnthropicAPIKey)),
		GuidelinesDocID:       strings.TrimSpace(v.GetString(keyGuidelinesDocID)),
		IMAPAddr:              v.GetString(keyIMAPAddr),
		SMTPAddr:              v.GetString(keySMTPAddr),
		DraftsMailbox:         v.GetString(keyDraftsMailbox),
		Model:                 v.GetString(keyAnthropicModel),
		MaxTokens:             v.GetInt(keyAnthropicMaxToken),
		GoogleCredentialsFile: expandHome(v.GetString(keyCredentialsFile)),
		GoogleTokenFile:       expandHome(v.GetString(keyTokenFile)),
		LogLevel:              v.GetString(keyLogLevel),
		LogFormat:             v.GetString(keyLogFormat),
	}
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	var missing []string
	if c.EmailUser == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if c.EmailPassword == "" {
		missing = append(missing, "EMAIL_APP_PASSWORD")
	}
	if c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("ANTHROPIC_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.IMAPAddr == "" || c.SMTPAddr == "" {
		return fmt.Errorf("IMAP_ADDR and SMTP_ADDR must not be empty")
	}
	return nil
}

// GuidelinesEnabled reports whether a guidelines document is configured.
func (c *Config) GuidelinesEnabled() bool {
	return c.GuidelinesDocID != ""
}

// UserCacheDir returns the per-user cache directory for the current platform.
func UserCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
