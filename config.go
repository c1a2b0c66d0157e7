package prospect

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kerem-ae/prospect/openrouter"
	"github.com/spf13/viper"
)

// Config holds the application configuration. File-backed values live in
// config.yaml under the home directory; credentials and toggles come from the
// environment (optionally via a .env file next to the config) and are never
// written to disk.
type Config struct {
	viper      *viper.Viper
	HomeDir    string `mapstructure:"home_dir"`    // Current home dir
	Address    string `mapstructure:"address"`     // Listen address
	Port       string `mapstructure:"port"`        // Listen port
	Model      string `mapstructure:"model"`       // OpenRouter model identifier
	BaseURL    string `mapstructure:"base_url"`    // OpenRouter API root
	ReportsDir string `mapstructure:"reports_dir"` // Reports directory, relative to the home dir

	APIKey    string `mapstructure:"-"` // OPENROUTER_API_KEY
	SecretKey string `mapstructure:"-"` // SECRET_KEY, signs the session cookie
	Debug     bool   `mapstructure:"-"` // DEBUG
}

// NewConfig returns a Config populated with the built-in defaults. The values
// are replaced when a home directory is configured through WithHomeDir.
func NewConfig() *Config {
	return &Config{
		Address:    "127.0.0.1",
		Port:       "5001",
		Model:      "google/gemini-2.0-flash-001",
		BaseURL:    openrouter.DefaultBaseURL,
		ReportsDir: "reports",
		SecretKey:  "dev-secret-key",
	}
}

// LoadEnv reads the optional .env file in the home directory and then applies
// the process environment on top. PORT overrides the configured port, which
// is how hosted platforms inject their assigned port.
func (cfg *Config) LoadEnv(homeDir string) error {
	envPath := filepath.Join(homeDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading %s : %w", envPath, err)
	}

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.SecretKey = secret
	}
	if debug := os.Getenv("DEBUG"); debug != "" {
		parsed, err := strconv.ParseBool(debug)
		if err != nil {
			return fmt.Errorf("parsing DEBUG value %q : %w", debug, err)
		}
		cfg.Debug = parsed
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	return nil
}

// Validate checks that the configuration is complete enough to serve.
func (cfg *Config) Validate() error {
	if cfg.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY not set")
	}
	return nil
}

// ListenAddr returns the address:port the HTTP service binds to.
func (cfg *Config) ListenAddr() string {
	return net.JoinHostPort(cfg.Address, cfg.Port)
}

// ReportsPath returns the absolute path of the reports directory.
func (cfg *Config) ReportsPath() string {
	return filepath.Join(cfg.HomeDir, cfg.ReportsDir)
}

// NewLLMClient builds an OpenRouter client from the configured credentials.
func (cfg *Config) NewLLMClient() *openrouter.Client {
	client := openrouter.NewClient(cfg.APIKey, cfg.Model)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	client.Referer = fmt.Sprintf("http://%s", cfg.ListenAddr())
	client.Title = "Business Matcher"
	return client
}
