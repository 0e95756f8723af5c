package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	fsolana "github.com/brojonat/framprelay/service/solana"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Default upstream endpoints and tuning values. These are only consulted when
// neither the caller nor the environment supplies a value.
const (
	DefaultJupiterAPIURL            = "https://quote-api.jup.ag/v6"
	DefaultAirbillsVendorURL        = "https://vendor.airbillspay.com"
	DefaultSolscanAPIURL            = "https://pro-api.solscan.io/v2.0/transaction/detail"
	DefaultStatusTimeout            = 60 * time.Second
	DefaultSlippageBps              = 1000
	DefaultPriorityFeeMicroLamports = 30_000_000
	DefaultServerAddr               = ":8080"
	DefaultLogLevel                 = "info"

	// DefaultFiatPerReferenceUnit is a placeholder rate (local currency units
	// per one reference-asset unit). Deployments must override it.
	DefaultFiatPerReferenceUnit = "1600"

	DefaultReferenceMint    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" // USDC
	DefaultAltReferenceMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB" // USDT
	DefaultInputMint        = "So11111111111111111111111111111111111111112"  // wrapped SOL

	// AltReferenceDisabled, set as AltReferenceMint, turns off the second
	// direct-payment asset so only ReferenceMint skips the swap.
	AltReferenceDisabled = "none"
)

// Config holds everything a relayer needs to reach its upstreams.
// Every field is optional at construction; ApplyDefaults fills the gaps
// from the environment and then from the defaults above.
type Config struct {
	// Server configuration (relay server only)
	ServerAddr string
	LogLevel   string

	// Jupiter quote/swap API
	JupiterAPIURL            string
	SlippageBps              int
	PriorityFeeMicroLamports uint64

	// AirbillsPay vendor API
	AirbillsVendorURL string
	AirbillsSecretKey string

	// Solscan explorer API
	SolscanAPIURL string
	SolscanAPIKey string
	StatusTimeout time.Duration

	// Asset routing
	ReferenceMint        string
	AltReferenceMint     string
	DefaultInputMint     string
	FiatPerReferenceUnit decimal.Decimal
}

// Load reads configuration from environment variables, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ApplyDefaults fills every zero-valued field, first from the environment and
// then from the package defaults. Fields already set are left alone.
func (c *Config) ApplyDefaults() error {
	var errs []error

	setString(&c.ServerAddr, "SERVER_ADDR", DefaultServerAddr)
	setString(&c.LogLevel, "LOG_LEVEL", DefaultLogLevel)

	setString(&c.JupiterAPIURL, "JUPITER_API_URL", DefaultJupiterAPIURL)
	if c.SlippageBps == 0 {
		v, err := parseInt("SLIPPAGE_BPS", DefaultSlippageBps)
		if err != nil {
			errs = append(errs, err)
		}
		c.SlippageBps = v
	}
	if c.PriorityFeeMicroLamports == 0 {
		v, err := parseUint("PRIORITY_FEE_MICRO_LAMPORTS", DefaultPriorityFeeMicroLamports)
		if err != nil {
			errs = append(errs, err)
		}
		c.PriorityFeeMicroLamports = v
	}

	setString(&c.AirbillsVendorURL, "AIRBILLS_VENDOR_URL", DefaultAirbillsVendorURL)
	setString(&c.AirbillsSecretKey, "AIRBILLS_SECRET_KEY", "")

	setString(&c.SolscanAPIURL, "SOLSCAN_API_URL", DefaultSolscanAPIURL)
	setString(&c.SolscanAPIKey, "SOLSCAN_API_KEY", "")
	if c.StatusTimeout == 0 {
		v, err := parseDuration("STATUS_TIMEOUT", DefaultStatusTimeout.String())
		if err != nil {
			errs = append(errs, err)
		}
		c.StatusTimeout = v
	}

	setString(&c.ReferenceMint, "REFERENCE_MINT", DefaultReferenceMint)
	setString(&c.AltReferenceMint, "ALT_REFERENCE_MINT", DefaultAltReferenceMint)
	setString(&c.DefaultInputMint, "DEFAULT_INPUT_MINT", DefaultInputMint)
	if c.FiatPerReferenceUnit.IsZero() {
		v, err := parseDecimal("FIAT_PER_REFERENCE_UNIT", DefaultFiatPerReferenceUnit)
		if err != nil {
			errs = append(errs, err)
		}
		c.FiatPerReferenceUnit = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.JupiterAPIURL == "" {
		errs = append(errs, fmt.Errorf("JupiterAPIURL is required"))
	}
	if c.AirbillsVendorURL == "" {
		errs = append(errs, fmt.Errorf("AirbillsVendorURL is required"))
	}
	if c.SolscanAPIURL == "" {
		errs = append(errs, fmt.Errorf("SolscanAPIURL is required"))
	}

	if c.SlippageBps <= 0 || c.SlippageBps > 10_000 {
		errs = append(errs, fmt.Errorf("SlippageBps must be between 1 and 10000, got %d", c.SlippageBps))
	}
	if c.StatusTimeout < 0 {
		errs = append(errs, fmt.Errorf("StatusTimeout cannot be negative"))
	}
	if !c.FiatPerReferenceUnit.IsPositive() {
		errs = append(errs, fmt.Errorf("FiatPerReferenceUnit must be positive"))
	}

	mints := map[string]string{
		"ReferenceMint":    c.ReferenceMint,
		"DefaultInputMint": c.DefaultInputMint,
	}
	if c.AltReferenceEnabled() {
		mints["AltReferenceMint"] = c.AltReferenceMint
	}
	for name, mint := range mints {
		if mint == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not a valid mint address: %w", name, mint, err))
			continue
		}
		// The vendor charges by ticker, so reference assets must map to one.
		if name != "DefaultInputMint" {
			if _, ok := fsolana.MintSymbol(key); !ok {
				errs = append(errs, fmt.Errorf("%s %q is not an asset the bill vendor accepts", name, mint))
			}
		}
	}
	if c.ReferenceMint == "" {
		errs = append(errs, fmt.Errorf("ReferenceMint is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// AltReferenceEnabled reports whether a second direct-payment asset is
// configured.
func (c *Config) AltReferenceEnabled() bool {
	return c.AltReferenceMint != "" && c.AltReferenceMint != AltReferenceDisabled
}

// setString assigns the environment value or a default to an empty field.
func setString(field *string, key, defaultValue string) {
	if *field != "" {
		return
	}
	*field = getEnvOrDefault(key, defaultValue)
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

func parseUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid unsigned integer %q: %w", key, value, err)
	}
	return result, nil
}

func parseDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvOrDefault(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return d, nil
}
