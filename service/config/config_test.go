package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultJupiterAPIURL, cfg.JupiterAPIURL)
	assert.Equal(t, DefaultAirbillsVendorURL, cfg.AirbillsVendorURL)
	assert.Equal(t, DefaultSolscanAPIURL, cfg.SolscanAPIURL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.StatusTimeout)
	assert.Equal(t, 1000, cfg.SlippageBps)
	assert.Equal(t, uint64(30_000_000), cfg.PriorityFeeMicroLamports)
	assert.Equal(t, DefaultReferenceMint, cfg.ReferenceMint)
	assert.Equal(t, DefaultAltReferenceMint, cfg.AltReferenceMint)
	assert.Equal(t, DefaultInputMint, cfg.DefaultInputMint)
	assert.True(t, decimal.NewFromInt(1600).Equal(cfg.FiatPerReferenceUnit))
	assert.Empty(t, cfg.AirbillsSecretKey)
	assert.Empty(t, cfg.SolscanAPIKey)
}

func TestLoad_CustomValues(t *testing.T) {
	cleanupEnv()
	os.Setenv("JUPITER_API_URL", "http://jupiter.local")
	os.Setenv("AIRBILLS_VENDOR_URL", "http://airbills.local")
	os.Setenv("AIRBILLS_SECRET_KEY", "vendor-secret")
	os.Setenv("SOLSCAN_API_URL", "http://solscan.local/detail")
	os.Setenv("SOLSCAN_API_KEY", "solscan-token")
	os.Setenv("STATUS_TIMEOUT", "5s")
	os.Setenv("SLIPPAGE_BPS", "50")
	os.Setenv("PRIORITY_FEE_MICRO_LAMPORTS", "1000")
	os.Setenv("FIAT_PER_REFERENCE_UNIT", "1550.5")
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://jupiter.local", cfg.JupiterAPIURL)
	assert.Equal(t, "http://airbills.local", cfg.AirbillsVendorURL)
	assert.Equal(t, "vendor-secret", cfg.AirbillsSecretKey)
	assert.Equal(t, "http://solscan.local/detail", cfg.SolscanAPIURL)
	assert.Equal(t, "solscan-token", cfg.SolscanAPIKey)
	assert.Equal(t, 5*time.Second, cfg.StatusTimeout)
	assert.Equal(t, 50, cfg.SlippageBps)
	assert.Equal(t, uint64(1000), cfg.PriorityFeeMicroLamports)
	assert.Equal(t, "1550.5", cfg.FiatPerReferenceUnit.String())
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyDefaults_KeepsExplicitFields(t *testing.T) {
	cleanupEnv()
	os.Setenv("SOLSCAN_API_KEY", "from-env")
	os.Setenv("JUPITER_API_URL", "http://env-jupiter.local")
	defer cleanupEnv()

	cfg := &Config{
		JupiterAPIURL:        "http://explicit-jupiter.local",
		FiatPerReferenceUnit: decimal.NewFromInt(1500),
		StatusTimeout:        2 * time.Second,
	}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "http://explicit-jupiter.local", cfg.JupiterAPIURL)
	assert.Equal(t, "from-env", cfg.SolscanAPIKey)
	assert.Equal(t, 2*time.Second, cfg.StatusTimeout)
	assert.True(t, decimal.NewFromInt(1500).Equal(cfg.FiatPerReferenceUnit))
	assert.Equal(t, DefaultAirbillsVendorURL, cfg.AirbillsVendorURL)
}

func TestLoad_InvalidStatusTimeout(t *testing.T) {
	cleanupEnv()
	os.Setenv("STATUS_TIMEOUT", "invalid")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_InvalidFiatRate(t *testing.T) {
	cleanupEnv()
	os.Setenv("FIAT_PER_REFERENCE_UNIT", "lots")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid decimal")
}

func TestLoad_InvalidSlippage(t *testing.T) {
	cleanupEnv()
	os.Setenv("SLIPPAGE_BPS", "20000")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SlippageBps must be between 1 and 10000")
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_MissingURLs(t *testing.T) {
	cfg := validConfig()
	cfg.JupiterAPIURL = ""
	cfg.AirbillsVendorURL = ""
	cfg.SolscanAPIURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JupiterAPIURL is required")
	assert.Contains(t, err.Error(), "AirbillsVendorURL is required")
	assert.Contains(t, err.Error(), "SolscanAPIURL is required")
}

func TestValidate_InvalidMint(t *testing.T) {
	cfg := validConfig()
	cfg.ReferenceMint = "not-a-mint"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceMint")
}

func TestValidate_UnknownAltReferenceMint(t *testing.T) {
	cfg := validConfig()
	cfg.AltReferenceMint = DefaultInputMint

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AltReferenceMint")
	assert.Contains(t, err.Error(), "not an asset the bill vendor accepts")
}

func TestValidate_UnknownReferenceMint(t *testing.T) {
	cfg := validConfig()
	cfg.ReferenceMint = DefaultInputMint

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceMint")
}

func TestAltReference_Disabled(t *testing.T) {
	cleanupEnv()
	os.Setenv("ALT_REFERENCE_MINT", AltReferenceDisabled)
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AltReferenceDisabled, cfg.AltReferenceMint)
	assert.False(t, cfg.AltReferenceEnabled())

	explicit := &Config{AltReferenceMint: AltReferenceDisabled}
	require.NoError(t, explicit.ApplyDefaults())
	assert.Equal(t, AltReferenceDisabled, explicit.AltReferenceMint)
	assert.False(t, explicit.AltReferenceEnabled())
}

func TestAltReference_DefaultsToUSDT(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg := &Config{}
	require.NoError(t, cfg.ApplyDefaults())
	assert.Equal(t, DefaultAltReferenceMint, cfg.AltReferenceMint)
	assert.True(t, cfg.AltReferenceEnabled())
}

func TestValidate_NonPositiveRate(t *testing.T) {
	cfg := validConfig()
	cfg.FiatPerReferenceUnit = decimal.NewFromInt(-1)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FiatPerReferenceUnit must be positive")
}

func TestMustLoad_Panics(t *testing.T) {
	cleanupEnv()
	os.Setenv("SLIPPAGE_BPS", "abc")
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

func validConfig() *Config {
	return &Config{
		JupiterAPIURL:        DefaultJupiterAPIURL,
		AirbillsVendorURL:    DefaultAirbillsVendorURL,
		SolscanAPIURL:        DefaultSolscanAPIURL,
		SlippageBps:          DefaultSlippageBps,
		StatusTimeout:        DefaultStatusTimeout,
		ReferenceMint:        DefaultReferenceMint,
		AltReferenceMint:     DefaultAltReferenceMint,
		DefaultInputMint:     DefaultInputMint,
		FiatPerReferenceUnit: decimal.NewFromInt(1600),
	}
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"SERVER_ADDR",
		"LOG_LEVEL",
		"JUPITER_API_URL",
		"SLIPPAGE_BPS",
		"PRIORITY_FEE_MICRO_LAMPORTS",
		"AIRBILLS_VENDOR_URL",
		"AIRBILLS_SECRET_KEY",
		"SOLSCAN_API_URL",
		"SOLSCAN_API_KEY",
		"STATUS_TIMEOUT",
		"REFERENCE_MINT",
		"ALT_REFERENCE_MINT",
		"DEFAULT_INPUT_MINT",
		"FIAT_PER_REFERENCE_UNIT",
	} {
		os.Unsetenv(key)
	}
}
