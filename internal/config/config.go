package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// LedgerURL is the base URL of the token ledger service.
	LedgerURL string `json:"ledger_url"`

	// SwapURL is the base URL of the swap venue.
	SwapURL string `json:"swap_url"`

	// BridgeURL is the base URL of the bridge/withdrawal service.
	BridgeURL string `json:"bridge_url"`

	// OracleURL is the base URL of the price oracle.
	OracleURL string `json:"oracle_url"`

	// ServiceAccount is this system's own ledger account, the recipient of
	// every charge. The ledger must hold an allowance from the caller to it.
	ServiceAccount string `json:"service_account"`

	// DestinationAddress is the fixed external-chain payout address
	// (0x-prefixed, 20 bytes of hex).
	DestinationAddress string `json:"destination_address"`

	// OraclePair is the trading pair quoted for the slippage floor,
	// source asset priced in the bridge asset.
	OraclePair string `json:"oracle_pair"`

	// CostPerNote is the price of one paid note mutation, in ledger units.
	CostPerNote uint64 `json:"cost_per_note"`

	// ProfitPerNote is the service margin added on top of CostPerNote.
	ProfitPerNote uint64 `json:"profit_per_note"`

	// LedgerFee is the ledger's fixed network fee per transfer.
	LedgerFee uint64 `json:"ledger_fee"`

	// SlippageBps is the slippage tolerance for the swap minimum-output
	// floor, in basis points. 100 means the floor is 99% of the estimate.
	SlippageBps uint64 `json:"slippage_bps,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
// Endpoint URLs have no defaults; the paid operations refuse to run without them.
func DefaultConfig() *Config {
	return &Config{
		OraclePair:    "ICP-ETH",
		CostPerNote:   10000,
		ProfitPerNote: 5000,
		LedgerFee:     10000,
		SlippageBps:   100,
	}
}

// Cost returns the full amount charged per paid mutation.
func (c *Config) Cost() uint64 {
	return c.CostPerNote + c.ProfitPerNote
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.notegate.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.notegate) and repo
// (.notegate) directories. Repo config is found by walking upward from
// startDir to find the nearest .notegate/config.json. Repo config takes
// precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .notegate/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".notegate", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.LedgerURL = overlayString(base.LedgerURL, overlay.LedgerURL)
	result.SwapURL = overlayString(base.SwapURL, overlay.SwapURL)
	result.BridgeURL = overlayString(base.BridgeURL, overlay.BridgeURL)
	result.OracleURL = overlayString(base.OracleURL, overlay.OracleURL)
	result.ServiceAccount = overlayString(base.ServiceAccount, overlay.ServiceAccount)
	result.DestinationAddress = overlayString(base.DestinationAddress, overlay.DestinationAddress)
	result.OraclePair = overlayString(base.OraclePair, overlay.OraclePair)

	result.CostPerNote = overlayUint(base.CostPerNote, overlay.CostPerNote)
	result.ProfitPerNote = overlayUint(base.ProfitPerNote, overlay.ProfitPerNote)
	result.LedgerFee = overlayUint(base.LedgerFee, overlay.LedgerFee)
	result.SlippageBps = overlayUint(base.SlippageBps, overlay.SlippageBps)

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}
	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func overlayString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func overlayUint(base, overlay uint64) uint64 {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
