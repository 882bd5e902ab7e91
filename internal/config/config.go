package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// Risk profiles
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// DefaultStrategy is the name of the strategy built from the top-level sections
const DefaultStrategy = "default"

// Config holds all configuration for the backtest service
type Config struct {
	Server       ServerConfig              `mapstructure:"server"`
	Kafka        KafkaConfig               `mapstructure:"kafka"`
	Redis        RedisConfig               `mapstructure:"redis"`
	Storage      StorageConfig             `mapstructure:"storage"`
	Logging      LoggingConfig             `mapstructure:"logging"`
	Simulation   SimulationConfig          `mapstructure:"simulation"`
	Staking      StakingConfig             `mapstructure:"staking"`
	Filter       FilterConfig              `mapstructure:"filter"`
	GoNoGo       GoNoGoConfig              `mapstructure:"gonogo"`
	Significance SignificanceConfig        `mapstructure:"significance"`
	Strategies   map[string]StrategyConfig `mapstructure:"strategies"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"` // Topic to consume from (backtest_requests)
	GroupID string   `mapstructure:"group_id"`

	// Topic run summaries are published to; empty disables publishing
	ResultsTopic string `mapstructure:"results_topic"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds the result store configuration
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// SimulationConfig holds bankroll parameters
type SimulationConfig struct {
	InitialBankroll  float64 `mapstructure:"initial_bankroll"`
	MinBankrollFloor float64 `mapstructure:"min_bankroll_floor"`
	RecentWindow     int     `mapstructure:"recent_window"`
}

// StakingConfig holds Kelly sizing parameters
type StakingConfig struct {
	RiskProfile             string             `mapstructure:"risk_profile"`
	KellyFraction           float64            `mapstructure:"kelly_fraction"`
	MaxBetFraction          float64            `mapstructure:"max_bet_fraction"`
	HeavyFavoriteMaxOdds    float64            `mapstructure:"heavy_favorite_max_odds"`
	HeavyFavoriteMultiplier float64            `mapstructure:"heavy_favorite_multiplier"`
	HotStreakWinRate        float64            `mapstructure:"hot_streak_win_rate"`
	HotStreakMultiplier     float64            `mapstructure:"hot_streak_multiplier"`
	TierMultipliers         map[string]float64 `mapstructure:"tier_multipliers"`
	MaxMultiplier           float64            `mapstructure:"max_multiplier"`
}

// FilterConfig holds edge filter parameters
type FilterConfig struct {
	MinEdge        float64 `mapstructure:"min_edge"`
	MinProbability float64 `mapstructure:"min_probability"`
	RequireRule    bool    `mapstructure:"require_rule"`
	RulesFile      string  `mapstructure:"rules_file"`
}

// GoNoGoConfig holds the deployment criteria
type GoNoGoConfig struct {
	MinWinRate          float64 `mapstructure:"min_win_rate"`
	MinROI              float64 `mapstructure:"min_roi"`
	MaxDrawdown         float64 `mapstructure:"max_drawdown"`
	MinSharpe           float64 `mapstructure:"min_sharpe"`
	MinBets             int     `mapstructure:"min_bets"`
	RequireSignificance bool    `mapstructure:"require_significance"`
	SharpePeriod        string  `mapstructure:"sharpe_period"`
}

// SignificanceConfig holds binomial test parameters
type SignificanceConfig struct {
	Alpha                float64 `mapstructure:"alpha"`
	MinSampleSize        int     `mapstructure:"min_sample_size"`
	BreakEvenProbability float64 `mapstructure:"break_even_probability"`
	Alternative          string  `mapstructure:"alternative"`
}

// StrategyConfig overrides the top-level staking and filter knobs for a named strategy.
// Nil fields inherit.
type StrategyConfig struct {
	RiskProfile    string   `mapstructure:"risk_profile"`
	KellyFraction  *float64 `mapstructure:"kelly_fraction"`
	MaxBetFraction *float64 `mapstructure:"max_bet_fraction"`
	MinEdge        *float64 `mapstructure:"min_edge"`
	MinProbability *float64 `mapstructure:"min_probability"`
	RequireRule    *bool    `mapstructure:"require_rule"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "backtest_requests")
	v.SetDefault("kafka.group_id", "nfl-backtest")
	v.SetDefault("kafka.results_topic", "backtest_results")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "backtests.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.initial_bankroll", 10000.0)
	v.SetDefault("simulation.min_bankroll_floor", 0.0)
	v.SetDefault("simulation.recent_window", 10)

	v.SetDefault("staking.risk_profile", RiskConservative)
	v.SetDefault("staking.kelly_fraction", 0.25)

	v.SetDefault("filter.min_edge", 0.02)
	v.SetDefault("filter.min_probability", 0.55)
	v.SetDefault("filter.require_rule", false)
	v.SetDefault("filter.rules_file", "")

	v.SetDefault("gonogo.min_win_rate", 0.55)
	v.SetDefault("gonogo.min_roi", 0.03)
	v.SetDefault("gonogo.max_drawdown", -0.20)
	v.SetDefault("gonogo.min_sharpe", 0.5)
	v.SetDefault("gonogo.min_bets", 50)
	v.SetDefault("gonogo.require_significance", true)
	v.SetDefault("gonogo.sharpe_period", models.SharpePerBet)

	v.SetDefault("significance.alpha", 0.05)
	v.SetDefault("significance.min_sample_size", 50)
	v.SetDefault("significance.break_even_probability", 110.0/210.0)
	v.SetDefault("significance.alternative", models.AlternativeTwoSided)

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("NFL_BACKTEST")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The risk profile only supplies defaults, so explicit staking keys still win
	profile, ok := RiskProfilePolicy(v.GetString("staking.risk_profile"))
	if !ok {
		return nil, fmt.Errorf("unknown risk profile %q", v.GetString("staking.risk_profile"))
	}
	v.SetDefault("staking.max_bet_fraction", profile.MaxBetFraction)
	v.SetDefault("staking.heavy_favorite_max_odds", profile.HeavyFavoriteMaxOdds)
	v.SetDefault("staking.heavy_favorite_multiplier", profile.HeavyFavoriteMultiplier)
	v.SetDefault("staking.hot_streak_win_rate", profile.HotStreakWinRate)
	v.SetDefault("staking.hot_streak_multiplier", profile.HotStreakMultiplier)
	v.SetDefault("staking.max_multiplier", profile.MaxMultiplier)
	v.SetDefault("staking.tier_multipliers", tierMultiplierMap(profile.TierMultipliers))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// RiskProfilePolicy returns the staking policy of a named risk profile.
// An empty name is the conservative profile.
func RiskProfilePolicy(name string) (models.StakingPolicy, bool) {
	switch strings.ToLower(name) {
	case "", RiskConservative:
		return models.StakingPolicy{
			KellyFraction:  0.25,
			MaxBetFraction: 0.02,
			MaxMultiplier:  1.0,
		}, true
	case RiskModerate:
		return models.StakingPolicy{
			KellyFraction:  0.25,
			MaxBetFraction: 0.05,
			TierMultipliers: map[models.Tier]float64{
				models.TierS: 1.25,
				models.TierA: 1.1,
				models.TierB: 1.0,
				models.TierC: 0.75,
			},
			MaxMultiplier: 1.5,
		}, true
	case RiskAggressive:
		return models.StakingPolicy{
			KellyFraction:           0.25,
			MaxBetFraction:          0.10,
			HeavyFavoriteMaxOdds:    1.5,
			HeavyFavoriteMultiplier: 1.25,
			HotStreakWinRate:        0.7,
			HotStreakMultiplier:     1.2,
			TierMultipliers: map[models.Tier]float64{
				models.TierS: 1.5,
				models.TierA: 1.25,
				models.TierB: 1.0,
				models.TierC: 0.75,
			},
			MaxMultiplier: 2.5,
		}, true
	}
	return models.StakingPolicy{}, false
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	if c.Simulation.InitialBankroll <= 0 {
		return fmt.Errorf("simulation.initial_bankroll must be positive, got %v", c.Simulation.InitialBankroll)
	}
	if c.Simulation.MinBankrollFloor < 0 || c.Simulation.MinBankrollFloor >= c.Simulation.InitialBankroll {
		return fmt.Errorf("simulation.min_bankroll_floor must be in [0, initial_bankroll), got %v", c.Simulation.MinBankrollFloor)
	}
	if err := validateStaking(c.Staking.KellyFraction, c.Staking.MaxBetFraction); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if c.Staking.MaxMultiplier < 0 {
		return fmt.Errorf("staking.max_multiplier must be non-negative, got %v", c.Staking.MaxMultiplier)
	}
	for tier := range c.Staking.TierMultipliers {
		if !isStakedTier(models.Tier(strings.ToUpper(tier))) {
			return fmt.Errorf("staking.tier_multipliers: unknown tier %q", tier)
		}
	}
	if err := validateFilter(c.Filter.MinEdge, c.Filter.MinProbability); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	if c.GoNoGo.MinWinRate < 0 || c.GoNoGo.MinWinRate > 1 {
		return fmt.Errorf("gonogo.min_win_rate must be in [0,1], got %v", c.GoNoGo.MinWinRate)
	}
	if c.GoNoGo.MaxDrawdown > 0 || c.GoNoGo.MaxDrawdown < -1 {
		return fmt.Errorf("gonogo.max_drawdown must be in [-1,0], got %v", c.GoNoGo.MaxDrawdown)
	}
	if c.GoNoGo.MinBets < 0 {
		return fmt.Errorf("gonogo.min_bets must be non-negative, got %d", c.GoNoGo.MinBets)
	}
	if c.GoNoGo.SharpePeriod != models.SharpePerBet && c.GoNoGo.SharpePeriod != models.SharpeWeekly {
		return fmt.Errorf("gonogo.sharpe_period must be %q or %q, got %q", models.SharpePerBet, models.SharpeWeekly, c.GoNoGo.SharpePeriod)
	}

	if c.Significance.Alpha <= 0 || c.Significance.Alpha >= 1 {
		return fmt.Errorf("significance.alpha must be in (0,1), got %v", c.Significance.Alpha)
	}
	if c.Significance.BreakEvenProbability < 0 || c.Significance.BreakEvenProbability >= 1 {
		return fmt.Errorf("significance.break_even_probability must be in [0,1), got %v", c.Significance.BreakEvenProbability)
	}
	if c.Significance.Alternative != models.AlternativeTwoSided && c.Significance.Alternative != models.AlternativeGreater {
		return fmt.Errorf("significance.alternative must be %q or %q, got %q",
			models.AlternativeTwoSided, models.AlternativeGreater, c.Significance.Alternative)
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}

	for name, s := range c.Strategies {
		if name == DefaultStrategy {
			return fmt.Errorf("strategy name %q is reserved", DefaultStrategy)
		}
		if _, ok := RiskProfilePolicy(s.RiskProfile); !ok {
			return fmt.Errorf("strategies.%s: unknown risk profile %q", name, s.RiskProfile)
		}
		policy := c.strategyPolicy(s)
		if err := validateStaking(policy.KellyFraction, policy.MaxBetFraction); err != nil {
			return fmt.Errorf("strategies.%s: %w", name, err)
		}
		filter := c.strategyFilter(s)
		if err := validateFilter(filter.MinEdge, filter.MinProbability); err != nil {
			return fmt.Errorf("strategies.%s: %w", name, err)
		}
	}

	return nil
}

func validateStaking(kellyFraction, maxBetFraction float64) error {
	if kellyFraction <= 0 || kellyFraction > 1 {
		return fmt.Errorf("kelly_fraction must be in (0,1], got %v", kellyFraction)
	}
	if maxBetFraction <= 0 || maxBetFraction > 1 {
		return fmt.Errorf("max_bet_fraction must be in (0,1], got %v", maxBetFraction)
	}
	return nil
}

func validateFilter(minEdge, minProbability float64) error {
	if minEdge < 0 || minEdge > 1 {
		return fmt.Errorf("min_edge must be in [0,1], got %v", minEdge)
	}
	if minProbability < 0 || minProbability > 1 {
		return fmt.Errorf("min_probability must be in [0,1], got %v", minProbability)
	}
	return nil
}

func isStakedTier(t models.Tier) bool {
	return t == models.TierS || t == models.TierA || t == models.TierB || t == models.TierC
}

func tierMultiplierMap(m map[models.Tier]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for tier, v := range m {
		out[string(tier)] = v
	}
	return out
}

// ToSimulationParams converts config to simulation parameters
func (c *SimulationConfig) ToSimulationParams() models.SimulationParams {
	return models.SimulationParams{
		InitialBankroll:  decimal.NewFromFloat(c.InitialBankroll),
		MinBankrollFloor: decimal.NewFromFloat(c.MinBankrollFloor),
		RecentWindow:     c.RecentWindow,
	}
}

// ToStakingPolicy converts config to a staking policy
func (c *StakingConfig) ToStakingPolicy() models.StakingPolicy {
	// viper lower-cases map keys
	tiers := make(map[models.Tier]float64, len(c.TierMultipliers))
	for tier, m := range c.TierMultipliers {
		tiers[models.Tier(strings.ToUpper(tier))] = m
	}

	return models.StakingPolicy{
		KellyFraction:           c.KellyFraction,
		MaxBetFraction:          c.MaxBetFraction,
		HeavyFavoriteMaxOdds:    c.HeavyFavoriteMaxOdds,
		HeavyFavoriteMultiplier: c.HeavyFavoriteMultiplier,
		HotStreakWinRate:        c.HotStreakWinRate,
		HotStreakMultiplier:     c.HotStreakMultiplier,
		TierMultipliers:         tiers,
		MaxMultiplier:           c.MaxMultiplier,
	}
}

// ToFilterParams converts config to edge filter parameters
func (c *FilterConfig) ToFilterParams() models.FilterParams {
	return models.FilterParams{
		MinEdge:        c.MinEdge,
		MinProbability: c.MinProbability,
		RequireRule:    c.RequireRule,
	}
}

// ToThresholds converts config to GO/NO-GO thresholds
func (c *GoNoGoConfig) ToThresholds() models.GoNoGoThresholds {
	return models.GoNoGoThresholds{
		MinWinRate:          c.MinWinRate,
		MinROI:              c.MinROI,
		MaxDrawdown:         c.MaxDrawdown,
		MinSharpe:           c.MinSharpe,
		MinBets:             c.MinBets,
		RequireSignificance: c.RequireSignificance,
		SharpePeriod:        c.SharpePeriod,
	}
}

// ToSignificanceParams converts config to binomial test parameters
func (c *SignificanceConfig) ToSignificanceParams() models.SignificanceParams {
	return models.SignificanceParams{
		Alpha:                c.Alpha,
		MinSampleSize:        c.MinSampleSize,
		BreakEvenProbability: c.BreakEvenProbability,
		Alternative:          c.Alternative,
	}
}

// BaseStrategy builds the default strategy from the top-level sections
func (c *Config) BaseStrategy() models.StrategyParams {
	return models.StrategyParams{
		Name:         DefaultStrategy,
		Simulation:   c.Simulation.ToSimulationParams(),
		Staking:      c.Staking.ToStakingPolicy(),
		Filter:       c.Filter.ToFilterParams(),
		GoNoGo:       c.GoNoGo.ToThresholds(),
		Significance: c.Significance.ToSignificanceParams(),
	}
}

// StrategyParams returns the default strategy followed by the named strategies in name order
func (c *Config) StrategyParams() []models.StrategyParams {
	strategies := []models.StrategyParams{c.BaseStrategy()}

	names := make([]string, 0, len(c.Strategies))
	for name := range c.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := c.Strategies[name]
		params := c.BaseStrategy()
		params.Name = name
		params.Staking = c.strategyPolicy(s)
		params.Filter = c.strategyFilter(s)
		strategies = append(strategies, params)
	}
	return strategies
}

func (c *Config) strategyPolicy(s StrategyConfig) models.StakingPolicy {
	policy := c.Staking.ToStakingPolicy()
	if s.RiskProfile != "" {
		if profile, ok := RiskProfilePolicy(s.RiskProfile); ok {
			profile.KellyFraction = policy.KellyFraction
			policy = profile
		}
	}
	if s.KellyFraction != nil {
		policy.KellyFraction = *s.KellyFraction
	}
	if s.MaxBetFraction != nil {
		policy.MaxBetFraction = *s.MaxBetFraction
	}
	return policy
}

func (c *Config) strategyFilter(s StrategyConfig) models.FilterParams {
	filter := c.Filter.ToFilterParams()
	if s.MinEdge != nil {
		filter.MinEdge = *s.MinEdge
	}
	if s.MinProbability != nil {
		filter.MinProbability = *s.MinProbability
	}
	if s.RequireRule != nil {
		filter.RequireRule = *s.RequireRule
	}
	return filter
}
