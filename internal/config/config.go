package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/floodscope/exposure-cli/internal/units"
)

// Config holds the full application configuration.
type Config struct {
	Model       ModelConfig       `yaml:"model" mapstructure:"model"`
	Sources     SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Join        JoinConfig        `yaml:"join" mapstructure:"join"`
	Damage      DamageConfig      `yaml:"damage" mapstructure:"damage"`
	Roads       RoadsConfig       `yaml:"roads" mapstructure:"roads"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Aggregation AggregationConfig `yaml:"aggregation" mapstructure:"aggregation"`
}

// ModelConfig sets the model-wide exposure conventions.
type ModelConfig struct {
	// Unit is the length unit every height and elevation is expressed in.
	Unit string `yaml:"unit" mapstructure:"unit"`
	// CRS is the EPSG code the exposure set is built in (e.g. "EPSG:32617").
	CRS string `yaml:"crs" mapstructure:"crs"`
	// DamageTypes are the damage categories resolved per asset.
	DamageTypes []string `yaml:"damage_types" mapstructure:"damage_types"`
	// KeepUnclassified reclassifies assets without an occupancy match as
	// residential instead of dropping them.
	KeepUnclassified bool `yaml:"keep_unclassified" mapstructure:"keep_unclassified"`
}

// SourcesConfig names the input files of a build.
type SourcesConfig struct {
	Assets     string `yaml:"assets" mapstructure:"assets"`
	AssetCRS   string `yaml:"asset_crs" mapstructure:"asset_crs"`
	IDAttr     string `yaml:"id_attr" mapstructure:"id_attr"`
	NameAttr   string `yaml:"name_attr" mapstructure:"name_attr"`
	Occupancy  string `yaml:"occupancy" mapstructure:"occupancy"`
	OccAttr    string `yaml:"occupancy_attr" mapstructure:"occupancy_attr"`
	OccCRS     string `yaml:"occupancy_crs" mapstructure:"occupancy_crs"`
	DEM        string `yaml:"dem" mapstructure:"dem"`
	DEMCRS     string `yaml:"dem_crs" mapstructure:"dem_crs"`
	Curves     string `yaml:"curves" mapstructure:"curves"`
	LinkTable  string `yaml:"link_table" mapstructure:"link_table"`
	FloorLayer string `yaml:"floor_layer" mapstructure:"floor_layer"`
	FloorAttr  string `yaml:"floor_attr" mapstructure:"floor_attr"`
}

// JoinConfig tunes the spatial joins.
type JoinConfig struct {
	MaxDistance float64 `yaml:"max_distance" mapstructure:"max_distance"`
}

// DamageConfig selects the damage value source.
type DamageConfig struct {
	// Source is one of constant, file, jrc, hazus, translation.
	Source   string  `yaml:"source" mapstructure:"source"`
	Constant float64 `yaml:"constant" mapstructure:"constant"`
	Table    string  `yaml:"table" mapstructure:"table"`
	// Country selects the JRC row; unknown countries fall back to World.
	Country string `yaml:"country" mapstructure:"country"`
	// ToUSD converts JRC EUR2010 values to USD.
	ToUSD bool `yaml:"to_usd" mapstructure:"to_usd"`
	// TypeColumn and ValueColumn locate translation table columns.
	TypeColumn  string `yaml:"type_column" mapstructure:"type_column"`
	ValueColumn string `yaml:"value_column" mapstructure:"value_column"`
	// File source inputs: a geometry layer whose attribute is joined on.
	File     string `yaml:"file" mapstructure:"file"`
	FileAttr string `yaml:"file_attr" mapstructure:"file_attr"`
	FileCRS  string `yaml:"file_crs" mapstructure:"file_crs"`
	Method   string `yaml:"method" mapstructure:"method"`
	// UpdateTable overwrites resolved max_damage_* values per object id
	// after the source runs. UpdateIDColumn defaults to object_id.
	UpdateTable    string `yaml:"update_table" mapstructure:"update_table"`
	UpdateIDColumn string `yaml:"update_id_column" mapstructure:"update_id_column"`
}

// RoadsConfig configures road damage derivation.
type RoadsConfig struct {
	// LaneCosts maps lane counts to a unit cost per length-unit.
	LaneCosts map[string]float64 `yaml:"lane_costs" mapstructure:"lane_costs"`
	// MetricSource marks the source data as metric, which triggers the
	// legacy unit factor when the model runs in feet.
	MetricSource bool `yaml:"metric_source" mapstructure:"metric_source"`
}

// AggregationConfig names aggregation area layers to label assets with.
type AggregationConfig struct {
	Layers []AggregationLayerConfig `yaml:"layers" mapstructure:"layers"`
}

// AggregationLayerConfig is one aggregation area layer.
type AggregationLayerConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	Path string `yaml:"path" mapstructure:"path"`
	Attr string `yaml:"attr" mapstructure:"attr"`
	CRS  string `yaml:"crs" mapstructure:"crs"`
}

// StoreConfig configures the export database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// UnitSystem parses the configured unit system.
func (c ModelConfig) UnitSystem() (units.System, error) {
	return units.Parse(c.Unit)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXPOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("model.unit", "feet")
	v.SetDefault("model.damage_types", []string{"structure", "content"})
	v.SetDefault("model.keep_unclassified", true)
	v.SetDefault("join.max_distance", 10.0)
	v.SetDefault("damage.source", "hazus")
	v.SetDefault("damage.country", "World")
	v.SetDefault("damage.type_column", "object_type")
	v.SetDefault("damage.value_column", "value")
	v.SetDefault("store.database_url", "exposure.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
