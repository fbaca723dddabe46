package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hexfront/engine/pkg/core"
)

// GameConfig holds simulation settings shared by both peers
type GameConfig struct {
	Rows            int            `json:"rows" mapstructure:"rows"`
	Cols            int            `json:"cols" mapstructure:"cols"`
	Seed            int64          `json:"seed" mapstructure:"seed"`
	MsPerGameMinute float64        `json:"msPerGameMinute" mapstructure:"msPerGameMinute"`
	FrameInterval   time.Duration  `json:"frameInterval" mapstructure:"frameInterval"`
	SyncInterval    time.Duration  `json:"syncInterval" mapstructure:"syncInterval"`
	CombatInterval  float64        `json:"combatInterval" mapstructure:"combatInterval"`
	SupplyRate      float64        `json:"supplyRate" mapstructure:"supplyRate"`
	Units           map[string]int `json:"units" mapstructure:"units"`
	Curve           CurveConfig    `json:"curve" mapstructure:"curve"`
}

// CurveConfig holds the engagement damage curve constants
type CurveConfig struct {
	DamageScale      float64 `json:"damageScale" mapstructure:"damageScale"`
	Randomness       float64 `json:"randomness" mapstructure:"randomness"`
	Exponent         float64 `json:"exponent" mapstructure:"exponent"`
	VictoryThreshold float64 `json:"victoryThreshold" mapstructure:"victoryThreshold"`
	DrawFraction     float64 `json:"drawFraction" mapstructure:"drawFraction"`
}

// RelayConfig holds relay server settings
type RelayConfig struct {
	Address         string        `json:"address" mapstructure:"address"`
	HandshakeRate   float64       `json:"handshakeRate" mapstructure:"handshakeRate"`
	HandshakeBurst  int           `json:"handshakeBurst" mapstructure:"handshakeBurst"`
	WriteTimeout    time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
	ReadBufferSize  int           `json:"readBufferSize" mapstructure:"readBufferSize"`
	WriteBufferSize int           `json:"writeBufferSize" mapstructure:"writeBufferSize"`
}

// PeerConfig holds settings for a peer dialing the relay
type PeerConfig struct {
	ServerURL    string        `json:"serverUrl" mapstructure:"serverUrl"`
	DialTimeout  time.Duration `json:"dialTimeout" mapstructure:"dialTimeout"`
	AssignWait   time.Duration `json:"assignWait" mapstructure:"assignWait"`
	SendBuffer   int           `json:"sendBuffer" mapstructure:"sendBuffer"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// JournalConfig holds session journal settings
type JournalConfig struct {
	Type   string `json:"type" mapstructure:"type"`
	Buffer int    `json:"buffer" mapstructure:"buffer"`
}

// InfluxConfig holds match telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the influx server address
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./hexlogs")
	viper.SetDefault("statusFile", "./hexfront.status.json")

	viper.SetDefault("game.rows", 40)
	viper.SetDefault("game.cols", 30)
	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.msPerGameMinute", 50.0)
	viper.SetDefault("game.frameInterval", "16ms")
	viper.SetDefault("game.syncInterval", "100ms")
	viper.SetDefault("game.combatInterval", 25.0)
	viper.SetDefault("game.supplyRate", 0.005)
	viper.SetDefault("game.units.infantry", 12)
	viper.SetDefault("game.units.artillery", 4)
	viper.SetDefault("game.units.cavalry", 4)
	viper.SetDefault("game.units.supply", 2)
	viper.SetDefault("game.units.spy", 1)
	viper.SetDefault("game.units.general", 1)
	viper.SetDefault("game.curve.damageScale", 0.1)
	viper.SetDefault("game.curve.randomness", 0.4)
	viper.SetDefault("game.curve.exponent", 0.7)
	viper.SetDefault("game.curve.victoryThreshold", 1.10)
	viper.SetDefault("game.curve.drawFraction", 0.25)

	viper.SetDefault("relay.address", ":8080")
	viper.SetDefault("relay.handshakeRate", 1.0)
	viper.SetDefault("relay.handshakeBurst", 5)
	viper.SetDefault("relay.writeTimeout", "10s")
	viper.SetDefault("relay.readBufferSize", 4096)
	viper.SetDefault("relay.writeBufferSize", 4096)

	viper.SetDefault("peer.serverUrl", "ws://localhost:8080/ws")
	viper.SetDefault("peer.dialTimeout", "10s")
	viper.SetDefault("peer.assignWait", "5s")
	viper.SetDefault("peer.sendBuffer", 256)
	viper.SetDefault("peer.writeTimeout", "10s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "hexfront")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("journal.type", "memory")
	viper.SetDefault("journal.buffer", 1000)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "hexfront")
	viper.SetDefault("influx.bucket", "matches")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName("hexfront.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

func GetGameConfig() GameConfig {
	return GameConfig{
		Rows:            viper.GetInt("game.rows"),
		Cols:            viper.GetInt("game.cols"),
		Seed:            viper.GetInt64("game.seed"),
		MsPerGameMinute: viper.GetFloat64("game.msPerGameMinute"),
		FrameInterval:   viper.GetDuration("game.frameInterval"),
		SyncInterval:    viper.GetDuration("game.syncInterval"),
		CombatInterval:  viper.GetFloat64("game.combatInterval"),
		SupplyRate:      viper.GetFloat64("game.supplyRate"),
		Units:           unitCounts(),
		Curve: CurveConfig{
			DamageScale:      viper.GetFloat64("game.curve.damageScale"),
			Randomness:       viper.GetFloat64("game.curve.randomness"),
			Exponent:         viper.GetFloat64("game.curve.exponent"),
			VictoryThreshold: viper.GetFloat64("game.curve.victoryThreshold"),
			DrawFraction:     viper.GetFloat64("game.curve.drawFraction"),
		},
	}
}

// unitCounts reads every known unit type so that defaults fill keys missing from the
// file. Unknown names from the file are kept for ParseCounts to reject.
func unitCounts() map[string]int {
	out := make(map[string]int, len(core.UnitTypes))
	for _, t := range core.UnitTypes {
		out[t.String()] = viper.GetInt("game.units." + t.String())
	}
	for name := range viper.GetStringMap("game.units") {
		if _, ok := out[name]; !ok {
			out[name] = viper.GetInt("game.units." + name)
		}
	}
	return out
}

func GetRelayConfig() RelayConfig {
	return RelayConfig{
		Address:         viper.GetString("relay.address"),
		HandshakeRate:   viper.GetFloat64("relay.handshakeRate"),
		HandshakeBurst:  viper.GetInt("relay.handshakeBurst"),
		WriteTimeout:    viper.GetDuration("relay.writeTimeout"),
		ReadBufferSize:  viper.GetInt("relay.readBufferSize"),
		WriteBufferSize: viper.GetInt("relay.writeBufferSize"),
	}
}

func GetPeerConfig() PeerConfig {
	return PeerConfig{
		ServerURL:    viper.GetString("peer.serverUrl"),
		DialTimeout:  viper.GetDuration("peer.dialTimeout"),
		AssignWait:   viper.GetDuration("peer.assignWait"),
		SendBuffer:   viper.GetInt("peer.sendBuffer"),
		WriteTimeout: viper.GetDuration("peer.writeTimeout"),
	}
}

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

func GetJournalConfig() JournalConfig {
	return JournalConfig{
		Type:   viper.GetString("journal.type"),
		Buffer: viper.GetInt("journal.buffer"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}
