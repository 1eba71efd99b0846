package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/gateway"
)

// ConnectionType selects how the lifecycle orchestrator reaches a
// gateway.
type ConnectionType string

const (
	// Automatic runs the gateway scanner and picks the best available
	// transport: TCP tunnel, then UDP tunnel, then routing.
	Automatic ConnectionType = "AUTOMATIC"
	// Tunneling connects to a declared gateway over UDP.
	Tunneling ConnectionType = "TUNNELING"
	// TunnelingTCP connects to a declared gateway over TCP.
	TunnelingTCP ConnectionType = "TUNNELING_TCP"
	// TunnelingTCPSecure connects over TCP inside a KNX/IP Secure session.
	TunnelingTCPSecure ConnectionType = "TUNNELING_TCP_SECURE"
	// Routing joins the multicast routing group.
	Routing ConnectionType = "ROUTING"
	// RoutingSecure joins the multicast routing group with KNX/IP Secure
	// backbone encryption.
	RoutingSecure ConnectionType = "ROUTING_SECURE"
)

// Config is the root configuration for a knxip client.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	General    GeneralConfig    `yaml:"general"`
	Groups     GroupsConfig     `yaml:"groups"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig describes how to reach a gateway.
type ConnectionConfig struct {
	Type ConnectionType `yaml:"type"`

	GatewayIP   string `yaml:"gateway_ip"`
	GatewayPort int    `yaml:"gateway_port"`
	LocalIP     string `yaml:"local_ip"`
	LocalPort   int    `yaml:"local_port"`
	RouteBack   bool   `yaml:"route_back"`

	MulticastGroup string `yaml:"multicast_group"`
	MulticastPort  int    `yaml:"multicast_port"`

	AutoReconnect     bool `yaml:"auto_reconnect"`
	AutoReconnectWait int  `yaml:"auto_reconnect_wait"`

	// Threaded mirrors the option of the same name in the config this
	// schema is derived from; this module's tunnel/router each already
	// run their own goroutine, so the field is accepted but unused.
	Threaded bool `yaml:"threaded"`

	ScanFilter ScanFilterConfig `yaml:"scan_filter"`

	Secure SecureConfig `yaml:"secure"`
}

// ScanFilterConfig is the YAML shape of a gateway scan filter; ToGateway
// converts it to the gateway package's own filter type so that package
// doesn't need to carry YAML tags of its own.
type ScanFilterConfig struct {
	NameMatch        string `yaml:"name_match"`
	Tunnelling       bool   `yaml:"tunnelling"`
	TunnellingTCP    bool   `yaml:"tunnelling_tcp"`
	Routing          bool   `yaml:"routing"`
	SecureTunnelling bool   `yaml:"secure_tunnelling"`
	SecureRouting    bool   `yaml:"secure_routing"`
}

// ToGateway converts a ScanFilterConfig to the filter type gateway.Scan
// accepts.
func (f ScanFilterConfig) ToGateway() gateway.ScanFilter {
	return gateway.ScanFilter{
		NameMatch:        f.NameMatch,
		Tunnelling:       f.Tunnelling,
		TunnellingTCP:    f.TunnellingTCP,
		Routing:          f.Routing,
		SecureTunnelling: f.SecureTunnelling,
		SecureRouting:    f.SecureRouting,
	}
}

// SecureConfig holds KNX/IP Secure credentials. These are read from
// config and held in memory only; nothing here is persisted by this
// module.
type SecureConfig struct {
	BackboneKey                  string `yaml:"backbone_key"`
	LatencyMS                    int    `yaml:"latency_ms"`
	UserID                       int    `yaml:"user_id"`
	DeviceAuthenticationPassword string `yaml:"device_authentication_password"`
	UserPassword                 string `yaml:"user_password"`
	KNXKeysFilePath              string `yaml:"knxkeys_file_path"`
	KNXKeysPassword              string `yaml:"knxkeys_password"`
}

// GeneralConfig holds bus-wide parameters independent of how the
// gateway is reached.
type GeneralConfig struct {
	OwnAddress     string `yaml:"own_address"`
	RateLimit      int    `yaml:"rate_limit"`
	MulticastGroup string `yaml:"multicast_group"`
	MulticastPort  int    `yaml:"multicast_port"`
}

// GroupsConfig maps a device kind (e.g. "switch", "dimmer", "cover") to
// the list of group addresses it reads or writes. This module stops at
// the group-address list: device classes that interpret it live in the
// caller.
type GroupsConfig map[string][]string

// LoggingConfig configures the zerolog-based logger in internal/logging.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig enables a rotating file sink alongside (or instead
// of) the console.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Type:              Automatic,
			GatewayPort:       3671,
			MulticastGroup:    "224.0.23.12",
			MulticastPort:     3671,
			AutoReconnect:     true,
			AutoReconnectWait: 3,
		},
		General: GeneralConfig{
			RateLimit:      20,
			MulticastGroup: "224.0.23.12",
			MulticastPort:  3671,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies the XKNX_* environment variable overrides
// named in spec.md §6.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("XKNX_GENERAL_OWN_ADDRESS"); v != "" {
		cfg.General.OwnAddress = v
	}
	if v := os.Getenv("XKNX_GENERAL_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.General.RateLimit = n
		}
	}
	if v := os.Getenv("XKNX_GENERAL_MULTICAST_GROUP"); v != "" {
		cfg.General.MulticastGroup = v
	}
	if v := os.Getenv("XKNX_GENERAL_MULTICAST_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.General.MulticastPort = n
		}
	}
	if v := os.Getenv("XKNX_CONNECTION_GATEWAY_IP"); v != "" {
		cfg.Connection.GatewayIP = v
	}
	if v := os.Getenv("XKNX_CONNECTION_GATEWAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Connection.GatewayPort = n
		}
	}
	if v := os.Getenv("XKNX_CONNECTION_LOCAL_IP"); v != "" {
		cfg.Connection.LocalIP = v
	}
	if v := os.Getenv("XKNX_CONNECTION_ROUTE_BACK"); v != "" {
		cfg.Connection.RouteBack = strings.EqualFold(v, "true") || v == "1"
	}
}

// Validate checks the configuration for errors, accumulating every
// problem found rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []string

	switch c.Connection.Type {
	case Automatic, Tunneling, TunnelingTCP, TunnelingTCPSecure, Routing, RoutingSecure:
	default:
		errs = append(errs, fmt.Sprintf("connection.type %q is not a recognized connection type", c.Connection.Type))
	}

	needsGateway := c.Connection.Type == Tunneling || c.Connection.Type == TunnelingTCP || c.Connection.Type == TunnelingTCPSecure
	if needsGateway && c.Connection.GatewayIP == "" {
		errs = append(errs, "connection.gateway_ip is required for "+string(c.Connection.Type))
	}
	if c.Connection.GatewayPort < 0 || c.Connection.GatewayPort > 65535 {
		errs = append(errs, "connection.gateway_port must be between 0 and 65535")
	}

	secureRequested := c.Connection.Type == TunnelingTCPSecure || c.Connection.Type == RoutingSecure
	if secureRequested && c.Connection.Secure.KNXKeysFilePath == "" && c.Connection.Secure.BackboneKey == "" {
		errs = append(errs, "connection.secure requires either knxkeys_file_path or backbone_key when a secure connection type is selected")
	}

	if c.General.OwnAddress != "" {
		if _, err := address.ParseIndividualAddress(c.General.OwnAddress); err != nil {
			errs = append(errs, fmt.Sprintf("general.own_address: %v", err))
		}
	}
	if c.General.RateLimit < 0 {
		errs = append(errs, "general.rate_limit must not be negative")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// OwnAddress parses General.OwnAddress, returning the zero address if
// unset.
func (c *Config) OwnAddress() (address.IndividualAddress, error) {
	if c.General.OwnAddress == "" {
		return address.IndividualAddress{}, nil
	}
	return address.ParseIndividualAddress(c.General.OwnAddress)
}

// AutoReconnectWait returns the configured reconnect wait as a
// Duration.
func (c *Config) AutoReconnectWait() time.Duration {
	return time.Duration(c.Connection.AutoReconnectWait) * time.Second
}
