package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioConfig mirrors the command-line parameters of the LTE/EPC scenario
// script plus the addressing plan the EPC helper applies.
type ScenarioConfig struct {
	NumNodePairs        int     `yaml:"num_node_pairs"`
	NumberOfUes         int     `yaml:"number_of_ues"`
	SimTime             string  `yaml:"sim_time"`
	Distance            float64 `yaml:"distance"`
	InterPacketInterval string  `yaml:"inter_packet_interval"`
	UseCa               bool    `yaml:"use_ca"`
	DisableDl           bool    `yaml:"disable_dl"`
	DisableUl           bool    `yaml:"disable_ul"`
	DisablePl           bool    `yaml:"disable_pl"`
	RemoteHostAddress   string  `yaml:"remote_host_address"`
	UeBaseAddress       string  `yaml:"ue_base_address"`
	DlPort              uint16  `yaml:"dl_port"`
	UlPortBase          uint16  `yaml:"ul_port_base"`
	PacketSize          int     `yaml:"packet_size"`
}

// RunnerConfig describes how to launch the external simulator.
type RunnerConfig struct {
	Command     []string `yaml:"command"`
	WorkDir     string   `yaml:"work_dir"`
	FlowmonFile string   `yaml:"flowmon_file"`
	Timeout     string   `yaml:"timeout"`
}

// AggregatorConfig holds the flow-statistics aggregation settings.
type AggregatorConfig struct {
	FilterSourceAddress string `yaml:"filter_source_address"`
	// ExpectedCount is the averaging divisor. Zero means "use number_of_ues".
	ExpectedCount int `yaml:"expected_count"`
	// Divisor is either "expected" or "matched".
	Divisor string `yaml:"divisor"`
}

// TextWriterConfig configures the three listing files.
type TextWriterConfig struct {
	RootPath        string `yaml:"root_path"`
	ThroughputFile  string `yaml:"throughput_file"`
	JitterFile      string `yaml:"jitter_file"`
	LostPacketsFile string `yaml:"lost_packets_file"`
}

// GobWriterConfig configures gob snapshots.
type GobWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines one configured report writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Text       TextWriterConfig `yaml:"text"`
	Gob        GobWriterConfig  `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// AlerterRule defines a single threshold rule over an aggregate report.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig holds the alert rules.
type AlerterConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rules   []AlerterRule `yaml:"rules"`
}

// SMTPConfig holds the email notifier settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// ProbeConfig holds the NATS settings for publishing reports.
type ProbeConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the query server settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	GRPCAddr   string `yaml:"grpc_addr"`
	// Source is "gob" or "clickhouse".
	Source string `yaml:"source"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Runner     RunnerConfig     `yaml:"runner"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Writers    []WriterDef      `yaml:"writers"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Probe      ProbeConfig      `yaml:"probe"`
	API        APIConfig        `yaml:"api"`
}

// LoadConfig reads the configuration from a YAML file, applies defaults and
// validates the result.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration of the reference scenario before the
// defaults derived from other fields are applied. Parse(nil) yields the
// complete, validated reference configuration.
func Default() *Config {
	cfg := &Config{
		LogLevel: "info",
		Scenario: ScenarioConfig{
			NumNodePairs:        2,
			NumberOfUes:         5,
			SimTime:             "20s",
			Distance:            1000,
			InterPacketInterval: "100ms",
			RemoteHostAddress:   "1.0.0.2",
			UeBaseAddress:       "7.0.0.2",
			DlPort:              1100,
			UlPortBase:          2000,
			PacketSize:          1024,
		},
		Runner: RunnerConfig{
			FlowmonFile: "tota1.xml",
			Timeout:     "30m",
		},
		Aggregator: AggregatorConfig{
			Divisor: "expected",
		},
		Writers: []WriterDef{
			{Type: "text", Enabled: true},
		},
		Probe: ProbeConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "lte.reports.summary",
		},
		API: APIConfig{
			ListenAddr: ":8080",
			GRPCAddr:   ":50051",
			Source:     "gob",
		},
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Aggregator.FilterSourceAddress == "" {
		c.Aggregator.FilterSourceAddress = c.Scenario.RemoteHostAddress
	}
	if c.Aggregator.Divisor == "" {
		c.Aggregator.Divisor = "expected"
	}
	for i := range c.Writers {
		w := &c.Writers[i]
		switch w.Type {
		case "text":
			if w.Text.RootPath == "" {
				w.Text.RootPath = "."
			}
			if w.Text.ThroughputFile == "" {
				w.Text.ThroughputFile = "thro5.txt"
			}
			if w.Text.JitterFile == "" {
				w.Text.JitterFile = "jitt5.txt"
			}
			if w.Text.LostPacketsFile == "" {
				w.Text.LostPacketsFile = "lost5.txt"
			}
		case "gob":
			if w.Gob.RootPath == "" {
				w.Gob.RootPath = "snapshots"
			}
		case "clickhouse":
			if w.ClickHouse.Port == 0 {
				w.ClickHouse.Port = 9000
			}
			if w.ClickHouse.Database == "" {
				w.ClickHouse.Database = "default"
			}
		}
	}
}

// ExpectedCount returns the averaging divisor the aggregator is invoked with.
func (c *Config) ExpectedCount() int {
	if c.Aggregator.ExpectedCount > 0 {
		return c.Aggregator.ExpectedCount
	}
	return c.Scenario.NumberOfUes
}

// SimDuration parses Scenario.SimTime.
func (c *Config) SimDuration() (time.Duration, error) {
	return time.ParseDuration(c.Scenario.SimTime)
}

// PacketInterval parses Scenario.InterPacketInterval.
func (c *Config) PacketInterval() (time.Duration, error) {
	return time.ParseDuration(c.Scenario.InterPacketInterval)
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	s := c.Scenario
	if s.NumNodePairs <= 0 {
		return fmt.Errorf("scenario.num_node_pairs must be positive, got %d", s.NumNodePairs)
	}
	if s.NumberOfUes < 0 {
		return fmt.Errorf("scenario.number_of_ues must not be negative, got %d", s.NumberOfUes)
	}
	if d, err := c.SimDuration(); err != nil || d <= 0 {
		return fmt.Errorf("invalid scenario.sim_time %q", s.SimTime)
	}
	if d, err := c.PacketInterval(); err != nil || d <= 0 {
		return fmt.Errorf("invalid scenario.inter_packet_interval %q", s.InterPacketInterval)
	}
	if net.ParseIP(s.RemoteHostAddress).To4() == nil {
		return fmt.Errorf("invalid scenario.remote_host_address %q", s.RemoteHostAddress)
	}
	if net.ParseIP(s.UeBaseAddress).To4() == nil {
		return fmt.Errorf("invalid scenario.ue_base_address %q", s.UeBaseAddress)
	}
	if net.ParseIP(c.Aggregator.FilterSourceAddress) == nil {
		return fmt.Errorf("invalid aggregator.filter_source_address %q", c.Aggregator.FilterSourceAddress)
	}
	if c.Aggregator.ExpectedCount < 0 {
		return fmt.Errorf("aggregator.expected_count must not be negative, got %d", c.Aggregator.ExpectedCount)
	}
	switch c.Aggregator.Divisor {
	case "expected", "matched":
	default:
		return fmt.Errorf("unknown aggregator.divisor %q", c.Aggregator.Divisor)
	}
	if c.Runner.Timeout != "" {
		if _, err := time.ParseDuration(c.Runner.Timeout); err != nil {
			return fmt.Errorf("invalid runner.timeout: %w", err)
		}
	}
	for _, rule := range c.Alerter.Rules {
		switch rule.Operator {
		case ">", "<", "=", ">=", "<=":
		default:
			return fmt.Errorf("alerter rule %q: unknown operator %q", rule.Name, rule.Operator)
		}
	}
	return nil
}
