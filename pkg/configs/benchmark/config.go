package benchmark

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("benchmark: invalid configuration")

type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Database  DatabaseConfig           `yaml:"database"`
	Benchmark BenchmarkConfig          `yaml:"benchmark"`
	Promotion PromotionConfig          `yaml:"promotion"`
	Networks  map[string]NetworkConfig `yaml:"networks"`
}

type ServerConfig struct {
	Port int32 `yaml:"port"`

	// pre-shared key for the registration API.
	APIKey string `yaml:"apiKey"`
}

type DatabaseConfig struct {
	// postgres connection string of the tournament store.
	URI string `yaml:"uri"`
}

type BenchmarkConfig struct {
	// host directory for per-run outputs.
	WorkDir string `yaml:"workDir"`

	// root of the prepared dataset snapshots.
	DatasetRoot string `yaml:"datasetRoot"`

	MemoryLimitBytes int64    `yaml:"memoryLimitBytes"`
	TimeLimit        Duration `yaml:"timeLimit"`

	// correctness failures before disqualification.
	StrikeThreshold int `yaml:"strikeThreshold"`
}

type PromotionConfig struct {
	// registry prefix for baseline images, e.g. ghcr.io/chainswarm.
	ImageRegistry string `yaml:"imageRegistry"`

	// scratch space for clones and build contexts.
	WorkDir string `yaml:"workDir"`

	// remote URL pattern of managed baseline repositories; %s is the
	// image type.
	RemoteTemplate string `yaml:"remoteTemplate"`
}

// NetworkConfig describes one blockchain network's pipeline store, used
// as ground truth by run validation.
type NetworkConfig struct {
	URI string `yaml:"uri"`
}

// Duration wraps time.Duration for yaml values like "4h" or "90m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*Config, error) {
	out := Config{
		Server: ServerConfig{Port: 8080},
		Benchmark: BenchmarkConfig{
			MemoryLimitBytes: 8 << 30,
			TimeLimit:        Duration(4 * time.Hour),
			StrikeThreshold:  3,
		},
	}
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}

	if out.Database.URI == "" {
		return nil, fmt.Errorf("%w: database.uri is required", ErrInvalidConfig)
	}
	if out.Benchmark.TimeLimit <= 0 {
		return nil, fmt.Errorf("%w: benchmark.timeLimit should be positive", ErrInvalidConfig)
	}
	if out.Benchmark.StrikeThreshold <= 0 {
		return nil, fmt.Errorf("%w: benchmark.strikeThreshold should be positive", ErrInvalidConfig)
	}

	return &out, nil
}
