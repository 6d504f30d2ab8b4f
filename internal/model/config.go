package model

// Config is the complete Ledgerline configuration tree.
type Config struct {
	Backends  []BackendConfig `yaml:"backends" mapstructure:"backends"`
	Routing   RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Admission AdmissionConfig `yaml:"admission" mapstructure:"admission"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Options   InvokeOptions   `yaml:"options" mapstructure:"options"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Proxy     ProxyConfig     `yaml:"proxy" mapstructure:"proxy"`
}

// BackendConfig defines one inference backend.
type BackendConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Kind selects the implementation: "local" (VLM server over HTTP)
	// or "openai" (remote OpenAI-compatible API).
	Kind          string  `yaml:"kind" mapstructure:"kind"`
	Model         string  `yaml:"model" mapstructure:"model"`
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout       int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// RoutingConfig is the default routing policy. Callers can override it
// per request.
type RoutingConfig struct {
	Default              string   `yaml:"default" mapstructure:"default"`
	Fallbacks            []string `yaml:"fallbacks" mapstructure:"fallbacks"`
	AllowSensitiveRemote bool     `yaml:"allow_sensitive_remote" mapstructure:"allow_sensitive_remote"`
	DeadlineSeconds      int      `yaml:"deadline_seconds" mapstructure:"deadline_seconds"`
}

// AdmissionConfig controls the pre-execution resource budget.
type AdmissionConfig struct {
	// CapacityGB is the accelerator memory capacity the local backend
	// draws from.
	CapacityGB float64 `yaml:"capacity_gb" mapstructure:"capacity_gb"`
	// Headroom is the fraction of capacity kept free; the admission
	// threshold is CapacityGB * (1 - Headroom).
	Headroom float64 `yaml:"headroom" mapstructure:"headroom"`
}

// Threshold returns the admission safety threshold in GB.
func (a AdmissionConfig) Threshold() float64 {
	return a.CapacityGB * (1 - a.Headroom)
}

// CacheConfig controls the validated-result cache.
type CacheConfig struct {
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"`
	Dir        string `yaml:"dir" mapstructure:"dir"` // Disk layer directory; empty disables the disk layer
}

// RulesConfig points at the reloadable correction rule table.
type RulesConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Watch bool   `yaml:"watch" mapstructure:"watch"`
}

// BatchConfig controls concurrent batch processing.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ProxyConfig configures outbound HTTP proxying for backends.
type ProxyConfig struct {
	HTTP    string `yaml:"http" mapstructure:"http"`
	HTTPS   string `yaml:"https" mapstructure:"https"`
	NoProxy string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults: a local backend with a
// remote fallback, 15-minute / 100-entry cache, and a 10% admission
// headroom.
func DefaultConfig() *Config {
	return &Config{
		Backends: []BackendConfig{
			{
				Name:    "local",
				Kind:    "local",
				BaseURL: "http://localhost:8080",
				Timeout: 120,
			},
			{
				Name:    "openai",
				Kind:    "openai",
				Model:   "gpt-4o-mini",
				Timeout: 60,
			},
		},
		Routing: RoutingConfig{
			Default:         "local",
			Fallbacks:       []string{"openai"},
			DeadlineSeconds: 120,
		},
		Admission: AdmissionConfig{
			CapacityGB: 16,
			Headroom:   0.10,
		},
		Cache: CacheConfig{
			TTLMinutes: 15,
			MaxEntries: 100,
		},
		Rules: RulesConfig{
			Watch: true,
		},
		Options: InvokeOptions{
			MaxTokens:   2048,
			Temperature: 0.3,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}
