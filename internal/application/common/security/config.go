package security

// Config controls which input checks are applied.
type Config struct {
	EnableControlCharCheck bool
	EnableUnicodeCheck     bool
	MaxPathLength          int
}

// DefaultConfig returns the configuration used for client-supplied paths.
func DefaultConfig() *Config {
	return &Config{
		EnableControlCharCheck: true,
		EnableUnicodeCheck:     true,
		MaxPathLength:          4096,
	}
}
