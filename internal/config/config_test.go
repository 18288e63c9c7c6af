package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfigViper() *viper.Viper {
	v := viper.New()
	v.Set("api.host", "0.0.0.0")
	v.Set("api.port", "8080")
	v.Set("api.read_timeout", "10s")
	v.Set("api.write_timeout", "10s")
	v.Set("worker.concurrency", 5)
	v.Set("worker.queue_group", "conversion-workers")
	v.Set("worker.job_timeout", "5m")
	v.Set("database.host", "localhost")
	v.Set("database.port", 5432)
	v.Set("database.user", "esmconvert")
	v.Set("database.name", "esmconvert")
	v.Set("database.sslmode", "disable")
	v.Set("nats.url", "nats://localhost:4222")
	v.Set("nats.max_reconnects", 5)
	v.Set("nats.reconnect_wait", "2s")
	v.Set("transform.max_source_bytes", 10485760)
	v.Set("transform.timeout", "30s")
	v.Set("cache.enabled", true)
	v.Set("cache.size", 1024)
	v.Set("log.level", "info")
	v.Set("log.format", "json")
	return v
}

func TestNew_LoadsConfiguration(t *testing.T) {
	cfg := New(validConfigViper())

	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, "8080", cfg.API.Port)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, 5, cfg.Worker.Concurrency)
	assert.Equal(t, "conversion-workers", cfg.Worker.QueueGroup)
	assert.Equal(t, 5*time.Minute, cfg.Worker.JobTimeout)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 10485760, cfg.Transform.MaxSourceBytes)
	assert.Equal(t, 30*time.Second, cfg.Transform.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1024, cfg.Cache.Size)
}

func TestNew_PanicsOnInvalidConfiguration(t *testing.T) {
	v := validConfigViper()
	v.Set("database.user", "")

	assert.Panics(t, func() {
		New(v)
	})
}

func TestAPIConfig_ListenAddr(t *testing.T) {
	a := APIConfig{Host: "127.0.0.1", Port: "9090"}
	assert.Equal(t, "127.0.0.1:9090", a.ListenAddr())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "secret",
		Name:     "conversions",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=secret dbname=conversions sslmode=require",
		d.DSN(),
	)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(v *viper.Viper)
		wantErr string
	}{
		{
			name:    "valid_config",
			mutate:  func(_ *viper.Viper) {},
			wantErr: "",
		},
		{
			name:    "missing_database_user",
			mutate:  func(v *viper.Viper) { v.Set("database.user", "") },
			wantErr: "database.user is required",
		},
		{
			name:    "missing_database_name",
			mutate:  func(v *viper.Viper) { v.Set("database.name", "") },
			wantErr: "database.name is required",
		},
		{
			name:    "zero_worker_concurrency",
			mutate:  func(v *viper.Viper) { v.Set("worker.concurrency", 0) },
			wantErr: "worker.concurrency must be at least 1",
		},
		{
			name:    "database_port_out_of_range",
			mutate:  func(v *viper.Viper) { v.Set("database.port", 70000) },
			wantErr: "database.port must be between 1 and 65535",
		},
		{
			name:    "zero_max_source_bytes",
			mutate:  func(v *viper.Viper) { v.Set("transform.max_source_bytes", 0) },
			wantErr: "transform.max_source_bytes must be at least 1",
		},
		{
			name:    "cache_enabled_without_size",
			mutate:  func(v *viper.Viper) { v.Set("cache.size", 0) },
			wantErr: "cache.size must be at least 1 when the cache is enabled",
		},
		{
			name: "cache_disabled_allows_zero_size",
			mutate: func(v *viper.Viper) {
				v.Set("cache.enabled", false)
				v.Set("cache.size", 0)
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validConfigViper()
			tt.mutate(v)

			var cfg Config
			require.NoError(t, v.Unmarshal(&cfg))

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
