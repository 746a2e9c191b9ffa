package config_test

import (
	"testing"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	conf := config.New()

	assert.Equal(t, "development", conf.Env)
	assert.Equal(t, config.StorageDriverPostgres, conf.Storage.Driver)
	assert.Equal(t, "8080", conf.Http.Port)
	assert.False(t, conf.Kafka.Enabled)
	assert.Equal(t, 10*time.Minute, conf.Cache.TTL)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CACHE_CAPACITY", "not-a-number")

	conf := config.New()

	assert.Equal(t, config.StorageDriverMemory, conf.Storage.Driver)
	assert.True(t, conf.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, conf.Kafka.Brokers)
	assert.Equal(t, 1000, conf.Cache.Capacity)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		conf := config.New()
		conf.Postgres.User = "orders"
		conf.Postgres.Password = "secret"
		return conf
	}

	testCases := []struct {
		name    string
		modify  func(c *config.Config)
		wantErr bool
	}{
		{
			name:   "valid postgres config",
			modify: func(c *config.Config) {},
		},
		{
			name: "postgres credentials missing",
			modify: func(c *config.Config) {
				c.Postgres.User = ""
			},
			wantErr: true,
		},
		{
			name: "memory driver ignores postgres section",
			modify: func(c *config.Config) {
				c.Storage.Driver = config.StorageDriverMemory
				c.Postgres = config.Postgres{}
			},
		},
		{
			name: "unknown driver",
			modify: func(c *config.Config) {
				c.Storage.Driver = "mongo"
			},
			wantErr: true,
		},
		{
			name: "disabled kafka is not validated",
			modify: func(c *config.Config) {
				c.Kafka = config.Kafka{}
			},
		},
		{
			name: "enabled kafka without brokers",
			modify: func(c *config.Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			wantErr: true,
		},
		{
			name: "invalid env",
			modify: func(c *config.Config) {
				c.Env = "dev"
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := valid()
			tc.modify(&conf)

			err := conf.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
