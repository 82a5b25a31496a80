package config

import (
	"strings"
	"testing"
)

func baseConfig() *Config {
	c := &Config{Environment: "test"}
	return c
}

func TestValidateAppliesDefaults(t *testing.T) {
	c := baseConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Store.Type != "memory" {
		t.Errorf("store.type default = %q, want memory", c.Store.Type)
	}
	if c.MarketData.Provider != "demo" {
		t.Errorf("marketdata.provider default = %q, want demo", c.MarketData.Provider)
	}
	if c.Logging.Level != "info" {
		t.Errorf("logging.level default = %q, want info", c.Logging.Level)
	}
}

func TestValidateRejectsQueueWithMemoryStore(t *testing.T) {
	c := baseConfig()
	c.Queue.Enabled = true
	c.Redis.Addr = "localhost:6379"

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error for queue dispatch over an in-memory store")
	}
	if !strings.Contains(err.Error(), "store.type 'redis'") {
		t.Errorf("error = %q, want mention of required redis store", err)
	}

	c.Store.Type = "redis"
	if err := c.Validate(); err != nil {
		t.Fatalf("queue with redis store should validate, got: %v", err)
	}
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	c := baseConfig()
	c.Store.Type = "redis"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for redis store without redis.addr")
	}
}

func TestValidateRequiresEnvironment(t *testing.T) {
	c := &Config{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty environment")
	}
}
