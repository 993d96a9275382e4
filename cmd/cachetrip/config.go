package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/cachetrip/cachetrip/storage"
)

type Config struct {
	// Listen address for the proxy, e.g. ":8080".
	Listen string `yaml:"listen"`
	// Origin URL requests are forwarded to.
	Origin string `yaml:"origin"`
	// Serve stale responses when revalidation fails.
	StaleOnError bool        `yaml:"staleOnError"`
	Cache        CacheConfig `yaml:"cache"`
}

type CacheConfig struct {
	// Backend is one of "memory", "file", "sqlite" or "redis".
	Backend string `yaml:"backend"`
	// Path is the cache directory (file) or database file (sqlite).
	Path string `yaml:"path"`
	// Size is the entry limit for the memory backend.
	Size int `yaml:"size"`
	// RedisAddr is the address of the redis server.
	RedisAddr string `yaml:"redisAddr"`
}

func getConfig(filename string) (Config, error) {
	config := Config{
		Listen: ":8080",
		Cache:  CacheConfig{Backend: "memory"},
	}
	if filename == "" {
		return config, nil
	}
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

func (c CacheConfig) store() (storage.Store, error) {
	switch c.Backend {
	case "", "memory":
		return storage.NewMemoryStore(c.Size), nil
	case "file":
		return storage.NewFileStore(c.Path)
	case "sqlite":
		return storage.NewSQLiteStore(c.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		return storage.NewRedisStore(client, ""), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
}
