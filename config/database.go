package config

import "strings"

// RedisConfig selects and addresses the Redis that holds gateway tokens.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Redis topologies understood by bootstrap.ConnectRedis.
const (
	RedisModeDirect   = "direct"
	RedisModeSentinel = "sentinel"
	RedisModeCluster  = "cluster"
)

// Mode reports the topology to connect with. Cluster wins over sentinel when both are set.
func (c RedisConfig) Mode() string {
	switch {
	case c.UseCluster:
		return RedisModeCluster
	case c.UseSentinel:
		return RedisModeSentinel
	default:
		return RedisModeDirect
	}
}

// Sanitize trims the URI and drops blank entries from the node lists.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.SentinelNodes = compactNodes(c.SentinelNodes)
	c.ClusterNodes = compactNodes(c.ClusterNodes)
	if c.DB < 0 {
		c.DB = 0
	}
}

func compactNodes(nodes []string) []string {
	out := nodes[:0]
	for _, n := range nodes {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
