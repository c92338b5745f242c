package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type P2P struct {
	// ListenAddr is the libp2p multiaddr the host binds to.
	ListenAddr string
	// Bootstrap lists multiaddrs of known peers dialed on startup.
	Bootstrap []string
	// PublishTimeout bounds a single broadcast; it never applies to matching.
	PublishTimeout time.Duration
	DialRetries    int
	RetryDelay     time.Duration
	// AnnounceInterval paces periodic order book snapshots to API subscribers.
	AnnounceInterval time.Duration
}

type API struct {
	Addr string
}

type Node struct {
	LogFile string
}

type Config struct {
	P2P  P2P
	API  API
	Node Node
}

func Default() Config {
	return Config{
		P2P: P2P{
			ListenAddr:       "/ip4/0.0.0.0/tcp/4001",
			PublishTimeout:   10 * time.Second,
			DialRetries:      5,
			RetryDelay:       2 * time.Second,
			AnnounceInterval: 1 * time.Second,
		},
		API:  API{Addr: ":8080"},
		Node: Node{LogFile: "data/node.log"},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("P2P_LISTEN"); v != "" {
		cfg.P2P.ListenAddr = v
	}
	if v := os.Getenv("P2P_BOOTSTRAP"); v != "" {
		cfg.P2P.Bootstrap = splitList(v)
	}
	if d, ok := envMillis("P2P_PUBLISH_TIMEOUT_MS"); ok {
		cfg.P2P.PublishTimeout = d
	}
	if v := os.Getenv("P2P_DIAL_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.P2P.DialRetries = n
		}
	}
	if d, ok := envMillis("P2P_RETRY_DELAY_MS"); ok {
		cfg.P2P.RetryDelay = d
	}
	if d, ok := envMillis("ANNOUNCE_INTERVAL_MS"); ok {
		cfg.P2P.AnnounceInterval = d
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}

	return cfg
}

func envMillis(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
