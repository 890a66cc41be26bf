package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFriendlyCountries is the allow-list used by filter=friendly when
// FRIENDLY_COUNTRIES is unset. Names match the country_rus column.
var DefaultFriendlyCountries = []string{
	"Абхазия", "Азербайджан", "Армения", "Беларусь", "Венесуэла", "Вьетнам",
	"Египет", "Индия", "Индонезия", "Иран", "Казахстан", "Катар", "Киргизия",
	"Китай", "Куба", "Монголия", "ОАЭ", "Саудовская Аравия", "Сербия",
	"Таджикистан", "Таиланд", "Турция", "Узбекистан", "Шри-Ланка",
}

type DatasetCfg struct {
	Path      string
	Separator rune
	Encoding  string
}

type QueryEventsCfg struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	QueueSize int
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr              string
	LogLevel          string
	LogConsole        bool
	LogSampleN        int
	Scenario          string
	Dataset           DatasetCfg
	FriendlyCountries []string
	H3Res             int
	RedisAddr         string
	RedisPoolSize     int
	RedisDialTimeout  time.Duration
	CacheTTL          time.Duration
	CacheOpTimeout    time.Duration
	CacheLocalSize    int
	QueryEvents       QueryEventsCfg
	Metrics           MetricsCfg
	// PopularHalfLife of zero disables /popular.
	PopularHalfLife time.Duration
}

func FromEnv() Config {
	res := getint("H3_RES", 6)
	if res < 0 || res > 15 {
		res = 6
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Scenario:   getenv("SCENARIO", "baseline"),
		Dataset: DatasetCfg{
			Path:      getenv("AIRPORTS_PATH", "airports.csv"),
			Separator: getrune("AIRPORTS_SEPARATOR", '|'),
			Encoding:  getenv("AIRPORTS_ENCODING", "iso-8859-1"),
		},
		FriendlyCountries: getlist("FRIENDLY_COUNTRIES", DefaultFriendlyCountries),
		H3Res:             res,
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize:     getint("REDIS_POOL_SIZE", 32),
		RedisDialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		CacheTTL:          getduration("CACHE_TTL", 10*time.Minute),
		CacheOpTimeout:    getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheLocalSize:    getint("CACHE_LOCAL_SIZE", 1024),
		QueryEvents: QueryEventsCfg{
			Enabled:   getbool("QUERY_EVENTS_ENABLED", false),
			Brokers:   getlist("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:     getenv("KAFKA_TOPIC", "airport-queries"),
			QueueSize: getint("QUERY_EVENTS_QUEUE", 1024),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		PopularHalfLife: getduration("POPULAR_HALF_LIFE", 10*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// first rune of the value; "\t" and "tab" mean a tab
func getrune(k string, def rune) rune {
	v := os.Getenv(k)
	switch v {
	case "":
		return def
	case `\t`, "tab":
		return '\t'
	}
	for _, r := range v {
		return r
	}
	return def
}

// parse "a, b,c" into a list, dropping empty items
func getlist(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
