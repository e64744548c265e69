package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultGeoURL points at the Natural Earth 1:110m admin-0 countries layer.
const DefaultGeoURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_admin_0_countries.geojson"

// Config 应用配置
type Config struct {
	Port         string
	DBPath       string
	JWTSecret    string
	SiteBaseURL  string // dataset paths resolve against this when set
	DatasetPath  string
	StaticDir    string // used when SiteBaseURL is empty
	GeoURL       string
	FetchTimeout time.Duration
	RateLimit    int // requests per minute per client IP
	LogLevel     string
}

// Load 加载配置
//
// A missing .env file is fine; the process environment still applies.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", ":8080"),
		DBPath:       getEnv("DB_PATH", "./data/citation_map.db"),
		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		SiteBaseURL:  strings.TrimRight(os.Getenv("SITE_BASE_URL"), "/"),
		DatasetPath:  getEnv("DATASET_PATH", "/citation_info.csv"),
		StaticDir:    getEnv("STATIC_DIR", "./public"),
		GeoURL:       getEnv("GEO_URL", DefaultGeoURL),
		FetchTimeout: getDuration("FETCH_TIMEOUT", 15*time.Second),
		RateLimit:    getInt("RATE_LIMIT", 120),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// DatasetURL reports the dataset location and whether it is remote.
func (c *Config) DatasetURL() (string, bool) {
	if strings.HasPrefix(c.DatasetPath, "http://") || strings.HasPrefix(c.DatasetPath, "https://") {
		return c.DatasetPath, true
	}
	if c.SiteBaseURL != "" {
		return c.SiteBaseURL + "/" + strings.TrimLeft(c.DatasetPath, "/"), true
	}
	return c.DatasetPath, false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
