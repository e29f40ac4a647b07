package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Regions   map[string]*Region
	Filters   Filters
	Pacing    Pacing
	Scheduler Scheduler
	S3        S3

	CacheDir    string
	DBPath      string
	DatabaseURL string
	LogPath     string
}

// Region maps a storefront country code to its currency symbol and the
// evaluation budget used by downstream consumers. Each region gets its
// own cache namespace.
type Region struct {
	Code   string  `yaml:"code"`
	Name   string  `yaml:"name"`
	Symbol string  `yaml:"symbol"`
	Flag   string  `yaml:"flag"`
	Budget float64 `yaml:"budget"`
}

// Filters holds the hidden-gem heuristics. The defaults are the observed
// sweet spot; all of them are tunable through the environment.
type Filters struct {
	FreshnessWindowDays int // max age since release
	ReviewMin           int // inclusive band, lower bound
	ReviewMax           int // inclusive band, upper bound
	TargetCount         int // stop discovery once this many survive
	MaxPages            int
	PageSize            int
}

// Pacing is the self-throttling policy against the storefront.
type Pacing struct {
	PageDelay   time.Duration
	DetailDelay time.Duration
}

type Scheduler struct {
	Cron     string
	Interval time.Duration
}

type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func (s S3) Configured() bool {
	return s.Bucket != "" && s.AccessKeyID != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Filters: Filters{
			FreshnessWindowDays: getEnvInt("FRESHNESS_WINDOW_DAYS", 35),
			ReviewMin:           getEnvInt("REVIEW_MIN", 10),
			ReviewMax:           getEnvInt("REVIEW_MAX", 2000),
			TargetCount:         getEnvInt("TARGET_COUNT", 20),
			MaxPages:            getEnvInt("MAX_PAGES", 20),
			PageSize:            getEnvInt("PAGE_SIZE", 25),
		},
		Pacing: Pacing{
			PageDelay:   time.Duration(getEnvInt("PAGE_DELAY_MS", 500)) * time.Millisecond,
			DetailDelay: time.Duration(getEnvInt("DETAIL_DELAY_MS", 100)) * time.Millisecond,
		},
		Scheduler: Scheduler{
			Cron: os.Getenv("SCAN_CRON"),
		},
		S3: S3{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		CacheDir:    getEnv("CACHE_DIR", "."),
		DBPath:      getEnv("DB_PATH", "hunter.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogPath:     getEnv("LOG_PATH", "hunter.log"),
	}

	if interval := os.Getenv("SCAN_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadRegions(getEnv("REGIONS_FILE", "config/regions.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadRegions reads the region table, falling back to the built-in set
// when no file is present.
func (c *Config) loadRegions(path string) error {
	c.Regions = defaultRegions()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file struct {
		Regions []*Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if len(file.Regions) > 0 {
		c.Regions = make(map[string]*Region, len(file.Regions))
		for _, r := range file.Regions {
			c.Regions[r.Code] = r
		}
	}

	return nil
}

func (c *Config) Region(code string) (*Region, bool) {
	r, ok := c.Regions[code]
	return r, ok
}

func defaultRegions() map[string]*Region {
	return map[string]*Region{
		"kr": {Code: "kr", Name: "Korea (KRW)", Symbol: "₩", Flag: "🇰🇷", Budget: 100000},
		"us": {Code: "us", Name: "USA (USD)", Symbol: "$", Flag: "🇺🇸", Budget: 65},
		"jp": {Code: "jp", Name: "Japan (JPY)", Symbol: "¥", Flag: "🇯🇵", Budget: 10000},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
