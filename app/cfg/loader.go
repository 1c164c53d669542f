package cfg

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

type rawCfg struct {
	// Server configuration
	Port          string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	BaseUrl       string `long:"base-url" env:"BASE_URL" default:"http://localhost:8000" description:"Public base URL for the service"`
	AllowedOrigin string `long:"allowed-origin" env:"ALLOWED_ORIGIN" default:"http://localhost:5173" description:"Origin allowed to call the API with credentials"`

	// Storage configuration
	Store         string `long:"store" env:"STORE" default:"sqlite" choice:"sqlite" choice:"mongo" description:"Persistence backend"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./newsdesk.db" description:"SQLite database file"`
	MongoURI      string `long:"mongo-uri" env:"MONGO_URI" default:"mongodb://localhost:27017" description:"MongoDB connection string"`
	MongoDatabase string `long:"mongo-db" env:"MONGO_DATABASE" default:"newsdesk" description:"MongoDB database name"`

	// Search API configuration
	NYTAPIKey     string  `long:"nyt-api-key" env:"NYT_API_KEY" description:"New York Times Article Search API key"`
	SearchURL     string  `long:"search-url" env:"SEARCH_URL" default:"https://api.nytimes.com/svc/search/v2/articlesearch.json" description:"Article search endpoint"`
	SearchTimeout int     `long:"search-timeout" env:"SEARCH_TIMEOUT" default:"15" description:"Search request timeout in seconds"`
	SearchRate    float64 `long:"search-rate" env:"SEARCH_RATE" default:"0" description:"Maximum search requests per second (0 disables limiting)"`
	DefaultQuery  string  `long:"default-query" env:"DEFAULT_QUERY" default:"davis/sacramento" description:"Query used when none is supplied"`

	// Identity provider configuration
	OIDCClientName   string `long:"oidc-client-name" env:"OIDC_CLIENT_NAME" default:"dex" description:"Display name of the identity provider"`
	OIDCClientID     string `long:"oidc-client-id" env:"OIDC_CLIENT_ID" description:"OIDC client ID"`
	OIDCClientSecret string `long:"oidc-client-secret" env:"OIDC_CLIENT_SECRET" description:"OIDC client secret"`
	OIDCIssuer       string `long:"oidc-issuer" env:"OIDC_ISSUER" default:"http://dex:5556" description:"OIDC issuer URL"`
	OIDCAuthURL      string `long:"oidc-auth-url" env:"OIDC_AUTH_URL" description:"Authorization endpoint (skips discovery when set)"`
	OIDCTokenURL     string `long:"oidc-token-url" env:"OIDC_TOKEN_URL" description:"Token endpoint"`
	OIDCJWKSURL      string `long:"oidc-jwks-url" env:"OIDC_JWKS_URL" description:"JWKS endpoint"`
	OIDCUserInfoURL  string `long:"oidc-userinfo-url" env:"OIDC_USERINFO_URL" description:"Userinfo endpoint"`
	OIDCRedirectURL  string `long:"oidc-redirect-url" env:"OIDC_REDIRECT_URL" description:"Redirect URL registered with the provider (defaults to <base-url>/authorize)"`

	// Session configuration
	SessionDir    string `long:"session-dir" env:"SESSION_DIR" description:"Directory for the session store (in-memory when empty)"`
	SessionTTL    int    `long:"session-ttl" env:"SESSION_TTL" default:"86400" description:"Session lifetime in seconds"`
	SecureCookies bool   `long:"secure-cookies" env:"SECURE_COOKIES" description:"Mark session cookies as Secure"`
	RolesFile     string `long:"roles-file" env:"ROLES_FILE" description:"YAML file assigning admin and moderator roles by e-mail"`

	// Comment threads
	OrphanReplies string `long:"orphan-replies" env:"ORPHAN_REPLIES" default:"drop" choice:"drop" choice:"promote" description:"How replies whose parent is missing are rendered"`
	ReplyNesting  string `long:"reply-nesting" env:"REPLY_NESTING" default:"flat" choice:"flat" choice:"nested" description:"Render replies to replies under the top-level comment (flat) or under their parent (nested)"`

	// Background tasks
	WarmQueries       string `long:"warm-queries" env:"WARM_QUERIES" description:"Comma-separated queries ingested periodically in the background"`
	WarmInterval      int    `long:"warm-interval" env:"WARM_INTERVAL" default:"900" description:"Interval between warm-up ingestions in seconds"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Los_Angeles)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Trace    bool   `long:"trace" env:"TRACE" description:"Export request traces to stdout"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive")
	}
	if raw.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}
	if raw.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if raw.SearchRate < 0 {
		return nil, fmt.Errorf("search rate must be non-negative")
	}

	baseUrl := strings.TrimRight(raw.BaseUrl, "/")

	cfg := &Cfg{
		Port:              raw.Port,
		BaseUrl:           baseUrl,
		AllowedOrigin:     raw.AllowedOrigin,
		Store:             raw.Store,
		DBPath:            raw.DBPath,
		MongoURI:          raw.MongoURI,
		MongoDatabase:     raw.MongoDatabase,
		NYTAPIKey:         raw.NYTAPIKey,
		SearchURL:         raw.SearchURL,
		SearchTimeout:     time.Duration(raw.SearchTimeout) * time.Second,
		SearchRate:        raw.SearchRate,
		DefaultQuery:      raw.DefaultQuery,
		OIDCClientName:    raw.OIDCClientName,
		OIDCClientID:      raw.OIDCClientID,
		OIDCClientSecret:  raw.OIDCClientSecret,
		OIDCIssuer:        raw.OIDCIssuer,
		OIDCAuthURL:       raw.OIDCAuthURL,
		OIDCTokenURL:      raw.OIDCTokenURL,
		OIDCJWKSURL:       raw.OIDCJWKSURL,
		OIDCUserInfoURL:   raw.OIDCUserInfoURL,
		OIDCRedirectURL:   cmp.Or(raw.OIDCRedirectURL, baseUrl+"/authorize"),
		SessionDir:        raw.SessionDir,
		SessionTTL:        time.Duration(raw.SessionTTL) * time.Second,
		SecureCookies:     raw.SecureCookies,
		RolesFile:         raw.RolesFile,
		OrphanReplies:     raw.OrphanReplies,
		ReplyNesting:      raw.ReplyNesting,
		WarmQueries:       splitList(raw.WarmQueries),
		WarmInterval:      raw.WarmInterval,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Trace:             raw.Trace,
		Version:           GetVersion(),
	}

	return cfg, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
