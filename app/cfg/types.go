package cfg

import "time"

type Cfg struct {
	// Server configuration
	Port          string
	BaseUrl       string
	AllowedOrigin string

	// Storage configuration
	Store         string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	// Search API configuration
	NYTAPIKey     string
	SearchURL     string
	SearchTimeout time.Duration
	SearchRate    float64
	DefaultQuery  string

	// Identity provider configuration
	OIDCClientName   string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCIssuer       string
	OIDCAuthURL      string
	OIDCTokenURL     string
	OIDCJWKSURL      string
	OIDCUserInfoURL  string
	OIDCRedirectURL  string

	// Session configuration
	SessionDir    string
	SessionTTL    time.Duration
	SecureCookies bool
	RolesFile     string

	// Comment threads
	OrphanReplies string
	ReplyNesting  string

	// Background tasks
	WarmQueries       []string
	WarmInterval      int
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	Timezone string
	Debug    bool
	Trace    bool
	Version  string
}
