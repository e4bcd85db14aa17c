// internal/config/model.go
//
// Typed configuration model for the newsletter service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `NEWSLETTER_`-prefixed environment overrides – highest precedence.
//
// Secret-bearing strings may hold a Vault reference (`vault:<path>#<key>`).
// The loader leaves them as-is; `ResolveSecrets` swaps them for plain values
// once a Vault client exists.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Master Data section
//

// MasterData points at the VTEX document store.  AppKey and AppToken are
// optional; a storefront proxy usually authenticates on our behalf.
type MasterData struct {
	BaseURL  string `koanf:"base_url"  validate:"required,url"`
	AppKey   string `koanf:"app_key"`
	AppToken string `koanf:"app_token" validate:"required_with=AppKey"`
}

//
// Newsletter section
//

// Newsletter holds submission defaults.  Widget definitions may override
// Entity and Forward per form.
type Newsletter struct {
	Entity         string `koanf:"entity"          validate:"required,alphanum,max=32"`
	Forward        string `koanf:"forward"         validate:"oneof=full legacy"`
	SingleFlight   bool   `koanf:"single_flight"`
	DefinitionsDir string `koanf:"definitions_dir"`
	MaxSessions    int    `koanf:"max_sessions"    validate:"gte=1"`
}

//
// Analytics section
//

// Analytics configures where subscription events go besides the log.
type Analytics struct {
	WebhookURL string `koanf:"webhook_url" validate:"omitempty,url"`
	GeoIPDB    string `koanf:"geoip_db"`
}

//
// Security section
//

// Security holds signing keys as base64url strings.  Empty keys are
// replaced with random ones at boot, which invalidates cookies and forms on
// every restart.
type Security struct {
	CSRFKey    string `koanf:"csrf_key"`
	SessionKey string `koanf:"session_key"`
}

//
// Log section
//

// Log controls the file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // NEWSLETTER_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	MasterData MasterData `koanf:"masterdata"`
	Newsletter Newsletter `koanf:"newsletter"`
	Analytics  Analytics  `koanf:"analytics"`
	Security   Security   `koanf:"security"`
	Log        Log        `koanf:"log"`
	Paths      Paths      `koanf:"-"` // not loaded from config files
}

// applyDefaults fills zero values before validation.
func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Newsletter.Entity == "" {
		c.Newsletter.Entity = "NW"
	}
	if c.Newsletter.Forward == "" {
		c.Newsletter.Forward = "full"
	}
	if c.Newsletter.DefinitionsDir == "" {
		c.Newsletter.DefinitionsDir = "conf/newsletters"
	}
	if c.Newsletter.MaxSessions == 0 {
		c.Newsletter.MaxSessions = 10000
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
