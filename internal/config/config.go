package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// TrustProxyHeaders: aceptar X-Forwarded-For como IP de cliente.
		// Encender sólo detrás de un reverse proxy propio.
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Bloque login: paths y claves del formulario JSON.
	// Los defaults calcan el despliegue clásico: /doLogin con uname/pwd/kaptcha.
	Login struct {
		Path        string `yaml:"path"`
		LogoutPath  string `yaml:"logout_path"`
		UsernameKey string `yaml:"username_key"`
		PasswordKey string `yaml:"password_key"`
		CaptchaKey  string `yaml:"captcha_key"`
		RememberKey string `yaml:"remember_key"`
	} `yaml:"login"`

	Session struct {
		CookieName  string `yaml:"cookie_name"`
		Domain      string `yaml:"domain"`
		SameSite    string `yaml:"samesite"`
		Secure      bool   `yaml:"secure"`
		TTL         string `yaml:"ttl"`
		MaxSessions int    `yaml:"max_sessions"`
	} `yaml:"session"`

	Remember struct {
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
	} `yaml:"remember"`

	Captcha struct {
		Path       string `yaml:"path"`
		CookieName string `yaml:"cookie_name"`
		Length     int    `yaml:"length"`
		TTL        string `yaml:"ttl"`
		Width      int    `yaml:"width"`
		Height     int    `yaml:"height"`
	} `yaml:"captcha"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		To                 string `yaml:"to"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML, aplica defaults, overrides por env y valida.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv arma la config completa sin YAML (modo env-only).
func FromEnv() (*Config, error) {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "gk:"
	}

	// Login defaults
	if c.Login.Path == "" {
		c.Login.Path = "/doLogin"
	}
	if c.Login.LogoutPath == "" {
		c.Login.LogoutPath = "/logout"
	}
	if c.Login.UsernameKey == "" {
		c.Login.UsernameKey = "uname"
	}
	if c.Login.PasswordKey == "" {
		c.Login.PasswordKey = "pwd"
	}
	if c.Login.CaptchaKey == "" {
		c.Login.CaptchaKey = "kaptcha"
	}
	if c.Login.RememberKey == "" {
		c.Login.RememberKey = "remember_me"
	}

	// Session defaults
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sid"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "12h"
	}
	if c.Session.MaxSessions == 0 {
		c.Session.MaxSessions = 1
	}

	// Remember-me defaults
	if c.Remember.CookieName == "" {
		c.Remember.CookieName = "remember-me"
	}
	if c.Remember.TTL == "" {
		c.Remember.TTL = "336h" // 14d
	}

	// Captcha defaults
	if c.Captcha.Path == "" {
		c.Captcha.Path = "/vc"
	}
	if c.Captcha.CookieName == "" {
		c.Captcha.CookieName = "vcid"
	}
	if c.Captcha.Length == 0 {
		c.Captcha.Length = 5
	}
	if c.Captcha.TTL == "" {
		c.Captcha.TTL = "5m"
	}
	if c.Captcha.Width == 0 {
		c.Captcha.Width = 160
	}
	if c.Captcha.Height == 0 {
		c.Captcha.Height = 60
	}

	// Rate defaults
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}

	// SMTP defaults
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate chequea valores críticos y duraciones en string.
func (c *Config) Validate() error {
	for _, d := range []struct{ name, val string }{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"storage.postgres.conn_max_lifetime", c.Storage.Postgres.ConnMaxLifetime},
		{"cache.memory.default_ttl", c.Cache.Memory.DefaultTTL},
		{"session.ttl", c.Session.TTL},
		{"remember.ttl", c.Remember.TTL},
		{"captcha.ttl", c.Captcha.TTL},
		{"rate.login.window", c.Rate.Login.Window},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: storage.driver inválido: %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn requerido con driver postgres")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind inválido: %q", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache.redis.addr requerido con kind redis")
	}
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("config: session.max_sessions debe ser >= 1")
	}
	if !strings.HasPrefix(c.Login.Path, "/") {
		return fmt.Errorf("config: login.path debe empezar con /")
	}
	return nil
}

// Duraciones ya validadas; los getters devuelven el valor parseado.

func (c *Config) SessionTTL() time.Duration  { return mustDur(c.Session.TTL, 12*time.Hour) }
func (c *Config) RememberTTL() time.Duration { return mustDur(c.Remember.TTL, 14*24*time.Hour) }
func (c *Config) CaptchaTTL() time.Duration  { return mustDur(c.Captcha.TTL, 5*time.Minute) }
func (c *Config) ReadTimeout() time.Duration { return mustDur(c.Server.ReadTimeout, 10*time.Second) }
func (c *Config) WriteTimeout() time.Duration {
	return mustDur(c.Server.WriteTimeout, 15*time.Second)
}
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDur(c.Server.ShutdownTimeout, 10*time.Second)
}
func (c *Config) RateLoginWindow() time.Duration { return mustDur(c.Rate.Login.Window, time.Minute) }

func mustDur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvStr("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvStr("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY_HEADERS"); ok {
		c.Server.TrustProxyHeaders = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// LOGIN
	if v, ok := getEnvStr("LOGIN_PATH"); ok {
		c.Login.Path = v
	}
	if v, ok := getEnvStr("LOGOUT_PATH"); ok {
		c.Login.LogoutPath = v
	}
	if v, ok := getEnvStr("LOGIN_USERNAME_KEY"); ok {
		c.Login.UsernameKey = v
	}
	if v, ok := getEnvStr("LOGIN_PASSWORD_KEY"); ok {
		c.Login.PasswordKey = v
	}
	if v, ok := getEnvStr("LOGIN_CAPTCHA_KEY"); ok {
		c.Login.CaptchaKey = v
	}
	if v, ok := getEnvStr("LOGIN_REMEMBER_KEY"); ok {
		c.Login.RememberKey = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DOMAIN"); ok {
		c.Session.Domain = v
	}
	if v, ok := getEnvStr("SESSION_SAMESITE"); ok {
		c.Session.SameSite = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvInt("SESSION_MAX_SESSIONS"); ok {
		c.Session.MaxSessions = v
	}

	// REMEMBER
	if v, ok := getEnvStr("REMEMBER_COOKIE_NAME"); ok {
		c.Remember.CookieName = v
	}
	if v, ok := getEnvStr("REMEMBER_TTL"); ok {
		c.Remember.TTL = v
	}

	// CAPTCHA
	if v, ok := getEnvStr("CAPTCHA_PATH"); ok {
		c.Captcha.Path = v
	}
	if v, ok := getEnvStr("CAPTCHA_COOKIE_NAME"); ok {
		c.Captcha.CookieName = v
	}
	if v, ok := getEnvInt("CAPTCHA_LENGTH"); ok {
		c.Captcha.Length = v
	}
	if v, ok := getEnvStr("CAPTCHA_TTL"); ok {
		c.Captcha.TTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TO"); ok {
		c.SMTP.To = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// ADMIN
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// FLAGS
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}
