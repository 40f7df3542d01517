package configuration

import "github.com/adampresley/configinator"

type Config struct {
	ApiBaseURL           string `flag:"api" env:"API_BASE_URL" default:"http://localhost:3000" description:"Base URL of the gallery backend API"`
	CookieSecret         string `flag:"cookiesecret" env:"COOKIE_SECRET" default:"password" description:"Secret for encoding cookies"`
	CoverHeight          int    `flag:"coverheight" env:"COVER_HEIGHT" default:"800" description:"Height in pixels of the standard cover variant"`
	CoverQuality         int    `flag:"coverquality" env:"COVER_QUALITY" default:"86" description:"JPEG quality of cover variants, from 1 to 100"`
	CoverWidth           int    `flag:"coverwidth" env:"COVER_WIDTH" default:"1200" description:"Width in pixels of the standard cover variant"`
	ForwardedEmailHeader string `flag:"emailheader" env:"FORWARDED_EMAIL_HEADER" default:"X-Forwarded-Email" description:"Header set by the identity proxy with the member's e-mail"`
	Host                 string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	HttpTimeoutSeconds   int    `flag:"httptimeout" env:"HTTP_TIMEOUT_SECONDS" default:"30" description:"Timeout in seconds for calls to the backend API"`
	LogLevel             string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxUploadBatch       int    `flag:"maxupload" env:"MAX_UPLOAD_BATCH" default:"25" description:"Maximum number of photos queued for one upload batch"`
	MaxVariantWorkers    int    `flag:"mvw" env:"MAX_VARIANT_WORKERS" default:"4" description:"Maximum number of concurrent cover variant encoders"`
	RedisURL             string `flag:"redisurl" env:"REDIS_URL" default:"redis://localhost:6379/0" description:"Redis connection URL, used when the session cache backend is redis"`
	RetryAttempts        int    `flag:"retries" env:"RETRY_ATTEMPTS" default:"3" description:"Attempts made for each listing fetch"`
	RetryBackoffMs       int    `flag:"retrybackoff" env:"RETRY_BACKOFF_MS" default:"400" description:"Backoff unit in milliseconds between listing fetch attempts"`
	SessionCacheBackend  string `flag:"sessioncache" env:"SESSION_CACHE_BACKEND" default:"memory" description:"Where session caches live. Valid values are 'memory' and 'redis'"`
	SessionIdleMinutes   int    `flag:"sessionidle" env:"SESSION_IDLE_MINUTES" default:"30" description:"Minutes of inactivity before a gallery session is torn down"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
