package session

import (
	"errors"
	"time"
)

// Config holds the tunable parameters of a voice session.
type Config struct {
	// Locale used for both capture and narration. Multi-locale
	// negotiation is out of scope; one configured value covers the
	// session.
	Locale string

	// Rate is the narration speed multiplier.
	Rate float64

	// Continuous keeps the capture device listening after a final
	// transcript. The default is single-shot: capture ends with the
	// first final result.
	Continuous bool

	// RequestTimeout bounds a single search request. Expiry follows
	// the transport-error path. Zero disables the bound.
	RequestTimeout time.Duration

	// NetworkFailureMessage is the user-visible error turn content for
	// network-level failures.
	NetworkFailureMessage string

	// RequestFailurePrefix prefixes the error turn for non-2xx agent
	// responses.
	RequestFailurePrefix string

	// CaptureFailureMessage is the user-visible error turn content when
	// the capture device fails mid-session.
	CaptureFailureMessage string
}

// DefaultConfig returns a Config with the defaults of the reference
// deployment (Chinese locale, slightly brisk narration).
func DefaultConfig() Config {
	return Config{
		Locale:                "zh-CN",
		Rate:                  1.2,
		RequestTimeout:        15 * time.Second,
		NetworkFailureMessage: "请求失败: 网络连接失败",
		RequestFailurePrefix:  "请求失败",
		CaptureFailureMessage: "语音识别失败",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Locale == "" {
		return errors.New("session: locale required")
	}
	if c.Rate <= 0 {
		return errors.New("session: rate must be positive")
	}
	if c.RequestTimeout < 0 {
		return errors.New("session: request timeout must not be negative")
	}
	return nil
}

// WithLocale returns a copy with the locale set.
func (c Config) WithLocale(locale string) Config {
	c.Locale = locale
	return c
}

// WithRate returns a copy with the narration rate set.
func (c Config) WithRate(rate float64) Config {
	c.Rate = rate
	return c
}

// WithRequestTimeout returns a copy with the request timeout set.
func (c Config) WithRequestTimeout(d time.Duration) Config {
	c.RequestTimeout = d
	return c
}
