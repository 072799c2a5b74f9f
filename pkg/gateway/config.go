package gateway

import "time"

// Config configures the WebDAV listener.
type Config struct {
	// Port is the TCP port for WebDAV clients.
	// Default: 1900
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// Root is the URL prefix the mount namespace is served under. Empty
	// serves it at "/".
	// Default: /remote.php/webdav
	Root string `mapstructure:"root" validate:"omitempty,startswith=/" yaml:"root"`

	// Realm is announced in Basic authentication challenges.
	// Default: dittodav
	Realm string `mapstructure:"realm" yaml:"realm"`

	// ReadTimeout bounds reading a whole request, including uploads.
	// Default: 0 (no timeout)
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing a response, including downloads.
	// Default: 0 (no timeout)
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idle time.
	// Default: 120s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// DefaultRoot is where legacy ownCloud clients expect the WebDAV tree.
const DefaultRoot = "/remote.php/webdav"

// FilesPrefix is the per-user WebDAV tree probed by newer clients.
const FilesPrefix = "/remote.php/dav/files"

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 1900
	}
	if c.Realm == "" {
		c.Realm = "dittodav"
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
}
