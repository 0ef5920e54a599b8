package ethclient

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig points at the public Sepolia gateway.
var DefaultConfig = Config{
	Endpoint:  "https://rpc.sepolia.org",
	ChainID:   11155111,
	Timeout:   30 * time.Second,
	UserAgent: "ethrpc/1.0",
}

// Config is the construction-time configuration of a Client. A Client never
// modifies it after NewClient returns.
type Config struct {
	// Endpoint is the http(s) URL of the JSON-RPC endpoint.
	Endpoint string `yaml:"endpoint"`
	// ChainID is stamped on every transaction built by the client. It is not
	// checked against eth_chainId.
	ChainID uint64 `yaml:"chain_id"`
	// Proxy is an optional outbound proxy URL. Environment proxy settings
	// are ignored.
	Proxy string `yaml:"proxy"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent identifies the client to the endpoint.
	UserAgent string `yaml:"user_agent"`
	// Headers are added to every request.
	Headers map[string]string `yaml:"headers"`
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig
	cfg.Headers = maps.Clone(DefaultConfig.Headers)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration without touching the network.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return &ValidationError{Field: "endpoint", Value: c.Endpoint, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "endpoint", Value: c.Endpoint, Err: errors.New("scheme must be http or https")}
	}
	if u.Host == "" {
		return &ValidationError{Field: "endpoint", Value: c.Endpoint, Err: errors.New("missing host")}
	}
	if c.Proxy != "" {
		if _, err := c.proxyURL(); err != nil {
			return err
		}
	}
	if c.ChainID == 0 {
		return &ValidationError{Field: "chain id", Err: ErrInvalidChainID}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "timeout", Value: c.Timeout.String(), Err: errors.New("must be positive")}
	}
	return nil
}

func (c Config) proxyURL() (*url.URL, error) {
	u, err := url.Parse(c.Proxy)
	if err != nil {
		return nil, &ValidationError{Field: "proxy", Value: c.Proxy, Err: err}
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, &ValidationError{Field: "proxy", Value: c.Proxy, Err: errors.New("scheme must be http, https or socks5")}
	}
	if u.Host == "" {
		return nil, &ValidationError{Field: "proxy", Value: c.Proxy, Err: errors.New("missing host")}
	}
	return u, nil
}

// newHTTPClient builds the HTTP client shared by all calls of one Client.
func (c Config) newHTTPClient() (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   c.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if c.Proxy != "" {
		u, err := c.proxyURL()
		if err != nil {
			return nil, err
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   c.Timeout,
	}, nil
}
