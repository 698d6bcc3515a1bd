// Copyright (c) 2026 Netifi, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package netifi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	backoffapi "github.com/netifi/netifi-go/api/backoff"
	"github.com/netifi/netifi-go/discovery"
	"github.com/netifi/netifi-go/discovery/etcddiscovery"
	"github.com/netifi/netifi-go/internal/backoff"
	"github.com/netifi/netifi-go/internal/config"
	"github.com/netifi/netifi-go/internal/interpolate"
	"github.com/netifi/netifi-go/peer/pool"
	"github.com/netifi/netifi-go/peer/reconnecting"
	"github.com/netifi/netifi-go/peer/supplier"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// FlagAlternativeAuthentication in AdditionalFlags means AccessToken is
// sent as is instead of being base64-decoded, and AccessKey names the
// authentication scheme.
const FlagAlternativeAuthentication uint16 = 0x1

// JWTAuthentication is the AccessKey of JWT authentication.
const JWTAuthentication uint64 = 1

// DefaultPort is the broker port used for static addresses without one.
const DefaultPort = 8001

const (
	transportTCP       = "tcp"
	transportWebSocket = "ws"
)

// Config configures a Client. Use DefaultConfig or LoadConfigFromYAML to get
// a Config with defaults filled in.
type Config struct {
	// Group is the group this client joins. Required.
	Group string `config:"group,interpolate"`
	// Destination names this client within its group. A random one is
	// generated when empty.
	Destination string `config:"destination,interpolate"`

	AccessKey   uint64 `config:"accessKey,interpolate"`
	AccessToken string `config:"accessToken,interpolate"`
	// ConnectionID seeds the ids of the pool's connections. A random one is
	// generated when empty.
	ConnectionID    string `config:"connectionId,interpolate"`
	AdditionalFlags uint16 `config:"additionalFlags"`
	// LocalAddress is sent to brokers in the setup frame when set.
	LocalAddress string            `config:"localAddress,interpolate"`
	Tags         map[string]string `config:"tags"`

	PoolSize          int             `config:"poolSize"`
	Effort            int             `config:"effort"`
	TransportHalfLife time.Duration   `config:"transportHalfLife"`
	Transport         string          `config:"transport"`
	KeepAlive         KeepAliveConfig `config:"keepAlive"`
	Quantiles         QuantilesConfig `config:"quantiles"`
	Discovery         DiscoveryConfig `config:"discovery"`
	Backoff           BackoffConfig   `config:"backoff"`
}

// KeepAliveConfig configures connection health checking.
type KeepAliveConfig struct {
	Enabled    bool          `config:"enabled"`
	TickPeriod time.Duration `config:"tickPeriod"`
	AckTimeout time.Duration `config:"ackTimeout"`
	MissedAcks int           `config:"missedAcks"`
}

// QuantilesConfig sets the latency quantiles member weights are normalized
// against.
type QuantilesConfig struct {
	Low  float64 `config:"low"`
	High float64 `config:"high"`
}

// DiscoveryConfig configures where brokers are found. When etcd endpoints
// are set the client follows etcd, otherwise it uses the static addresses.
type DiscoveryConfig struct {
	Static       StaticConfig         `config:"static"`
	PollInterval time.Duration        `config:"pollInterval"`
	Etcd         etcddiscovery.Config `config:"etcd"`
}

// StaticConfig lists brokers as host[:port], tcp:// or ws:// addresses.
type StaticConfig struct {
	Addresses []string `config:"addresses"`
	Port      int      `config:"port"`
}

// BackoffConfig configures the retry delays of discovery.
type BackoffConfig struct {
	Exponential ExponentialBackoff `config:"exponential"`
}

// ExponentialBackoff configures a full jitter exponential backoff.
type ExponentialBackoff struct {
	Min  time.Duration `config:"min"`
	Max  time.Duration `config:"max"`
	Base time.Duration `config:"base"`
}

// Strategy returns the configured strategy, or nil when nothing is set so
// that discovery keeps its own default.
func (c BackoffConfig) Strategy() (backoffapi.Strategy, error) {
	e := c.Exponential
	if e == (ExponentialBackoff{}) {
		return nil, nil
	}

	var opts []backoff.ExponentialOption
	if e.Min > 0 {
		opts = append(opts, backoff.MinBackoff(e.Min))
	}
	if e.Max > 0 {
		opts = append(opts, backoff.MaxBackoff(e.Max))
	}
	if e.Base > 0 {
		opts = append(opts, backoff.BaseJump(e.Base))
	}
	strategy, err := backoff.NewExponential(opts...)
	if err != nil {
		return nil, err
	}
	return strategy, nil
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	ka := reconnecting.DefaultKeepAlive
	return Config{
		PoolSize:          pool.DefaultSize(),
		Effort:            pool.DefaultEffort,
		TransportHalfLife: supplier.DefaultHalfLife,
		Transport:         transportTCP,
		KeepAlive: KeepAliveConfig{
			Enabled:    ka.Enabled,
			TickPeriod: ka.TickPeriod,
			AckTimeout: ka.AckTimeout,
			MissedAcks: ka.MissedAcks,
		},
		Quantiles: QuantilesConfig{Low: 0.5, High: 0.8},
		Discovery: DiscoveryConfig{
			Static:       StaticConfig{Port: DefaultPort},
			PollInterval: discovery.DefaultPollInterval,
		},
	}
}

// LoadConfigFromYAML reads a Config from YAML. Fields tagged for
// interpolation may reference environment variables as ${NAME} or
// ${NAME:default}.
func LoadConfigFromYAML(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return Config{}, err
	}
	return LoadConfig(data, os.LookupEnv)
}

// LoadConfig decodes a Config from a map[string]interface{} or
// map[interface{}]interface{}, resolving variables with resolve.
func LoadConfig(data interface{}, resolve func(name string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if data == nil {
		return cfg, cfg.Validate()
	}
	if err := config.DecodeInto(&cfg, data, config.InterpolateWith(interpolate.VariableResolver(resolve))); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem with the configuration.
func (c Config) Validate() (err error) {
	if c.Group == "" {
		err = multierr.Append(err, errors.New("group is required"))
	}
	if c.PoolSize < 1 {
		err = multierr.Append(err, fmt.Errorf("poolSize must be positive, got %d", c.PoolSize))
	}
	if c.Effort < 1 {
		err = multierr.Append(err, fmt.Errorf("effort must be positive, got %d", c.Effort))
	}
	if c.TransportHalfLife <= 0 {
		err = multierr.Append(err, fmt.Errorf("transportHalfLife must be positive, got %v", c.TransportHalfLife))
	}
	if c.Transport != transportTCP && c.Transport != transportWebSocket {
		err = multierr.Append(err, fmt.Errorf("unknown transport %q, expected %q or %q", c.Transport, transportTCP, transportWebSocket))
	}
	if q := c.Quantiles; q.Low <= 0 || q.High >= 1 || q.Low >= q.High {
		err = multierr.Append(err, fmt.Errorf("quantiles must satisfy 0 < low < high < 1, got %v and %v", q.Low, q.High))
	}
	if ka := c.KeepAlive; ka.Enabled && (ka.TickPeriod <= 0 || ka.AckTimeout <= 0 || ka.MissedAcks < 1) {
		err = multierr.Append(err, errors.New("keepAlive needs a positive tickPeriod, ackTimeout and missedAcks"))
	}
	if c.LocalAddress != "" && net.ParseIP(c.LocalAddress) == nil {
		err = multierr.Append(err, fmt.Errorf("localAddress %q is not an IP address", c.LocalAddress))
	}
	for _, addr := range c.Discovery.Static.Addresses {
		if serr := c.checkSeedScheme(addr); serr != nil {
			err = multierr.Append(err, serr)
		}
	}
	if c.Discovery.PollInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("discovery.pollInterval must be positive, got %v", c.Discovery.PollInterval))
	}
	if _, terr := c.accessToken(); terr != nil {
		err = multierr.Append(err, terr)
	}
	if _, berr := c.Backoff.Strategy(); berr != nil {
		err = multierr.Append(err, berr)
	}
	return err
}

// checkSeedScheme rejects seed addresses naming a transport other than
// the configured one. Addresses without a scheme are dialed with the
// configured transport.
func (c Config) checkSeedScheme(addr string) error {
	u, err := url.Parse(addr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	scheme := u.Scheme
	if scheme == "wss" {
		scheme = transportWebSocket
	}
	if (scheme == transportTCP || scheme == transportWebSocket) && scheme != c.Transport {
		return fmt.Errorf("static address %q does not match transport %q", addr, c.Transport)
	}
	return nil
}

func (c Config) alternativeAuthentication() bool {
	return c.AdditionalFlags&FlagAlternativeAuthentication != 0
}

// accessToken returns the token bytes sent in the setup frame.
func (c Config) accessToken() ([]byte, error) {
	if c.alternativeAuthentication() {
		if c.AccessKey != JWTAuthentication {
			return nil, fmt.Errorf("unknown alternative authentication type %d", c.AccessKey)
		}
		return []byte(c.AccessToken), nil
	}
	b, err := base64.StdEncoding.DecodeString(c.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("accessToken is not valid base64: %v", err)
	}
	return b, nil
}
