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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func resolverOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func loadYAML(t *testing.T, src string, vars map[string]string) (Config, error) {
	var data map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(src), &data))
	return LoadConfig(data, resolverOf(vars))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadYAML(t, "group: quotes", nil)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Group = "quotes"
	assert.Equal(t, want, cfg)
	assert.Equal(t, DefaultPort, cfg.Discovery.Static.Port)
	assert.Equal(t, "tcp", cfg.Transport)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadYAML(t, `
group: ${GROUP:quotes}
destination: ${HOSTNAME}
accessKey: 9007199254740991
accessToken: ${TOKEN}
connectionId: fixed
localAddress: 10.0.0.1
tags:
  region: us-west
poolSize: 4
effort: 2
transportHalfLife: 10s
transport: ws
keepAlive:
  enabled: true
  tickPeriod: 2s
  ackTimeout: 10s
  missedAcks: 5
quantiles:
  low: 0.2
  high: 0.9
discovery:
  pollInterval: 3s
  static:
    addresses: [broker-1, "broker-2:8101"]
    port: 9000
  etcd:
    endpoints: [etcd-1:2379]
    prefix: /brokers/
backoff:
  exponential:
    min: 100ms
    max: 5s
`, map[string]string{"HOSTNAME": "host-1", "TOKEN": "c2VjcmV0"})
	require.NoError(t, err)

	assert.Equal(t, "quotes", cfg.Group)
	assert.Equal(t, "host-1", cfg.Destination)
	assert.Equal(t, uint64(9007199254740991), cfg.AccessKey)
	assert.Equal(t, "c2VjcmV0", cfg.AccessToken)
	assert.Equal(t, "fixed", cfg.ConnectionID)
	assert.Equal(t, "10.0.0.1", cfg.LocalAddress)
	assert.Equal(t, map[string]string{"region": "us-west"}, cfg.Tags)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 2, cfg.Effort)
	assert.Equal(t, 10*time.Second, cfg.TransportHalfLife)
	assert.Equal(t, "ws", cfg.Transport)
	assert.Equal(t, KeepAliveConfig{Enabled: true, TickPeriod: 2 * time.Second, AckTimeout: 10 * time.Second, MissedAcks: 5}, cfg.KeepAlive)
	assert.Equal(t, QuantilesConfig{Low: 0.2, High: 0.9}, cfg.Quantiles)
	assert.Equal(t, 3*time.Second, cfg.Discovery.PollInterval)
	assert.Equal(t, []string{"broker-1", "broker-2:8101"}, cfg.Discovery.Static.Addresses)
	assert.Equal(t, 9000, cfg.Discovery.Static.Port)
	assert.Equal(t, []string{"etcd-1:2379"}, cfg.Discovery.Etcd.Endpoints)
	assert.Equal(t, "/brokers/", cfg.Discovery.Etcd.Prefix)
	assert.Equal(t, ExponentialBackoff{Min: 100 * time.Millisecond, Max: 5 * time.Second}, cfg.Backoff.Exponential)

	token, err := cfg.accessToken()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), token)
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Setenv("NETIFI_TEST_GROUP", "env-group")

	cfg, err := LoadConfigFromYAML(strings.NewReader("group: ${NETIFI_TEST_GROUP}\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-group", cfg.Group)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		desc    string
		give    string
		vars    map[string]string
		wantErr []string
	}{
		{
			desc:    "missing group",
			give:    "poolSize: 2",
			wantErr: []string{"group is required"},
		},
		{
			desc:    "unresolved variable",
			give:    "group: ${MISSING}",
			wantErr: []string{"MISSING"},
		},
		{
			desc: "many problems at once",
			give: `
group: quotes
poolSize: 0
transport: udp
quantiles: {low: 0.9, high: 0.1}
`,
			wantErr: []string{
				"poolSize must be positive",
				`unknown transport "udp"`,
				"quantiles must satisfy",
			},
		},
		{
			desc:    "bad local address",
			give:    "{group: quotes, localAddress: not-an-ip}",
			wantErr: []string{`localAddress "not-an-ip" is not an IP address`},
		},
		{
			desc:    "token not base64",
			give:    "{group: quotes, accessToken: '***'}",
			wantErr: []string{"accessToken is not valid base64"},
		},
		{
			desc:    "unknown alternative authentication",
			give:    "{group: quotes, accessKey: 7, additionalFlags: 1, accessToken: abc}",
			wantErr: []string{"unknown alternative authentication type 7"},
		},
		{
			desc: "keepalive without period",
			give: `
group: quotes
keepAlive: {enabled: true, tickPeriod: 0s}
`,
			wantErr: []string{"keepAlive needs a positive tickPeriod"},
		},
		{
			desc: "backoff min above max",
			give: `
group: quotes
backoff: {exponential: {min: 10s, max: 1s}}
`,
			wantErr: []string{"exponential max value must be greater than min value"},
		},
		{
			desc: "tcp seed with websocket transport",
			give: `
group: quotes
transport: ws
discovery: {static: {addresses: ["ws://broker-1:8101", "tcp://broker-2:8001"]}}
`,
			wantErr: []string{`static address "tcp://broker-2:8001" does not match transport "ws"`},
		},
		{
			desc: "websocket seed with tcp transport",
			give: `
group: quotes
discovery: {static: {addresses: ["wss://broker-1:8101"]}}
`,
			wantErr: []string{`static address "wss://broker-1:8101" does not match transport "tcp"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := loadYAML(t, tt.give, tt.vars)
			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestBackoffStrategy(t *testing.T) {
	s, err := BackoffConfig{}.Strategy()
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = BackoffConfig{Exponential: ExponentialBackoff{Min: time.Second, Max: time.Minute}}.Strategy()
	require.NoError(t, err)
	require.NotNil(t, s)

	b := s.Backoff()
	assert.True(t, b.Duration(0) <= time.Minute)
}
