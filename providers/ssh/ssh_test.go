package ssh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig("example.com", "root")
	c.InsecureSkipVerify = true
	c = c.WithDefaults()

	assert.Equal(t, 22, c.Port)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Equal(t, 4, c.KeepAliveCountMax)
	assert.NotNil(t, c.HostKeyCheck)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid",
			config:  Config{Host: "example.com", User: "root", InsecureSkipVerify: true}.WithDefaults(),
			wantErr: false,
		},
		{
			name:    "known hosts file instead of callback",
			config:  Config{Host: "example.com", User: "root", KnownHostsPath: "/tmp/known_hosts"}.WithDefaults(),
			wantErr: false,
		},
		{
			name:    "missing host",
			config:  Config{User: "root"},
			wantErr: true,
		},
		{
			name:    "missing user",
			config:  Config{Host: "example.com"},
			wantErr: true,
		},
		{
			name:    "no host key verification configured",
			config:  Config{Host: "example.com", User: "root"}.WithDefaults(),
			wantErr: true,
		},
		{
			name:    "port out of range",
			config:  Config{Host: "example.com", User: "root", Port: 70000, InsecureSkipVerify: true}.WithDefaults(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	var c Config

	for _, opt := range []Option{
		WithConfig(NewConfig("ignored", "ignored")),
		WithHost("203.0.113.10"),
		WithUser("deploy"),
		WithPort(2222),
		WithKeyPath("/keys/id_deploy"),
		WithTimeout(5 * time.Second),
		WithKeepAlive(15 * time.Second),
		WithInsecureSkipVerify(true),
	} {
		opt(&c)
	}

	assert.Equal(t, "203.0.113.10", c.Host)
	assert.Equal(t, "deploy", c.User)
	assert.Equal(t, "203.0.113.10:2222", c.Addr())
	assert.Equal(t, "/keys/id_deploy", c.PrivateKeyPath)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 15*time.Second, c.KeepAlive)
	assert.True(t, c.InsecureSkipVerify)
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		host string
		port int
		want string
	}{
		{"ipv4", "203.0.113.10", 22, "203.0.113.10:22"},
		{"hostname", "deploy.example.com", 2222, "deploy.example.com:2222"},
		{"ipv6", "2001:db8::10", 22, "[2001:db8::10]:22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewConfig(tt.host, "deploy")
			c.Port = tt.port

			assert.Equal(t, tt.want, c.Addr())
		})
	}
}
