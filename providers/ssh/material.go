package ssh

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/fileutil"
)

// HostAlias is the Host entry written to every generated client config.
const HostAlias = "shipit-target"

// File names inside a material directory.
const (
	KeyFile        = "id_deploy"
	KnownHostsFile = "known_hosts"
	ConfigFile     = "config"
	ControlSocket  = "cm"
)

var errEmptyKey = errors.New("private key material is empty")

// MaterialSpec describes the SSH material for one deployment run.
type MaterialSpec struct {
	Host       string
	Port       int
	User       string
	PrivateKey string // base64 of the private key file

	ConnectTimeout    time.Duration
	KeepAlive         time.Duration
	KeepAliveCountMax int
	ControlPersist    time.Duration
}

// Material is the on-disk result of WriteMaterial.
type Material struct {
	Dir            string
	KeyPath        string
	KnownHostsPath string
	ConfigPath     string
	ControlPath    string
}

// WriteMaterial creates dir (mode 0700) and writes the decoded key, an empty known_hosts
// file and the client config into it. Key problems are reported as *shipit.KeyWriteError.
func WriteMaterial(dir string, spec MaterialSpec) (*Material, error) {
	m := &Material{
		Dir:            dir,
		KeyPath:        filepath.Join(dir, KeyFile),
		KnownHostsPath: filepath.Join(dir, KnownHostsFile),
		ConfigPath:     filepath.Join(dir, ConfigFile),
		ControlPath:    filepath.Join(dir, ControlSocket),
	}

	key, err := DecodePrivateKey(spec.PrivateKey)
	if err != nil {
		return nil, &shipit.KeyWriteError{Path: m.KeyPath, Err: err}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &shipit.KeyWriteError{Path: m.KeyPath, Err: err}
	}

	if err := os.Chmod(dir, 0o700); err != nil {
		return nil, &shipit.KeyWriteError{Path: m.KeyPath, Err: err}
	}

	if err := fileutil.WritePrivateFile(m.KeyPath, key); err != nil {
		return nil, &shipit.KeyWriteError{Path: m.KeyPath, Err: err}
	}

	if err := fileutil.AppendPrivateFile(m.KnownHostsPath, nil); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", m.KnownHostsPath, err)
	}

	if err := fileutil.WritePrivateFile(m.ConfigPath, []byte(RenderConfig(spec, m))); err != nil {
		return nil, fmt.Errorf("failed to write ssh config %s: %w", m.ConfigPath, err)
	}

	return m, nil
}

// DecodePrivateKey decodes base64 key material. Whitespace anywhere in the input is
// ignored, so wrapped secrets decode the same as single-line ones. The decoded bytes
// are returned unchanged.
func DecodePrivateKey(encoded string) ([]byte, error) {
	compact := strings.Join(strings.Fields(encoded), "")
	if compact == "" {
		return nil, errEmptyKey
	}

	key, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid base64: %w", err)
	}

	if len(strings.TrimSpace(string(key))) == 0 {
		return nil, errEmptyKey
	}

	return key, nil
}

// EncodePrivateKey returns the base64 form expected in DO_SSH_KEY.
func EncodePrivateKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// RenderConfig renders the OpenSSH client config for spec, pointing at the files in m.
func RenderConfig(spec MaterialSpec, m *Material) string {
	pattern, err := ssh_config.NewPattern(HostAlias)
	if err != nil {
		// HostAlias is a constant without wildcards.
		panic(err)
	}

	port := spec.Port
	if port == 0 {
		port = defaultPort
	}

	countMax := spec.KeepAliveCountMax
	if countMax == 0 {
		countMax = defaultKeepAliveCountMax
	}

	kvs := []struct{ key, value string }{
		{"HostName", spec.Host},
		{"User", spec.User},
		{"Port", strconv.Itoa(port)},
		{"IdentityFile", m.KeyPath},
		{"IdentitiesOnly", "yes"},
		{"StrictHostKeyChecking", "no"},
		{"UserKnownHostsFile", m.KnownHostsPath},
		{"ConnectTimeout", seconds(spec.ConnectTimeout)},
		{"ServerAliveInterval", seconds(spec.KeepAlive)},
		{"ServerAliveCountMax", strconv.Itoa(countMax)},
		{"BatchMode", "yes"},
		{"ControlMaster", "auto"},
		{"ControlPath", m.ControlPath},
		{"ControlPersist", seconds(spec.ControlPersist)},
	}

	host := &ssh_config.Host{Patterns: []*ssh_config.Pattern{pattern}}

	for _, kv := range kvs {
		if kv.value == "" {
			continue
		}

		host.Nodes = append(host.Nodes, &ssh_config.KV{Key: kv.key, Value: configValue(kv.value)})
	}

	return ssh_config.Config{Hosts: []*ssh_config.Host{host}}.String()
}

func seconds(d time.Duration) string {
	if d <= 0 {
		return ""
	}

	s := int(d / time.Second)
	if s < 1 {
		s = 1
	}

	return strconv.Itoa(s)
}

func configValue(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}

	return v
}
