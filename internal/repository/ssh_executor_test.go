package repository

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSSHTarget(t *testing.T) {
	cases := []struct {
		in       string
		wantUser string
		wantHost string
		wantPort int
	}{
		{in: "example.com", wantHost: "example.com"},
		{in: "deploy@example.com", wantUser: "deploy", wantHost: "example.com"},
		{in: "deploy@example.com:2222", wantUser: "deploy", wantHost: "example.com", wantPort: 2222},
		{in: "[::1]:2200", wantHost: "::1", wantPort: 2200},
	}
	for _, tc := range cases {
		t.Run("Should split "+tc.in, func(t *testing.T) {
			user, host, port, err := splitSSHTarget(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.wantUser, user)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPort, port)
		})
	}
	t.Run("Should reject empty and invalid targets", func(t *testing.T) {
		for _, in := range []string{"", "user@", "host:0", "host:abc"} {
			_, _, _, err := splitSSHTarget(in)
			assert.Error(t, err, "input %q", in)
		}
	})
}

func TestResolveSSHEndpoint(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "config")
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}
	t.Run("Should resolve alias from ssh config", func(t *testing.T) {
		path := writeConfig(t, "Host web\n  HostName web1.example.com\n  User www\n  Port 2022\n")
		endpoint, err := resolveSSHEndpoint(SSHConfig{Host: "web", ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, "web1.example.com", endpoint.Host)
		assert.Equal(t, "www", endpoint.User)
		assert.Equal(t, 2022, endpoint.Port)
		assert.Equal(t, "web1.example.com:2022", endpoint.address())
	})
	t.Run("Should prefer explicit settings over the config file", func(t *testing.T) {
		path := writeConfig(t, "Host web\n  User www\n  Port 2022\n")
		endpoint, err := resolveSSHEndpoint(SSHConfig{Host: "admin@web:2200", User: "root", ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, "web", endpoint.Host)
		assert.Equal(t, "root", endpoint.User)
		assert.Equal(t, 2200, endpoint.Port)
	})
	t.Run("Should default to port 22", func(t *testing.T) {
		path := writeConfig(t, "")
		endpoint, err := resolveSSHEndpoint(SSHConfig{Host: "deploy@example.com", ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, 22, endpoint.Port)
		assert.Equal(t, "deploy", endpoint.User)
	})
	t.Run("Should fail for a missing config file", func(t *testing.T) {
		_, err := resolveSSHEndpoint(SSHConfig{Host: "web", ConfigFile: filepath.Join(t.TempDir(), "nope")})
		assert.Error(t, err)
	})
}

func TestSSHExecutor_Close(t *testing.T) {
	t.Run("Should be a no-op before connecting", func(t *testing.T) {
		e, err := NewSSHExecutor(SSHConfig{Host: "deploy@example.com", ConfigFile: os.DevNull})
		require.NoError(t, err)
		assert.NoError(t, e.Close())
	})
	t.Run("Should close the agent connection", func(t *testing.T) {
		dir, err := os.MkdirTemp("", "agent")
		require.NoError(t, err)
		defer os.RemoveAll(dir)
		sock := filepath.Join(dir, "agent.sock")
		ln, err := net.Listen("unix", sock)
		require.NoError(t, err)
		defer ln.Close()
		t.Setenv("SSH_AUTH_SOCK", sock)
		e := &sshExecutor{}
		methods, err := e.authMethods()
		require.NoError(t, err)
		assert.Len(t, methods, 1)
		server, err := ln.Accept()
		require.NoError(t, err)
		defer server.Close()
		require.NoError(t, e.Close())
		assert.Nil(t, e.agentConn)
		_, err = server.Read(make([]byte, 1))
		assert.ErrorIs(t, err, io.EOF)
	})
}
