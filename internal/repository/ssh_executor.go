package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultSSHPort     = 22
	defaultDialTimeout = 30 * time.Second
)

// SSHConfig describes how to reach a remote host.
type SSHConfig struct {
	// Host is the target in the form [user@]host[:port]; host may be an alias from the ssh config file.
	Host                  string
	User                  string
	Port                  int
	IdentityFile          string
	KnownHostsFile        string
	InsecureIgnoreHostKey bool
	// ConfigFile overrides the ssh client configuration file (~/.ssh/config).
	ConfigFile  string
	DialTimeout time.Duration
}

// sshEndpoint is a fully resolved connection target.
type sshEndpoint struct {
	Host         string
	User         string
	Port         int
	IdentityFile string
}

func (e sshEndpoint) address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// sshExecutor runs commands on a remote host over a single ssh connection.
type sshExecutor struct {
	cfg      SSHConfig
	endpoint sshEndpoint
	client   *ssh.Client
	// agentConn is the connection to the local ssh agent, if one was used.
	agentConn net.Conn
}

// NewSSHExecutor creates an Executor for a remote host. The connection is opened on first use.
func NewSSHExecutor(cfg SSHConfig) (Executor, error) {
	endpoint, err := resolveSSHEndpoint(cfg)
	if err != nil {
		return nil, err
	}
	return &sshExecutor{cfg: cfg, endpoint: endpoint}, nil
}

// splitSSHTarget splits [user@]host[:port].
func splitSSHTarget(target string) (user, host string, port int, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", "", 0, fmt.Errorf("ssh host cannot be empty")
	}
	if at := strings.LastIndex(target, "@"); at >= 0 {
		user, target = target[:at], target[at+1:]
	}
	host = target
	if h, p, splitErr := net.SplitHostPort(target); splitErr == nil {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid ssh port %q", p)
		}
		host = h
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("invalid ssh host %q", target)
	}
	return user, host, port, nil
}

// resolveSSHEndpoint combines the target, explicit settings and the ssh client configuration.
// Explicit settings win over the target, which wins over the configuration file.
func resolveSSHEndpoint(cfg SSHConfig) (sshEndpoint, error) {
	user, alias, port, err := splitSSHTarget(cfg.Host)
	if err != nil {
		return sshEndpoint{}, err
	}
	lookup, err := sshConfigLookup(cfg.ConfigFile)
	if err != nil {
		return sshEndpoint{}, err
	}
	endpoint := sshEndpoint{Host: alias, User: user, Port: port, IdentityFile: cfg.IdentityFile}
	if hostName := lookup(alias, "HostName"); hostName != "" {
		endpoint.Host = hostName
	}
	if cfg.User != "" {
		endpoint.User = cfg.User
	}
	if endpoint.User == "" {
		endpoint.User = lookup(alias, "User")
	}
	if endpoint.User == "" {
		endpoint.User = os.Getenv("USER")
	}
	if cfg.Port != 0 {
		endpoint.Port = cfg.Port
	}
	if endpoint.Port == 0 {
		if p, convErr := strconv.Atoi(lookup(alias, "Port")); convErr == nil && p > 0 {
			endpoint.Port = p
		} else {
			endpoint.Port = defaultSSHPort
		}
	}
	if endpoint.IdentityFile == "" {
		if identity := expandHome(lookup(alias, "IdentityFile")); identity != "" {
			if _, statErr := os.Stat(identity); statErr == nil {
				endpoint.IdentityFile = identity
			}
		}
	}
	return endpoint, nil
}

// sshConfigLookup returns a key lookup over the given file, or over the user's default files.
func sshConfigLookup(path string) (func(alias, key string) string, error) {
	if path == "" {
		return ssh_config.Get, nil
	}
	f, err := os.Open(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh config %s: %w", path, err)
	}
	defer f.Close()
	decoded, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh config %s: %w", path, err)
	}
	return func(alias, key string) string {
		value, getErr := decoded.Get(alias, key)
		if getErr != nil {
			return ""
		}
		return value
	}, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (e *sshExecutor) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			_ = e.closeAgent()
			e.agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if e.endpoint.IdentityFile != "" {
		key, err := os.ReadFile(e.endpoint.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse identity file %s: %w", e.endpoint.IdentityFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no ssh authentication available: start an ssh agent or set an identity file")
	}
	return methods, nil
}

func (e *sshExecutor) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if e.cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested by configuration
	}
	path := e.cfg.KnownHostsFile
	if path == "" {
		path = "~/.ssh/known_hosts"
	}
	callback, err := knownhosts.New(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}
	return callback, nil
}

func (e *sshExecutor) connect(ctx context.Context) (*ssh.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	auth, err := e.authMethods()
	if err != nil {
		return nil, err
	}
	hostKeys, err := e.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	timeout := e.cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	addr := e.endpoint.address()
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            e.endpoint.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	e.client = ssh.NewClient(clientConn, chans, reqs)
	return e.client, nil
}

// Run executes the command through the remote user's shell.
func (e *sshExecutor) Run(ctx context.Context, c Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	client, err := e.connect(ctx)
	if err != nil {
		return Result{}, err
	}
	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()
	var stdout, stderr bytes.Buffer
	session.Stdout = teeWriter(&stdout, c.Stdout)
	session.Stderr = teeWriter(&stderr, c.Stderr)
	err = session.Run(shellCommandLine(c.Dir, c.Name, c.Args))
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s on %s: %w", c.String(), e.endpoint.Host, err)
	}
	return result, nil
}

// Exists tests for the path on the remote host.
func (e *sshExecutor) Exists(ctx context.Context, path string) (bool, error) {
	res, err := e.Run(ctx, Command{Name: "test", Args: []string{"-e", path}})
	if err != nil {
		return false, err
	}
	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &ShellError{Command: "test -e " + path, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
}

// Close closes the ssh connection and the agent connection if they were opened.
func (e *sshExecutor) Close() error {
	agentErr := e.closeAgent()
	if e.client == nil {
		return agentErr
	}
	err := e.client.Close()
	e.client = nil
	return errors.Join(err, agentErr)
}

func (e *sshExecutor) closeAgent() error {
	if e.agentConn == nil {
		return nil
	}
	err := e.agentConn.Close()
	e.agentConn = nil
	return err
}
