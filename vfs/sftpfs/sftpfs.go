// Package sftpfs implements vfs.Provider for the Sftp scheme kind: one
// pooled SSH/SFTP session per domain, grounded on rclone's
// backend/sftp/sftp.go (the conn-pool idiom in getSftpConnection/
// putSftpConnection and the ssh-agent/key-file/password auth chain built
// in NewFs).
package sftpfs

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/sftp"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// HostConfig describes one Sftp-scheme domain's connection parameters.
// Domains are resolved to a HostConfig by a Resolver supplied at
// construction (e.g. reading ~/.ssh/config or a dirsail-specific mapping);
// the core itself has no opinion on where these come from.
type HostConfig struct {
	Host         string
	User         string
	Port         int
	Password     string
	KeyFile      string
	KeyPEM       []byte
	UseAgent     bool
	HostKeyCheck ssh.HostKeyCallback
}

// Resolver maps a Url's domain segment to a HostConfig.
type Resolver func(domain string) (HostConfig, error)

type conn struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

func (c *conn) Close() {
	if c.sftpClient != nil {
		_ = c.sftpClient.Close()
	}
	if c.sshClient != nil {
		_ = c.sshClient.Close()
	}
}

// domainPool pools sessions for a single domain, mirroring Fs.pool/poolMu
// in the teacher.
type domainPool struct {
	mu       sync.Mutex
	pool     []*conn
	maxIdle  int
	cfg      HostConfig
}

func (d *domainPool) get() (*conn, error) {
	d.mu.Lock()
	if len(d.pool) > 0 {
		c := d.pool[0]
		d.pool = d.pool[1:]
		d.mu.Unlock()
		return c, nil
	}
	d.mu.Unlock()
	return d.dial()
}

func (d *domainPool) put(c *conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pool) >= d.maxIdle {
		go c.Close()
		return
	}
	d.pool = append(d.pool, c)
}

func (d *domainPool) dial() (*conn, error) {
	sshCfg := &ssh.ClientConfig{
		User:            d.cfg.User,
		Timeout:         15 * time.Second,
		HostKeyCallback: d.cfg.HostKeyCheck,
	}
	if sshCfg.HostKeyCallback == nil {
		sshCfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	switch {
	case len(d.cfg.KeyPEM) > 0:
		signer, err := ssh.ParsePrivateKey(d.cfg.KeyPEM)
		if err != nil {
			return nil, fmt.Errorf("sftpfs: parse key_pem: %w", err)
		}
		sshCfg.Auth = append(sshCfg.Auth, ssh.PublicKeys(signer))
	case d.cfg.KeyFile != "":
		data, err := os.ReadFile(d.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("sftpfs: read key_file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("sftpfs: parse key_file: %w", err)
		}
		sshCfg.Auth = append(sshCfg.Auth, ssh.PublicKeys(signer))
	case d.cfg.UseAgent:
		agentClient, _, err := sshagent.New()
		if err != nil {
			return nil, fmt.Errorf("sftpfs: ssh-agent: %w", err)
		}
		signers, err := agentClient.Signers()
		if err != nil {
			return nil, fmt.Errorf("sftpfs: ssh-agent signers: %w", err)
		}
		sshCfg.Auth = append(sshCfg.Auth, ssh.PublicKeys(signers...))
	case d.cfg.Password != "":
		sshCfg.Auth = append(sshCfg.Auth, ssh.Password(d.cfg.Password))
	}

	port := d.cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(port))
	sshClient, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("sftpfs: dial %s: %w", addr, err)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftpfs: sftp handshake: %w", err)
	}
	return &conn{sshClient: sshClient, sftpClient: sftpClient}, nil
}

// Provider implements vfs.Provider for the Sftp scheme, pooling one
// domainPool per distinct domain seen.
type Provider struct {
	resolve Resolver
	maxIdle int

	mu    sync.Mutex
	pools map[string]*domainPool
}

func New(resolve Resolver, poolSize int) *Provider {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Provider{resolve: resolve, maxIdle: poolSize, pools: make(map[string]*domainPool)}
}

var _ vfs.Provider = (*Provider)(nil)

func (p *Provider) poolFor(domain string) (*domainPool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dp, ok := p.pools[domain]; ok {
		return dp, nil
	}
	cfg, err := p.resolve(domain)
	if err != nil {
		return nil, err
	}
	dp := &domainPool{cfg: cfg, maxIdle: p.maxIdle}
	p.pools[domain] = dp
	return dp, nil
}

// withClient runs fn against a pooled *sftp.Client for u's domain,
// returning the connection to the pool afterward.
func (p *Provider) withClient(u vfsurl.Url, fn func(*sftp.Client) error) error {
	dp, err := p.poolFor(u.Scheme().Domain)
	if err != nil {
		return err
	}
	c, err := dp.get()
	if err != nil {
		return err
	}
	err = fn(c.sftpClient)
	dp.put(c)
	return err
}

func toCha(u vfsurl.Url, fi os.FileInfo, isLink bool) cha.Cha {
	c := cha.FromFileInfo(u, fi, false).Cha
	if isLink {
		c.Kind |= cha.KindLink
	}
	return c
}

func (p *Provider) Metadata(_ context.Context, u vfsurl.Url) (cha.Cha, error) {
	var out cha.Cha
	err := p.withClient(u, func(c *sftp.Client) error {
		fi, err := c.Stat(u.Path())
		if err != nil {
			return err
		}
		out = toCha(u, fi, false)
		return nil
	})
	if err != nil && xerrors.IsNotFound(err) {
		return cha.Dummy(), err
	}
	return out, err
}

func (p *Provider) SymlinkMetadata(_ context.Context, u vfsurl.Url) (cha.Cha, error) {
	var out cha.Cha
	err := p.withClient(u, func(c *sftp.Client) error {
		fi, err := c.Lstat(u.Path())
		if err != nil {
			return err
		}
		out = toCha(u, fi, fi.Mode()&os.ModeSymlink != 0)
		return nil
	})
	return out, err
}

func (p *Provider) ReadDir(_ context.Context, u vfsurl.Url) ([]cha.File, error) {
	var out []cha.File
	err := p.withClient(u, func(c *sftp.Client) error {
		entries, err := c.ReadDir(u.Path())
		if err != nil {
			return err
		}
		out = make([]cha.File, 0, len(entries))
		for _, fi := range entries {
			childURL := vfsurl.Join(u, fi.Name())
			out = append(out, cha.File{Url: childURL, Cha: toCha(childURL, fi, fi.Mode()&os.ModeSymlink != 0)})
		}
		return nil
	})
	return out, err
}

func (p *Provider) ReadLink(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	var target string
	err := p.withClient(u, func(c *sftp.Client) error {
		t, err := c.ReadLink(u.Path())
		if err != nil {
			return err
		}
		target = t
		return nil
	})
	if err != nil {
		return vfsurl.Url{}, err
	}
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(u.Path()), target)
	}
	return vfsurl.Parse(fmt.Sprintf("sftp://%s:%d:%d%s", u.Scheme().Domain, u.Uri(), u.Urn(), target))
}

// sftpFile adapts *sftp.File to vfs.File (it already implements
// Read/Write/Seek/Close).
type sftpFile struct {
	*sftp.File
	dp *domainPool
	c  *conn
}

func (f *sftpFile) Close() error {
	err := f.File.Close()
	f.dp.put(f.c)
	return err
}

func (p *Provider) Create(_ context.Context, u vfsurl.Url, opts vfs.GateOptions) (vfs.File, error) {
	dp, err := p.poolFor(u.Scheme().Domain)
	if err != nil {
		return nil, err
	}
	c, err := dp.get()
	if err != nil {
		return nil, err
	}
	flags := os.O_RDONLY
	switch {
	case opts.Read && opts.Write:
		flags = os.O_RDWR
	case opts.Write:
		flags = os.O_WRONLY
	}
	if opts.Append {
		flags |= os.O_APPEND
	}
	if opts.Create {
		flags |= os.O_CREATE
	}
	if opts.CreateNew {
		flags |= os.O_CREATE | os.O_EXCL
	}
	if opts.Truncate {
		flags |= os.O_TRUNC
	}
	f, err := c.sftpClient.OpenFile(u.Path(), flags)
	if err != nil {
		dp.put(c)
		return nil, err
	}
	return &sftpFile{File: f, dp: dp, c: c}, nil
}

func (p *Provider) CreateDir(_ context.Context, u vfsurl.Url) error {
	return p.withClient(u, func(c *sftp.Client) error { return c.Mkdir(u.Path()) })
}

func (p *Provider) CreateDirAll(_ context.Context, u vfsurl.Url) error {
	return p.withClient(u, func(c *sftp.Client) error { return c.MkdirAll(u.Path()) })
}

func (p *Provider) RemoveFile(_ context.Context, u vfsurl.Url) error {
	return p.withClient(u, func(c *sftp.Client) error { return c.Remove(u.Path()) })
}

func (p *Provider) RemoveDir(_ context.Context, u vfsurl.Url) error {
	return p.withClient(u, func(c *sftp.Client) error { return c.RemoveDirectory(u.Path()) })
}

func (p *Provider) RemoveDirAll(_ context.Context, u vfsurl.Url) error {
	return p.withClient(u, func(c *sftp.Client) error {
		return removeAllRecursive(c, u.Path())
	})
}

func removeAllRecursive(c *sftp.Client, p string) error {
	fi, err := c.Lstat(p)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		entries, err := c.ReadDir(p)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := removeAllRecursive(c, path.Join(p, e.Name())); err != nil {
				return err
			}
		}
		return c.RemoveDirectory(p)
	}
	return c.Remove(p)
}

func (p *Provider) Rename(_ context.Context, src, dst vfsurl.Url) error {
	return p.withClient(src, func(c *sftp.Client) error { return c.Rename(src.Path(), dst.Path()) })
}

func (p *Provider) Copy(ctx context.Context, src, dst vfsurl.Url, onProgress func(int64)) error {
	return p.withClient(src, func(c *sftp.Client) error {
		in, err := c.Open(src.Path())
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := c.OpenFile(dst.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
		if err != nil {
			return err
		}
		defer out.Close()

		buf := make([]byte, 1<<20)
		var sinceYield int64
		last := time.Now()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, rerr := in.Read(buf)
			if n > 0 {
				if _, werr := out.Write(buf[:n]); werr != nil {
					return werr
				}
				sinceYield += int64(n)
				if onProgress != nil && time.Since(last) >= 3*time.Second {
					onProgress(sinceYield)
					sinceYield = 0
					last = time.Now()
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
		if onProgress != nil && sinceYield > 0 {
			onProgress(sinceYield)
		}
		return nil
	})
}

func (p *Provider) HardLink(_ context.Context, src, dst vfsurl.Url) error {
	return xerrors.ErrUnsupportedScheme
}

func (p *Provider) Symlink(_ context.Context, target, link vfsurl.Url, relative bool) error {
	return p.withClient(link, func(c *sftp.Client) error {
		return c.Symlink(target.Path(), link.Path())
	})
}

func (p *Provider) Trash(ctx context.Context, u vfsurl.Url) error {
	return p.RemoveFile(ctx, u)
}

func (p *Provider) Casefold(_ context.Context, u vfsurl.Url) (string, error) {
	dir := path.Dir(u.Path())
	want := path.Base(u.Path())
	var result string
	err := p.withClient(u, func(c *sftp.Client) error {
		entries, err := c.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if len(e.Name()) == len(want) && equalFold(e.Name(), want) {
				result = e.Name()
				return nil
			}
		}
		return os.ErrNotExist
	})
	return result, err
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (p *Provider) Absolute(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	if path.IsAbs(u.Path()) {
		return u, nil
	}
	return vfsurl.Url{}, fmt.Errorf("sftpfs: relative paths are not addressable without a working directory")
}
