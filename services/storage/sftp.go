package storagesvc

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/trezcool/learnhub/core"
)

const sftpDialTimeout = 20 * time.Second

// SFTPStorage stores files on a remote SFTP host. It is used when the API
// runs on hosts without durable local disks.
type SFTPStorage struct {
	ssh    *ssh.Client
	client *sftp.Client
	root   string
}

var _ Storage = (*SFTPStorage)(nil)

func NewSFTPStorage(conf *core.Config) (*SFTPStorage, error) {
	sc := conf.Storage
	if sc.SFTPHost == "" || sc.SFTPUser == "" {
		return nil, errors.New("sftp host and user are required")
	}
	port := sc.SFTPPort
	if port <= 0 {
		port = 22
	}
	sshCfg := &ssh.ClientConfig{
		User: sc.SFTPUser,
		Auth: []ssh.AuthMethod{ssh.Password(sc.SFTPPassword)},
		// TODO: verify against known_hosts
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sftpDialTimeout,
	}
	sshClient, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", sc.SFTPHost, port), sshCfg)
	if err != nil {
		return nil, errors.Wrap(err, "dialing sftp host")
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, errors.Wrap(err, "starting sftp session")
	}
	root := sc.Root
	if root == "" {
		root = "/"
	}
	if err = client.MkdirAll(root); err != nil {
		_ = client.Close()
		_ = sshClient.Close()
		return nil, errors.Wrapf(err, "creating remote root %s", root)
	}
	return &SFTPStorage{ssh: sshClient, client: client, root: root}, nil
}

func (s *SFTPStorage) Close() error {
	if err := s.client.Close(); err != nil {
		return err
	}
	return s.ssh.Close()
}

func (s *SFTPStorage) path(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return path.Join(s.root, key), nil
}

func (s *SFTPStorage) Save(key string, src io.Reader) (int64, error) {
	dst, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err = s.client.MkdirAll(path.Dir(dst)); err != nil {
		return 0, errors.Wrap(err, "creating remote dir")
	}
	f, err := s.client.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "creating remote file")
	}
	defer f.Close()
	n, err := io.Copy(f, src)
	return n, errors.Wrap(err, "uploading file")
}

func (s *SFTPStorage) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := s.client.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, errors.Wrap(err, "opening remote file")
}

func (s *SFTPStorage) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = s.client.Remove(p); os.IsNotExist(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "deleting remote file")
}

func (s *SFTPStorage) List(prefix string) ([]FileInfo, error) {
	dir, err := s.path(prefix)
	if err != nil {
		return nil, err
	}
	walker := s.client.Walk(dir)
	var infos []FileInfo
	for walker.Step() {
		if err := walker.Err(); err != nil {
			if os.IsNotExist(err) {
				return infos, nil
			}
			return nil, errors.Wrap(err, "listing remote files")
		}
		fi := walker.Stat()
		if fi.IsDir() {
			continue
		}
		key := walker.Path()
		if rel, err := relPath(s.root, key); err == nil {
			key = rel
		}
		infos = append(infos, FileInfo{
			Key:  key,
			Name: fi.Name(),
			Size: fi.Size(),
			Type: FileType(fi.Name()),
		})
	}
	return infos, nil
}

func relPath(root, p string) (string, error) {
	root = path.Clean(root)
	p = path.Clean(p)
	if root == "/" {
		return p[1:], nil
	}
	if len(p) > len(root) && p[:len(root)] == root && p[len(root)] == '/' {
		return p[len(root)+1:], nil
	}
	return "", errors.Errorf("%s is not under %s", p, root)
}
