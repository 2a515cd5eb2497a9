package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

type Config struct {
	URL          string `yaml:"url" mapstructure:"url" validate:"required"`
	Branch       string `yaml:"branch" mapstructure:"branch"`
	Subdirectory string `yaml:"subdirectory" mapstructure:"subdirectory"`
	Token        string `yaml:"token" mapstructure:"token"`
}

// Fetcher shallow-clones a git repository into a temporary directory so a
// source provider can parse Terraform configuration it contains. Callers own
// the returned directory's lifetime through Cleanup.
type Fetcher struct {
	cfg      Config
	logger   ports.Logger
	cloneDir string
}

func NewFetcher(cfg Config, logger ports.Logger) (*Fetcher, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.CodeConfigValidation, "git source requires a non-empty repository URL")
	}
	return &Fetcher{cfg: cfg, logger: logger}, nil
}

// Fetch clones the repository and returns the directory holding the
// Terraform configuration, honoring the configured subdirectory.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	tmpDir, err := os.MkdirTemp("", "azdrift-git-*")
	if err != nil {
		return "", errors.Wrap(err, errors.CodeSourceFetchError, "failed to create clone directory")
	}
	f.cloneDir = tmpDir

	opts := &git.CloneOptions{
		URL:   f.cfg.URL,
		Depth: 1,
	}
	if f.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(f.cfg.Branch)
		opts.SingleBranch = true
	}
	if f.cfg.Token != "" {
		opts.Auth = &http.BasicAuth{Username: "git", Password: f.cfg.Token}
	}

	f.logger.Infof(ctx, "Cloning %s into %s", redactURL(f.cfg.URL), tmpDir)
	if _, err := git.PlainCloneContext(ctx, tmpDir, false, opts); err != nil {
		f.Cleanup()
		return "", errors.WrapUserFacing(err, errors.CodeSourceFetchError,
			fmt.Sprintf("failed to clone repository %s", redactURL(f.cfg.URL)),
			"Check the URL, branch name, and access token.")
	}

	dir := tmpDir
	if f.cfg.Subdirectory != "" {
		dir = filepath.Join(tmpDir, filepath.Clean(f.cfg.Subdirectory))
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			f.Cleanup()
			return "", errors.NewUserFacing(errors.CodeSourceFetchError,
				fmt.Sprintf("subdirectory %q not found in repository", f.cfg.Subdirectory),
				"Verify the subdirectory path relative to the repository root.")
		}
	}
	return dir, nil
}

// Cleanup removes the clone directory. Safe to call when Fetch failed or was
// never called.
func (f *Fetcher) Cleanup() {
	if f.cloneDir != "" {
		_ = os.RemoveAll(f.cloneDir)
		f.cloneDir = ""
	}
}

// redactURL strips embedded credentials before a URL reaches logs.
func redactURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
