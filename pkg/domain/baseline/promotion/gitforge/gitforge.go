package gitforge

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion"
)

type Config struct {
	// scratch space for clones. Cleaned up per fork.
	WorkDir string

	// remote of the managed baseline repository per image type,
	// e.g. "git@github.com:chainswarm/baseline-%s.git" where %s is the
	// image type.
	RemoteTemplate string
}

// Forge snapshots winner repositories into the managed baseline
// repository by shelling out to git: clone the source, push its HEAD to a
// version branch of the baseline remote, and tag it.
type Forge struct {
	config Config
	logger *log.Logger
}

func New(config Config, logger *log.Logger) *Forge {
	return &Forge{config: config, logger: logger}
}

var _ promotion.Forge = &Forge{}

func (f *Forge) Fork(ctx context.Context, req promotion.ForkRequest) (promotion.Fork, error) {
	dir, err := os.MkdirTemp(f.config.WorkDir, "fork-*")
	if err != nil {
		return promotion.Fork{}, err
	}
	defer os.RemoveAll(dir)

	if _, err := f.git(ctx, "", "clone", "--depth", "1", req.SourceRepository, dir); err != nil {
		return promotion.Fork{}, err
	}

	head, err := f.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return promotion.Fork{}, err
	}
	commit := strings.TrimSpace(head)

	remote := fmt.Sprintf(f.config.RemoteTemplate, req.ImageType)
	if _, err := f.git(ctx, dir, "remote", "add", "baseline", remote); err != nil {
		return promotion.Fork{}, err
	}
	if _, err := f.git(ctx, dir, "tag", req.Version); err != nil {
		return promotion.Fork{}, err
	}
	if _, err := f.git(
		ctx, dir, "push", "baseline",
		"HEAD:refs/heads/"+req.Version, "refs/tags/"+req.Version,
	); err != nil {
		return promotion.Fork{}, err
	}

	f.logger.Printf(
		"forked %s @ %s into %s as %s",
		req.SourceRepository, commit[:min(12, len(commit))], remote, req.Version,
	)
	return promotion.Fork{Repository: remote, CommitHash: commit}, nil
}

func (f *Forge) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf(
			"git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)),
		)
	}
	return string(out), nil
}
