package dockerbuild

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
)

type Config struct {
	// scratch space for checkouts.
	WorkDir string

	// base64-encoded registry auth for the push. Empty for a local or
	// anonymous registry.
	RegistryAuth string
}

// Builder builds baseline images with the local docker daemon and pushes
// them to the registry the image reference points at.
type Builder struct {
	cli    client.APIClient
	config Config
	logger *log.Logger
}

func New(config Config, logger *log.Logger) (*Builder, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Builder{cli: cli, config: config, logger: logger}, nil
}

// NewWithClient is New with a caller-provided docker client. For tests.
func NewWithClient(cli client.APIClient, config Config, logger *log.Logger) *Builder {
	return &Builder{cli: cli, config: config, logger: logger}
}

var _ promotion.ImageBuilder = &Builder{}

func (b *Builder) Build(ctx context.Context, repository, commitHash, imageRef string) error {
	dir, err := os.MkdirTemp(b.config.WorkDir, "build-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := b.checkout(ctx, repository, commitHash, dir); err != nil {
		return err
	}

	buildCtx, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return err
	}
	defer buildCtx.Close()

	resp, err := b.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{imageRef},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build %s: %w", imageRef, err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}

	push, err := b.cli.ImagePush(ctx, imageRef, image.PushOptions{
		RegistryAuth: b.config.RegistryAuth,
	})
	if err != nil {
		return fmt.Errorf("push %s: %w", imageRef, err)
	}
	defer push.Close()
	if _, err := io.Copy(io.Discard, push); err != nil {
		return err
	}

	b.logger.Printf("built and pushed %s from %s @ %s", imageRef, repository, commitHash)
	return nil
}

func (b *Builder) checkout(ctx context.Context, repository, commitHash, dir string) error {
	for _, args := range [][]string{
		{"clone", repository, dir},
		{"-C", dir, "checkout", commitHash},
	} {
		cmd := exec.CommandContext(ctx, "git", args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf(
				"git %s: %w: %s",
				strings.Join(args, " "), err, strings.TrimSpace(string(out)),
			)
		}
	}
	return nil
}
