package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/workload"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

const reportFileName = "report.json"

type executor struct {
	cli    client.APIClient
	logger *log.Logger
}

// New builds an Executor backed by the local docker daemon.
func New(logger *log.Logger) (workload.Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &executor{cli: cli, logger: logger}, nil
}

// NewWithClient is New with a caller-provided docker client. For tests.
func NewWithClient(cli client.APIClient, logger *log.Logger) workload.Executor {
	return &executor{cli: cli, logger: logger}
}

func (e *executor) Run(ctx context.Context, spec workload.Spec) (workload.Outcome, error) {
	if err := e.pull(ctx, spec.ImageRef); err != nil {
		return workload.Outcome{}, fmt.Errorf("pull %s: %w", spec.ImageRef, err)
	}

	conf := &container.Config{
		Image: spec.ImageRef,
		Env: []string{
			"NETWORK=" + spec.Network,
			"TEST_DATE=" + domain.Date(spec.TestDate).Format(time.DateOnly),
			fmt.Sprintf("WINDOW_DAYS=%d", spec.WindowDays),
			"DATABASE_NAME=" + spec.DatabaseName,
			"DATA_DIR=/data",
			"OUTPUT_DIR=/output",
		},
	}
	hostConf := &container.HostConfig{
		// the sandbox: no network, immutable root, writable /tmp only.
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/tmp": "rw,size=268435456"},
		Resources: container.Resources{
			Memory: spec.MemoryLimit,
		},
		Mounts: []mount.Mount{
			{
				Type:     mount.TypeBind,
				Source:   spec.DatasetPath,
				Target:   "/data",
				ReadOnly: true,
			},
			{
				Type:   mount.TypeBind,
				Source: spec.OutputPath,
				Target: "/output",
			},
		},
	}

	created, err := e.cli.ContainerCreate(ctx, conf, hostConf, nil, nil, "")
	if err != nil {
		return workload.Outcome{}, fmt.Errorf("create container for %s: %w", spec.ImageRef, err)
	}
	defer func() {
		if err := e.cli.ContainerRemove(
			context.WithoutCancel(ctx), created.ID,
			container.RemoveOptions{Force: true},
		); err != nil {
			e.logger.Printf("failed to remove container %s: %s", created.ID, err)
		}
	}()

	started := time.Now()
	if err := e.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return workload.Outcome{}, fmt.Errorf("start container %s: %w", created.ID, err)
	}

	waitCh, errCh := e.cli.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)

	timeout := time.NewTimer(spec.TimeLimit)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		_ = e.cli.ContainerKill(context.WithoutCancel(ctx), created.ID, "KILL")
		return workload.Outcome{}, ctx.Err()

	case <-timeout.C:
		if err := e.cli.ContainerKill(ctx, created.ID, "KILL"); err != nil {
			e.logger.Printf("failed to kill overrunning container %s: %s", created.ID, err)
		}
		return workload.Outcome{
			ExitCode: -1,
			TimedOut: true,
			Duration: time.Since(started),
			Message:  fmt.Sprintf("killed after %s", spec.TimeLimit),
		}, nil

	case err := <-errCh:
		return workload.Outcome{}, fmt.Errorf("wait for container %s: %w", created.ID, err)

	case wait := <-waitCh:
		duration := time.Since(started)
		out := workload.Outcome{
			ExitCode: int(wait.StatusCode),
			Duration: duration,
		}
		if wait.Error != nil {
			out.Message = wait.Error.Message
		}
		if out.ExitCode == 0 {
			report, found, err := readReport(spec.OutputPath)
			if err != nil {
				out.Message = err.Error()
			}
			out.Report = report
			out.HasReport = found && err == nil
		}
		return out, nil
	}
}

func (e *executor) pull(ctx context.Context, ref string) error {
	rc, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()

	// the pull stream has to be drained for the pull to complete.
	_, err = io.Copy(io.Discard, rc)
	return err
}

// wire format of report.json.
type reportFile struct {
	Patterns []struct {
		Addresses []string `json:"addresses"`
	} `json:"patterns"`
	Addresses   []string `json:"addresses"`
	Connections []struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"connections"`
}

func readReport(outputPath string) (domain.RunReport, bool, error) {
	raw, err := os.ReadFile(filepath.Join(outputPath, reportFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RunReport{}, false, nil
		}
		return domain.RunReport{}, false, err
	}

	parsed := reportFile{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.RunReport{}, true, fmt.Errorf("broken %s: %w", reportFileName, err)
	}

	report := domain.RunReport{
		Addresses: parsed.Addresses,
	}
	for _, p := range parsed.Patterns {
		report.Patterns = append(report.Patterns, domain.ReportedPattern{
			Addresses: p.Addresses,
		})
	}
	for _, c := range parsed.Connections {
		report.Connections = append(report.Connections, domain.Connection{
			From: c.From, To: c.To,
		})
	}
	return report, true, nil
}
