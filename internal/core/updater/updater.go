// Package updater replaces the running binary with the latest GitHub release.
package updater

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/guiyumin/sharetext/internal/core/version"
)

const (
	repoOwner = "guiyumin"
	repoName  = "sharetext"
)

// Status is the outcome of a release lookup
type Status struct {
	Current string
	Latest  string
	Newer   bool

	release *selfupdate.Release
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{Source: source})
}

// currentVersion strips the tag prefix so it compares against release versions
func currentVersion() string {
	return strings.TrimPrefix(version.Version, "v")
}

// Check looks up the latest release. Development builds always report a newer release.
func Check(ctx context.Context) (*Status, error) {
	u, err := newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := u.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}

	st := &Status{Current: currentVersion(), Latest: latest.Version(), release: latest}
	st.Newer = st.Current == "dev" || !latest.LessOrEqual(st.Current)
	return st, nil
}

// Apply downloads the latest release over the running executable, printing progress to w
func Apply(ctx context.Context, w io.Writer) error {
	st, err := Check(ctx)
	if err != nil {
		return err
	}
	if !st.Newer {
		fmt.Fprintf(w, "Already up to date (v%s)\n", st.Current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	u, err := newUpdater()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Updating from v%s to v%s...\n", st.Current, st.Latest)
	if err := u.UpdateTo(ctx, st.release, exe); err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	fmt.Fprintf(w, "Successfully updated to v%s\n", st.Latest)
	return nil
}
