package git

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	apperr "github.com/kurobon/gitlanes/internal/errors"
)

// Repository is a read-only view of a git repository.
type Repository struct {
	repo   *gogit.Repository
	name   string
	gitDir string
}

// Open opens the repository containing path, searching parent directories
// for the .git directory.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "resolve path %s", path)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "not a git repository: %s", path)
		}
		return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "open %s", path)
	}

	gitDir := findGitDir(abs)
	r := New(repo, displayName(abs, gitDir))
	r.gitDir = gitDir
	return r, nil
}

// displayName names a repository after its worktree root, or after the bare
// directory without its .git suffix.
func displayName(path, gitDir string) string {
	switch {
	case gitDir == "":
		return filepath.Base(path)
	case filepath.Base(gitDir) == gogit.GitDirName:
		return filepath.Base(filepath.Dir(gitDir))
	default:
		return strings.TrimSuffix(filepath.Base(gitDir), ".git")
	}
}

// New wraps an already opened go-git repository.
func New(repo *gogit.Repository, name string) *Repository {
	return &Repository{repo: repo, name: name}
}

// Name returns the repository's display name.
func (r *Repository) Name() string {
	return r.name
}

// GitDir returns the .git directory on disk, or "" for repositories that are
// not backed by the local filesystem.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// findGitDir walks up from path to the first directory holding .git.
func findGitDir(path string) string {
	for dir := path; ; {
		candidate := filepath.Join(dir, gogit.GitDirName)
		if info, err := os.Stat(candidate); err == nil {
			if info.IsDir() {
				return candidate
			}
			return readGitFile(candidate)
		}
		if filepath.Base(dir) == gogit.GitDirName || isBareRepo(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// readGitFile resolves a worktree or submodule .git file ("gitdir: <path>").
func readGitFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return ""
	}
	gitDir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(path), gitDir)
	}
	return filepath.Clean(gitDir)
}

func isBareRepo(dir string) bool {
	for _, required := range []string{"objects", "refs", "HEAD"} {
		if _, err := os.Stat(filepath.Join(dir, required)); err != nil {
			return false
		}
	}
	return true
}
