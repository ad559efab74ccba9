// Package journal keeps an append-only git history of provisioned batches.
package journal

import (
	"botmaster-console/models"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const batchesDir = "batches"

type Journal struct {
	dir    string
	author string
	repo   *git.Repository
	mu     sync.Mutex
}

// Open opens the repository at dir, initialising it when absent.
func Open(dir, author string) (*Journal, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		repo, err = git.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to init journal repo: %w", err)
		}
		log.Printf("[JOURNAL] Initialised repository at %s", dir)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open journal repo: %w", err)
	}

	if author == "" {
		author = "botmaster-console"
	}
	return &Journal{dir: dir, author: author, repo: repo}, nil
}

// Record writes batches/{id}.json and commits it. It returns the commit hash.
func (j *Journal) Record(rec *models.BatchRecord) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(j.dir, batchesDir), 0755); err != nil {
		return "", fmt.Errorf("failed to create batches directory: %w", err)
	}
	name := path.Join(batchesDir, rec.ID+".json")
	if err := os.WriteFile(filepath.Join(j.dir, filepath.FromSlash(name)), append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}

	wt, err := j.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := wt.Add(name); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}

	sig := &object.Signature{
		Name:  j.author,
		Email: j.author + "@localhost",
		When:  time.Now(),
	}
	msg := fmt.Sprintf("batch %s: %d/%d created", rec.ID, rec.SuccessCount, rec.Spec.Count)
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}

	log.Printf("[JOURNAL] %s", msg)
	return hash.String(), nil
}
