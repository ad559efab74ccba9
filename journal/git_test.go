package journal

import (
	"botmaster-console/models"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
)

func TestRecordCommitsOneFilePerBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j, err := Open(dir, "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	recs := []*models.BatchRecord{
		{ID: "b1", Spec: models.BatchSpec{Count: 3, BaseName: "Bot"}, SuccessCount: 2, FailureCount: 1},
		{ID: "b2", Spec: models.BatchSpec{Count: 1, BaseName: "Solo"}, SuccessCount: 1},
	}
	var hashes []string
	for _, rec := range recs {
		h, err := j.Record(rec)
		if err != nil {
			t.Fatalf("Record(%s): %v", rec.ID, err)
		}
		hashes = append(hashes, h)
	}

	commit, err := j.repo.CommitObject(plumbing.NewHash(hashes[1]))
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	if !strings.HasPrefix(commit.Message, "batch b2: 1/1 created") {
		t.Fatalf("message = %q", commit.Message)
	}
	if commit.NumParents() != 1 || commit.ParentHashes[0].String() != hashes[0] {
		t.Fatalf("second commit does not follow the first")
	}

	stats, err := commit.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Name != "batches/b2.json" {
		t.Fatalf("stats = %+v", stats)
	}

	data, err := os.ReadFile(filepath.Join(dir, "batches", "b1.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got models.BatchRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.SuccessCount != 2 || got.Spec.BaseName != "Bot" {
		t.Fatalf("journal file = %+v", got)
	}
}

func TestOpenExisting(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	first, err := j.Record(&models.BatchRecord{ID: "x", Spec: models.BatchSpec{Count: 1}})
	if err != nil {
		t.Fatal(err)
	}

	again, err := Open(dir, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	head, err := again.repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head.Hash().String() != first {
		t.Fatalf("head = %s, want %s", head.Hash(), first)
	}
}
