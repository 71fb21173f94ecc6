package search

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/techdocs/internal/models"
)

func docs() []models.Document {
	return []models.Document{
		{ID: "1", Title: "Deploying services", Content: "# Deploy\n\nUse **kubectl** to roll out.", Category: "Ops", Format: models.FormatMarkdown},
		{ID: "2", Title: "Styling guide", Content: "<h1>CSS</h1><p>Prefer utility classes.</p>", Category: "Frontend", Format: models.FormatWord},
		{ID: "3", Title: "Query tuning", Content: "Indexes make queries fast.", Category: "Data", Tags: []string{"postgres"}},
	}
}

func TestSearch_MemoryIndex(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if err := idx.Rebuild(docs()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n, _ := idx.Count(); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	res, err := idx.Search("kubectl", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "1" || res[0].Title != "Deploying services" || res[0].Category != "Ops" {
		t.Errorf("results = %+v", res)
	}

	res, _ = idx.Search("utility", 10)
	if len(res) != 1 || res[0].ID != "2" {
		t.Errorf("word content should be indexed as text: %+v", res)
	}
	for _, frags := range res[0].Fragments {
		for _, f := range frags {
			if strings.Contains(f, "<p>") {
				t.Errorf("fragment carries source markup: %q", f)
			}
		}
	}

	res, _ = idx.Search("postgres", 10)
	if len(res) != 1 || res[0].ID != "3" {
		t.Errorf("tags should be searchable: %+v", res)
	}
}

func TestRebuild_RemovesStale(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	_ = idx.Rebuild(docs())
	if err := idx.Rebuild(docs()[:1]); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n, _ := idx.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPutDelete_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.bleve")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d := docs()[2]
	if err := idx.Put(d); err != nil {
		t.Fatalf("Put: %v", err)
	}
	idx.Close()

	idx, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	if res, _ := idx.Search("indexes", 5); len(res) != 1 {
		t.Errorf("reopened index lost the document: %+v", res)
	}
	if err := idx.Delete(d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := idx.Count(); n != 0 {
		t.Errorf("count after delete = %d", n)
	}
}

func TestSearch_BadSyntaxFallsBack(t *testing.T) {
	idx, _ := Open("")
	defer idx.Close()
	_ = idx.Rebuild(docs())
	if _, err := idx.Search(`title:"unterminated`, 5); err != nil {
		t.Errorf("bad syntax should fall back, got %v", err)
	}
	if res, _ := idx.Search("   ", 5); len(res) != 0 {
		t.Errorf("blank query = %+v", res)
	}
}
