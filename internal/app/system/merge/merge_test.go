package merge_test

import (
	"testing"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/merge"
	"go.mongodb.org/mongo-driver/bson"
)

type doc struct {
	ID    string `bson:"_id"`
	Title string `bson:"title"`
	Rank  int    `bson:"rank"`
}

func newView() *merge.View[doc] {
	return merge.New(docstore.Decode[doc], func(a, b doc) bool {
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID < b.ID
	})
}

func change(t *testing.T, typ docstore.ChangeType, d doc) docstore.Change {
	t.Helper()
	if typ == docstore.Removed {
		return docstore.Change{Type: typ, ID: d.ID}
	}
	b, err := bson.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return docstore.Change{Type: typ, ID: d.ID, Doc: b}
}

func ids(items []doc) []string {
	out := make([]string, len(items))
	for i, d := range items {
		out[i] = d.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestView_UnionWithoutDuplicates(t *testing.T) {
	v := newView()
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{
		change(t, docstore.Added, doc{ID: "a", Rank: 2}),
		change(t, docstore.Added, doc{ID: "b", Rank: 1}),
	}})
	_ = v.Apply("own", docstore.Event{Full: true, Changes: []docstore.Change{
		change(t, docstore.Added, doc{ID: "a", Rank: 2}),
		change(t, docstore.Added, doc{ID: "c", Rank: 3}),
	}})

	if got := ids(v.List()); !equal(got, []string{"b", "a", "c"}) {
		t.Fatalf("List = %v", got)
	}
	if got := ids(v.SourceList("own")); !equal(got, []string{"a", "c"}) {
		t.Fatalf("SourceList(own) = %v", got)
	}
}

func TestView_RemovalFromOneSourceKeepsOther(t *testing.T) {
	v := newView()
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{change(t, docstore.Added, doc{ID: "a"})}})
	_ = v.Apply("admin", docstore.Event{Full: true, Changes: []docstore.Change{change(t, docstore.Added, doc{ID: "a"})}})

	_ = v.Apply("public", docstore.Event{Changes: []docstore.Change{change(t, docstore.Removed, doc{ID: "a"})}})
	if _, ok := v.Get("a"); !ok {
		t.Fatal("a removed while admin source still holds it")
	}
	_ = v.Apply("admin", docstore.Event{Changes: []docstore.Change{change(t, docstore.Removed, doc{ID: "a"})}})
	if _, ok := v.Get("a"); ok {
		t.Fatal("a should be gone once no source holds it")
	}
}

func TestView_LastWriteWins(t *testing.T) {
	v := newView()
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{change(t, docstore.Added, doc{ID: "a", Title: "old"})}})
	_ = v.Apply("own", docstore.Event{Changes: []docstore.Change{change(t, docstore.Modified, doc{ID: "a", Title: "new"})}})
	if d, _ := v.Get("a"); d.Title != "new" {
		t.Fatalf("Title = %q", d.Title)
	}
	if v.Len() != 1 {
		t.Fatalf("Len = %d", v.Len())
	}
}

func TestView_FullSnapshotReplacesSource(t *testing.T) {
	v := newView()
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{
		change(t, docstore.Added, doc{ID: "a"}),
		change(t, docstore.Added, doc{ID: "b"}),
	}})
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{change(t, docstore.Added, doc{ID: "b"})}})
	if got := ids(v.List()); !equal(got, []string{"b"}) {
		t.Fatalf("List = %v", got)
	}
}

func TestView_DropSourceAndClear(t *testing.T) {
	v := newView()
	_ = v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{change(t, docstore.Added, doc{ID: "a"})}})
	_ = v.Apply("admin", docstore.Event{Full: true, Changes: []docstore.Change{
		change(t, docstore.Added, doc{ID: "a"}),
		change(t, docstore.Added, doc{ID: "z"}),
	}})

	v.DropSource("admin")
	if got := ids(v.List()); !equal(got, []string{"a"}) {
		t.Fatalf("after DropSource List = %v", got)
	}
	v.Clear()
	if v.Len() != 0 {
		t.Fatal("Clear left items")
	}
}

func TestView_DecodeErrorSkipsDocument(t *testing.T) {
	v := newView()
	bad := docstore.Change{Type: docstore.Added, ID: "bad", Doc: bson.Raw{0x01}}
	err := v.Apply("public", docstore.Event{Full: true, Changes: []docstore.Change{bad, change(t, docstore.Added, doc{ID: "ok"})}})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if got := ids(v.List()); !equal(got, []string{"ok"}) {
		t.Fatalf("List = %v", got)
	}
}
