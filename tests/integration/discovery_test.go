package integration

import (
	"context"
	"testing"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/tests/integration/harness"
)

func TestQuery(t *testing.T) {
	s := harness.Start(t)
	b := newBinding(t, s, nil)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, err := b.CreateDocument(ctx, repoID, harness.RootFolderID,
			objectProps("cmis:document", name), nil, "", nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := b.CreateFolder(ctx, repoID, harness.RootFolderID,
		objectProps("cmis:folder", "misc"), nil); err != nil {
		t.Fatal(err)
	}

	list, err := b.Query(ctx, repoID, "SELECT * FROM cmis:document", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Objects) != 3 {
		t.Errorf("expected 3 documents, got %d", len(list.Objects))
	}
	if list.NumItems == nil || *list.NumItems != 3 {
		t.Errorf("numItems not decoded: %v", list.NumItems)
	}

	// Folders do not leak into a document scan.
	for _, o := range list.Objects {
		if o.BaseTypeID() != cmis.BaseTypeDocument {
			t.Errorf("non-document in result: %q", o.BaseTypeID())
		}
	}
}

func TestContentChanges(t *testing.T) {
	s := harness.Start(t)
	b := newBinding(t, s, nil)
	ctx := context.Background()

	// Capture the change-log position before any writes.
	info, err := b.GetRepositoryInfo(ctx, repoID)
	if err != nil {
		t.Fatal(err)
	}
	token := info.LatestChangeLogToken

	docID, err := b.CreateDocument(ctx, repoID, harness.RootFolderID,
		objectProps("cmis:document", "tracked.txt"), nil, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteObject(ctx, repoID, docID, nil); err != nil {
		t.Fatal(err)
	}

	changes, err := b.GetContentChanges(ctx, repoID, &token, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Objects) != 2 {
		t.Fatalf("expected 2 events, got %d", len(changes.Objects))
	}
	if changes.Objects[0].ChangeEventInfo.ChangeType != cmis.ChangeCreated {
		t.Errorf("expected created, got %q", changes.Objects[0].ChangeEventInfo.ChangeType)
	}
	if changes.Objects[1].ChangeEventInfo.ChangeType != cmis.ChangeDeleted {
		t.Errorf("expected deleted, got %q", changes.Objects[1].ChangeEventInfo.ChangeType)
	}
	if changes.Objects[0].ID() != docID {
		t.Errorf("expected %q, got %q", docID, changes.Objects[0].ID())
	}
	if changes.Objects[0].ChangeEventInfo.ChangeTime.IsZero() {
		t.Error("change time not decoded")
	}

	// The written-back token resumes past the consumed events.
	resumed, err := b.GetContentChanges(ctx, repoID, &token, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(resumed.Objects) != 0 {
		t.Errorf("expected empty resume, got %d events", len(resumed.Objects))
	}
}
