package content

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"forest-index/internal/forest"
	"forest-index/internal/storage"
	storage_mocks "forest-index/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

// newMockCoordinator pairs a real index engine with a mocked content store.
func newMockCoordinator(t *testing.T) (*Coordinator, *storage_mocks.MockContentStore) {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	mockContents := storage_mocks.NewMockContentStore(ctrl)
	return NewCoordinator(forest.NewEngine(storage.NewIndexRepo(db)), mockContents), mockContents
}

func TestNewCoordinator(t *testing.T) {
	coordinator, _ := newMockCoordinator(t)
	if coordinator == nil {
		t.Fatal("NewCoordinator() returned nil")
	}
	if coordinator.logger == nil {
		t.Error("NewCoordinator() logger should not be nil")
	}
}

func TestCoordinator_FindRootsDelegates(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)
	want := storage.Result[*storage.ContentRecord]{
		Items: []*storage.ContentRecord{{ID: "r1"}},
		Total: 1,
	}
	page := storage.Page{Number: 2, Size: 10}

	mockContents.EXPECT().
		FindRoots(gomock.Any(), "docs", page).
		Return(want, nil)

	got, err := coordinator.FindRoots(context.Background(), "docs", page)
	if err != nil {
		t.Fatalf("FindRoots() error = %v", err)
	}
	if got.Total != 1 || got.Items[0].ID != "r1" {
		t.Errorf("FindRoots() = %+v", got)
	}
}

func TestCoordinator_RangeQueries(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)
	ctx := context.Background()

	// anchor[1,6] > a[2,5] > b[3,4]
	if _, err := coordinator.Index(ctx, "", "a", nil); err != nil {
		t.Fatalf("Index(a) error = %v", err)
	}
	if _, err := coordinator.Index(ctx, "", "b", storage.String("a")); err != nil {
		t.Fatalf("Index(b) error = %v", err)
	}

	tests := []struct {
		name  string
		setup func()
		call  func() error
	}{
		{
			name: "all children use the interior of the interval",
			setup: func() {
				mockContents.EXPECT().
					FindAllChildren(gomock.Any(), storage.DefaultTreeType, int64(3), int64(4), storage.Unpaged).
					Return(storage.Result[*storage.ContentRecord]{}, nil)
			},
			call: func() error {
				_, err := coordinator.FindAllChildren(ctx, "a", storage.Unpaged)
				return err
			},
		},
		{
			name:  "leaf has no children to query",
			setup: func() {},
			call: func() error {
				got, err := coordinator.FindAllChildren(ctx, "b", storage.Unpaged)
				if err == nil && len(got.Items) != 0 {
					return errors.New("leaf returned children")
				}
				return err
			},
		},
		{
			name: "all parents use the node bounds",
			setup: func() {
				mockContents.EXPECT().
					FindAllParents(gomock.Any(), storage.DefaultTreeType, int64(3), int64(4), storage.SortDesc).
					Return([]*storage.ContentRecord{{ID: "a"}}, nil)
			},
			call: func() error {
				_, err := coordinator.FindAllParents(ctx, "b", storage.SortDesc)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			if err := tt.call(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCoordinator_RangeQueriesRequireIndex(t *testing.T) {
	coordinator, _ := newMockCoordinator(t)
	ctx := context.Background()

	if _, err := coordinator.FindAllChildren(ctx, "ghost", storage.Unpaged); !errors.Is(err, ErrNotIndexed) {
		t.Errorf("FindAllChildren() error = %v, want ErrNotIndexed", err)
	}
	if _, err := coordinator.FindAllParents(ctx, "ghost", storage.SortAsc); !errors.Is(err, ErrNotIndexed) {
		t.Errorf("FindAllParents() error = %v, want ErrNotIndexed", err)
	}
}

func TestCoordinator_DeleteContentWithChildren(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)

	mockContents.EXPECT().
		FindDirectChildren(gomock.Any(), "parent", storage.Page{Size: 1}).
		Return(storage.Result[*storage.ContentRecord]{Items: []*storage.ContentRecord{{ID: "child"}}, Total: 3}, nil)
	mockContents.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	err := coordinator.DeleteContent(context.Background(), "parent")
	if !errors.Is(err, ErrHasChildren) {
		t.Errorf("DeleteContent() error = %v, want ErrHasChildren", err)
	}
}

func TestCoordinator_SaveContentStoreError(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)
	storeErr := errors.New("disk full")

	mockContents.EXPECT().Save(gomock.Any(), gomock.Any()).Return(storeErr)

	_, err := coordinator.SaveContent(context.Background(), &storage.ContentRecord{ID: "x"})
	if !errors.Is(err, storeErr) {
		t.Errorf("SaveContent() error = %v, want %v", err, storeErr)
	}
}

func TestCoordinator_RebuildIndexesWalksContent(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)
	ctx := context.Background()

	page := func(records ...*storage.ContentRecord) storage.Result[*storage.ContentRecord] {
		return storage.Result[*storage.ContentRecord]{Items: records, Total: int64(len(records))}
	}

	gomock.InOrder(
		mockContents.EXPECT().FindRoots(gomock.Any(), "wiki", storage.Unpaged).
			Return(page(&storage.ContentRecord{ID: "home", TreeType: "wiki"}), nil),
		mockContents.EXPECT().FindDirectChildren(gomock.Any(), "home", storage.Unpaged).
			Return(page(
				&storage.ContentRecord{ID: "about", TreeType: "wiki"},
				&storage.ContentRecord{ID: "stray", TreeType: "blog"},
			), nil),
		mockContents.EXPECT().FindDirectChildren(gomock.Any(), "about", storage.Unpaged).
			Return(page(), nil),
	)

	stats, err := coordinator.RebuildIndexes(ctx, "wiki")
	if err != nil {
		t.Fatalf("RebuildIndexes() error = %v", err)
	}
	if stats.Nodes != 3 || stats.Depth != 2 {
		t.Errorf("RebuildIndexes() stats = %+v, want 3 nodes at depth 2", stats)
	}
	if _, err := coordinator.engine.FindByContentID(ctx, "stray"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("content from another tree type was indexed: %v", err)
	}
}

func TestCoordinator_RebuildIndexesRollsBack(t *testing.T) {
	coordinator, mockContents := newMockCoordinator(t)
	ctx := context.Background()

	if _, err := coordinator.Index(ctx, "", "kept", nil); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	listErr := errors.New("content store unavailable")
	mockContents.EXPECT().FindRoots(gomock.Any(), storage.DefaultTreeType, storage.Unpaged).
		Return(storage.Result[*storage.ContentRecord]{}, listErr)

	if _, err := coordinator.RebuildIndexes(ctx, ""); !errors.Is(err, listErr) {
		t.Fatalf("RebuildIndexes() error = %v, want %v", err, listErr)
	}
	if _, err := coordinator.engine.FindByContentID(ctx, "kept"); err != nil {
		t.Errorf("failed rebuild dropped existing index: %v", err)
	}
}
