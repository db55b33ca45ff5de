package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/selection"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/utils"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

// MockStorage 模拟存储后端
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetFolderData(ctx context.Context, folderID string) (*storage.FolderData, error) {
	args := m.Called(ctx, folderID)
	data, _ := args.Get(0).(*storage.FolderData)
	return data, args.Error(1)
}

func (m *MockStorage) CreateFolder(ctx context.Context, in storage.CreateFolderArgs) (*model.Folder, error) {
	args := m.Called(ctx, in)
	folder, _ := args.Get(0).(*model.Folder)
	return folder, args.Error(1)
}

func (m *MockStorage) UpdateFolder(ctx context.Context, in storage.UpdateFolderArgs) (*model.Folder, error) {
	args := m.Called(ctx, in)
	folder, _ := args.Get(0).(*model.Folder)
	return folder, args.Error(1)
}

func (m *MockStorage) TrashFiles(ctx context.Context, in storage.TrashFilesArgs) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockStorage) TrashFolders(ctx context.Context, in storage.TrashFoldersArgs) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockStorage) MoveToFolder(ctx context.Context, in storage.MoveArgs) (*storage.MoveResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*storage.MoveResult)
	return result, args.Error(1)
}

// MockUploader 模拟上传器
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, upload model.Upload, progress func(float64)) (model.File, error) {
	args := m.Called(ctx, upload.Name)
	if progress != nil {
		progress(50)
	}
	return args.Get(0).(model.File), args.Error(1)
}

type fakePreviews struct {
	mu       sync.Mutex
	created  []string
	released []string
}

func (f *fakePreviews) Create(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := "preview-" + filepath.Base(path)
	f.created = append(f.created, src)
	return src, nil
}

func (f *fakePreviews) Release(src string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, src)
	return nil
}

type fakeHistory struct {
	last     string
	ok       bool
	replaced []string
}

func (h *fakeHistory) Replace(folderID string) error {
	h.replaced = append(h.replaced, folderID)
	return nil
}

func (h *fakeHistory) Restore() (string, bool) { return h.last, h.ok }

type harness struct {
	store         *MockStorage
	uploader      *MockUploader
	previews      *fakePreviews
	history       *fakeHistory
	notifications []Notification
	session       *Session
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		store:    &MockStorage{},
		uploader: &MockUploader{},
		previews: &fakePreviews{},
		history:  &fakeHistory{},
	}
	opts.Notifier = NotifierFunc(func(n Notification) {
		h.notifications = append(h.notifications, n)
	})
	if opts.Selection.Which == nil {
		opts.Selection = selection.DefaultOptions()
	}

	inspector := utils.NewFileInspector(config.UploadConfig{
		MaxFiles:      2,
		MaxFileSizeMB: 1,
		Legals:        []config.LegalType{{Mime: "image/png", Extensions: []string{".png"}}},
	})

	s, err := New(Deps{
		Storage:   h.store,
		Inspector: inspector,
		Previews:  h.previews,
		Uploader:  h.uploader,
		History:   h.history,
	}, opts)
	require.NoError(t, err)
	h.session = s
	return h
}

func folderData(folder *model.Folder, subfolders []model.Folder, files []model.File) *storage.FolderData {
	return &storage.FolderData{Folder: folder, Subfolders: subfolders, Files: files}
}

func ids[T model.Record](records []T) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.GetID()
	}
	return out
}

func TestNew_RequiresStorageAndInspector(t *testing.T) {
	_, err := New(Deps{}, Options{})
	assert.Error(t, err)

	_, err = New(Deps{Storage: &MockStorage{}}, Options{})
	assert.Error(t, err)
}

func TestLoadFolder_Breadcrumb(t *testing.T) {
	h := newHarness(t, Options{})
	root1 := &model.Folder{ID: "root1", Name: "Root1"}
	s1 := model.Folder{ID: "s1", Name: "S1", ParentID: "root1"}
	h.store.On("GetFolderData", mock.Anything, "root1").Return(folderData(root1, []model.Folder{s1}, nil), nil)

	require.NoError(t, h.session.LoadFolder(context.Background(), "root1"))

	assert.Equal(t, []model.PathEntry{{FolderID: "root1", FolderName: "Root1"}}, h.session.Paths().Items())
	assert.Equal(t, []model.Folder{s1}, h.session.Folders().Subfolders())
	assert.Equal(t, "root1", h.session.Folders().Folder().ID)
	assert.Equal(t, "root1", h.session.CurrentFolderID())
	assert.False(t, h.session.IsLoadingFolder())
}

func TestLoadFolder_BreadcrumbNavigation(t *testing.T) {
	h := newHarness(t, Options{})
	a := &model.Folder{ID: "a/", Name: "a"}
	b := &model.Folder{ID: "a/b/", Name: "b", ParentID: "a/"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{*a}, nil), nil)
	h.store.On("GetFolderData", mock.Anything, "a/").Return(folderData(a, []model.Folder{*b}, nil), nil)
	h.store.On("GetFolderData", mock.Anything, "a/b/").Return(folderData(b, nil, nil), nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, "a/"))
	require.NoError(t, h.session.LoadFolder(ctx, "a/b/"))
	assert.Len(t, h.session.Paths().Items(), 2)

	// 回到上级会截断路径
	require.NoError(t, h.session.LoadFolder(ctx, "a/"))
	assert.Equal(t, []model.PathEntry{{FolderID: "a/", FolderName: "a"}}, h.session.Paths().Items())

	require.NoError(t, h.session.LoadFolder(ctx, ""))
	assert.Empty(t, h.session.Paths().Items())
	assert.Nil(t, h.session.Folders().Folder())
}

func TestLoadFolder_UsesCache(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.store.AssertNumberOfCalls(t, "GetFolderData", 1)

	h.session.RevalidateFolderCache("")
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.store.AssertNumberOfCalls(t, "GetFolderData", 2)
}

func TestLoadFolder_FailureRevalidates(t *testing.T) {
	h := newHarness(t, Options{})
	notFound := storage.NewError("get folder data", storage.CodeNotFound, nil)
	h.store.On("GetFolderData", mock.Anything, "x/").Return(nil, notFound).Once()
	h.store.On("GetFolderData", mock.Anything, "x/").Return(folderData(&model.Folder{ID: "x/", Name: "x"}, nil, nil), nil).Once()

	ctx := context.Background()
	err := h.session.LoadFolder(ctx, "x/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.Len(t, h.notifications, 1)
	assert.Equal(t, LevelError, h.notifications[0].Level)

	require.NoError(t, h.session.LoadFolder(ctx, "x/"))
	h.store.AssertNumberOfCalls(t, "GetFolderData", 2)
}

func TestLoadFolder_ClearsSelectionUnlessMovePending(t *testing.T) {
	h := newHarness(t, Options{})
	file := model.File{ID: "a.png", Name: "a.png", Type: model.FileTypeImage}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, []model.File{file}), nil)

	ctx := context.Background()
	h.session.Selection().ToggleFile(file)
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	assert.Equal(t, 0, h.session.Selection().Count())

	h.session.Selection().ToggleFile(file)
	require.NoError(t, h.session.StartMove())
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	assert.True(t, h.session.Selection().IsFileSelected("a.png"))
}

func TestInit_RestoresLastLocation(t *testing.T) {
	h := newHarness(t, Options{EnablePath: true})
	h.history.last, h.history.ok = "photos/", true
	h.store.On("GetFolderData", mock.Anything, "photos/").Return(folderData(&model.Folder{ID: "photos/", Name: "photos"}, nil, nil), nil)

	assert.True(t, h.session.Initializing())
	require.NoError(t, h.session.Init(context.Background()))

	assert.False(t, h.session.Initializing())
	assert.Equal(t, "photos/", h.session.CurrentFolderID())
	assert.Equal(t, []string{"photos/"}, h.history.replaced)
}

func TestInit_FallsBackToRoot(t *testing.T) {
	h := newHarness(t, Options{EnablePath: true})
	h.history.last, h.history.ok = "gone/", true
	h.store.On("GetFolderData", mock.Anything, "gone/").Return(nil, storage.NewError("get folder data", storage.CodeNotFound, nil))
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)

	require.NoError(t, h.session.Init(context.Background()))
	assert.Equal(t, "", h.session.CurrentFolderID())
	assert.Equal(t, []string{"gone/", ""}, h.history.replaced)
}

func TestInit_PathTrackingDisabled(t *testing.T) {
	h := newHarness(t, Options{})
	h.history.last, h.history.ok = "photos/", true
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)

	require.NoError(t, h.session.Init(context.Background()))
	assert.Equal(t, "", h.session.CurrentFolderID())
	assert.Empty(t, h.history.replaced)
}

func TestCreateFolder_FailureLeavesOptimisticFolder(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)
	h.store.On("CreateFolder", mock.Anything, storage.CreateFolderArgs{Name: "new", ParentID: ""}).
		Return(nil, storage.NewError("create folder", storage.CodeInternal, errors.New("boom")))

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))

	_, err := h.session.CreateFolder(ctx, storage.CreateFolderArgs{Name: "new", ParentID: ""})
	require.Error(t, err)

	items := h.session.Folders().Subfolders()
	require.Len(t, items, 1)
	assert.True(t, model.IsOptimisticID(items[0].ID))
	assert.True(t, items[0].Optimistic)
	assert.Equal(t, "new", items[0].Name)
	assert.Empty(t, h.session.Folders().Committed())
	assert.False(t, h.session.IsOperating())

	// 下一次成功加载同一目录后才会消失
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	assert.Empty(t, h.session.Folders().Subfolders())
}

func TestCreateFolder_RollbackOnFailure(t *testing.T) {
	h := newHarness(t, Options{RollbackOnFailure: true})
	h.store.On("CreateFolder", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := h.session.CreateFolder(context.Background(), storage.CreateFolderArgs{Name: "new"})
	require.Error(t, err)
	assert.Empty(t, h.session.Folders().Subfolders())
}

func TestCreateFolder_Success(t *testing.T) {
	h := newHarness(t, Options{})
	existing := model.Folder{ID: "a/", Name: "a"}
	created := &model.Folder{ID: "new/", Name: "new"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{existing}, nil), nil)
	h.store.On("CreateFolder", mock.Anything, storage.CreateFolderArgs{Name: "new"}).Return(created, nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.session.Selection().ToggleFolder(existing)

	folder, err := h.session.CreateFolder(ctx, storage.CreateFolderArgs{Name: "new"})
	require.NoError(t, err)
	assert.Equal(t, created, folder)

	assert.Equal(t, []string{"a/", "new/"}, ids(h.session.Folders().Subfolders()))
	assert.False(t, h.session.Folders().Diverged())
	assert.Equal(t, 0, h.session.Selection().Count())

	// 父目录的缓存已失效
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.store.AssertNumberOfCalls(t, "GetFolderData", 2)
}

func TestUpdateFolder_RekeysFolder(t *testing.T) {
	h := newHarness(t, Options{})
	old := model.Folder{ID: "old/", Name: "old"}
	renamed := &model.Folder{ID: "new/", Name: "new"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{old}, nil), nil)
	h.store.On("UpdateFolder", mock.Anything, storage.UpdateFolderArgs{ID: "old/", Name: "new"}).Return(renamed, nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))

	_, err := h.session.UpdateFolder(ctx, storage.UpdateFolderArgs{ID: "old/", Name: "new"})
	require.NoError(t, err)

	items := h.session.Folders().Subfolders()
	require.Len(t, items, 1)
	assert.Equal(t, "new/", items[0].ID)
	assert.Equal(t, "new", items[0].Name)
	assert.False(t, items[0].Optimistic)
}

func TestUpdateFolder_FailureKeepsOptimisticName(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{{ID: "old/", Name: "old"}}, nil), nil)
	h.store.On("UpdateFolder", mock.Anything, mock.Anything).Return(nil, storage.NewError("rename", storage.CodeConflict, nil))

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))

	_, err := h.session.UpdateFolder(ctx, storage.UpdateFolderArgs{ID: "old/", Name: "taken"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	items := h.session.Folders().Subfolders()
	assert.Equal(t, "taken", items[0].Name)
	assert.True(t, items[0].Optimistic)
	assert.Equal(t, "old", h.session.Folders().Committed()[0].Name)
}

func TestTrashFiles_ClearsDeleteStaging(t *testing.T) {
	h := newHarness(t, Options{})
	a := model.File{ID: "a.png", Name: "a.png"}
	b := model.File{ID: "b.png", Name: "b.png"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, []model.File{a, b}), nil)
	h.store.On("TrashFiles", mock.Anything, storage.TrashFilesArgs{IDs: []string{"a.png"}}).Return(nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.session.Windows().OpenDeleteWindow([]model.File{a}, nil)
	require.Len(t, h.session.Windows().FilesToDelete(), 1)

	require.NoError(t, h.session.TrashFiles(ctx, storage.TrashFilesArgs{IDs: []string{"a.png"}}))

	assert.Equal(t, []string{"b.png"}, ids(h.session.Files().Items()))
	assert.Equal(t, []string{"b.png"}, ids(h.session.Files().Committed()))
	assert.Empty(t, h.session.Windows().FilesToDelete())
}

func TestTrashFiles_Failure(t *testing.T) {
	h := newHarness(t, Options{})
	a := model.File{ID: "a.png", Name: "a.png"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, []model.File{a}), nil)
	h.store.On("TrashFiles", mock.Anything, mock.Anything).Return(storage.NewError("trash", storage.CodePermission, nil))

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.session.Windows().OpenDeleteWindow([]model.File{a}, nil)

	err := h.session.TrashFiles(ctx, storage.TrashFilesArgs{IDs: []string{"a.png"}})
	assert.ErrorIs(t, err, storage.ErrPermission)

	assert.Empty(t, h.session.Files().Items())
	assert.Equal(t, []string{"a.png"}, ids(h.session.Files().Committed()))
	assert.Empty(t, h.session.Windows().FilesToDelete())
}

func TestTrashFolders(t *testing.T) {
	h := newHarness(t, Options{})
	a := model.Folder{ID: "a/", Name: "a"}
	b := model.Folder{ID: "b/", Name: "b"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{a, b}, nil), nil)
	h.store.On("TrashFolders", mock.Anything, storage.TrashFoldersArgs{IDs: []string{"a/"}}).Return(nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.session.Selection().ToggleFolder(a)

	require.NoError(t, h.session.TrashFolders(ctx, storage.TrashFoldersArgs{IDs: []string{"a/"}}))
	assert.Equal(t, []string{"b/"}, ids(h.session.Folders().Subfolders()))
	assert.Equal(t, 0, h.session.Selection().Count())
}

func TestTrashFolders_FailureClearsDeleteStaging(t *testing.T) {
	h := newHarness(t, Options{})
	a := model.Folder{ID: "a/", Name: "a"}
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, []model.Folder{a}, nil), nil)
	h.store.On("TrashFolders", mock.Anything, mock.Anything).Return(storage.NewError("trash", storage.CodePermission, nil))

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, ""))
	h.session.Windows().OpenDeleteWindow(nil, []model.Folder{a})
	require.Len(t, h.session.Windows().FoldersToDelete(), 1)

	err := h.session.TrashFolders(ctx, storage.TrashFoldersArgs{IDs: []string{"a/"}})
	assert.ErrorIs(t, err, storage.ErrPermission)

	assert.Equal(t, []string{"a/"}, ids(h.session.Folders().Committed()))
	assert.Empty(t, h.session.Windows().FoldersToDelete())
}

func moveFixture(t *testing.T, h *harness) model.File {
	t.Helper()
	src := &model.Folder{ID: "src/", Name: "src"}
	dst := &model.Folder{ID: "dst/", Name: "dst"}
	file := model.File{ID: "src/a.png", Name: "a.png", FolderID: "src/"}
	h.store.On("GetFolderData", mock.Anything, "src/").Return(folderData(src, nil, []model.File{file}), nil)
	h.store.On("GetFolderData", mock.Anything, "dst/").Return(folderData(dst, nil, nil), nil)

	ctx := context.Background()
	require.NoError(t, h.session.LoadFolder(ctx, "src/"))
	h.session.Selection().ToggleFile(file)
	require.NoError(t, h.session.StartMove())
	require.True(t, h.session.Windows().IsOpenMoveWindow())

	require.NoError(t, h.session.LoadFolder(ctx, "dst/"))
	require.True(t, h.session.Selection().IsFileSelected(file.ID))
	return file
}

func TestMoveToFolder_Success(t *testing.T) {
	h := newHarness(t, Options{})
	moveFixture(t, h)
	h.store.On("MoveToFolder", mock.Anything, mock.MatchedBy(func(args storage.MoveArgs) bool {
		return args.FolderID == "dst/" && len(args.FileIDs) == 1 && args.FileIDs[0] == "src/a.png" && len(args.FolderIDs) == 0
	})).Return(&storage.MoveResult{Files: map[string]string{"src/a.png": "dst/a.png"}}, nil)

	require.NoError(t, h.session.ConfirmMove(context.Background()))

	files := h.session.Files().Items()
	require.Len(t, files, 1)
	assert.Equal(t, "dst/a.png", files[0].ID)
	assert.Equal(t, "dst/", files[0].FolderID)
	assert.False(t, files[0].Optimistic)

	assert.Equal(t, 0, h.session.Selection().Count())
	assert.False(t, h.session.Windows().MovePending())
	assert.False(t, h.session.Windows().IsOpenMoveWindow())

	// 源目录与目标目录的缓存都已失效
	require.NoError(t, h.session.LoadFolder(context.Background(), "src/"))
	require.NoError(t, h.session.LoadFolder(context.Background(), "dst/"))
	h.store.AssertNumberOfCalls(t, "GetFolderData", 4)
}

func TestMoveToFolder_FailureKeepsOptimisticCopy(t *testing.T) {
	h := newHarness(t, Options{})
	moveFixture(t, h)
	h.store.On("MoveToFolder", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	require.Error(t, h.session.ConfirmMove(context.Background()))

	files := h.session.Files().Items()
	require.Len(t, files, 1)
	assert.Equal(t, model.OptimisticID("src/a.png"), files[0].ID)
	assert.True(t, files[0].Optimistic)
	assert.Empty(t, h.session.Files().Committed())
	assert.True(t, h.session.Windows().MovePending())
}

func TestMoveToFolder_NothingToMove(t *testing.T) {
	h := newHarness(t, Options{})
	assert.ErrorIs(t, h.session.StartMove(), ErrNothingToMove)
	assert.ErrorIs(t, h.session.ConfirmMove(context.Background()), ErrNothingToMove)
}

func TestCancelMove(t *testing.T) {
	h := newHarness(t, Options{})
	moveFixture(t, h)

	h.session.CancelMove()
	assert.False(t, h.session.Windows().MovePending())
	assert.False(t, h.session.Windows().IsOpenMoveWindow())
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestDropFiles(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "photos/").Return(folderData(&model.Folder{ID: "photos/", Name: "photos"}, nil, nil), nil)
	require.NoError(t, h.session.LoadFolder(context.Background(), "photos/"))

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.png", 10),
		writeFile(t, dir, "notes.txt", 10),
		writeFile(t, dir, "huge.png", 1024*1024+1),
	}

	n, err := h.session.DropFiles(paths)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	uploads := h.session.Uploads().Items()
	require.Len(t, uploads, 1)
	assert.Equal(t, "a.png", uploads[0].Name)
	assert.Equal(t, "photos/", uploads[0].FolderID)
	assert.Equal(t, "image/png", uploads[0].MimeType)
	assert.Equal(t, model.FileTypeImage, uploads[0].Type)
	assert.Equal(t, "preview-a.png", uploads[0].Src)
	assert.Equal(t, model.UploadPending, uploads[0].Status)

	assert.True(t, h.session.Windows().IsOpenUploadFilesWindow())
	require.NotEmpty(t, h.notifications)
	assert.Equal(t, LevelWarn, h.notifications[len(h.notifications)-1].Level)
}

func TestDropFiles_RespectsMaxFiles(t *testing.T) {
	h := newHarness(t, Options{})
	dir := t.TempDir()

	n, err := h.session.DropFiles([]string{
		writeFile(t, dir, "a.png", 1),
		writeFile(t, dir, "b.png", 1),
		writeFile(t, dir, "c.png", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 队列已满
	n, err = h.session.DropFiles([]string{writeFile(t, dir, "d.png", 1)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, h.session.Uploads().Len())
}

func TestDropFiles_KeepsUploadWindowOpen(t *testing.T) {
	h := newHarness(t, Options{Windows: map[windows.Name]bool{windows.UploadFilesWindow: true}})

	_, err := h.session.DropFiles([]string{writeFile(t, t.TempDir(), "a.png", 1)})
	require.NoError(t, err)
	assert.True(t, h.session.Windows().IsOpenUploadFilesWindow())
}

func TestProcessUploads(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)
	require.NoError(t, h.session.LoadFolder(context.Background(), ""))

	dir := t.TempDir()
	_, err := h.session.DropFiles([]string{writeFile(t, dir, "ok.png", 1), writeFile(t, dir, "bad.png", 1)})
	require.NoError(t, err)

	h.uploader.On("Upload", mock.Anything, "ok.png").Return(model.File{ID: "ok.png", Name: "ok.png"}, nil)
	h.uploader.On("Upload", mock.Anything, "bad.png").Return(model.File{}, errors.New("denied"))

	err = h.session.ProcessUploads(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")

	uploads := h.session.Uploads().Items()
	require.Len(t, uploads, 1)
	assert.Equal(t, "bad.png", uploads[0].Name)
	assert.Equal(t, model.UploadFailed, uploads[0].Status)
	assert.Equal(t, "denied", uploads[0].Err)

	assert.Equal(t, []string{"ok.png"}, ids(h.session.Files().Items()))
	assert.Equal(t, []string{"preview-ok.png"}, h.previews.released)
	assert.False(t, h.session.IsOperating())
}

func TestProcessUploads_OverlappingRunsUploadOnce(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "").Return(folderData(nil, nil, nil), nil)
	require.NoError(t, h.session.LoadFolder(context.Background(), ""))

	_, err := h.session.DropFiles([]string{writeFile(t, t.TempDir(), "a.png", 1)})
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	h.uploader.On("Upload", mock.Anything, "a.png").Run(func(mock.Arguments) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}).Return(model.File{ID: "a.png", Name: "a.png"}, nil)

	done := make(chan error, 1)
	go func() { done <- h.session.ProcessUploads(context.Background()) }()

	<-started
	// 第一轮仍在上传，第二轮不会重复上传同一个条目
	require.NoError(t, h.session.ProcessUploads(context.Background()))

	close(release)
	require.NoError(t, <-done)

	h.uploader.AssertNumberOfCalls(t, "Upload", 1)
	assert.Empty(t, h.session.Uploads().Items())
	assert.Equal(t, []string{"a.png"}, ids(h.session.Files().Items()))
}

func TestProcessUploads_NoUploader(t *testing.T) {
	s, err := New(Deps{Storage: &MockStorage{}, Inspector: utils.NewFileInspector(config.UploadConfig{})}, Options{Notifier: NotifyOff})
	require.NoError(t, err)
	assert.ErrorIs(t, s.ProcessUploads(context.Background()), ErrNoUploader)
}

func TestAddUploadedFile(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.On("GetFolderData", mock.Anything, "photos/").Return(folderData(&model.Folder{ID: "photos/", Name: "photos"}, nil, nil), nil)
	require.NoError(t, h.session.LoadFolder(context.Background(), "photos/"))

	assert.False(t, h.session.AddUploadedFile(model.File{ID: "docs/a.pdf", FolderID: "docs/"}))
	assert.Empty(t, h.session.Files().Items())

	assert.True(t, h.session.AddUploadedFile(model.File{ID: "photos/a.png", FolderID: "photos/", Size: 1}))
	assert.True(t, h.session.AddUploadedFile(model.File{ID: "photos/a.png", FolderID: "photos/", Size: 2}))

	files := h.session.Files().Committed()
	require.Len(t, files, 1)
	assert.Equal(t, int64(2), files[0].Size)
}

func TestRemoveUploadAndClose(t *testing.T) {
	h := newHarness(t, Options{})
	dir := t.TempDir()
	_, err := h.session.DropFiles([]string{writeFile(t, dir, "a.png", 1), writeFile(t, dir, "b.png", 1)})
	require.NoError(t, err)

	first := h.session.Uploads().Items()[0]
	h.session.RemoveUpload(first.ID)
	assert.Equal(t, []string{first.Src}, h.previews.released)

	h.session.Close()
	assert.ElementsMatch(t, h.previews.created, h.previews.released)
	assert.Equal(t, 0, h.session.Uploads().Len())
}

func TestClearAll(t *testing.T) {
	h := newHarness(t, Options{})
	a := &model.Folder{ID: "a/", Name: "a"}
	h.store.On("GetFolderData", mock.Anything, "a/").Return(folderData(a, []model.Folder{{ID: "a/b/", Name: "b"}}, []model.File{{ID: "a/x.png"}}), nil)
	require.NoError(t, h.session.LoadFolder(context.Background(), "a/"))

	h.session.ClearAll()
	assert.Nil(t, h.session.Folders().Folder())
	assert.Empty(t, h.session.Folders().Subfolders())
	assert.Empty(t, h.session.Files().Items())
	assert.Empty(t, h.session.Paths().Items())
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.BrowserConfig{
		Mode:              "selection",
		EnablePath:        true,
		RollbackOnFailure: true,
		Notify:            "off",
		Selection: config.SelectionConfig{
			Multiple:  false,
			Which:     []string{"file"},
			FileTypes: []string{"image"},
		},
		Windows: map[string]bool{"uploadfileswindow": true},
	})

	assert.Equal(t, ModeSelection, opts.Mode)
	assert.True(t, opts.EnablePath)
	assert.True(t, opts.RollbackOnFailure)
	assert.False(t, opts.Selection.Multiple)
	assert.Equal(t, []selection.Kind{selection.KindFile}, opts.Selection.Which)
	assert.Equal(t, []model.FileType{model.FileTypeImage}, opts.Selection.FileTypes)
	assert.True(t, opts.Windows[windows.UploadFilesWindow])
}

func TestNotifierFor(t *testing.T) {
	assert.NotNil(t, NotifierFor("off"))
	assert.NotNil(t, NotifierFor("log"))
	assert.NotPanics(t, func() {
		NotifierFor("log").Notify(Notification{Message: "hello", Level: LevelWarn})
	})
}
