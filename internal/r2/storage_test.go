package r2

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appconfig "github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/storage"
)

// MockS3API 用于模拟 S3 操作
type MockS3API struct {
	mock.Mock
}

func (m *MockS3API) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func (m *MockS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3API) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.CopyObjectOutput), args.Error(1)
}

func (m *MockS3API) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.DeleteObjectsOutput), args.Error(1)
}

func listWithPrefix(prefix string, maxKeys bool) interface{} {
	return mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == prefix && (in.MaxKeys != nil) == maxKeys
	})
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, len(keys))
	for i, k := range keys {
		out[i] = types.Object{Key: aws.String(k), Size: aws.Int64(int64(10 * (i + 1)))}
	}
	return out
}

func TestStorage_GetFolderData_Root(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("", false)).Return(&s3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("photos/")},
			{Prefix: aws.String(TrashPrefix)},
		},
		Contents: objects("a.txt"),
	}, nil)

	data, err := NewStorage(api, "bucket").GetFolderData(context.Background(), "")

	require.NoError(t, err)
	assert.Nil(t, data.Folder)
	require.Len(t, data.Subfolders, 1, "trash stays hidden")
	assert.Equal(t, model.Folder{ID: "photos/", Name: "photos", ParentID: ""}, data.Subfolders[0])
	require.Len(t, data.Files, 1)
	assert.Equal(t, "a.txt", data.Files[0].ID)
	assert.Equal(t, model.FileTypeText, data.Files[0].Type)
	assert.Equal(t, int64(10), data.Files[0].Size)
	api.AssertExpectations(t)
}

func TestStorage_GetFolderData_PaginatesAndSkipsMarker(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              objects("docs/", "docs/a.pdf"),
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents:       objects("docs/b.png"),
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("docs/old/")}},
		IsTruncated:    aws.Bool(false),
	}, nil).Once()

	data, err := NewStorage(api, "bucket").GetFolderData(context.Background(), "docs/")

	require.NoError(t, err)
	require.NotNil(t, data.Folder)
	assert.Equal(t, "docs", data.Folder.Name)
	assert.Equal(t, "", data.Folder.ParentID)
	assert.Len(t, data.Files, 2)
	assert.Equal(t, model.FileTypeDocument, data.Files[0].Type)
	assert.Equal(t, model.FileTypeImage, data.Files[1].Type)
	require.Len(t, data.Subfolders, 1)
	assert.Equal(t, "docs/", data.Subfolders[0].ParentID)
	api.AssertExpectations(t)
}

func TestStorage_GetFolderData_NotFound(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{}, nil)

	_, err := NewStorage(api, "bucket").GetFolderData(context.Background(), "missing/")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_GetFolderData_MalformedID(t *testing.T) {
	_, err := NewStorage(&MockS3API{}, "bucket").GetFolderData(context.Background(), "docs")

	assert.ErrorIs(t, err, storage.ErrMalformed)
}

func TestStorage_CreateFolder(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("docs/new/", true)).Return(&s3.ListObjectsV2Output{}, nil)
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "docs/new/" && aws.ToString(in.Bucket) == "bucket"
	})).Return(&s3.PutObjectOutput{}, nil)

	folder, err := NewStorage(api, "bucket").CreateFolder(context.Background(), storage.CreateFolderArgs{
		Name:     "new",
		ParentID: "docs/",
	})

	require.NoError(t, err)
	assert.Equal(t, "docs/new/", folder.ID)
	assert.Equal(t, "docs/", folder.ParentID)
	assert.False(t, folder.CreatedAt.IsZero())
	api.AssertExpectations(t)
}

func TestStorage_CreateFolder_Conflict(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: objects("new/"),
	}, nil)

	_, err := NewStorage(api, "bucket").CreateFolder(context.Background(), storage.CreateFolderArgs{Name: "new"})

	assert.ErrorIs(t, err, storage.ErrConflict)
	api.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestStorage_CreateFolder_InvalidName(t *testing.T) {
	s := NewStorage(&MockS3API{}, "bucket")

	for _, name := range []string{"", "  ", "a/b", "..", "."} {
		_, err := s.CreateFolder(context.Background(), storage.CreateFolderArgs{Name: name})
		assert.ErrorIs(t, err, storage.ErrMalformed, "name %q", name)
	}
}

func TestStorage_UpdateFolder_Rename(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("docs/new/", true)).Return(&s3.ListObjectsV2Output{}, nil)
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("docs/old/", false)).Return(&s3.ListObjectsV2Output{
		Contents: objects("docs/old/", "docs/old/a b.txt"),
	}, nil)
	api.On("CopyObject", mock.Anything, mock.MatchedBy(func(in *s3.CopyObjectInput) bool {
		return aws.ToString(in.Key) == "docs/new/" && aws.ToString(in.CopySource) == "bucket/docs/old/"
	})).Return(&s3.CopyObjectOutput{}, nil).Once()
	api.On("CopyObject", mock.Anything, mock.MatchedBy(func(in *s3.CopyObjectInput) bool {
		return aws.ToString(in.Key) == "docs/new/a b.txt" && aws.ToString(in.CopySource) == "bucket/docs/old/a%20b.txt"
	})).Return(&s3.CopyObjectOutput{}, nil).Once()
	api.On("DeleteObjects", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
		return len(in.Delete.Objects) == 2
	})).Return(&s3.DeleteObjectsOutput{}, nil).Once()

	folder, err := NewStorage(api, "bucket").UpdateFolder(context.Background(), storage.UpdateFolderArgs{
		ID:   "docs/old/",
		Name: "new",
	})

	require.NoError(t, err)
	assert.Equal(t, "docs/new/", folder.ID)
	assert.Equal(t, "new", folder.Name)
	assert.Equal(t, "docs/", folder.ParentID)
	api.AssertExpectations(t)
}

func TestStorage_UpdateFolder_SameName(t *testing.T) {
	api := &MockS3API{}

	folder, err := NewStorage(api, "bucket").UpdateFolder(context.Background(), storage.UpdateFolderArgs{
		ID:   "docs/",
		Name: "docs",
	})

	require.NoError(t, err)
	assert.Equal(t, "docs/", folder.ID)
	api.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything)
}

func TestStorage_TrashFolders_DeletesInBatches(t *testing.T) {
	keys := make([]string, 1500)
	for i := range keys {
		keys[i] = fmt.Sprintf("big/%04d.txt", i)
	}

	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("big/", false)).Return(&s3.ListObjectsV2Output{
		Contents: objects(keys...),
	}, nil)
	api.On("CopyObject", mock.Anything, mock.MatchedBy(func(in *s3.CopyObjectInput) bool {
		return len(aws.ToString(in.Key)) > len(TrashPrefix) && aws.ToString(in.Key)[:len(TrashPrefix)] == TrashPrefix
	})).Return(&s3.CopyObjectOutput{}, nil)
	api.On("DeleteObjects", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
		return len(in.Delete.Objects) == 1000
	})).Return(&s3.DeleteObjectsOutput{}, nil).Once()
	api.On("DeleteObjects", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
		return len(in.Delete.Objects) == 500
	})).Return(&s3.DeleteObjectsOutput{}, nil).Once()

	err := NewStorage(api, "bucket").TrashFolders(context.Background(), storage.TrashFoldersArgs{IDs: []string{"big/"}})

	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "CopyObject", 1500)
	api.AssertExpectations(t)
}

func TestStorage_TrashFiles_MissingFile(t *testing.T) {
	api := &MockS3API{}
	api.On("CopyObject", mock.Anything, mock.Anything).Return((*s3.CopyObjectOutput)(nil), &types.NoSuchKey{})

	err := NewStorage(api, "bucket").TrashFiles(context.Background(), storage.TrashFilesArgs{IDs: []string{"gone.txt"}})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	api.AssertNotCalled(t, "DeleteObjects", mock.Anything, mock.Anything)
}

func TestStorage_TrashFiles_DeleteErrors(t *testing.T) {
	api := &MockS3API{}
	api.On("CopyObject", mock.Anything, mock.Anything).Return(&s3.CopyObjectOutput{}, nil)
	api.On("DeleteObjects", mock.Anything, mock.Anything).Return(&s3.DeleteObjectsOutput{
		Errors: []types.Error{{Key: aws.String("a.txt"), Code: aws.String("AccessDenied"), Message: aws.String("denied")}},
	}, nil)

	err := NewStorage(api, "bucket").TrashFiles(context.Background(), storage.TrashFilesArgs{IDs: []string{"a.txt"}})

	assert.ErrorIs(t, err, storage.ErrPermission)
}

func TestStorage_MoveToFolder(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("dest/a.txt", true)).Return(&s3.ListObjectsV2Output{
		Contents: objects("dest/a.txt.bak"),
	}, nil)
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("dest/sub/", true)).Return(&s3.ListObjectsV2Output{}, nil)
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("sub/", false)).Return(&s3.ListObjectsV2Output{
		Contents: objects("sub/", "sub/x.png"),
	}, nil)
	api.On("CopyObject", mock.Anything, mock.Anything).Return(&s3.CopyObjectOutput{}, nil)
	api.On("DeleteObjects", mock.Anything, mock.Anything).Return(&s3.DeleteObjectsOutput{}, nil)

	result, err := NewStorage(api, "bucket").MoveToFolder(context.Background(), storage.MoveArgs{
		FileIDs:   []string{"a.txt"},
		FolderIDs: []string{"sub/"},
		FolderID:  "dest/",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "dest/a.txt"}, result.Files)
	assert.Equal(t, map[string]string{"sub/": "dest/sub/"}, result.Folders)
	api.AssertNumberOfCalls(t, "CopyObject", 3)
	api.AssertNumberOfCalls(t, "DeleteObjects", 2)
}

func TestStorage_MoveToFolder_FileConflict(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("dest/a.txt", true)).Return(&s3.ListObjectsV2Output{
		Contents: objects("dest/a.txt"),
	}, nil)

	_, err := NewStorage(api, "bucket").MoveToFolder(context.Background(), storage.MoveArgs{
		FileIDs:  []string{"a.txt"},
		FolderID: "dest/",
	})

	assert.ErrorIs(t, err, storage.ErrConflict)
	api.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "DeleteObjects", mock.Anything, mock.Anything)
}

func TestStorage_MoveToFolder_SameNameTwice(t *testing.T) {
	api := &MockS3API{}
	api.On("ListObjectsV2", mock.Anything, listWithPrefix("dest/a.txt", true)).Return(&s3.ListObjectsV2Output{}, nil)

	_, err := NewStorage(api, "bucket").MoveToFolder(context.Background(), storage.MoveArgs{
		FileIDs:  []string{"x/a.txt", "y/a.txt"},
		FolderID: "dest/",
	})

	assert.ErrorIs(t, err, storage.ErrConflict)
	api.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything)
}

func TestStorage_MoveToFolder_IntoItself(t *testing.T) {
	_, err := NewStorage(&MockS3API{}, "bucket").MoveToFolder(context.Background(), storage.MoveArgs{
		FolderIDs: []string{"a/"},
		FolderID:  "a/b/",
	})

	assert.ErrorIs(t, err, storage.ErrMalformed)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &types.NoSuchKey{}, storage.ErrNotFound},
		{"not found", &types.NotFound{}, storage.ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, storage.ErrPermission},
		{"invalid argument", &smithy.GenericAPIError{Code: "InvalidArgument"}, storage.ErrMalformed},
		{"unknown api error", &smithy.GenericAPIError{Code: "SlowDown"}, storage.ErrInternal},
		{"plain", errors.New("network"), storage.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("op", fmt.Errorf("wrapped: %w", tt.err))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "", parentOf("docs/"))
	assert.Equal(t, "docs/", parentOf("docs/sub/"))
	assert.Equal(t, "docs/", parentOf("docs/file.txt"))
	assert.Equal(t, "sub", folderName("docs/sub/"))
	assert.Equal(t, "b/a%20b.txt", copySource("b", "a b.txt"))
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com", Endpoint(&appconfig.R2Config{AccountID: "acc", Endpoint: "auto"}))
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com", Endpoint(&appconfig.R2Config{AccountID: "acc"}))
	assert.Equal(t, "http://localhost:9000", Endpoint(&appconfig.R2Config{AccountID: "acc", Endpoint: "http://localhost:9000"}))
}
