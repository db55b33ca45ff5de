package r2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

// TrashPrefix holds trashed objects, keyed by their original key
const TrashPrefix = ".trash/"

// deleteBatchSize is the DeleteObjects limit per request
const deleteBatchSize = 1000

// S3API 是存储层用到的 S3 操作，便于测试
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Storage implements storage.Storage over one bucket. Folders are key
// prefixes ending in "/" and the root folder is the empty prefix.
type Storage struct {
	api    S3API
	bucket string
	now    func() time.Time
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates a storage over bucket
func NewStorage(api S3API, bucket string) *Storage {
	return &Storage{api: api, bucket: bucket, now: time.Now}
}

// GetFolderData lists the direct children of folderID
func (s *Storage) GetFolderData(ctx context.Context, folderID string) (*storage.FolderData, error) {
	const op = "getFolderData"

	if folderID != "" && !strings.HasSuffix(folderID, "/") {
		return nil, storage.NewError(op, storage.CodeMalformed, fmt.Errorf("folder id %q must end with /", folderID))
	}

	data := &storage.FolderData{
		Subfolders: []model.Folder{},
		Files:      []model.File{},
	}
	found := false
	var marker *types.Object

	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(folderID),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(op, err)
		}

		for _, cp := range page.CommonPrefixes {
			prefix := aws.ToString(cp.Prefix)
			found = true
			if folderID == "" && prefix == TrashPrefix {
				continue
			}
			data.Subfolders = append(data.Subfolders, model.Folder{
				ID:       prefix,
				Name:     folderName(prefix),
				ParentID: folderID,
			})
		}

		for i := range page.Contents {
			obj := page.Contents[i]
			key := aws.ToString(obj.Key)
			found = true
			// 目录占位对象不显示为文件
			if key == folderID {
				marker = &obj
				continue
			}
			if strings.HasSuffix(key, "/") {
				continue
			}
			data.Files = append(data.Files, fileFromObject(folderID, obj))
		}
	}

	if folderID == "" {
		return data, nil
	}
	if !found {
		return nil, storage.NewError(op, storage.CodeNotFound, fmt.Errorf("folder %s", folderID))
	}

	folder := model.Folder{
		ID:       folderID,
		Name:     folderName(folderID),
		ParentID: parentOf(folderID),
	}
	if marker != nil {
		folder.CreatedAt = aws.ToTime(marker.LastModified)
		folder.UpdatedAt = folder.CreatedAt
	}
	data.Folder = &folder

	logrus.Debugf("Listed %s: %d folders, %d files", displayID(folderID), len(data.Subfolders), len(data.Files))
	return data, nil
}

// CreateFolder writes an empty marker object for the new folder
func (s *Storage) CreateFolder(ctx context.Context, args storage.CreateFolderArgs) (*model.Folder, error) {
	const op = "createFolder"

	if err := validateName(op, args.Name); err != nil {
		return nil, err
	}
	id := args.ParentID + args.Name + "/"

	exists, err := s.prefixExists(ctx, id)
	if err != nil {
		return nil, mapError(op, err)
	}
	if exists {
		return nil, storage.NewError(op, storage.CodeConflict, fmt.Errorf("folder %s", id))
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(nil),
		ContentType: aws.String("application/x-directory"),
	})
	if err != nil {
		return nil, mapError(op, err)
	}

	now := s.now()
	logrus.Infof("Created folder %s", id)
	return &model.Folder{
		ID:        id,
		Name:      args.Name,
		ParentID:  args.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateFolder renames a folder by copying its objects to the new prefix
func (s *Storage) UpdateFolder(ctx context.Context, args storage.UpdateFolderArgs) (*model.Folder, error) {
	const op = "updateFolder"

	if args.ID == "" || !strings.HasSuffix(args.ID, "/") {
		return nil, storage.NewError(op, storage.CodeMalformed, fmt.Errorf("invalid folder id %q", args.ID))
	}
	if err := validateName(op, args.Name); err != nil {
		return nil, err
	}

	parentID := parentOf(args.ID)
	newID := parentID + args.Name + "/"
	result := &model.Folder{
		ID:        newID,
		Name:      args.Name,
		ParentID:  parentID,
		UpdatedAt: s.now(),
	}
	if newID == args.ID {
		return result, nil
	}

	exists, err := s.prefixExists(ctx, newID)
	if err != nil {
		return nil, mapError(op, err)
	}
	if exists {
		return nil, storage.NewError(op, storage.CodeConflict, fmt.Errorf("folder %s", newID))
	}

	if err := s.movePrefix(ctx, op, args.ID, newID); err != nil {
		return nil, err
	}

	logrus.Infof("Renamed folder %s to %s", args.ID, newID)
	return result, nil
}

// TrashFiles moves files under the trash prefix
func (s *Storage) TrashFiles(ctx context.Context, args storage.TrashFilesArgs) error {
	const op = "trashFiles"

	if len(args.IDs) == 0 {
		return storage.NewError(op, storage.CodeMalformed, errors.New("no files given"))
	}

	moves := make(map[string]string, len(args.IDs))
	for _, id := range args.IDs {
		if id == "" || strings.HasSuffix(id, "/") {
			return storage.NewError(op, storage.CodeMalformed, fmt.Errorf("invalid file id %q", id))
		}
		moves[id] = TrashPrefix + id
	}

	if err := s.moveKeys(ctx, op, moves); err != nil {
		return err
	}
	logrus.Infof("Trashed %d files", len(args.IDs))
	return nil
}

// TrashFolders moves folders and their contents under the trash prefix
func (s *Storage) TrashFolders(ctx context.Context, args storage.TrashFoldersArgs) error {
	const op = "trashFolders"

	if len(args.IDs) == 0 {
		return storage.NewError(op, storage.CodeMalformed, errors.New("no folders given"))
	}

	for _, id := range args.IDs {
		if id == "" || !strings.HasSuffix(id, "/") || strings.HasPrefix(id, TrashPrefix) {
			return storage.NewError(op, storage.CodeMalformed, fmt.Errorf("invalid folder id %q", id))
		}
		if err := s.movePrefix(ctx, op, id, TrashPrefix+id); err != nil {
			return err
		}
	}

	logrus.Infof("Trashed %d folders", len(args.IDs))
	return nil
}

// MoveToFolder moves files and folder trees under the destination folder
func (s *Storage) MoveToFolder(ctx context.Context, args storage.MoveArgs) (*storage.MoveResult, error) {
	const op = "moveToFolder"

	dest := args.FolderID
	if dest != "" && !strings.HasSuffix(dest, "/") {
		return nil, storage.NewError(op, storage.CodeMalformed, fmt.Errorf("invalid destination %q", dest))
	}

	result := &storage.MoveResult{
		Files:   make(map[string]string, len(args.FileIDs)),
		Folders: make(map[string]string, len(args.FolderIDs)),
	}

	fileMoves := make(map[string]string, len(args.FileIDs))
	targets := make(map[string]bool, len(args.FileIDs))
	for _, id := range args.FileIDs {
		target := dest + path.Base(id)
		if target == id {
			continue
		}
		if targets[target] {
			return nil, storage.NewError(op, storage.CodeConflict, fmt.Errorf("file %s", target))
		}
		exists, err := s.keyExists(ctx, target)
		if err != nil {
			return nil, mapError(op, err)
		}
		if exists {
			return nil, storage.NewError(op, storage.CodeConflict, fmt.Errorf("file %s", target))
		}
		targets[target] = true
		fileMoves[id] = target
		result.Files[id] = target
	}

	for _, id := range args.FolderIDs {
		if !strings.HasSuffix(id, "/") || strings.HasPrefix(dest, id) {
			return nil, storage.NewError(op, storage.CodeMalformed, fmt.Errorf("cannot move %s into %s", id, displayID(dest)))
		}
		target := dest + folderName(id) + "/"
		if target == id {
			continue
		}
		exists, err := s.prefixExists(ctx, target)
		if err != nil {
			return nil, mapError(op, err)
		}
		if exists {
			return nil, storage.NewError(op, storage.CodeConflict, fmt.Errorf("folder %s", target))
		}
		result.Folders[id] = target
	}

	if err := s.moveKeys(ctx, op, fileMoves); err != nil {
		return nil, err
	}
	for from, to := range result.Folders {
		if err := s.movePrefix(ctx, op, from, to); err != nil {
			return nil, err
		}
	}

	logrus.Infof("Moved %d files and %d folders to %s", len(result.Files), len(result.Folders), displayID(dest))
	return result, nil
}

// prefixExists reports whether any object lives at or under prefix
func (s *Storage) prefixExists(ctx context.Context, prefix string) (bool, error) {
	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

// keyExists reports whether an object is stored under exactly key
func (s *Storage) keyExists(ctx context.Context, key string) (bool, error) {
	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0 && aws.ToString(out.Contents[0].Key) == key, nil
}

// listKeys returns every key under prefix
func (s *Storage) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// movePrefix moves every object under from to the same relative key under to
func (s *Storage) movePrefix(ctx context.Context, op, from, to string) error {
	keys, err := s.listKeys(ctx, from)
	if err != nil {
		return mapError(op, err)
	}
	if len(keys) == 0 {
		return storage.NewError(op, storage.CodeNotFound, fmt.Errorf("folder %s", from))
	}

	moves := make(map[string]string, len(keys))
	for _, key := range keys {
		moves[key] = to + strings.TrimPrefix(key, from)
	}
	return s.moveKeys(ctx, op, moves)
}

// moveKeys copies every source key to its target, then deletes the sources
func (s *Storage) moveKeys(ctx context.Context, op string, moves map[string]string) error {
	sources := make([]string, 0, len(moves))
	for from, to := range moves {
		_, err := s.api.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			CopySource: aws.String(copySource(s.bucket, from)),
			Key:        aws.String(to),
		})
		if err != nil {
			return mapError(op, fmt.Errorf("failed to copy %s: %w", from, err))
		}
		sources = append(sources, from)
	}
	return s.deleteKeys(ctx, op, sources)
}

// deleteKeys deletes keys in batches
func (s *Storage) deleteKeys(ctx context.Context, op string, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return mapError(op, err)
		}
		if out != nil && len(out.Errors) > 0 {
			first := out.Errors[0]
			return storage.NewError(op, codeFor(aws.ToString(first.Code)),
				fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message)))
		}
	}
	return nil
}

// mapError converts an S3 failure into a storage error
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *storage.Error
	if errors.As(err, &se) {
		return err
	}

	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return storage.NewError(op, storage.CodeNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return storage.NewError(op, codeFor(apiErr.ErrorCode()), err)
	}

	return storage.NewError(op, storage.CodeInternal, err)
}

func codeFor(awsCode string) storage.Code {
	switch awsCode {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return storage.CodeNotFound
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return storage.CodePermission
	case "InvalidArgument", "InvalidRequest", "InvalidObjectName", "KeyTooLongError":
		return storage.CodeMalformed
	case "PreconditionFailed":
		return storage.CodeConflict
	default:
		return storage.CodeInternal
	}
}

func validateName(op, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return storage.NewError(op, storage.CodeMalformed, errors.New("folder name is required"))
	case strings.Contains(name, "/"):
		return storage.NewError(op, storage.CodeMalformed, fmt.Errorf("folder name %q contains /", name))
	case name == "." || name == "..":
		return storage.NewError(op, storage.CodeMalformed, fmt.Errorf("invalid folder name %q", name))
	case len(name) > 255:
		return storage.NewError(op, storage.CodeMalformed, errors.New("folder name is too long"))
	}
	return nil
}

func fileFromObject(folderID string, obj types.Object) model.File {
	key := aws.ToString(obj.Key)
	mimeType, _ := utils.DetectContentType(key, nil)
	modified := aws.ToTime(obj.LastModified)
	return model.File{
		ID:        key,
		Name:      path.Base(key),
		FolderID:  folderID,
		Type:      model.FileTypeOf(mimeType),
		MimeType:  mimeType,
		Size:      aws.ToInt64(obj.Size),
		CreatedAt: modified,
		UpdatedAt: modified,
	}
}

// folderName returns the last segment of a folder prefix
func folderName(id string) string {
	return path.Base(strings.TrimSuffix(id, "/"))
}

// parentOf returns the prefix of the folder containing id
func parentOf(id string) string {
	trimmed := strings.TrimSuffix(id, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}

func copySource(bucket, key string) string {
	return bucket + "/" + utils.EscapeKey(key)
}

func displayID(id string) string {
	if id == "" {
		return "/"
	}
	return id
}
