package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/model"
)

// ErrFileExists 表示远程文件已存在且未允许覆盖
var ErrFileExists = errors.New("file already exists and overwrite is disabled")

// ProgressCallback 定义进度回调类型
type ProgressCallback func(uploaded, total int64, percentage float64)

// FileUploader 接口定义上传器的核心功能
type FileUploader interface {
	// UploadFile 上传单个文件
	UploadFile(ctx context.Context, localPath, remotePath string, options *UploadOptions) error

	// UploadFileWithProgress 上传文件并提供进度回调
	UploadFileWithProgress(ctx context.Context, localPath, remotePath string, options *UploadOptions, callback ProgressCallback) error

	// CheckFileExists 检查远程文件是否存在
	CheckFileExists(ctx context.Context, remotePath string) (bool, error)
}

// UploadOptions 上传选项
type UploadOptions struct {
	Overwrite    bool
	PublicAccess bool
	ContentType  string
}

// OptionsFromConfig 根据配置生成默认上传选项
func OptionsFromConfig(cfg *config.Config) UploadOptions {
	if cfg == nil {
		return UploadOptions{}
	}
	return UploadOptions{
		Overwrite:    cfg.Upload.DefaultOverwrite,
		PublicAccess: cfg.Upload.DefaultPublic,
	}
}

// S3ClientInterface 定义 S3 客户端接口，便于测试
type S3ClientInterface interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// uploadError 包装上传相关的错误
type uploadError struct {
	operation string
	path      string
	err       error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("upload %s failed for %s: %v", e.operation, e.path, e.err)
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// fileUploader 是 FileUploader 接口的具体实现
type fileUploader struct {
	s3Client   S3ClientInterface
	config     *config.Config
	bucketName string
}

// NewFileUploader 创建新的文件上传器
func NewFileUploader(client S3ClientInterface, cfg *config.Config, bucketName string) FileUploader {
	return &fileUploader{
		s3Client:   client,
		config:     cfg,
		bucketName: bucketName,
	}
}

// UploadFile 实现 FileUploader 接口
func (fu *fileUploader) UploadFile(ctx context.Context, localPath, remotePath string, options *UploadOptions) error {
	return fu.UploadFileWithProgress(ctx, localPath, remotePath, options, nil)
}

// UploadFileWithProgress 实现带进度回调的文件上传
func (fu *fileUploader) UploadFileWithProgress(ctx context.Context, localPath, remotePath string, options *UploadOptions, callback ProgressCallback) error {
	if options == nil {
		options = &UploadOptions{}
	}

	file, fileInfo, err := fu.openAndValidateFile(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := fu.checkRemoteFileConflict(ctx, remotePath, options.Overwrite); err != nil {
		return err
	}

	contentType := fu.determineContentType(localPath, file, options.ContentType)

	body, err := fu.prepareUploadBody(file, fileInfo.Size(), callback)
	if err != nil {
		return err
	}

	return fu.performUpload(ctx, localPath, remotePath, body, contentType, options.PublicAccess)
}

// CheckFileExists 检查远程文件是否存在
func (fu *fileUploader) CheckFileExists(ctx context.Context, remotePath string) (bool, error) {
	_, err := fu.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(fu.bucketName),
		Key:    aws.String(remotePath),
	})
	if err == nil {
		return true, nil
	}

	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return false, nil
	}

	// 部分兼容实现只返回 404 文本
	if strings.Contains(err.Error(), "StatusCode: 404") ||
		strings.Contains(err.Error(), "NotFound") {
		return false, nil
	}

	return false, err
}

// openAndValidateFile 打开文件并获取文件信息
func (fu *fileUploader) openAndValidateFile(localPath string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, nil, &uploadError{operation: "open file", path: localPath, err: err}
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, &uploadError{operation: "get file info", path: localPath, err: err}
	}
	if fileInfo.IsDir() {
		file.Close()
		return nil, nil, &uploadError{operation: "open file", path: localPath, err: errors.New("is a directory")}
	}

	return file, fileInfo, nil
}

// checkRemoteFileConflict 检查远程文件冲突
func (fu *fileUploader) checkRemoteFileConflict(ctx context.Context, remotePath string, overwrite bool) error {
	if overwrite {
		return nil
	}

	exists, err := fu.CheckFileExists(ctx, remotePath)
	if err != nil {
		return &uploadError{operation: "check remote file", path: remotePath, err: err}
	}
	if exists {
		return &uploadError{operation: "check file conflict", path: remotePath, err: ErrFileExists}
	}

	return nil
}

// prepareUploadBody 准备上传体，包括进度跟踪
func (fu *fileUploader) prepareUploadBody(file *os.File, fileSize int64, callback ProgressCallback) (io.Reader, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &uploadError{operation: "seek file", path: file.Name(), err: err}
	}

	if callback == nil {
		return file, nil
	}
	return newCallbackReader(file, fileSize, callback), nil
}

// determineContentType 确定文件的内容类型
func (fu *fileUploader) determineContentType(localPath string, file *os.File, explicitType string) string {
	if explicitType != "" {
		return explicitType
	}

	currentPos, _ := file.Seek(0, io.SeekCurrent)
	contentType, _ := DetectContentType(localPath, file)
	file.Seek(currentPos, io.SeekStart)

	return contentType
}

// performUpload 执行实际的上传操作
func (fu *fileUploader) performUpload(ctx context.Context, localPath, remotePath string, body io.Reader, contentType string, publicAccess bool) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(fu.bucketName),
		Key:    aws.String(remotePath),
		Body:   body,
	}

	if contentType != "" {
		input.ContentType = aws.String(contentType)
		logrus.Debugf("Setting content type: %s", contentType)
	}

	if publicAccess {
		input.ACL = types.ObjectCannedACLPublicRead
		logrus.Debugf("Setting public access")
	}

	if _, err := fu.s3Client.PutObject(ctx, input); err != nil {
		return &uploadError{operation: "upload to S3", path: localPath, err: err}
	}

	logrus.Infof("Successfully uploaded %s to %s", localPath, remotePath)
	return nil
}

// QueueUploader 把上传队列中的记录上传到其目标目录
type QueueUploader struct {
	uploader FileUploader
	options  UploadOptions
	now      func() time.Time
}

// NewQueueUploader 创建队列上传器
func NewQueueUploader(uploader FileUploader, options UploadOptions) *QueueUploader {
	return &QueueUploader{uploader: uploader, options: options, now: time.Now}
}

// Upload 上传一条记录，返回上传后的文件
func (q *QueueUploader) Upload(ctx context.Context, upload model.Upload, progress func(percentage float64)) (model.File, error) {
	name := upload.Name
	if name == "" {
		name = filepath.Base(upload.LocalPath)
	}
	remotePath := upload.FolderID + name

	opts := q.options
	if opts.ContentType == "" {
		opts.ContentType = upload.MimeType
	}

	var callback ProgressCallback
	if progress != nil {
		callback = func(_, _ int64, percentage float64) { progress(percentage) }
	}

	if err := q.uploader.UploadFileWithProgress(ctx, upload.LocalPath, remotePath, &opts, callback); err != nil {
		return model.File{}, err
	}

	now := q.now()
	return model.File{
		ID:        remotePath,
		Name:      name,
		FolderID:  upload.FolderID,
		Type:      upload.Type,
		MimeType:  upload.MimeType,
		Size:      upload.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
