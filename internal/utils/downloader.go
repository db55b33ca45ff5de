package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// GetObjectAPI 下载所需的最小 S3 接口
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// FileDownloader 把对象保存到本地目录
type FileDownloader struct {
	client     GetObjectAPI
	bucketName string
	dir        string
}

// NewFileDownloader 创建下载器，dir 为空时使用 ~/Downloads
func NewFileDownloader(client GetObjectAPI, bucketName, dir string) *FileDownloader {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Downloads")
		}
	}
	return &FileDownloader{client: client, bucketName: bucketName, dir: dir}
}

// Download 下载 key 并返回本地路径，同名文件存在时自动改名
func (d *FileDownloader) Download(ctx context.Context, key string, callback ProgressCallback) (string, error) {
	if d.dir == "" {
		return "", fmt.Errorf("no download directory")
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}

	localPath := resolveFileNameConflict(filepath.Join(d.dir, filepath.Base(key)))

	result, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer file.Close()

	var body io.Reader = result.Body
	if callback != nil {
		body = newCallbackReader(result.Body, aws.ToInt64(result.ContentLength), callback)
	}

	if _, err := io.Copy(file, body); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write file content: %w", err)
	}

	logrus.Infof("File downloaded successfully to: %s", localPath)
	return localPath, nil
}

// resolveFileNameConflict 找到一个不冲突的文件名，如 "a (1).png"
func resolveFileNameConflict(originalPath string) string {
	if _, err := os.Stat(originalPath); os.IsNotExist(err) {
		return originalPath
	}

	ext := filepath.Ext(originalPath)
	baseName := originalPath[:len(originalPath)-len(ext)]

	for i := 1; i < 1000; i++ {
		newPath := fmt.Sprintf("%s (%d)%s", baseName, i, ext)
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	return fmt.Sprintf("%s_%d%s", baseName, os.Getpid(), ext)
}
