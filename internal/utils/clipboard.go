package utils

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var (
	// ErrClipboardUnsupported 表示当前系统没有可用的剪贴板
	ErrClipboardUnsupported = errors.New("clipboard is not supported on this system")
	// ErrClipboardFailed 表示写入剪贴板时出现意外错误
	ErrClipboardFailed = errors.New("failed to write to clipboard")
)

// 便于测试替换
var (
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
	clipboardWrite       = clipboard.WriteAll
)

// CopyToClipboard 复制内容到系统剪贴板，失败时返回上面的错误类型之一
func CopyToClipboard(content string) (err error) {
	if clipboardUnsupported() {
		return ErrClipboardUnsupported
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClipboardFailed, r)
		}
	}()

	if err := clipboardWrite(content); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardFailed, err)
	}
	return nil
}
