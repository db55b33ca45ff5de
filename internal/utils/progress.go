package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSize formats a byte count for display
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}

// callbackReader 包装 io.Reader 并提供进度回调
type callbackReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback ProgressCallback
}

func newCallbackReader(reader io.Reader, total int64, callback ProgressCallback) *callbackReader {
	return &callbackReader{reader: reader, total: total, callback: callback}
}

// Read 实现 io.Reader 接口并触发进度回调
func (cr *callbackReader) Read(p []byte) (n int, err error) {
	n, err = cr.reader.Read(p)

	if n > 0 {
		cr.read += int64(n)
		cr.callback(cr.read, cr.total, percentOf(cr.read, cr.total))
	}

	return n, err
}

// Seek 实现 io.Seeker 接口，SDK 重试时需要
func (cr *callbackReader) Seek(offset int64, whence int) (int64, error) {
	seeker, ok := cr.reader.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("underlying reader does not support seeking")
	}
	pos, err := seeker.Seek(offset, whence)
	if err == nil {
		cr.read = pos
	}
	return pos, err
}

func percentOf(read, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return min(float64(read)/float64(total)*100, 100)
}

// ProgressReader wraps an io.Reader and draws upload progress on stderr
type ProgressReader struct {
	reader      io.Reader
	out         io.Writer
	total       int64
	read        int64
	description string
	startTime   time.Time
	lastPrint   time.Time
	finished    bool
	lastLineLen int
}

// NewProgressReader creates a new progress reader
func NewProgressReader(reader io.Reader, total int64, description string) *ProgressReader {
	return &ProgressReader{
		reader:      reader,
		out:         os.Stderr,
		total:       total,
		description: description,
		startTime:   time.Now(),
		lastPrint:   time.Now(),
	}
}

// Read implements io.Reader interface and shows progress
func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)

	if n > 0 {
		pr.read += int64(n)

		// Update progress every 200ms or on EOF/error
		now := time.Now()
		if now.Sub(pr.lastPrint) > 200*time.Millisecond || err != nil {
			pr.printProgress()
			pr.lastPrint = now
		}
	}

	if err == io.EOF && !pr.finished {
		pr.finished = true
		pr.printProgress()
		fmt.Fprintln(pr.out)
	}

	return n, err
}

// Seek implements io.Seeker interface for AWS SDK retry support
func (pr *ProgressReader) Seek(offset int64, whence int) (int64, error) {
	if seeker, ok := pr.reader.(io.Seeker); ok {
		pos, err := seeker.Seek(offset, whence)
		if err == nil {
			pr.read = pos
		}
		return pos, err
	}
	return 0, fmt.Errorf("underlying reader does not support seeking")
}

// Callback adapts the reader's display to a ProgressCallback
func (pr *ProgressReader) Callback() ProgressCallback {
	return func(uploaded, total int64, _ float64) {
		pr.read, pr.total = uploaded, total
		if time.Since(pr.lastPrint) > 200*time.Millisecond || uploaded >= total {
			pr.printProgress()
			pr.lastPrint = time.Now()
		}
	}
}

// printProgress displays the current progress
func (pr *ProgressReader) printProgress() {
	if pr.total <= 0 {
		return
	}

	percentage := percentOf(pr.read, pr.total)

	var speed string
	if elapsed := time.Since(pr.startTime); elapsed.Seconds() > 0.1 {
		speed = fmt.Sprintf(" %s/s", FormatSize(int64(float64(pr.read)/elapsed.Seconds())))
	}

	barWidth := 40
	filled := min(int(percentage*float64(barWidth)/100), barWidth)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "]"

	line := fmt.Sprintf("%s %s %.1f%% (%s/%s)%s",
		pr.description,
		bar,
		percentage,
		FormatSize(pr.read),
		FormatSize(pr.total),
		speed)

	// Clear previous line if it was longer
	if pr.lastLineLen > len(line) {
		fmt.Fprintf(pr.out, "\r%s\r", strings.Repeat(" ", pr.lastLineLen))
	}

	fmt.Fprintf(pr.out, "\r%s", line)
	pr.lastLineLen = len(line)
}

// Close finishes the progress display
func (pr *ProgressReader) Close() error {
	if !pr.finished {
		pr.finished = true
		pr.printProgress()
		fmt.Fprintln(pr.out)
	}
	return nil
}
