package sanitize

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"phi-redact/internal/model"
	"phi-redact/internal/redact"
	"phi-redact/internal/runstore"
)

// SanitizedSuffix is appended to the input stem to name the output file.
const SanitizedSuffix = "_sanitized"

const ioBufferSize = 64 * 1024

// Stats describes one sanitized file.
type Stats struct {
	Lines      int
	Redactions redact.Counts
}

// OutputPath derives outputDir/<stem>_sanitized<ext> for inputPath. Two
// inputs with the same base name map to the same output.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(outputDir, stem+SanitizedSuffix+ext)
}

// ProcessFile sanitizes job.InputPath into job.OutputPath and records the
// outcome on the job. The job must be pending.
func ProcessFile(ctx context.Context, job *model.FileJob, r *redact.Redactor) error {
	if err := model.TransitionJobStatus(job, model.StatusRunning, ""); err != nil {
		return err
	}
	stats, err := SanitizeFile(ctx, job.InputPath, job.OutputPath, r)
	job.Lines = stats.Lines
	if err != nil {
		if tErr := model.TransitionJobStatus(job, model.StatusFailed, err.Error()); tErr != nil {
			return tErr
		}
		return err
	}
	job.Redactions = stats.Redactions
	return model.TransitionJobStatus(job, model.StatusSucceeded, "")
}

// SanitizeFile streams inputPath through r into outputPath. The output is
// replaced only when every line has been written.
func SanitizeFile(ctx context.Context, inputPath, outputPath string, r *redact.Redactor) (Stats, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Stats{}, err
	}
	defer in.Close()

	out, err := runstore.CreateAtomic(outputPath)
	if err != nil {
		return Stats{}, err
	}
	defer out.Abort()

	stats, err := SanitizeStream(ctx, in, out, r)
	if err != nil {
		return stats, err
	}
	if err := out.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// SanitizeStream writes the redaction of every line of src to dst, each
// terminated by "\n".
func SanitizeStream(ctx context.Context, src io.Reader, dst io.Writer, r *redact.Redactor) (Stats, error) {
	if r == nil {
		r = redact.Default()
	}
	reader := bufio.NewReaderSize(src, ioBufferSize)
	writer := bufio.NewWriterSize(dst, ioBufferSize)
	skipBOM(reader)

	stats := Stats{Redactions: redact.Counts{}}
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", stats.Lines+1, err)
		}

		clean, counts := r.RedactCounted(line)
		stats.Lines++
		stats.Redactions.Add(counts)

		if _, err := writer.WriteString(clean); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}

// readLine returns the next line without its terminator. "\n", "\r\n" and a
// lone "\r" all end a line; a final unterminated line is still returned.
func readLine(r *bufio.Reader) (string, error) {
	var long []byte
	for {
		if r.Buffered() == 0 {
			if _, err := r.Peek(1); err != nil {
				if errors.Is(err, io.EOF) && len(long) > 0 {
					return string(long), nil
				}
				return "", err
			}
		}
		buf, _ := r.Peek(r.Buffered())
		i := bytes.IndexAny(buf, "\r\n")
		if i < 0 {
			long = append(long, buf...)
			_, _ = r.Discard(len(buf))
			continue
		}

		var line string
		if long == nil {
			line = string(buf[:i])
		} else {
			line = string(append(long, buf[:i]...))
		}
		cr := buf[i] == '\r'
		_, _ = r.Discard(i + 1)
		if cr {
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				_, _ = r.Discard(1)
			}
		}
		return line, nil
	}
}

func skipBOM(r *bufio.Reader) {
	if b, err := r.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
}
