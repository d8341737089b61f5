// Package effect carries out the filesystem changes of an import, or
// only prints them when running dry.
package effect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/open-edge-platform/os-image-streams/internal/utils/logger"
	"go.uber.org/zap"
)

// Executor performs the side effects of an import.
type Executor interface {
	MkdirAll(path string) error
	Move(from, to string) error
}

// Real changes the filesystem.
type Real struct {
	Log    *zap.SugaredLogger
	Report *logger.StringListReport
}

// NewReal returns an executor that applies changes and records them in
// report, which may be nil.
func NewReal(report *logger.StringListReport) *Real {
	return &Real{Log: logger.Logger(), Report: report}
}

// MkdirAll implements Executor.
func (r *Real) MkdirAll(path string) error {
	r.log().Debugf("mkdir %s", path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	r.Report.Add("mkdir %s", path)
	return nil
}

// Move implements Executor. A rename across filesystems falls back to
// copying and removing the source.
func (r *Real) Move(from, to string) error {
	r.log().Debugf("mv %s %s", from, to)
	if err := os.Rename(from, to); err != nil {
		if !isCrossDevice(err) {
			return fmt.Errorf("failed to move %s to %s: %w", from, to, err)
		}
		if err := copyFile(from, to); err != nil {
			return fmt.Errorf("failed to copy %s to %s: %w", from, to, err)
		}
		if err := os.Remove(from); err != nil {
			return fmt.Errorf("failed to remove %s after copy: %w", from, err)
		}
	}
	r.Report.Add("mv %s %s", from, to)
	return nil
}

func (r *Real) log() *zap.SugaredLogger {
	if r.Log == nil {
		return zap.NewNop().Sugar()
	}
	return r.Log
}

// DryRun prints the commands that Real would run.
type DryRun struct {
	Out    io.Writer
	Report *logger.StringListReport
}

// NewDryRun returns an executor that prints to out.
func NewDryRun(out io.Writer, report *logger.StringListReport) *DryRun {
	return &DryRun{Out: out, Report: report}
}

// MkdirAll implements Executor.
func (d *DryRun) MkdirAll(path string) error {
	if _, err := fmt.Fprintf(d.Out, "mkdir %s\n", path); err != nil {
		return err
	}
	d.Report.Add("mkdir %s (dry-run)", path)
	return nil
}

// Move implements Executor.
func (d *DryRun) Move(from, to string) error {
	if _, err := fmt.Fprintf(d.Out, "mv %s %s\n", from, to); err != nil {
		return err
	}
	d.Report.Add("mv %s %s (dry-run)", from, to)
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
