package share

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirSink writes images into a directory
type DirSink struct {
	Dir string
}

func (s DirSink) Save(ctx context.Context, image []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return fmt.Errorf("share: invalid file name %q", filename)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("share: create %s: %w", s.Dir, err)
	}

	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return fmt.Errorf("share: write %s: %w", path, err)
	}
	return nil
}
