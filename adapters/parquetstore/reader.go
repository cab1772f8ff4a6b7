package parquetstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ReadRows reads every row of a parquet file into T. The caller decides
// whether a missing file is an error; use Exists for the tolerant path.
func ReadRows[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

// WriteRows writes rows to a parquet file, creating parent directories as
// needed.
func WriteRows[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet %s: %w", path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		w.Close()
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return w.Close()
}

// Exists reports whether a path exists and is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
