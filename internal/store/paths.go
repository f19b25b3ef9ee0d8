package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"quantlab/internal/market"
	"quantlab/internal/montecarlo"
)

// PathRecord 为路径集合的 Parquet 行格式，每行对应一条路径上的一个时间步。
type PathRecord struct {
	Path  int32   `parquet:"path"`
	Step  int32   `parquet:"step"`
	Price float64 `parquet:"price"`
}

// WritePaths 将路径集合写为 Parquet 文件，按 (path, step) 顺序排列。
func WritePaths(path string, ens montecarlo.PathEnsemble) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	records := make([]PathRecord, 0, ens.Rows()*ens.Steps())
	for i, row := range ens.Paths {
		for j, price := range row {
			records = append(records, PathRecord{Path: int32(i), Step: int32(j), Price: price})
		}
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("store: 写入路径文件 %q 失败: %w", path, err)
	}
	return nil
}

// ReadPaths 读取 WritePaths 写出的文件并还原为二维表。种子不随文件保存。
func ReadPaths(path string) (montecarlo.PathEnsemble, error) {
	if _, err := os.Stat(path); err != nil {
		return montecarlo.PathEnsemble{}, fmt.Errorf("store: 路径文件不可用: %w", err)
	}
	records, err := parquet.ReadFile[PathRecord](path)
	if err != nil {
		return montecarlo.PathEnsemble{}, fmt.Errorf("store: 读取路径文件 %q 失败: %w", path, err)
	}

	var paths [][]float64
	for _, rec := range records {
		if rec.Path < 0 || rec.Step < 0 {
			return montecarlo.PathEnsemble{}, fmt.Errorf("store: 路径文件 %q 含非法下标 (%d,%d): %w", path, rec.Path, rec.Step, market.ErrInvalidInput)
		}
		for int(rec.Path) >= len(paths) {
			paths = append(paths, nil)
		}
		row := paths[rec.Path]
		for int(rec.Step) >= len(row) {
			row = append(row, 0)
		}
		row[rec.Step] = rec.Price
		paths[rec.Path] = row
	}
	return montecarlo.PathEnsemble{Paths: paths}, nil
}
