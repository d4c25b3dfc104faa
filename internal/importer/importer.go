// Package importer 从 Excel 或 CSV 文件批量导入词汇。
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 列顺序：单词, 释义, 例句, 主题, 等级
const (
	colWord = iota
	colTranslation
	colExample
	colTopic
	colLevel
	minColumns = colLevel + 1
)

type Config struct {
	FilePath string
	// SheetName 为空时使用第一个工作表
	SheetName  string
	SkipHeader bool
}

type Result struct {
	Processed int      `json:"processed"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type Importer struct {
	Words  *repository.WordRepository
	Topics *repository.TopicRepository
}

func New(words *repository.WordRepository, topics *repository.TopicRepository) *Importer {
	return &Importer{Words: words, Topics: topics}
}

// Import 按扩展名选择解析方式，逐行校验后批量写入
func (im *Importer) Import(ctx context.Context, cfg Config) (*Result, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(cfg.FilePath), ".csv") {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}
	if cfg.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	result := &Result{Errors: make([]string, 0)}
	levelCache := make(map[string]bool)
	words := make([]model.Word, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		line := i + 1
		if cfg.SkipHeader {
			line++
		}
		if isBlank(row) {
			continue
		}
		result.Processed++

		word, err := parseRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		cacheKey := fmt.Sprintf("%s:%d", word.TopicName, word.Level)
		exists, ok := levelCache[cacheKey]
		if !ok {
			exists, err = im.Topics.LevelExists(ctx, word.TopicName, word.Level)
			if err != nil {
				return nil, err
			}
			levelCache[cacheKey] = exists
		}
		if !exists {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown topic level %s", line, cacheKey))
			continue
		}

		key := cacheKey + ":" + word.Text
		if _, dup := seen[key]; dup {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}
		words = append(words, word)
	}

	if _, err := im.Words.UpsertBatch(ctx, words); err != nil {
		return nil, fmt.Errorf("save words: %w", err)
	}
	result.Imported = len(words)
	return result, nil
}

func parseRow(row []string) (model.Word, error) {
	if len(row) < minColumns {
		return model.Word{}, fmt.Errorf("expected %d columns, got %d", minColumns, len(row))
	}
	text := strings.ToLower(strings.TrimSpace(row[colWord]))
	if text == "" {
		return model.Word{}, errors.New("empty word")
	}
	topic := strings.ToLower(strings.TrimSpace(row[colTopic]))
	if topic == "" {
		return model.Word{}, errors.New("empty topic")
	}
	level, err := strconv.Atoi(strings.TrimSpace(row[colLevel]))
	if err != nil || level < 1 {
		return model.Word{}, fmt.Errorf("invalid level %q", row[colLevel])
	}
	return model.Word{
		Text:        text,
		Translation: strings.TrimSpace(row[colTranslation]),
		Example:     strings.TrimSpace(row[colExample]),
		TopicName:   topic,
		Level:       level,
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
