package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/mpsync/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// Failure — невалидная запись выгрузки.
type Failure struct {
	Record     int    // номер записи с единицы (строка JSONL или элемент массива)
	ExternalID string // если удалось прочитать
	Reason     string
}

// Report — итог проверки выгрузки.
type Report struct {
	Valid    int
	Invalid  int
	Failures []Failure
}

func (r Report) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.Valid, r.Invalid)
}

func (r *Report) fail(record int, externalID string, err error) {
	r.Invalid++
	r.Failures = append(r.Failures, Failure{Record: record, ExternalID: externalID, Reason: err.Error()})
}

// DetectFormat — формат по расширению файла (всё, кроме .jsonl, читается как JSON).
func DetectFormat(filePath string) InputFormat {
	if strings.EqualFold(filepath.Ext(filePath), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ValidateFile — проверяет выгрузку заказов (JSON или JSONL), нормализованные заказы пишет в ow по одному на строку.
// Для JSON ошибка возвращается, если в файле нет ни одного валидного заказа.
func ValidateFile(ctx context.Context, normalizer ports.OrderNormalizer, filePath string, format InputFormat, ow io.Writer) (Report, error) {
	if format == FormatAuto {
		format = DetectFormat(filePath)
	}
	if format != FormatJSON && format != FormatJSONL {
		return Report{}, fmt.Errorf("unsupported format: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return Report{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if format == FormatJSONL {
		return ValidateJSONLStream(ctx, normalizer, file, ow)
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return Report{}, fmt.Errorf("read file: %w", err)
	}
	report, err := ValidateExport(ctx, normalizer, raw, ow)
	if err != nil {
		return report, err
	}
	if report.Valid == 0 {
		reason := "empty export"
		if len(report.Failures) > 0 {
			reason = report.Failures[0].Reason
		}
		return report, fmt.Errorf("%w: no valid orders: %s", ErrInvalidOrder, reason)
	}
	return report, nil
}

// ValidateExport — JSON-выгрузка: один заказ, массив заказов или ответ pull-orders ({"data": [...]}).
func ValidateExport(ctx context.Context, normalizer ports.OrderNormalizer, raw []byte, ow io.Writer) (Report, error) {
	var report Report

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		report.fail(1, "", fmt.Errorf("%w: invalid json: %v", ErrInvalidOrder, err))
		return report, nil
	}

	for i, item := range exportItems(v) {
		record := i + 1
		m, ok := item.(map[string]any)
		if !ok {
			report.fail(record, "", fmt.Errorf("%w: order must be an object, got %T", ErrInvalidOrder, item))
			continue
		}
		order, err := normalizer.Normalize(ctx, m)
		if err != nil {
			report.fail(record, firstString(m, "external_order_id", "hashed_id"), err)
			continue
		}
		if err := writeLine(ow, order); err != nil {
			return report, err
		}
		report.Valid++
	}
	return report, nil
}

// exportItems — заказы выгрузки в порядке следования.
func exportItems(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if data, ok := t["data"].([]any); ok {
			return data
		}
		return []any{t}
	default:
		return []any{v}
	}
}

// writeLine — компактный JSON и перевод строки.
func writeLine(ow io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if _, err := ow.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write order: %w", err)
	}
	return nil
}
