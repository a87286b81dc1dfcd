package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/mpsync/internal/ports"
)

// maxJSONLLine — предел длины строки JSONL.
const maxJSONLLine = 10 << 20

// ValidateJSONLStream — по заказу на строку; пустые строки пропускаются и не нумеруются.
// Невалидная строка попадает в отчёт и не прерывает чтение.
func ValidateJSONLStream(ctx context.Context, normalizer ports.OrderNormalizer, ir io.Reader, ow io.Writer) (Report, error) {
	var report Report

	scanner := bufio.NewScanner(ir)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	record := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		record++

		order, err := ValidateOrderFromJSON(ctx, normalizer, line)
		if err != nil {
			report.fail(record, "", err)
			continue
		}
		if err := writeLine(ow, order); err != nil {
			return report, err
		}
		report.Valid++
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("scan: %w", err)
	}
	return report, nil
}
