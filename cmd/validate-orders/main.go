package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Gunvolt24/mpsync/pkg/logger"
	"github.com/Gunvolt24/mpsync/pkg/validate"
)

// CLI для проверки выгрузок заказов маркетплейса (webhook-и, ответы pull-orders):
// нормализованные заказы печатаются в stdout, ошибки по записям — в stderr.
func main() {
	inputPath := flag.String("in", "", "path to input (.json or .jsonl). If empty, reads JSONL from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log, syncLog, err := logger.NewZapLogger(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = syncLog() }()
	normalizer := validate.NewOrderNormalizer(validate.NewOrderValidator(), log)

	var (
		report validate.Report
		runErr error
	)
	if *inputPath == "" {
		report, runErr = validate.ValidateJSONLStream(ctx, normalizer, os.Stdin, os.Stdout)
	} else {
		report, runErr = validate.ValidateFile(ctx, normalizer, *inputPath, validate.InputFormat(*formatStr), os.Stdout)
	}

	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "ERR record=%d order=%q: %s\n", f.Record, f.ExternalID, f.Reason)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "validation: %v (%s)\n", runErr, report)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "OK (%s)\n", report)
	if report.Invalid > 0 {
		os.Exit(2)
	}
}
