// Package watcher polls an intake directory for spreadsheet batch files,
// feeds every row through the ingestion pipeline, and archives consumed
// files.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"salesbridge/config"
	"salesbridge/internal/delivery"
	domainerrors "salesbridge/internal/domain/errors"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/repository"
	"salesbridge/internal/usecase"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

// Column headers expected in the first non-empty spreadsheet row. A file
// missing any of these is rejected wholesale; partially-mapped files would
// silently drop data otherwise.
var requiredColumns = []string{
	purchase.KeyCustomerName,
	purchase.KeyCustomerEmail,
	purchase.KeyCustomerPhone,
	purchase.KeyCustomerAddress,
	purchase.KeyCustomerTaxID,
	purchase.KeyProduct,
	purchase.KeyQuantity,
	purchase.KeyUnitPrice,
	purchase.KeyPaymentMethod,
}

// Optional columns, resolved when present.
const (
	columnTotalPrice = purchase.KeyTotalPrice
	columnOccurredAt = purchase.KeyOccurredAt
)

// Watcher is the polling intake loop. Start and Stop are idempotent; the
// loop runs one scan at a time, so a slow batch simply delays the next scan
// instead of piling up concurrent ones.
type Watcher struct {
	cfg       *config.WatcherConfig
	logger    *slog.Logger
	ingestSvc usecase.IngestUsecase

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Params holds dependencies for the Watcher
type Params struct {
	fx.In
	fx.Lifecycle

	Config    *config.Config
	Logger    *slog.Logger
	IngestSvc usecase.IngestUsecase
}

// New creates the intake watcher and registers its shutdown hook.
func New(params Params) (delivery.Delivery, error) {
	if params.Config.Watcher == nil {
		return nil, errors.New("watcher configuration is required")
	}

	w := newWatcher(params.Config.Watcher, params.Logger, params.IngestSvc)

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			w.Stop()

			return nil
		},
	})

	return w, nil
}

func newWatcher(cfg *config.WatcherConfig, logger *slog.Logger, ingestSvc usecase.IngestUsecase) *Watcher {
	return &Watcher{
		cfg:       cfg,
		logger:    logger,
		ingestSvc: ingestSvc,
	}
}

// Serve starts the watcher and blocks until it stops.
func (w *Watcher) Serve(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}

	<-w.done

	return nil
}

// Start launches the polling loop. Calling Start on a running watcher is a
// no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}

	if err := os.MkdirAll(w.cfg.IntakeDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create intake directory")
	}
	if err := os.MkdirAll(w.cfg.ArchiveDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create archive directory")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Info("Starting intake watcher",
		slog.String("intake_dir", w.cfg.IntakeDir),
		slog.Duration("scan_interval", w.cfg.ScanInterval),
	)

	go w.run(runCtx)

	return nil
}

// Stop halts the polling loop and waits for the in-flight scan to finish.
// Calling Stop on a stopped watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}

	w.cancel()
	<-w.done
	w.cancel = nil

	w.logger.Info("Intake watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.ScanInterval)
	defer ticker.Stop()

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan processes every spreadsheet currently in the intake directory, oldest
// name first.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.IntakeDir)
	if err != nil {
		w.logger.Error("Failed to read intake directory", slog.Any("error", err))

		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Skip spreadsheet lock files.
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		if err := w.processFile(ctx, name); err != nil {
			// Leave the file in place; only fully consumed files move to the
			// archive. Rows already ingested before a failure are absorbed
			// downstream by the idempotency key on a re-scan.
			w.logger.Error("Failed to process batch file",
				slog.String("file", name),
				slog.Any("error", err),
			)

			continue
		}

		if err := w.archive(name); err != nil {
			w.logger.Error("Failed to archive batch file",
				slog.String("file", name),
				slog.Any("error", err),
			)
		}
	}
}

// processFile ingests every row of one spreadsheet. Invalid rows are logged
// and skipped; infrastructure failures abort the file so it is retried.
func (w *Watcher) processFile(ctx context.Context, name string) error {
	path := filepath.Join(w.cfg.IntakeDir, name)

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat batch file")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to open spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return errors.New("batch file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return errors.Wrap(err, "failed to read sheet rows")
	}

	// Wholesale rejection: a half-mapped file would drop fields silently.
	columns, headerIdx, err := mapColumns(rows)
	if err != nil {
		return errors.Wrap(err, "batch file rejected")
	}

	ingested, skipped := 0, 0
	for rowIdx := headerIdx + 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isBlankRow(row) {
			continue
		}

		raw := w.rowToRawMapping(row, columns, info.ModTime())

		_, err := w.ingestSvc.IngestRaw(ctx, raw, repository.StagingSourceFile, name)
		if err != nil {
			if domainerrors.IsValidation(err) {
				skipped++
				w.logger.Warn("Skipping invalid row",
					slog.String("file", name),
					slog.Int("row", rowIdx+1),
					slog.Any("error", err),
				)

				continue
			}

			return errors.Wrapf(err, "row %d", rowIdx+1)
		}
		ingested++
	}

	w.logger.Info("Batch file processed",
		slog.String("file", name),
		slog.Int("ingested", ingested),
		slog.Int("skipped", skipped),
	)

	return nil
}

// mapColumns locates the header row and resolves each known column header to
// its index. All required columns must be present.
func mapColumns(rows [][]string) (map[string]int, int, error) {
	for rowIdx, row := range rows {
		if isBlankRow(row) {
			continue
		}

		columns := make(map[string]int, len(row))
		for colIdx, header := range row {
			normalized := strings.ToLower(strings.TrimSpace(header))
			if normalized != "" {
				columns[normalized] = colIdx
			}
		}

		var missing []string
		for _, required := range requiredColumns {
			if _, ok := columns[required]; !ok {
				missing = append(missing, required)
			}
		}
		if len(missing) > 0 {
			return nil, 0, errors.Errorf("missing required columns: %s", strings.Join(missing, ", "))
		}

		return columns, rowIdx, nil
	}

	return nil, 0, errors.New("no header row found")
}

// rowToRawMapping converts one spreadsheet row into the raw mapping consumed
// by the normalizer. A missing total is derived from quantity and unit
// price; rows without a data_hora column inherit the file's modification
// time, which keeps the fingerprint stable across re-scans.
func (w *Watcher) rowToRawMapping(row []string, columns map[string]int, fileTime time.Time) map[string]any {
	cell := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[idx])
	}

	quantity := cell(purchase.KeyQuantity)
	unitPrice := cell(purchase.KeyUnitPrice)

	total := cell(columnTotalPrice)
	if total == "" {
		total = deriveTotal(quantity, unitPrice)
	}

	var occurredAt any = cell(columnOccurredAt)
	if occurredAt == "" {
		occurredAt = fileTime
	}

	return map[string]any{
		purchase.KeyCustomer: map[string]any{
			purchase.KeyCustomerName:    cell(purchase.KeyCustomerName),
			purchase.KeyCustomerEmail:   cell(purchase.KeyCustomerEmail),
			purchase.KeyCustomerPhone:   cell(purchase.KeyCustomerPhone),
			purchase.KeyCustomerTaxID:   cell(purchase.KeyCustomerTaxID),
			purchase.KeyCustomerAddress: cell(purchase.KeyCustomerAddress),
		},
		purchase.KeyProduct: map[string]any{
			purchase.KeyProductName: cell(purchase.KeyProduct),
		},
		purchase.KeyQuantity:      quantity,
		purchase.KeyUnitPrice:     unitPrice,
		purchase.KeyTotalPrice:    total,
		purchase.KeyOccurredAt:    occurredAt,
		purchase.KeyPaymentMethod: cell(purchase.KeyPaymentMethod),
	}
}

// deriveTotal computes quantity times unit price. Unparseable inputs return
// an empty total and let the normalizer report the broken field.
func deriveTotal(quantity, unitPrice string) string {
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return ""
	}
	unit, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return ""
	}

	return unit.Mul(qty).StringFixed(2)
}

// archive moves a consumed file into the archive directory under a
// timestamped name, then prunes the archive down to the retention cap.
func (w *Watcher) archive(name string) error {
	src := filepath.Join(w.cfg.IntakeDir, name)
	dst := filepath.Join(w.cfg.ArchiveDir, fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102T150405"), name))

	if err := os.Rename(src, dst); err != nil {
		return errors.Wrap(err, "failed to move file to archive")
	}

	w.logger.Info("Batch file archived",
		slog.String("file", name),
		slog.String("archived_as", filepath.Base(dst)),
	)

	return w.pruneArchive()
}

// pruneArchive deletes the oldest archived files beyond the retention cap.
func (w *Watcher) pruneArchive() error {
	if w.cfg.ArchiveLimit <= 0 {
		return nil
	}

	entries, err := os.ReadDir(w.cfg.ArchiveDir)
	if err != nil {
		return errors.Wrap(err, "failed to read archive directory")
	}

	type archived struct {
		name    string
		modTime time.Time
	}

	files := make([]archived, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, archived{name: entry.Name(), modTime: info.ModTime()})
	}

	if len(files) <= w.cfg.ArchiveLimit {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, old := range files[:len(files)-w.cfg.ArchiveLimit] {
		if err := os.Remove(filepath.Join(w.cfg.ArchiveDir, old.name)); err != nil {
			w.logger.Warn("Failed to prune archived file",
				slog.String("file", old.name),
				slog.Any("error", err),
			)

			continue
		}
		w.logger.Info("Pruned archived file", slog.String("file", old.name))
	}

	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
