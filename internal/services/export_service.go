package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"khaja/internal/quoting"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

type ExportServiceInterface interface {
	// LedgerWorkbook renders the subscription ledger entries dated in [from, to) as xlsx.
	LedgerWorkbook(ctx context.Context, from, to time.Time) (*bytes.Buffer, error)
}

type ExportService struct {
	subRepo repositories.SubscriptionRepository
	log     *zap.Logger
}

func NewExportService(subRepo repositories.SubscriptionRepository, log *zap.Logger) ExportServiceInterface {
	return &ExportService{subRepo: subRepo, log: log.Named("export")}
}

func (s *ExportService) LedgerWorkbook(ctx context.Context, from, to time.Time) (*bytes.Buffer, error) {
	if !from.Before(to) {
		return nil, invalid("from must be before to")
	}

	rows, err := s.subRepo.LedgerBetween(ctx, from, to)
	if err != nil {
		return nil, dbErr(err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"date",
		"transaction_id",
		"subscription_id",
		"client_email",
		"plan_id",
		"type",
		"description",
		"amount",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("ledger export header: %w", err)
	}

	row := 2
	var total float64
	for _, r := range rows {
		excelRow := []interface{}{
			utils.FormatDisplayFR(r.Date),
			r.ID.String(),
			r.SubscriptionID.String(),
			r.ClientEmail,
			r.PlanID,
			r.Type,
			r.Description,
			r.Amount,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("ledger export cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("ledger export row %d: %w", row, err)
		}
		total += r.Amount
		row++
	}

	totalCell, err := excelize.CoordinatesToCellName(7, row)
	if err != nil {
		return nil, fmt.Errorf("ledger export cell: %w", err)
	}
	footer := []interface{}{"total", quoting.RoundCents(total)}
	if err := f.SetSheetRow(sheet, totalCell, &footer); err != nil {
		return nil, fmt.Errorf("ledger export total: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("ledger export write: %w", err)
	}

	s.log.Info("ledger exported", zap.Int("rows", len(rows)), zap.Time("from", from), zap.Time("to", to))
	return buf, nil
}
