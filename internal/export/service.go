// Package export writes the producer directory to an Excel workbook on a
// schedule, and mirrors it to Google Sheets when configured.
package export

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/models"
	"terroir/internal/schedule"
)

// SheetsPusher mirrors exported rows to a spreadsheet. Optional.
type SheetsPusher interface {
	ReplaceRows(ctx context.Context, sheetTitle string, rows [][]interface{}) error
}

// Service rebuilds the directory export when producer data changes and on
// a fixed interval.
type Service struct {
	db       *database.DB
	path     string
	interval time.Duration
	sheets   SheetsPusher
	logger   *zerolog.Logger

	mu    sync.Mutex
	dirty bool
}

func NewService(db *database.DB, path string, intervalHours int, sheets SheetsPusher, logger *zerolog.Logger) *Service {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	return &Service{
		db:       db,
		path:     path,
		interval: time.Duration(intervalHours) * time.Hour,
		sheets:   sheets,
		logger:   logger,
	}
}

// WatchBus marks the export dirty whenever producer data changes.
func (s *Service) WatchBus(bus *events.Bus) {
	bus.SubscribeAll(func(events.Event) {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	})
}

// Start runs the export loop. Changes are flushed at most once per minute;
// a full export always runs on the configured interval.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Str("path", s.path).Dur("interval", s.interval).Msg("Export service started")

	if err := s.ExportNow(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Initial export failed")
	}

	full := time.NewTicker(s.interval)
	flush := time.NewTicker(time.Minute)
	defer full.Stop()
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-full.C:
			if err := s.ExportNow(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled export failed")
			}
		case <-flush.C:
			s.mu.Lock()
			dirty := s.dirty
			s.dirty = false
			s.mu.Unlock()
			if !dirty {
				continue
			}
			if err := s.ExportNow(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Change-driven export failed")
			}
		}
	}
}

// ExportNow rebuilds the workbook immediately.
func (s *Service) ExportNow(ctx context.Context) error {
	producers, err := s.db.ListProducers(ctx, database.ProducerFilter{})
	if err != nil {
		return fmt.Errorf("list producers: %w", err)
	}

	wb := newWorkbook()
	defer wb.close()

	if err := s.writeProducersSheet(ctx, wb, producers); err != nil {
		return err
	}
	if err := s.writeSaleModesSheet(ctx, wb, producers); err != nil {
		return err
	}
	if err := s.writeProductsSheet(ctx, wb, producers); err != nil {
		return err
	}

	if err := wb.saveToFile(s.path); err != nil {
		return fmt.Errorf("save export: %w", err)
	}

	if s.sheets != nil {
		if err := s.pushToSheets(ctx, producers); err != nil {
			s.logger.Error().Err(err).Msg("Sheets mirror failed")
		}
	}

	s.logger.Info().Int("producers", len(producers)).Msg("Directory export written")
	return nil
}

var producerColumns = []string{
	"ID", "Name", "Category", "Address", "Latitude", "Longitude",
	"Phone", "Email", "Website", "Created",
}

func producerRow(p *models.Producer) []interface{} {
	return []interface{}{
		p.ID, p.Name, p.Category, p.Address, p.Latitude, p.Longitude,
		p.Phone, p.EmailContact, p.Website, p.CreatedAt.Format("2006-01-02"),
	}
}

func (s *Service) writeProducersSheet(ctx context.Context, wb *workbook, producers []models.Producer) error {
	if err := wb.addSheet("Producers"); err != nil {
		return err
	}
	if err := wb.writeHeader(producerColumns); err != nil {
		return err
	}
	for i := range producers {
		if err := wb.writeRow(producerRow(&producers[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeSaleModesSheet(ctx context.Context, wb *workbook, producers []models.Producer) error {
	if err := wb.addSheet("Sale Modes"); err != nil {
		return err
	}
	if err := wb.writeHeader([]string{"Producer", "Type", "Title", "Phone", "Hours"}); err != nil {
		return err
	}
	for i := range producers {
		modes, err := s.db.ListSaleModes(ctx, producers[i].ID)
		if err != nil {
			return fmt.Errorf("list sale modes: %w", err)
		}
		for j := range modes {
			row := []interface{}{
				producers[i].Name, modes[j].ModeType, modes[j].Title,
				modes[j].PhoneNumber, HoursSummary(&modes[j]),
			}
			if err := wb.writeRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) writeProductsSheet(ctx context.Context, wb *workbook, producers []models.Producer) error {
	if err := wb.addSheet("Products"); err != nil {
		return err
	}
	if err := wb.writeHeader([]string{"Producer", "Product", "Availability"}); err != nil {
		return err
	}
	for i := range producers {
		products, err := s.db.ListProducts(ctx, database.ProductFilter{ProducerID: producers[i].ID})
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			availability := "all year"
			if p.AvailabilityType == models.AvailabilityCustom && p.StartMonth != nil && p.EndMonth != nil {
				availability = fmt.Sprintf("%s to %s",
					time.Month(*p.StartMonth), time.Month(*p.EndMonth))
			}
			if err := wb.writeRow([]interface{}{producers[i].Name, p.Name, availability}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) pushToSheets(ctx context.Context, producers []models.Producer) error {
	rows := make([][]interface{}, 0, len(producers)+1)
	header := make([]interface{}, len(producerColumns))
	for i, c := range producerColumns {
		header[i] = c
	}
	rows = append(rows, header)
	for i := range producers {
		rows = append(rows, producerRow(&producers[i]))
	}
	return s.sheets.ReplaceRows(ctx, "Producers", rows)
}

// HoursSummary renders a sale mode's weekly hours as one line, for
// exports and logs.
func HoursSummary(m *models.SaleMode) string {
	week, _, err := schedule.Normalize(m.OpeningHours, m.Is24x7)
	if err != nil {
		return ""
	}
	if week.Is24x7 {
		return "24/7"
	}

	var parts []string
	for d := schedule.Monday; d <= schedule.Sunday; d++ {
		iv := week.Days[d]
		if iv.Closed {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s-%s", d, iv.OpensAt, iv.ClosesAt))
	}
	if len(parts) == 0 {
		return "closed"
	}
	return strings.Join(parts, "; ")
}
