// Package sheets mirrors the directory export to a Google spreadsheet
// using a service account.
package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// Service writes rows into one spreadsheet.
type Service struct {
	api           *sheetsapi.Service
	spreadsheetID string
}

// NewService authenticates with a service-account JSON key file.
func NewService(ctx context.Context, credentialsFile, spreadsheetID string) (*Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	api, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &Service{api: api, spreadsheetID: spreadsheetID}, nil
}

// ReplaceRows clears the named sheet and writes the rows from A1.
func (s *Service) ReplaceRows(ctx context.Context, sheetTitle string, rows [][]interface{}) error {
	clearRange := fmt.Sprintf("%s!A:Z", sheetTitle)
	_, err := s.api.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetTitle, err)
	}

	if len(rows) == 0 {
		return nil
	}

	vr := &sheetsapi.ValueRange{Values: rows}
	_, err = s.api.Spreadsheets.Values.
		Update(s.spreadsheetID, fmt.Sprintf("%s!A1", sheetTitle), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetTitle, err)
	}
	return nil
}
