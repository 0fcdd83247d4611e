package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested by the service account.
const (
	SheetsScope = sheets.SpreadsheetsScope
	DriveScope  = drive.DriveScope
)

// CredentialsOption loads a service-account key file and returns a client option
// that authenticates requests with the given scopes.
func CredentialsOption(ctx context.Context, credentialsFile string, scopes ...string) (option.ClientOption, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	return option.WithTokenSource(creds.TokenSource), nil
}

// NewSheetsService creates a Google Sheets API service.
func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	return sheets.NewService(ctx, opts...)
}

// NewDriveService creates a Google Drive API service.
func NewDriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, opts...)
}
