package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/zmg-ops/zmg-management/internal/connectors/google"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	valueRenderFormatted  = "FORMATTED_VALUE"
	insertRows            = "INSERT_ROWS"
)

// Ensure Gateway implements the interface.
var _ driven.SpreadsheetGateway = (*Gateway)(nil)

// Gateway implements driven.SpreadsheetGateway on the Sheets v4 API.
type Gateway struct {
	svc     *sheets.Service
	limiter *google.RateLimiter
}

// NewGateway creates a gateway. A nil limiter uses the Sheets defaults.
func NewGateway(svc *sheets.Service, limiter *google.RateLimiter) *Gateway {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceSheets)
	}
	return &Gateway{svc: svc, limiter: limiter}
}

// Read returns the formatted values of a range as strings.
func (g *Gateway) Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption(valueRenderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, g.fail("read", rng, err)
	}

	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out, nil
}

// Update writes the given cells. A single cell uses Values.Update, several
// cells go out in one Values.BatchUpdate call.
func (g *Gateway) Update(ctx context.Context, spreadsheetID string, cells []domain.CellWrite) error {
	if len(cells) == 0 {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	if len(cells) == 1 {
		c := cells[0]
		_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, c.Range, &sheets.ValueRange{
			Range:  c.Range,
			Values: [][]any{{c.Value}},
		}).ValueInputOption(valueInputUserEntered).Context(ctx).Do()
		if err != nil {
			return g.fail("update", c.Range, err)
		}
		logger.Debug("sheets: updated %s", c.Range)
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(cells))
	for _, c := range cells {
		data = append(data, &sheets.ValueRange{
			Range:  c.Range,
			Values: [][]any{{c.Value}},
		})
	}
	_, err := g.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputUserEntered,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return g.fail("batch update", cells[0].Range, err)
	}
	logger.Debug("sheets: updated %d cells starting at %s", len(cells), cells[0].Range)
	return nil
}

// Append inserts a row at the given 1-based row. The range is anchored there
// rather than at the whole sheet, so blank rows between data blocks do not make
// the API insert mid-sheet. The written row is read back from UpdatedRange.
func (g *Gateway) Append(ctx context.Context, spreadsheetID, sheet string, row int, values []string) (int, error) {
	if row < 2 {
		row = 2
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	rng := domain.CellAddress(sheet, 0, row)
	resp, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]any{cells},
	}).ValueInputOption(valueInputUserEntered).InsertDataOption(insertRows).Context(ctx).Do()
	if err != nil {
		return 0, g.fail("append", rng, err)
	}

	written := row
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if n, err := domain.RangeStartRow(resp.Updates.UpdatedRange); err == nil {
			written = n
		} else {
			logger.Warn("sheets: unexpected updated range %q: %v", resp.Updates.UpdatedRange, err)
		}
	}
	logger.Debug("sheets: appended row %d to %s", written, domain.SheetRange(sheet))
	return written, nil
}

func (g *Gateway) fail(op, rng string, err error) error {
	g.limiter.Observe(err)
	return fmt.Errorf("sheets %s %s: %w", op, rng, google.WrapError(err))
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
