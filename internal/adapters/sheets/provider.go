// Package sheets pulls the roster from a Google Sheets form-responses tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const (
	DefaultRange        = "A:Z"
	DefaultHandleColumn = "What's your Discord Username?"
	DefaultNameColumn   = "How do you want to be addressed on discord?"
)

type Options struct {
	SpreadsheetID string
	Range         string
	// HandleColumn and NameColumn are header labels, matched ignoring case
	// and surrounding spaces.
	HandleColumn string
	NameColumn   string
}

type Provider struct {
	values *sheets.SpreadsheetsValuesService
	opts   Options
}

// New builds a provider. clientOpts carry credentials, e.g.
// option.WithCredentialsJSON.
func New(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Provider, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if opts.Range == "" {
		opts.Range = DefaultRange
	}
	if opts.HandleColumn == "" {
		opts.HandleColumn = DefaultHandleColumn
	}
	if opts.NameColumn == "" {
		opts.NameColumn = DefaultNameColumn
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Provider{values: sheets.NewSpreadsheetsValuesService(svc), opts: opts}, nil
}

// FetchAll reads every response row. The first row is the header.
func (p *Provider) FetchAll(ctx context.Context) ([]domain.RosterEntry, error) {
	resp, err := p.values.Get(p.opts.SpreadsheetID, p.opts.Range).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	entries, err := parseRows(resp.Values, p.opts.HandleColumn, p.opts.NameColumn)
	if err != nil {
		return nil, core.Fatal(err)
	}
	log.Debug().Str("module", "adapters.sheets").Int("entries", len(entries)).Msg("roster fetched")
	return entries, nil
}

func parseRows(rows [][]any, handleColumn, nameColumn string) ([]domain.RosterEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	handleIdx, nameIdx := -1, -1
	for i, cell := range rows[0] {
		label := strings.TrimSpace(fmt.Sprint(cell))
		switch {
		case strings.EqualFold(label, strings.TrimSpace(handleColumn)):
			handleIdx = i
		case strings.EqualFold(label, strings.TrimSpace(nameColumn)):
			nameIdx = i
		}
	}
	if handleIdx < 0 {
		return nil, fmt.Errorf("%w: header %q not found", core.ErrMalformed, handleColumn)
	}

	entries := make([]domain.RosterEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, domain.RosterEntry{
			Handle:      cellAt(row, handleIdx),
			DisplayName: cellAt(row, nameIdx),
		})
	}
	return entries, nil
}

// cellAt tolerates short rows; the API omits trailing empty cells.
func cellAt(row []any, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func classify(err error) error {
	wrapped := fmt.Errorf("read sheet: %w", err)

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return core.Transient(wrapped)
		}
		return core.Fatal(wrapped)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return core.Transient(wrapped)
	}
	return wrapped
}
