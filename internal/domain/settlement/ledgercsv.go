package settlement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Ledger is a named list of entries read from an external export.
type Ledger struct {
	Description string
	Entries     []Entry
}

var errMissingColumn = errors.New("missing column")

// ReadLedgerCSV reads either a plain "name,cash_in,cash_out" sheet or a PokerNow
// ledger export, picking the format from the header row.
func ReadLedgerCSV(r io.Reader) (*Ledger, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv: empty input")
	}
	cols := headerIndex(rows[0])
	if _, ok := cols["player_nickname"]; ok {
		return pokerNowLedger(cols, rows[1:])
	}
	return plainLedger(cols, rows[1:])
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func plainLedger(cols map[string]int, rows [][]string) (*Ledger, error) {
	nameIdx, inIdx, outIdx, err := columns(cols, "name", "cash_in", "cash_out")
	if err != nil {
		return nil, err
	}
	l := &Ledger{}
	for n, row := range rows {
		in, err := parseAmount(row, inIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out, err := parseAmount(row, outIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		l.Entries = append(l.Entries, Entry{Name: strings.TrimSpace(cell(row, nameIdx)), CashIn: in, CashOut: out})
	}
	return l, nil
}

// pokerNowLedger sums every row per nickname: in is the buy-ins, out is the
// buy-outs plus the stack still on the table.
func pokerNowLedger(cols map[string]int, rows [][]string) (*Ledger, error) {
	nickIdx, inIdx, outIdx, err := columns(cols, "player_nickname", "buy_in", "buy_out")
	if err != nil {
		return nil, err
	}
	stackIdx, hasStack := cols["stack"]
	startIdx, hasStart := cols["session_start_at"]

	start := time.Now()
	totals := make(map[string]*Entry)
	var order []string
	for n, row := range rows {
		nick := strings.TrimSpace(cell(row, nickIdx))
		in, err := parseAmount(row, inIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out, err := parseAmount(row, outIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		if hasStack {
			stack, err := parseAmount(row, stackIdx)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
			out += stack
		}
		if hasStart {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(cell(row, startIdx))); err == nil && t.Before(start) {
				start = t
			}
		}
		e, ok := totals[nick]
		if !ok {
			e = &Entry{Name: nick}
			totals[nick] = e
			order = append(order, nick)
		}
		e.CashIn += in
		e.CashOut += out
	}

	l := &Ledger{Description: SessionLabel(start) + " Game"}
	for _, nick := range order {
		l.Entries = append(l.Entries, *totals[nick])
	}
	return l, nil
}

// SessionLabel renders a time as "Sunday (4/19) Evening".
func SessionLabel(t time.Time) string {
	return fmt.Sprintf("%s (%d/%d) %s", t.Weekday(), int(t.Month()), t.Day(), partOfDay(t.Hour()))
}

func partOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

func columns(cols map[string]int, names ...string) (int, int, int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		v, ok := cols[name]
		if !ok {
			return 0, 0, 0, fmt.Errorf("%w: %s", errMissingColumn, name)
		}
		idx[i] = v
	}
	return idx[0], idx[1], idx[2], nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseAmount(row []string, idx int) (float64, error) {
	raw := strings.TrimSpace(cell(row, idx))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
