// Package ingest converts normalized market-data feeds into replay inputs:
// a strict CSV loader for `ts_ns,type,side,price,qty` rows
// and an aggregate level mirror used by the TAQ reconstruction tool.
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"vidar/domain/book"
)

// EventType distinguishes book (level set) rows from trade prints.
type EventType uint8

const (
	EventBook EventType = iota
	EventTrade
)

// Event is one normalized feed row. Prices and quantities stay in feed units;
// tick conversion is the consumer's concern. HasSide is false for trade rows
// with an empty side column.
type Event struct {
	TsNs    int64
	Type    EventType
	Side    book.Side
	HasSide bool
	Price   float64
	Qty     float64
}

// ParseType accepts "book" and "trade", case-insensitive.
func ParseType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book":
		return EventBook, nil
	case "trade":
		return EventTrade, nil
	}
	return 0, fmt.Errorf("ingest: bad type %q", s)
}

// ParseSide accepts the common side spellings. An empty side is tolerated
// (trade rows from some feeds omit the aggressor) and defaults to ask.
func ParseSide(s string) (book.Side, bool, error) {
	x := strings.ToLower(strings.TrimSpace(s))
	switch x {
	case "":
		return book.Ask, false, nil
	case "b", "bid", "buy":
		return book.Bid, true, nil
	case "a", "s", "ask", "sell":
		return book.Ask, true, nil
	}
	return 0, false, fmt.Errorf("ingest: bad side %q", s)
}

var requiredColumns = []string{"ts_ns", "type", "side", "price", "qty"}

// LoadCSV reads a normalized feed file. The header must carry the expected
// columns. Rows with fewer than five fields or an empty ts_ns are skipped
// silently; other malformed data rows are logged and skipped, matching the
// tolerant-reader posture of feed handlers.
func LoadCSV(path string, log *zap.Logger) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<16), 1<<20)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ingest: empty CSV %s", path)
	}
	header := sc.Text()
	for _, col := range requiredColumns {
		if !strings.Contains(header, col) {
			return nil, fmt.Errorf("ingest: %s: header %q missing column %q", path, header, col)
		}
	}

	var out []Event
	line := 1
	for sc.Scan() {
		line++
		fields := strings.Split(sc.Text(), ",")
		if len(fields) < 5 || strings.TrimSpace(fields[0]) == "" {
			continue
		}

		var ev Event
		ev.TsNs, err = strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			log.Warn("skipping row: bad ts_ns", zap.Int("line", line), zap.Error(err))
			continue
		}
		ev.Type, err = ParseType(fields[1])
		if err != nil {
			log.Warn("skipping row", zap.Int("line", line), zap.Error(err))
			continue
		}
		ev.Side, ev.HasSide, err = ParseSide(fields[2])
		if err != nil {
			log.Warn("skipping row", zap.Int("line", line), zap.Error(err))
			continue
		}
		ev.Price, err = strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			log.Warn("skipping row: bad price", zap.Int("line", line), zap.Error(err))
			continue
		}
		ev.Qty, err = strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err != nil {
			log.Warn("skipping row: bad qty", zap.Int("line", line), zap.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, sc.Err()
}
