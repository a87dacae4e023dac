// Package pipeline turns one raw export into canonical ledger records. It
// performs no I/O: the caller reads the file and appends the result.
package pipeline

import (
	"fmt"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/derive"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/internal/normalize"
	"github.com/smallbiznis/amber/internal/sheet"
)

type Input struct {
	Filename string
	Raw      sheet.Raw

	// Optional hints. An empty Class lets the classifier decide the file
	// kind; an empty Status falls back to filename markers.
	Status bookingdomain.Status
	Class  bookingdomain.RecordClass
	Format string

	SnapshotDate time.Time
	Now          time.Time
	BatchID      string
}

type Output struct {
	Kind      normalize.FileKind
	Class     bookingdomain.RecordClass
	Status    bookingdomain.Status
	HeaderRow int
	Records   []bookingdomain.Record
	Drops     normalize.Drops
}

// NormalizeAndDerive runs header location, schema mapping, cleaning and
// derivation over in. The whole batch is built in memory; an error means no
// record may be appended. Output is populated as far as the run got, so
// callers can report drop counts for rejected files too.
func NormalizeAndDerive(in Input, rules normalize.Ruleset, classify normalize.Classifier) (Output, error) {
	if classify == nil {
		classify = normalize.DefaultClassifier(rules)
	}

	var out Output
	if in.Class != "" {
		out.Kind = normalize.KindOf(in.Class)
	} else {
		out.Kind = classify(in.Filename, in.Raw)
	}
	out.Class = normalize.ResolveClass(out.Kind, in.Class)
	out.Status = normalize.ResolveStatus(out.Kind, in.Status, in.Filename, rules)

	header := normalize.LocateHeader(in.Raw, rules)
	out.HeaderRow = header.Row

	var rows []normalize.Row
	switch out.Kind {
	case normalize.FileKindOtbSummary:
		block, ok := rules.Block(in.Format)
		if !ok {
			return out, fmt.Errorf("%w: unknown summary format %q", ingestdomain.ErrInvalidUpload, in.Format)
		}
		table := header.Table
		if !header.Found {
			table = sheet.Table{Rows: in.Raw}
		}
		rows, out.Drops = normalize.ExtractSummary(table, out.Class, block, rules)
	default:
		mapped, err := normalize.MapSchema(header.Table, rules)
		if err != nil {
			return out, fmt.Errorf("map schema of %s: %w", in.Filename, err)
		}
		rows, out.Drops = normalize.CleanDetail(mapped, rules)
	}

	if len(rows) == 0 {
		return out, &ingestdomain.NoUsableRowsError{Dropped: out.Drops.Counts()}
	}

	meta := derive.Meta{
		Status:       out.Status,
		SnapshotDate: in.SnapshotDate,
		Now:          in.Now,
		SourceFile:   in.Filename,
		BatchID:      in.BatchID,
	}
	out.Records = make([]bookingdomain.Record, 0, len(rows))
	for _, row := range rows {
		out.Records = append(out.Records, derive.Record(row, meta, rules))
	}
	return out, nil
}
