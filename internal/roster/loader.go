// Package roster loads registry exports (CSV or XLSX, local or remote) into
// typed person records.
package roster

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/cache"
	"github.com/sells-group/roster-cli/internal/model"
)

// Format is a roster file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format of src from its extension.
func FormatOf(src string) (Format, error) {
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("roster: unsupported file type %q", src)
	}
}

// Options configures parsing.
type Options struct {
	Sheet     string
	Delimiter rune
	Columns   ColumnMap
}

func (o Options) columns() ColumnMap {
	if o.Columns == nil {
		return DefaultColumns()
	}
	return o.Columns
}

func (o Options) fingerprint() []byte {
	return []byte(fmt.Sprintf("%s|%q|%v", o.Sheet, o.Delimiter, o.Columns))
}

// Table parses data and returns its rows, header first. Blank rows are
// dropped.
func Table(ctx context.Context, data []byte, format Format, opts Options) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV, FormatTSV:
		delim := opts.Delimiter
		if format == FormatTSV && delim == 0 {
			delim = '\t'
		}
		rows, err = readCSV(ctx, data, CSVOptions{Delimiter: delim, LazyQuotes: true})
	case FormatXLSX:
		rows, err = ReadXLSX(data, XLSXOptions{SheetName: opts.Sheet})
	default:
		return nil, eris.Errorf("roster: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, row := range rows {
		if !blankRow(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parse(ctx context.Context, data []byte, format Format, opts Options) (layout, [][]string, error) {
	rows, err := Table(ctx, data, format, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	l := opts.columns().resolve(rows[0])
	if _, ok := l[FieldName]; !ok {
		return nil, nil, eris.Errorf("roster: no name column in header %v", rows[0])
	}
	return l, rows[1:], nil
}

// ParseA parses a registry-A export.
func ParseA(ctx context.Context, data []byte, format Format, opts Options) ([]model.RecordA, error) {
	l, rows, err := parse(ctx, data, format, opts)
	if err != nil {
		return nil, err
	}
	out := make([]model.RecordA, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.RecordA{
			ID:          l.get(row, FieldID),
			Name:        l.get(row, FieldName),
			BirthDate:   l.get(row, FieldBirthDate),
			Institution: l.get(row, FieldInstitution),
			JobType:     l.get(row, FieldJobType),
			HireDate:    l.get(row, FieldHireDate),
			ResignDate:  l.get(row, FieldResignDate),
			IsActive:    ParseBool(l.get(row, FieldIsActive)),
			Phone:       l.get(row, FieldPhone),
		})
	}
	return out, nil
}

// ParseB parses a registry-B export.
func ParseB(ctx context.Context, data []byte, format Format, opts Options) ([]model.RecordB, error) {
	l, rows, err := parse(ctx, data, format, opts)
	if err != nil {
		return nil, err
	}
	out := make([]model.RecordB, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.RecordB{
			ID:          l.get(row, FieldID),
			Name:        l.get(row, FieldName),
			BirthDate:   l.get(row, FieldBirthDate),
			Institution: l.get(row, FieldInstitution),
			JobType:     l.get(row, FieldJobType),
			HireDate:    l.get(row, FieldHireDate),
			ResignDate:  l.get(row, FieldResignDate),
			Status:      l.get(row, FieldStatus),
		})
	}
	return out, nil
}

var truthy = map[string]bool{
	"y": true, "yes": true, "true": true, "1": true, "o": true, "재직": true, "재직중": true, "active": true,
}

// ParseBool interprets an employment flag cell.
func ParseBool(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// Loader fetches, caches and parses rosters.
type Loader struct {
	fetcher *Fetcher
	cache   *cache.Cache
	opts    Options
}

// NewLoader creates a Loader. c may be nil.
func NewLoader(f *Fetcher, c *cache.Cache, opts Options) *Loader {
	if f == nil {
		f = NewFetcher(FetchOptions{})
	}
	return &Loader{fetcher: f, cache: c, opts: opts}
}

// LoadA loads a registry-A roster from src.
func (l *Loader) LoadA(ctx context.Context, src string) ([]model.RecordA, error) {
	var out []model.RecordA
	err := l.load(ctx, src, "a", &out, func(data []byte, format Format) (any, error) {
		recs, err := ParseA(ctx, data, format, l.opts)
		out = recs
		return recs, err
	})
	return out, err
}

// LoadB loads a registry-B roster from src.
func (l *Loader) LoadB(ctx context.Context, src string) ([]model.RecordB, error) {
	var out []model.RecordB
	err := l.load(ctx, src, "b", &out, func(data []byte, format Format) (any, error) {
		recs, err := ParseB(ctx, data, format, l.opts)
		out = recs
		return recs, err
	})
	return out, err
}

func (l *Loader) load(ctx context.Context, src, registry string, dst any, parseFn func([]byte, Format) (any, error)) error {
	log := zap.L().With(zap.String("component", "roster"), zap.String("registry", registry), zap.String("source", src))

	format, err := FormatOf(src)
	if err != nil {
		return err
	}
	data, err := l.fetcher.Fetch(ctx, src)
	if err != nil {
		return err
	}

	key := cache.Key("roster:"+registry, data, []byte(format), l.opts.fingerprint())
	if ok, err := l.cache.Get(ctx, key, dst); err != nil {
		log.Warn("roster cache read failed", zap.Error(err))
	} else if ok {
		log.Info("roster loaded from cache")
		return nil
	}

	recs, err := parseFn(data, format)
	if err != nil {
		return eris.Wrapf(err, "roster: parse %s", src)
	}
	if err := l.cache.Set(ctx, key, recs); err != nil {
		log.Warn("roster cache write failed", zap.Error(err))
	}
	log.Info("roster loaded", zap.Int("bytes", len(data)))
	return nil
}
