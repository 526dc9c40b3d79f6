// Package profile turns producer-specific taxonomic profiles into one
// standard shape: unique taxonomy identifiers mapped to integer counts.
//
// Each supported producer contributes a Reader, which parses and validates
// its raw output, and a Standardiser, which rewrites the validated table.
// Both are stateless; independent pipelines may run concurrently.
package profile

import (
	"fmt"
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// Reader parses a producer's raw output into a validated table.
type Reader interface {
	Read(src table.Source) (*ProducerTable, error)
}

// Standardiser rewrites a validated producer table into a standard profile.
type Standardiser interface {
	Transform(t *ProducerTable) (*StandardProfile, error)
}

type adapter struct {
	reader       func() Reader
	standardiser func(logger *slog.Logger) Standardiser
}

var adapters = map[Format]adapter{
	Bracken: {
		reader:       func() Reader { return BrackenReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return BrackenStandardiser{Logger: l} },
	},
	Centrifuge: {
		reader:       func() Reader { return CentrifugeReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return CentrifugeStandardiser{Logger: l} },
	},
	Diamond: {
		reader:       func() Reader { return DiamondReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return DiamondStandardiser{Logger: l} },
	},
	Ganon: {
		reader:       func() Reader { return GanonReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return GanonStandardiser{Logger: l} },
	},
	Kaiju: {
		reader:       func() Reader { return KaijuReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return KaijuStandardiser{Logger: l} },
	},
	KMCP: {
		reader:       func() Reader { return KMCPReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return KMCPStandardiser{Logger: l} },
	},
	Kraken2: {
		reader:       func() Reader { return Kraken2Reader{} },
		standardiser: func(l *slog.Logger) Standardiser { return Kraken2Standardiser{Logger: l} },
	},
	KrakenUniq: {
		reader:       func() Reader { return KrakenUniqReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return KrakenUniqStandardiser{Logger: l} },
	},
	MEGAN6: {
		reader:       func() Reader { return MEGAN6Reader{} },
		standardiser: func(l *slog.Logger) Standardiser { return MEGAN6Standardiser{Logger: l} },
	},
	MetaPhlAn: {
		reader:       func() Reader { return MetaPhlAnReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return MetaPhlAnStandardiser{Logger: l} },
	},
	MOTUs: {
		reader:       func() Reader { return MOTUsReader{} },
		standardiser: func(l *slog.Logger) Standardiser { return MOTUsStandardiser{Logger: l} },
	},
}

// NewReader returns the reader for f.
func NewReader(f Format) (Reader, error) {
	a, ok := adapters[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
	return a.reader(), nil
}

// NewStandardiser returns the standardiser for f. A nil logger means
// slog.Default().
func NewStandardiser(f Format, logger *slog.Logger) (Standardiser, error) {
	a, ok := adapters[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
	return a.standardiser(logger), nil
}

// Pipeline composes one format's reader and standardiser.
type Pipeline struct {
	format       Format
	reader       Reader
	standardiser Standardiser
}

// NewPipeline builds the read -> validate -> standardise pipeline for f.
func NewPipeline(f Format, logger *slog.Logger) (*Pipeline, error) {
	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	s, err := NewStandardiser(f, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{format: f, reader: r, standardiser: s}, nil
}

// Format returns the producer format handled by the pipeline.
func (p *Pipeline) Format() Format {
	return p.format
}

// Run reads src and standardises it. Errors are *FormatError,
// *SchemaValidationError, *StandardisationError or wrapped I/O errors.
func (p *Pipeline) Run(src table.Source) (*StandardProfile, error) {
	t, err := p.reader.Read(src)
	if err != nil {
		return nil, err
	}
	return p.standardiser.Transform(t)
}

// Standardise runs a one-off pipeline for f over src with the default logger.
func Standardise(f Format, src table.Source) (*StandardProfile, error) {
	p, err := NewPipeline(f, nil)
	if err != nil {
		return nil, err
	}
	return p.Run(src)
}

// transform wraps a producer's rewrite rule with the schema pre-condition
// and the standard profile post-condition.
func transform(f Format, logger *slog.Logger, t *ProducerTable, schemas []*Schema, rule func(*ProducerTable, *builder)) (*StandardProfile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := conformAny(t, schemas)
	if err != nil {
		return nil, err
	}
	b := newBuilder(f, t.Len())
	rule(t, b)
	return b.build(logger)
}

func conformAny(t *ProducerTable, schemas []*Schema) (*ProducerTable, error) {
	if t != nil {
		for _, s := range schemas {
			if t.schema == s {
				return t, nil
			}
		}
		if s := pickSchema(schemas, t.raw.NumColumns()); s != nil {
			return conform(t, s)
		}
	}
	return conform(t, schemas[0])
}
