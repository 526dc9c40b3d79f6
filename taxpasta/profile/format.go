package profile

import (
	"fmt"
	"strings"
)

// Supported producer formats.
const (
	UnknownFormat Format = iota
	Bracken
	Centrifuge
	Diamond
	Ganon
	Kaiju
	KMCP
	Kraken2
	KrakenUniq
	MEGAN6
	MetaPhlAn
	MOTUs
)

// Format tags the producer whose output a reader/standardiser pair targets.
type Format uint8

var formatNames = map[Format]string{
	Bracken:    "bracken",
	Centrifuge: "centrifuge",
	Diamond:    "diamond",
	Ganon:      "ganon",
	Kaiju:      "kaiju",
	KMCP:       "kmcp",
	Kraken2:    "kraken2",
	KrakenUniq: "krakenuniq",
	MEGAN6:     "megan6",
	MetaPhlAn:  "metaphlan",
	MOTUs:      "motus",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat resolves a case-insensitive format tag.
func ParseFormat(s string) (Format, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == tag {
			return f, nil
		}
	}
	return UnknownFormat, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Formats lists every supported format in declaration order.
func Formats() []Format {
	return []Format{Bracken, Centrifuge, Diamond, Ganon, Kaiju, KMCP, Kraken2, KrakenUniq, MEGAN6, MetaPhlAn, MOTUs}
}
