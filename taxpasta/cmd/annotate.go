package cmd

import (
	"fmt"

	"github.com/Doomsbay/TaxPasta/taxpasta/config"
	"github.com/Doomsbay/TaxPasta/taxpasta/taxonomy"
)

// annotation is an extra string column derived from the taxonomy.
type annotation struct {
	name    string
	resolve func(int64) string
}

func annotations(c config.Config, tax *taxonomy.Taxonomy) ([]annotation, error) {
	if !c.Annotates() {
		return nil, nil
	}
	if tax == nil {
		return nil, fmt.Errorf("%w: taxonomy columns need -taxonomy", config.ErrInvalidConfig)
	}
	var out []annotation
	if c.AddName {
		out = append(out, annotation{name: "name", resolve: tax.Name})
	}
	if c.AddRank {
		out = append(out, annotation{name: "rank", resolve: tax.Rank})
	}
	if c.AddLineage {
		out = append(out, annotation{name: "lineage", resolve: tax.Lineage})
	}
	if c.AddIDLineage {
		out = append(out, annotation{name: "id_lineage", resolve: tax.IDLineage})
	}
	if c.AddRankLineage {
		out = append(out, annotation{name: "rank_lineage", resolve: tax.RankLineage})
	}
	return out, nil
}
