package taxonomy

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tax, err := Load("testdata")
	require.NoError(t, err)

	assert.Equal(t, "Escherichia coli", tax.Name(562))
	assert.Equal(t, "species", tax.Rank(562))
	assert.Equal(t, "Bacteria", tax.Name(2), "only scientific names are kept")
	assert.Equal(t, "cellular organisms;Bacteria;Pseudomonadota;Escherichia;Escherichia coli", tax.Lineage(562))
	assert.Equal(t, "131567;2;1224;561;562", tax.IDLineage(562))
	assert.Equal(t, "no rank;superkingdom;phylum;genus;species", tax.RankLineage(562))
}

func TestUnknownIdentifiers(t *testing.T) {
	tax, err := Load("testdata")
	require.NoError(t, err)

	for _, id := range []int64{0, -1, 999999} {
		assert.Empty(t, tax.Name(id))
		assert.Empty(t, tax.Rank(id))
		assert.Empty(t, tax.Lineage(id))
		assert.Empty(t, tax.IDLineage(id))
		assert.Empty(t, tax.RankLineage(id))
	}
	assert.Equal(t, "root", tax.Name(1))
	assert.Empty(t, tax.Lineage(1))
}

func TestLoad_Gzipped(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nodes.dmp", "names.dmp"} {
		raw, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)

		f, err := os.Create(filepath.Join(dir, name+".gz"))
		require.NoError(t, err)
		gz := pgzip.NewWriter(f)
		_, err = gz.Write(raw)
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, f.Close())
	}

	tax, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Escherichia", tax.Name(561))
}

func TestLoad_MissingDump(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLineage_Cycle(t *testing.T) {
	tax := newTaxonomy(map[int64]node{
		10: {parent: 11, rank: "genus", name: "a"},
		11: {parent: 10, rank: "family", name: "b"},
	})
	assert.NotPanics(t, func() { tax.Lineage(10) })
}

func TestLineage_Concurrent(t *testing.T) {
	tax, err := Load("testdata")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "131567;2;1224;561;562", tax.IDLineage(562))
		}()
	}
	wg.Wait()
}

func TestParseDmpLine(t *testing.T) {
	assert.Equal(t, []string{"2", "Bacteria", "", "scientific name"}, parseDmpLine("2\t|\tBacteria\t|\t\t|\tscientific name\t|"))
}
