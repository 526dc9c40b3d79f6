// Package taxonomy resolves NCBI-style taxonomy identifiers against a taxdump
// (nodes.dmp and names.dmp) to names, ranks and lineages.
package taxonomy

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// maxDepth bounds lineage walks over malformed dumps with parent cycles.
const maxDepth = 128

type node struct {
	parent int64
	rank   string
	name   string
}

// Taxonomy is a loaded taxdump. It is safe for concurrent use.
type Taxonomy struct {
	nodes map[int64]node

	mu    sync.Mutex
	cache map[int64][]int64
}

// Load reads nodes.dmp and names.dmp from dir. Either file may be gzipped
// with a .gz suffix.
func Load(dir string) (*Taxonomy, error) {
	namesPath, err := dumpPath(dir, "names.dmp")
	if err != nil {
		return nil, err
	}
	nodesPath, err := dumpPath(dir, "nodes.dmp")
	if err != nil {
		return nil, err
	}

	names, err := loadNames(table.FromPath(namesPath))
	if err != nil {
		return nil, err
	}
	nodes, err := loadNodes(table.FromPath(nodesPath), names)
	if err != nil {
		return nil, err
	}
	return newTaxonomy(nodes), nil
}

func dumpPath(dir, name string) (string, error) {
	for _, candidate := range []string{name, name + ".gz"} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("locate %s in %s: %w", name, dir, os.ErrNotExist)
}

func newTaxonomy(nodes map[int64]node) *Taxonomy {
	return &Taxonomy{
		nodes: nodes,
		cache: make(map[int64][]int64),
	}
}

func loadNames(src table.Source) (map[int64]string, error) {
	names := make(map[int64]string, 1<<16)
	err := scanDmp(src, func(fields []string) {
		if len(fields) < 4 || fields[3] != "scientific name" || fields[1] == "" {
			return
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return
		}
		names[id] = fields[1]
	})
	if err != nil {
		return nil, fmt.Errorf("read names.dmp: %w", err)
	}
	return names, nil
}

func loadNodes(src table.Source, names map[int64]string) (map[int64]node, error) {
	nodes := make(map[int64]node, 1<<16)
	err := scanDmp(src, func(fields []string) {
		if len(fields) < 3 {
			return
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return
		}
		parent, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return
		}
		nodes[id] = node{parent: parent, rank: fields[2], name: names[id]}
	})
	if err != nil {
		return nil, fmt.Errorf("read nodes.dmp: %w", err)
	}
	if len(nodes) == 0 {
		return nil, errors.New("nodes.dmp has no nodes")
	}
	return nodes, nil
}

func scanDmp(src table.Source, fn func(fields []string)) error {
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	scanner := bufio.NewScanner(rc)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)
	for scanner.Scan() {
		fn(parseDmpLine(scanner.Text()))
	}
	return scanner.Err()
}

// parseDmpLine splits "1\t|\t1\t|\tno rank\t|" style lines.
func parseDmpLine(line string) []string {
	line = strings.TrimSuffix(strings.TrimSpace(line), "|")
	raw := strings.Split(line, "|")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// Name returns the scientific name of id, or "" when unknown.
func (t *Taxonomy) Name(id int64) string {
	return t.nodes[id].name
}

// Rank returns the rank of id, or "" when unknown.
func (t *Taxonomy) Rank(id int64) string {
	return t.nodes[id].rank
}

// Lineage returns the names from the top of the tree down to id, joined by
// ";". The tree root itself is left out.
func (t *Taxonomy) Lineage(id int64) string {
	return t.join(id, func(n node, _ int64) string { return n.name })
}

// IDLineage is Lineage with identifiers instead of names.
func (t *Taxonomy) IDLineage(id int64) string {
	return t.join(id, func(_ node, id int64) string { return strconv.FormatInt(id, 10) })
}

// RankLineage is Lineage with ranks instead of names.
func (t *Taxonomy) RankLineage(id int64) string {
	return t.join(id, func(n node, _ int64) string { return n.rank })
}

func (t *Taxonomy) join(id int64, field func(node, int64) string) string {
	path := t.path(id)
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, ancestor := range path {
		parts[i] = field(t.nodes[ancestor], ancestor)
	}
	return strings.Join(parts, ";")
}

// path returns the ancestors of id, root-most first, excluding the root.
func (t *Taxonomy) path(id int64) []int64 {
	if id <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cached, ok := t.cache[id]; ok {
		return cached
	}

	var path []int64
	cur := id
	for depth := 0; depth < maxDepth; depth++ {
		n, ok := t.nodes[cur]
		if !ok || n.parent == cur {
			break
		}
		path = append(path, cur)
		cur = n.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	t.cache[id] = path
	return path
}
