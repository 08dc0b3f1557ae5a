package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"blang-tool/internal/blang"
	"blang-tool/internal/resources"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Inventory records which containers ship which string tables, and which
// strings those tables define, in Neo4j.
type Inventory struct {
	driver neo4j.DriverWithContext
}

// NewInventory creates a new inventory recorder.
func NewInventory(driver neo4j.DriverWithContext) *Inventory {
	return &Inventory{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (inv *Inventory) EnsureSchema(ctx context.Context) error {
	session := inv.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Container) REQUIRE c.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Table) REQUIRE t.key IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (s:String) REQUIRE s.key IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// RecordContainer links a container to the tables extracted from it.
func (inv *Inventory) RecordContainer(ctx context.Context, containerPath string, records []resources.Record) error {
	session := inv.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (c:Container {path: $path})
		SET c.name = $name
	`, map[string]any{
		"path": containerPath,
		"name": filepath.Base(containerPath),
	})
	if err != nil {
		return fmt.Errorf("merge container %s: %w", containerPath, err)
	}

	for _, r := range records {
		_, err := session.Run(ctx, `
			MATCH (c:Container {path: $path})
			MERGE (t:Table {key: $key})
			SET t.name = $name, t.size = $size
			MERGE (c)-[:CONTAINS]->(t)
		`, tableParams(containerPath, r))
		if err != nil {
			return fmt.Errorf("merge table %s: %w", r.Name, err)
		}
	}

	log.Info().Str("container", containerPath).Int("tables", len(records)).Msg("Recorded container")
	return nil
}

// RecordTable links a table node to the strings it defines.
func (inv *Inventory) RecordTable(ctx context.Context, tableKey string, table *blang.StringTable) error {
	session := inv.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (t:Table {key: $table})
		SET t.layout = $layout, t.strings = $count
	`, map[string]any{
		"table":  tableKey,
		"layout": table.Layout().String(),
		"count":  len(table.Entries),
	})
	if err != nil {
		return fmt.Errorf("update table %s: %w", tableKey, err)
	}

	for _, e := range table.Entries {
		_, err := session.Run(ctx, `
			MATCH (t:Table {key: $table})
			MERGE (s:String {key: $key})
			SET s.identifier = $identifier, s.hash = $hash
			MERGE (t)-[:HAS_STRING]->(s)
		`, stringParams(tableKey, e))
		if err != nil {
			log.Warn().Err(err).Str("identifier", e.Identifier()).Msg("Failed to record string")
		}
	}

	log.Info().Str("table", tableKey).Int("strings", len(table.Entries)).Msg("Recorded table strings")
	return nil
}

// TableKey identifies a table by the container it came from.
func TableKey(containerPath, name string) string {
	return containerPath + "#" + name
}

func tableParams(containerPath string, r resources.Record) map[string]any {
	return map[string]any{
		"path": containerPath,
		"key":  TableKey(containerPath, r.Name),
		"name": r.Name,
		"size": int64(len(r.Data)),
	}
}

func stringParams(tableKey string, e *blang.StringEntry) map[string]any {
	return map[string]any{
		"table":      tableKey,
		"key":        tableKey + "/" + e.Identifier(),
		"identifier": e.Identifier(),
		"hash":       int64(blang.Hash(e.Identifier())),
	}
}
