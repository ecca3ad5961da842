// Package repository implements odm.Backend over the supported document stores.
//
// # Backends
//
//   - SurrealBackend: one table per model, record id "<model>:<uid>" equal to
//     the entity ref. Filters and sorts are rendered into SurrealQL.
//   - MongoBackend: one collection per model keyed by uid. Filters and sorts
//     are pushed down as BSON.
//   - SQLBackend: one bun table (odm_documents) for all models with the field
//     map stored as JSON text. Runs on SQLite, PostgreSQL and MySQL.
//   - ReindexerBackend: one namespace for all models, same layout as SQL.
//
// The SQL and Reindexer backends narrow by model and uid on the server and
// evaluate data field filters and data field sorts in process with
// odm.Criteria.Matches and odm.SortDocuments. Timestamp sorts, skip and limit
// are pushed down whenever no data field is involved.
//
// # Query Patterns
//
// SurrealQL statements bind every value as a $variable. Field names are
// schema identifiers (lower case letters, digits and underscores) and are
// inlined quoted with backticks:
//
//	SELECT * FROM type::table($tb) WHERE data.`published` = $c0
//	ORDER BY created ASC, uid ASC LIMIT $limit START $skip
//
// # Example Usage
//
//	backend := repository.NewSQLBackend(db)
//	if err := backend.Init(ctx, registry.Models()); err != nil {
//	    return err
//	}
//	store := odm.NewStore(registry, backend)
package repository
