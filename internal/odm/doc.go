// Package odm maps schema-defined entities onto document backends.
//
// A Registry holds the Models parsed from a YAML schema file. A Store binds
// the registry to a Backend (SurrealDB, SQL, MongoDB, Reindexer or the
// in-memory test store) and hands out Entities:
//
//	reg, err := odm.LoadSchema("configs/models.yaml")
//	st := odm.NewStore(reg, backend)
//
//	e, _ := st.Dispense("article")
//	_ = e.Set("title", "Hello")
//	_ = st.Save(ctx, e)
//
//	q, _ := st.Find("article")
//	n, _ := q.Count(ctx)
//	page, _ := q.Skip(10).Limit(10).Fetch(ctx)
//
// Entities are addressed by ref, "<model>:<uid>".
//
// # HTTP exposure
//
// A model is served over HTTP only when it has an Exposure registered. The
// schema's http_api section installs DefaultExposure with the model's enabled
// flag; Registry.Hook swaps in model-specific hooks built on top of it.
package odm
