// Package fixtures provides test data factories for storage backends.
//
// # Factory
//
// A Factory wraps the backend under test:
//
//	f := fixtures.New(backend)
//	docs := f.CreateDocuments(t, "article", 5)
//
// # Options
//
// Documents are customized with option functions:
//
//	f.CreateDocument(t, "article",
//	    fixtures.WithUID("a1"),
//	    fixtures.WithData(map[string]any{"title": "Hello"}),
//	    fixtures.ModifiedAfter(time.Hour),
//	)
//
// # Ordering
//
// Creation times start at Epoch and advance one second per document.
package fixtures
