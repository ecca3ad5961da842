// Package model holds the application side of the ODM: HTTP exposure hooks
// for the bundled models and the RFC 9457 problem types used by handlers.
//
// Models themselves are declared in the schema file (configs/models.yaml).
// RegisterExposures attaches the Go hooks in this package to the registry
// entries that enable an HTTP API:
//
//	applied := model.RegisterExposures(registry, store)
//
// ArticleExposure hides drafts and adds excerpts. CommentExposure hides
// emails and checks that the referenced thread exists.
package model
