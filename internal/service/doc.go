// Package service implements the entity operations behind the ODM HTTP API.
//
// EntityService resolves models and refs against the schema registry, gates
// every operation on the model's HTTP exposure, applies request fields
// through the field codecs and runs the exposure hooks before anything
// reaches storage.
//
// # Errors
//
// Failures are reported with sentinel errors so handlers can map them in one
// place:
//
//	ErrModelNotRegistered, ErrEntityNotFound  -> 404
//	ErrForbidden, ErrOperationForbidden       -> 403
//	*FieldError (ErrInvalidField, ...)        -> 422
//	ErrInvalidParameter                       -> 400
//
// # Pagination
//
// List reads skip, limit, refs and exclude through ParseListOptions
// and returns a Page with the total count and PageLinks for navigation.
//
//	svc := service.NewEntityService(service.EntityServiceConfig{Store: store})
//	page, err := svc.List(ctx, "article", params)
package service
