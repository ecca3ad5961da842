// Package handler provides the HTTP surface of the ODM API.
//
// EntityHandler serves the generic entity endpoints on top of an
// EntityService:
//
//	GET    /odm/entities/{model}   one page of a collection
//	GET    /odm/entity/{ref}       one entity
//	PATCH  /odm/entity/{ref}       update fields
//	DELETE /odm/entity/{ref}       remove an entity
//	POST   /odm/entity/{model}     create an entity
//	GET    /odm/models             exposed models and their fields
//
// # Request Parameters
//
// Query parameters come first. POST and PATCH bodies, either JSON objects
// or form-encoded, are appended after them and win on key collisions.
// Parameter order is kept because fields are assigned in the order sent.
//
// # Pagination
//
// Collection responses are JSON arrays. The page position is reported in an
// RFC 5988 Link header with first, last and, when applicable, prev and next
// relations, plus an X-Total-Count header.
//
// # Errors
//
// Service errors are mapped to RFC 9457 Problem Details by MapServiceError.
package handler
