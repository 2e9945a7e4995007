// Package query builds parameterized SQL fragments from untrusted list
// request input: filters, sort, joins and pagination.
//
// Identifiers (tables, columns, aliases) cannot be bound as parameters, so
// every identifier is checked by SanitizeIdentifier before it is written into
// a fragment. Values are never written as text; they are returned in
// Fragment.Params in the order their `?` placeholders appear.
//
// Safe usage:
//
//	where, err := query.BuildWhereClause(query.Filters{}.
//		Add("status", query.In("active", "leave")).
//		Add("age", query.Range(30, 40)))
//	if err != nil {
//		// IsClientError(err) -> 400
//	}
//	db.Raw("SELECT * FROM sisters "+where.SQL, where.Params...)
//
// Fragments must only be executed through a parameterized API.
package query
