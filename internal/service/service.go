// Package service contains the business logic layer of the gallery.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// WHY A SEPARATE SERVICE LAYER?
//
//  1. TESTING: business rules (who may delete what, how pages are sized)
//     are tested with plain Go function calls and in-memory fakes.
//  2. SEPARATION: handlers only know HTTP (status codes, cookies, JSON).
//     Services only know gallery rules. Neither knows SQL.
//
// THE DEPENDENCY CHAIN:
//
//	server.New creates:  DB + Disk → Services → Handlers
//	At runtime:          Handler calls Service calls Repository / FileStore
//
// Every service takes repository interfaces, NOT *sqlite.DB. Tests pass
// fakes; main passes the SQLite implementation.
package service

import "math"

// Validation and paging constants.
const (
	MaxUsernameLength = 64
	MaxPasswordLength = 72 // bcrypt ignores everything past 72 bytes
	MaxTitleLength    = 200
	MaxCommentLength  = 2000

	// CommentPageSize is fixed: clients only choose the page number.
	CommentPageSize = 10

	// User directory page sizes. Requests below the floor are raised to it.
	MinUserPageLimit = 6
	MaxUserPageLimit = 100
)

// pageOffset returns the row offset of page (0-based) for pages of size.
// ok is false when the offset does not fit in an int; such a page is
// necessarily past the end.
func pageOffset(page, size int) (offset int, ok bool) {
	if page > math.MaxInt/size {
		return 0, false
	}
	return page * size, true
}
