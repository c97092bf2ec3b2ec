package hostid

import "github.com/google/uuid"

// Namespace is the name-based UUID namespace host identifiers are hashed under.
var Namespace = uuid.MustParse("3d0f6a52-8c1e-5b7a-9f24-6e1b0c4d2a87")

// UUID returns a version 5 UUID naming the identifier, for consumers that
// expect UUID-shaped machine IDs. Equal identifiers give equal UUIDs.
func (r *Result) UUID() uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(r.Hex))
}
