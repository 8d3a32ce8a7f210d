package auth

// Permissions granted by the issuer and required by the API routes.
const (
	PermGetActors    = "get:actors"
	PermGetMovies    = "get:movies"
	PermPostActors   = "post:actors"
	PermPostMovies   = "post:movies"
	PermPatchActors  = "patch:actors"
	PermPatchMovies  = "patch:movies"
	PermDeleteActors = "delete:actors"
	PermDeleteMovies = "delete:movies"
)

// KnownPermissions is the closed set of permissions a route may require.
var KnownPermissions = []string{
	PermGetActors,
	PermGetMovies,
	PermPostActors,
	PermPostMovies,
	PermPatchActors,
	PermPatchMovies,
	PermDeleteActors,
	PermDeleteMovies,
}

// IsKnownPermission reports whether p belongs to KnownPermissions.
func IsKnownPermission(p string) bool {
	for _, known := range KnownPermissions {
		if p == known {
			return true
		}
	}
	return false
}
