package auth

// Known OAuth scopes used by the rollup API.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
)

// CanRead reports whether claims may query activity data. Write implies read.
func CanRead(claims *Claims) bool {
	return claims.HasAnyScope(ScopeActivitiesRead, ScopeActivitiesWrite)
}

// CanWrite reports whether claims may record daily activity.
func CanWrite(claims *Claims) bool {
	return claims.HasScope(ScopeActivitiesWrite)
}
