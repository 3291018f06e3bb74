package middleware

import "fmt"

// RoutePolicy declares what an endpoint demands before its handler
// runs: the scopes a bearer must hold and the per-caller request
// budget. Policies replace per-handler annotations with one table the
// middleware consults up front.
type RoutePolicy struct {
	RequiredScopes []string
	RateLimit      int // requests per minute per caller, 0 = unlimited
}

// PolicyTable maps "METHOD path" (echo route form, e.g.
// "POST /oauth/users") to its policy. Routes absent from the table
// require a valid token but no particular scope.
type PolicyTable map[string]RoutePolicy

func PolicyKey(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

func (t PolicyTable) Lookup(method, path string) (RoutePolicy, bool) {
	policy, ok := t[PolicyKey(method, path)]
	return policy, ok
}

// DefaultPolicyTable covers the full protected surface.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		// Public endpoints carry a rate budget but no scope demand.
		"POST /oauth/token":  {RateLimit: 60},
		"POST /oauth/revoke": {RateLimit: 120},

		"POST /oauth/introspect": {RequiredScopes: []string{"oauth:token:introspect"}, RateLimit: 120},

		"POST /oauth/users":       {RequiredScopes: []string{"oauth:user:create"}, RateLimit: 60},
		"GET /oauth/users":        {RequiredScopes: []string{"oauth:user:read"}, RateLimit: 120},
		"GET /oauth/users/:id":    {RequiredScopes: []string{"oauth:user:read"}, RateLimit: 120},
		"PUT /oauth/users/:id":    {RequiredScopes: []string{"oauth:user:update"}, RateLimit: 60},
		"DELETE /oauth/users/:id": {RequiredScopes: []string{"oauth:user:delete"}, RateLimit: 60},

		"POST /oauth/clients":                    {RequiredScopes: []string{"oauth:client:create"}, RateLimit: 60},
		"GET /oauth/clients":                     {RequiredScopes: []string{"oauth:client:read"}, RateLimit: 120},
		"GET /oauth/clients/:id":                 {RequiredScopes: []string{"oauth:client:read"}, RateLimit: 120},
		"DELETE /oauth/clients/:id":              {RequiredScopes: []string{"oauth:client:delete"}, RateLimit: 60},
		"GET /oauth/clients/:id/scopes":          {RequiredScopes: []string{"oauth:client:read"}, RateLimit: 120},
		"POST /oauth/clients/:id/scopes":         {RequiredScopes: []string{"oauth:client:update"}, RateLimit: 60},
		"DELETE /oauth/clients/:id/scopes/:scope": {RequiredScopes: []string{"oauth:client:update"}, RateLimit: 60},
		"GET /oauth/users/:id/scopes":            {RequiredScopes: []string{"oauth:user:read"}, RateLimit: 120},
		"POST /oauth/users/:id/scopes":           {RequiredScopes: []string{"oauth:user:update"}, RateLimit: 60},
		"DELETE /oauth/users/:id/scopes/:scope":  {RequiredScopes: []string{"oauth:user:update"}, RateLimit: 60},

		"POST /oauth/scopes":         {RequiredScopes: []string{"oauth:scope:create"}, RateLimit: 60},
		"GET /oauth/scopes":          {RequiredScopes: []string{"oauth:scope:read"}, RateLimit: 120},
		"GET /oauth/scopes/:name":    {RequiredScopes: []string{"oauth:scope:read"}, RateLimit: 120},
		"DELETE /oauth/scopes/:name": {RequiredScopes: []string{"oauth:scope:delete"}, RateLimit: 60},

		"POST /oauth/tenants":       {RequiredScopes: []string{"oauth:tenant:create"}, RateLimit: 60},
		"GET /oauth/tenants":        {RequiredScopes: []string{"oauth:tenant:read"}, RateLimit: 120},
		"GET /oauth/tenants/:id":    {RequiredScopes: []string{"oauth:tenant:read"}, RateLimit: 120},
		"PUT /oauth/tenants/:id":    {RequiredScopes: []string{"oauth:tenant:update"}, RateLimit: 60},
		"DELETE /oauth/tenants/:id": {RequiredScopes: []string{"oauth:tenant:delete"}, RateLimit: 60},

		"GET /oauth/audit-logs": {RequiredScopes: []string{"oauth:audit:read"}, RateLimit: 120},
	}
}
