package authserverfake

// Route patterns served by the stub, in "METHOD /path" form.
const (
	RouteLogin   = "POST /users/login"
	RouteRefresh = "GET /users/refresh"
	RouteMe      = "GET /users/me"
)
