package server

const (
	RouteLogin  = "/v1/login"
	RouteHealth = "/healthz"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
