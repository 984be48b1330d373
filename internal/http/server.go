package http

import (
	"context"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"member-service/internal/authz"
	"member-service/internal/authz/presets"
	"member-service/internal/config"
	"member-service/internal/http/handler"
	"member-service/internal/http/middleware"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	requestBodyLimit = "1M"

	routeDownloadURL = "/studydocuments/:id/download-url"
	routeUploadURL   = "/studydocuments/:id/upload-url"
)

type ServerDependencies struct {
	Config        *config.Config
	Registry      *authz.Registry
	Engine        *authz.Engine
	Owners        *authz.OwnershipResolver
	Annotator     *authz.Annotator
	Records       handler.RecordStore
	UserRepo      handler.UserRepository
	SessionRepo   handler.SessionRepository
	Objects       handler.ObjectStore
	Auditor       handler.DecisionAuditor
	Authenticator *middleware.Authenticator
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))

	// Principal resolution runs on every route, public ones included,
	// so the rate limiter behind it can bucket by principal.
	e.Use(deps.Authenticator.Middleware())

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	// Strict rate limiting for credential endpoints
	strictRateLimiter := middleware.NewStrictRateLimiter()

	resourceHandler := handler.NewResourceHandler(
		deps.Engine, deps.Owners, deps.Annotator, deps.Records, deps.Auditor, deps.Config.App.PageSize)
	authHandler := handler.NewAuthHandler(
		resourceHandler, deps.UserRepo, deps.SessionRepo,
		[]byte(deps.Config.Auth.JWTSecret), deps.Config.Auth.SessionExpiry)
	documentHandler := handler.NewDocumentHandler(resourceHandler, deps.Objects)
	homeHandler := handler.NewHomeHandler(deps.Registry, deps.Annotator)

	e.GET("/", homeHandler.Index)
	e.GET("/health", healthCheck)

	// Every registered resource gets the same generic routes; behavior
	// differences come from the descriptors, not the routing table. The
	// only overrides are the two credential-bearing POST routes and the
	// document delete, which touches object storage.
	for _, res := range deps.Registry.Resources() {
		collection := "/" + res.Name
		item := collection + "/:id"

		for _, method := range res.ResourceMethods {
			switch method {
			case stdhttp.MethodGet:
				e.GET(collection, resourceHandler.List(res))
			case stdhttp.MethodPost:
				switch res.Name {
				case presets.ResourceSessions:
					e.POST(collection, authHandler.Login(res), strictRateLimiter.Middleware())
				case presets.ResourceUsers:
					e.POST(collection, authHandler.CreateUser(res), strictRateLimiter.Middleware())
				default:
					e.POST(collection, resourceHandler.Create(res))
				}
			}
		}
		e.OPTIONS(collection, resourceHandler.Options(res, false))

		for _, method := range res.ItemMethods {
			switch method {
			case stdhttp.MethodGet:
				e.GET(item, resourceHandler.Get(res))
			case stdhttp.MethodPatch:
				e.PATCH(item, resourceHandler.Update(res))
			case stdhttp.MethodPut:
				e.PUT(item, resourceHandler.Update(res))
			case stdhttp.MethodDelete:
				if res.Name == presets.ResourceStudyDocuments {
					// Document deletes also clean up the stored object.
					e.DELETE(item, documentHandler.Delete(res))
				} else {
					e.DELETE(item, resourceHandler.Delete(res))
				}
			}
		}
		e.OPTIONS(item, resourceHandler.Options(res, true))
	}

	if docRes, ok := deps.Registry.Descriptor(presets.ResourceStudyDocuments); ok {
		e.GET(routeDownloadURL, documentHandler.DownloadURL(docRes))
		e.POST(routeUploadURL, documentHandler.UploadURL(docRes))
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
