package portal

import (
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

const (
	notFoundView       = "errors/404"
	serverErrorView    = "errors/500"
	serverErrorMessage = "An unexpected server error occurred"
)

type appConfig struct {
	logger    Logger
	metrics   *Metrics
	cookieKey string
	views     fs.FS
	public    fs.FS
}

// AppOption configures NewApp
type AppOption func(*appConfig)

// WithAppLogger sets the logger used by the error handler
func WithAppLogger(logger Logger) AppOption {
	return func(c *appConfig) {
		c.logger = normalizeLogger(logger)
	}
}

// WithAppMetrics records request metrics and serves them on /metrics
func WithAppMetrics(metrics *Metrics) AppOption {
	return func(c *appConfig) {
		c.metrics = metrics
	}
}

// WithCookieKey encrypts cookies with a base64 key
func WithCookieKey(key string) AppOption {
	return func(c *appConfig) {
		c.cookieKey = key
	}
}

// WithViews replaces the embedded templates
func WithViews(views fs.FS) AppOption {
	return func(c *appConfig) {
		if views != nil {
			c.views = views
		}
	}
}

// NewViewEngine returns the django template engine over views with
// TemplateHelpers registered as globals.
func NewViewEngine(views fs.FS) *django.Engine {
	engine := django.NewFileSystem(http.FS(views), ".html")
	engine.AddFuncMap(TemplateHelpers())
	return engine
}

// NewApp builds the fiber application serving ctrl. Middleware order:
// recover, metrics, cookie encryption, static assets, session loader,
// portal routes and finally the catch-all not found handler.
func NewApp(ctrl *PortalController, opts ...AppOption) *fiber.App {
	cfg := &appConfig{
		logger: defLogger{},
		views:  GetViewsFS(),
		public: GetPublicFS(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	app := fiber.New(fiber.Config{
		Views:                 NewViewEngine(cfg.views),
		ErrorHandler:          NewErrorHandler(cfg.logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	if cfg.metrics != nil {
		app.Use(cfg.metrics.Middleware())
		app.Get("/metrics", cfg.metrics.Handler()).Name("metrics.get")
	}

	if cfg.cookieKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key: cfg.cookieKey,
		}))
	}

	app.Use("/public", filesystem.New(filesystem.Config{
		Root:   http.FS(cfg.public),
		Browse: false,
	}))

	app.Use(ctrl.Sessions.Load())

	ctrl.RegisterRoutes(app)

	app.Use(ctrl.NotFound)

	return app
}

// NewErrorHandler renders unhandled errors. Store failures and panics end
// up here as a 500 for the failing request only.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		rich := ToRichError(err)
		code := HTTPStatus(rich)

		message := rich.Message
		if rich.Category == goerrors.CategoryInternal {
			message = serverErrorMessage
		}

		var data ViewContext
		view := serverErrorView

		switch code {
		case fiber.StatusNotFound:
			view = notFoundView
			data = ViewContext{"message": message, "path": c.Path()}
		case fiber.StatusForbidden:
			view = ForbiddenView
		default:
			data = ViewContext{"code": code, "message": message}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "method", c.Method(), "category", rich.Category, "error", err)
		} else {
			logger.Debug("request rejected", "path", c.Path(), "status", code, "text_code", rich.TextCode, "error", err)
		}

		if rerr := c.Status(code).Render(view, data); rerr != nil {
			logger.Error("render error view", "view", view, "error", rerr)
			return c.Status(code).SendString(message)
		}
		return nil
	}
}
