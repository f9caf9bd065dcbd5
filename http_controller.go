package portal

import (
	"math/rand/v2"
	"strconv"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ViewContext is the data handed to a template
type ViewContext = map[string]any

// carImages are the pictures shown on the members and car pages
var carImages = []string{
	"/public/cars/c6.svg",
	"/public/cars/c7.svg",
	"/public/cars/c8.svg",
}

// PortalControllerRoutes holds the paths the controller mounts
type PortalControllerRoutes struct {
	Home           string
	Login          string
	LoginSubmit    string
	Signup         string
	SignupSubmit   string
	Members        string
	Admin          string
	ChangeRole     string
	Logout         string
	InjectionProbe string
	About          string
	Car            string
}

// PortalControllerViews holds the template names rendered per page
type PortalControllerViews struct {
	Home           string
	Login          string
	Signup         string
	Members        string
	Admin          string
	InjectionProbe string
	About          string
	Car            string
	Forbidden      string
	NotFound       string
}

// PortalController serves the portal pages. Auther and Sessions are required.
type PortalController struct {
	Debug    bool
	Logger   Logger
	Auther   *Auther
	Sessions *SessionManager
	Routes   *PortalControllerRoutes
	Views    *PortalControllerViews
	// Pick returns an index in [0, n). Used to choose the members image.
	Pick func(n int) int
}

// PortalControllerOption configures a PortalController
type PortalControllerOption func(*PortalController) *PortalController

// WithAuther sets the auth flow
func WithAuther(auther *Auther) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Auther = auther
		return pc
	}
}

// WithSessions sets the session manager
func WithSessions(sessions *SessionManager) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Sessions = sessions
		return pc
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Logger = normalizeLogger(logger)
		return pc
	}
}

// WithDebug dumps submitted payloads to the logger
func WithDebug(debug bool) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Debug = debug
		return pc
	}
}

// WithPicker replaces the random members image picker
func WithPicker(pick func(n int) int) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		if pick != nil {
			pc.Pick = pick
		}
		return pc
	}
}

// NewPortalController builds a controller with the default routes and
// views. It panics when no Auther or SessionManager is given.
func NewPortalController(opts ...PortalControllerOption) *PortalController {
	pc := &PortalController{
		Logger: defLogger{},
		Pick:   rand.IntN,
		Routes: &PortalControllerRoutes{
			Home:           "/",
			Login:          "/login",
			LoginSubmit:    "/login-submit",
			Signup:         "/signup",
			SignupSubmit:   "/signup-submit",
			Members:        "/members",
			Admin:          "/admin",
			ChangeRole:     "/change-role/:name/:role",
			Logout:         "/logout",
			InjectionProbe: "/injection-probe",
			About:          "/about",
			Car:            "/car/:id",
		},
		Views: &PortalControllerViews{
			Home:           "index",
			Login:          "login",
			Signup:         "signup",
			Members:        "members",
			Admin:          "admin",
			InjectionProbe: "injection_probe",
			About:          "about",
			Car:            "car",
			Forbidden:      ForbiddenView,
			NotFound:       "errors/404",
		},
	}

	for _, opt := range opts {
		pc = opt(pc)
	}

	if pc.Auther == nil {
		panic("Missing Auther in portal controller...")
	}

	if pc.Sessions == nil {
		panic("Missing SessionManager in portal controller...")
	}

	return pc
}

// RegisterRoutes mounts every portal route on app. Protected routes
// run the session gate before the role gate.
func (a *PortalController) RegisterRoutes(app fiber.Router) {
	requireSession := a.Sessions.RequireSession(a.Routes.Home)
	requireAdmin := RequireAdmin(a.Sessions)

	app.Get(a.Routes.Home, a.Home).Name("home")

	app.Get(a.Routes.Login, a.LoginShow).Name("login.get")
	app.Post(a.Routes.LoginSubmit, a.LoginPost).Name("login.post")

	app.Get(a.Routes.Signup, a.SignupShow).Name("signup.get")
	app.Post(a.Routes.SignupSubmit, a.SignupPost).Name("signup.post")

	app.Get(a.Routes.Members, requireSession, a.Members).Name("members.get")
	app.Get(a.Routes.Admin, requireSession, requireAdmin, a.Admin).Name("admin.get")
	app.Get(a.Routes.ChangeRole, requireSession, requireAdmin, a.ChangeRole).Name("change-role.get")

	app.Get(a.Routes.Logout, a.Logout).Name("logout.get")

	app.Get(a.Routes.InjectionProbe, a.InjectionProbe).Name("injection-probe.get")
	app.Get(a.Routes.About, a.About).Name("about.get")
	app.Get(a.Routes.Car, a.Car).Name("car.get")
}

// Home renders the landing page for guests and members alike
func (a *PortalController) Home(c *fiber.Ctx) error {
	state, err := a.Sessions.Read(c)
	if err != nil {
		return err
	}

	return c.Render(a.Views.Home, ViewContext{
		"authenticated": state.IsAuthenticated(a.Sessions.Now()),
		"session":       state.ViewData(a.Sessions.Now()),
	})
}

// LoginShow renders an empty login form
func (a *PortalController) LoginShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Login, ViewContext{
		"errors": map[string]string{},
		"record": ViewContext{},
	})
}

// LoginPost authenticates the submitted credentials and starts a session.
// Failures re-render the form with the status of the error.
func (a *PortalController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render(a.Views.Login, ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": ViewContext{},
		})
	}

	if a.Debug {
		a.Logger.Debug("login payload", "payload", print.MaybePrettyJSON(ViewContext{
			"email": payload.Email,
		}))
	}

	record := ViewContext{"email": payload.Email}

	identity, err := a.Auther.Login(c.UserContext(), *payload)
	if err != nil {
		switch {
		case IsValidationError(err):
			return c.Status(HTTPStatus(err)).Render(a.Views.Login, ViewContext{
				"errors":     map[string]string{"email": ErrorMessage(ErrInvalidEmail)},
				"validation": ValidationFields(err),
				"record":     record,
			})
		case goerrors.IsAuth(err):
			return c.Status(HTTPStatus(err)).Render(a.Views.Login, ViewContext{
				"errors": map[string]string{"authentication": ErrorMessage(err)},
				"record": record,
			})
		default:
			return err
		}
	}

	if _, err := a.Sessions.Authenticate(c, identity); err != nil {
		return err
	}

	return c.Redirect(a.Routes.Members, fiber.StatusSeeOther)
}

// SignupShow renders an empty signup form
func (a *PortalController) SignupShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Signup, ViewContext{
		"errors": map[string]string{},
		"record": ViewContext{},
	})
}

// SignupPost registers a new account and signs it in
func (a *PortalController) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render(a.Views.Signup, ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": ViewContext{},
		})
	}

	record := ViewContext{
		"username": payload.Username,
		"email":    payload.Email,
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(record))
	}

	identity, err := a.Auther.Signup(c.UserContext(), *payload)
	if err != nil {
		switch {
		case IsValidationError(err):
			return c.Status(HTTPStatus(err)).Render(a.Views.Signup, ViewContext{
				"errors":     map[string]string{},
				"validation": ValidationFields(err),
				"record":     record,
			})
		case goerrors.IsCategory(err, goerrors.CategoryConflict):
			return c.Status(HTTPStatus(err)).Render(a.Views.Signup, ViewContext{
				"errors": map[string]string{"email": ErrorMessage(err)},
				"record": record,
			})
		default:
			return err
		}
	}

	if _, err := a.Sessions.Authenticate(c, identity); err != nil {
		return err
	}

	return c.Redirect(a.Routes.Members, fiber.StatusSeeOther)
}

// Members renders the members page with a random car picture
func (a *PortalController) Members(c *fiber.Ctx) error {
	state, err := a.Sessions.Read(c)
	if err != nil {
		return err
	}

	return c.Render(a.Views.Members, ViewContext{
		"session": state.ViewData(a.Sessions.Now()),
		"image":   carImages[a.Pick(len(carImages))],
	})
}

// Admin lists every account with its role
func (a *PortalController) Admin(c *fiber.Ctx) error {
	return a.renderAdmin(c, fiber.StatusOK, nil)
}

func (a *PortalController) renderAdmin(c *fiber.Ctx, status int, errs map[string]string) error {
	state, err := a.Sessions.Read(c)
	if err != nil {
		return err
	}

	users, err := a.Auther.ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	rows := make([]ViewContext, 0, len(users))
	for _, u := range users {
		rows = append(rows, ViewContext{
			"username": u.Username,
			"email":    u.Email,
			"role":     u.Role.String(),
		})
	}

	if errs == nil {
		errs = map[string]string{}
	}

	return c.Status(status).Render(a.Views.Admin, ViewContext{
		"session": state.ViewData(a.Sessions.Now()),
		"users":   rows,
		"errors":  errs,
	})
}

// ChangeRole sets the role of the named account and returns to the admin page
func (a *PortalController) ChangeRole(c *fiber.Ctx) error {
	state, err := a.Sessions.Read(c)
	if err != nil {
		return err
	}

	err = a.Auther.ChangeRole(c.UserContext(), state, c.Params("name"), c.Params("role"))
	switch {
	case err == nil:
		return c.Redirect(a.Routes.Admin, fiber.StatusSeeOther)
	case goerrors.IsCategory(err, goerrors.CategoryAuthz):
		return c.Status(HTTPStatus(err)).Render(a.Views.Forbidden, nil)
	case goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return a.renderAdmin(c, HTTPStatus(err), map[string]string{"role": ErrorMessage(err)})
	case goerrors.IsNotFound(err):
		return a.renderAdmin(c, HTTPStatus(err), map[string]string{"user": ErrorMessage(err)})
	default:
		return err
	}
}

// Logout drops the session and returns home
func (a *PortalController) Logout(c *fiber.Ctx) error {
	state, err := a.Sessions.Read(c)
	if err != nil {
		return err
	}

	if err := a.Sessions.Destroy(c); err != nil {
		return err
	}

	a.Auther.Logout(c.UserContext(), state)
	return c.Redirect(a.Routes.Home, fiber.StatusFound)
}

// InjectionProbe looks up the email query value, refusing anything that
// is not a plain string.
func (a *PortalController) InjectionProbe(c *fiber.Ctx) error {
	var pairs []QueryPair
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		pairs = append(pairs, QueryPair{Key: string(k), Value: string(v)})
	})

	raw := QueryValue("email", pairs)

	users, err := a.Auther.LookupByEmail(c.UserContext(), raw)
	if err != nil {
		switch {
		case goerrors.Is(err, ErrInjectionDetected):
			return c.Status(HTTPStatus(err)).Render(a.Views.InjectionProbe, ViewContext{
				"attack":  true,
				"message": ErrorMessage(err),
			})
		case IsValidationError(err):
			return c.Status(HTTPStatus(err)).Render(a.Views.InjectionProbe, ViewContext{
				"attack":     false,
				"message":    ErrorMessage(ErrInvalidEmail),
				"validation": ValidationFields(err),
			})
		default:
			return err
		}
	}

	return c.Render(a.Views.InjectionProbe, ViewContext{
		"attack":  false,
		"email":   raw,
		"found":   len(users) > 0,
		"matches": len(users),
	})
}

// About renders the about page in the requested color
func (a *PortalController) About(c *fiber.Ctx) error {
	payload := new(AboutPayload)

	if err := c.QueryParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).Render(a.Views.About, ViewContext{
			"color":      "black",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	color := payload.Color
	if color == "" {
		color = "black"
	}

	return c.Render(a.Views.About, ViewContext{
		"color": color,
	})
}

// Car renders one car picture by its 1 based id
func (a *PortalController) Car(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 || id > len(carImages) {
		return c.Status(fiber.StatusNotFound).Render(a.Views.NotFound, ViewContext{
			"message": "Invalid car ID",
		})
	}

	return c.Render(a.Views.Car, ViewContext{
		"id":    id,
		"image": carImages[id-1],
	})
}

// NotFound is the catch-all handler
func (a *PortalController) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render(a.Views.NotFound, ViewContext{
		"message": "Page is not found or does not exist",
		"path":    c.Path(),
	})
}
