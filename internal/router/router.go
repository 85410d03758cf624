package router

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"recipeapi/internal/auth"
	"recipeapi/internal/config"
	"recipeapi/internal/errors"
	"recipeapi/internal/handler"
	"recipeapi/internal/metrics"
	"recipeapi/internal/service"
)

// uploadOverhead is added to MAX_UPLOAD_BYTES for multipart framing.
const uploadOverhead = 1 << 20

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Health     *handler.HealthHandler
	User       *handler.UserHandler
	Auth       *handler.AuthHandler
	Recipe     *handler.RecipeHandler
	Tag        *handler.LabelHandler
	Ingredient *handler.LabelHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.AllowedOrigins()),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.MaxUploadBytes+uploadOverhead)))

	e.Validator = NewCustomValidator()

	e.GET("/healthz", h.Health.Check)
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.StorageBackend == config.StorageLocal {
		e.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/user/create", h.User.CreateUser)
	api.POST("/user/token", h.Auth.Token)
	api.POST("/user/token/refresh", h.Auth.Refresh)

	// Secured routes (require a valid, unrevoked access token of an active user)
	secured := api.Group("", JWTMiddleware(jwtService), Authenticate(authService))

	secured.POST("/user/logout", h.Auth.Logout)
	secured.GET("/user/me", h.User.Me)
	secured.PATCH("/user/me", h.User.UpdateMe)
	secured.PUT("/user/me", h.User.UpdateMe)

	recipes := secured.Group("/recipe")
	recipes.GET("/recipes", h.Recipe.List)
	recipes.POST("/recipes", h.Recipe.Create)
	recipes.GET("/recipes/:id", h.Recipe.Get)
	recipes.PATCH("/recipes/:id", h.Recipe.Update)
	recipes.PUT("/recipes/:id", h.Recipe.Update)
	recipes.DELETE("/recipes/:id", h.Recipe.Delete)
	recipes.POST("/recipes/:id/upload-image", h.Recipe.UploadImage)

	registerLabels(recipes.Group("/tags"), h.Tag)
	registerLabels(recipes.Group("/ingredients"), h.Ingredient)
}

func registerLabels(g *echo.Group, h *handler.LabelHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// JWTMiddleware verifies the bearer token signature and expiry and stores the
// parsed *jwt.Token under the "user" context key.
func JWTMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.Secret(),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthenticated(err)
		},
	})
}

// Authenticate resolves the token claims to an active user and rejects
// revoked tokens. It must run after JWTMiddleware.
func Authenticate(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return unauthenticated(nil)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return unauthenticated(nil)
			}

			user, err := authService.Authenticate(c.Request().Context(), claims)
			if err != nil {
				if stderrors.Is(err, errors.ErrUnauthenticated) {
					return unauthenticated(err)
				}
				return err
			}

			c.Set(handler.ContextUserKey, user)
			c.Set(handler.ContextClaimsKey, claims)
			return next(c)
		}
	}
}

func unauthenticated(internal error) error {
	resp := errors.MapErrorToHTTP(errors.ErrUnauthenticated).ToErrorResponse()
	httpErr := echo.NewHTTPError(http.StatusUnauthorized, resp)
	if internal != nil {
		httpErr.SetInternal(internal)
	}
	return httpErr
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = slog.LevelError
			case v.Status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator reports field errors under their JSON names.
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	ve := &errors.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	httpErr := errors.MapErrorToHTTP(ve)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(ve)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}
