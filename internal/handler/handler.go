package handler

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/ratelimit"
	"github.com/shiftly-dev/shiftly/backend/internal/service"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	service    *service.Service
	translator ut.Translator
	limiter    ratelimit.Limiter

	Mux *chi.Mux
}

// NewHandler wires the HTTP layer. A nil limiter disables login throttling.
func NewHandler(cfg *config.Config, svc *service.Service, limiter ratelimit.Limiter) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		service:    svc,
		translator: trans,
		limiter:    limiter,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	h.Mux.Get("/", h.Health)

	h.Mux.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.With(h.loginRateLimit).Post("/login", h.Login)
			r.With(h.auth).Get("/me", h.Me)
		})

		// everything below needs a valid session
		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Route("/users", func(r chi.Router) {
				r.With(h.RequiredRole(domain.RoleBoss)).Get("/", h.ListUsers)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.With(h.RequiredRole(domain.RoleBoss)).Post("/", h.CreateShift)
				r.With(h.RequiredRole(domain.RoleBoss)).Get("/", h.ListManagerShifts)
				r.With(h.RequiredRole(domain.RoleEmployee)).Get("/me", h.ListMyShifts)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetShift)
					r.With(h.RequiredRole(domain.RoleBoss)).Patch("/", h.UpdateShift)
					r.With(h.RequiredRole(domain.RoleBoss)).Delete("/", h.DeleteShift)
				})
			})

			r.Route("/marketplace/shifts", func(r chi.Router) {
				r.Get("/", h.ListOpenShifts)
				r.Route("/{id}", func(r chi.Router) {
					r.With(h.RequiredRole(domain.RoleEmployee)).Post("/apply", h.Apply)
					r.With(h.RequiredRole(domain.RoleBoss)).Get("/applicants", h.ListApplicants)
					r.With(h.RequiredRole(domain.RoleBoss)).Post("/assign", h.Assign)
				})
			})
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Shiftly API running"))
}
