// Package webserver renders the browser pages: the grouped recipe grid,
// recipe details and the saved recipes list.
package webserver

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/application/saved"
	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/security"
	"github.com/gourmetguru/api/internal/ports/inbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pageNames = []string{"home", "detail", "saved", "login", "error"}

// Pages serves the server-rendered frontend
type Pages struct {
	discovery inbound.DiscoveryService
	auth      inbound.AuthService
	saved     inbound.SavedRecipeService
	presenter *presentation.CardPresenter
	sessions  *SessionStore
	validator *security.Validator
	logger    *zap.Logger

	templates map[string]*template.Template
	router    chi.Router
}

// NewPages parses the page templates and builds the page router
func NewPages(
	discovery inbound.DiscoveryService,
	auth inbound.AuthService,
	savedService inbound.SavedRecipeService,
	presenter *presentation.CardPresenter,
	sessions *SessionStore,
	validator *security.Validator,
	logger *zap.Logger,
) (*Pages, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	p := &Pages{
		discovery: discovery,
		auth:      auth,
		saved:     savedService,
		presenter: presenter,
		sessions:  sessions,
		validator: validator,
		logger:    logger.Named("pages"),
		templates: templates,
	}
	p.router = p.setupRoutes()
	return p, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"join": strings.Join,
		"selected": func(current, option interface{}) template.HTMLAttr {
			if fmt.Sprint(current) == fmt.Sprint(option) {
				return "selected"
			}
			return ""
		},
		"card": func(c presentation.Card, returnTo string) cardView {
			return cardView{Card: c, Return: returnTo}
		},
		"known": func(list []string) bool { return list != nil },
		"label": func(v interface{}) string {
			s := fmt.Sprint(v)
			if s == "" || s == "0" {
				return "Any"
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	base, err := template.New("layout").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templatesFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

func (p *Pages) setupRoutes() chi.Router {
	r := chi.NewRouter()

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(p.identify)

		r.Get("/", p.handleHome)
		r.Get("/recipes/{id}", p.handleDetail)
		r.Get("/saved", p.handleSaved)
		r.Post("/saved/{id}/toggle", p.handleToggle)

		r.Get("/login", p.handleLoginPage)
		r.Post("/login", p.handleLogin)
		r.Post("/signup", p.handleSignUp)
		r.Post("/logout", p.handleLogout)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.renderError(w, r, http.StatusNotFound, "Page not found")
	})
	return r
}

// ServeHTTP implements http.Handler
func (p *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// identify resolves the visitor from a bearer token already on the context
// or from the session cookie. Sessions whose token no longer authenticates
// are dropped.
func (p *Pages) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.IdentityFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		session := p.sessions.Get(r)
		if session == nil || !session.SignedIn() {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := p.auth.Authenticate(r.Context(), session.Token)
		if err != nil {
			p.logger.Debug("Session token rejected", zap.Error(err))
			p.sessions.Destroy(w, r)
			next.ServeHTTP(w, r)
			return
		}

		ctx := middleware.WithIdentity(r.Context(), identity, session.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cardView is a card plus the page to come back to after toggling it
type cardView struct {
	presentation.Card
	Return string
}

// pageData is the model shared by every template
type pageData struct {
	Title    string
	Identity *user.Identity
	Flash    *presentation.Notification
	Return   string

	Filters         search.Filters
	Diets           []search.Diet
	Cuisines        []search.Cuisine
	ServingsOptions []int
	Groups          []presentation.CardGroup
	Message         string

	Detail *presentation.Detail

	SavedState saved.State
	SavedCards []presentation.Card

	Error string
}

func (p *Pages) newPageData(r *http.Request, title string) *pageData {
	return &pageData{
		Title:    title,
		Identity: middleware.IdentityFromContext(r.Context()),
		Flash:    p.sessions.PopFlash(r),
		Return:   r.URL.RequestURI(),
	}
}

func (p *Pages) handleHome(w http.ResponseWriter, r *http.Request) {
	data := p.newPageData(r, "Discover recipes")
	data.Diets = search.Diets
	data.Cuisines = search.Cuisines
	data.ServingsOptions = search.ServingsOptions

	filters, err := search.ParseFilters(r.URL.Query())
	if err != nil {
		data.Flash = &presentation.Notification{Level: presentation.LevelError, Message: filterMessage(err)}
	}
	data.Filters = filters

	result := p.discovery.Search(r.Context(), filters)
	data.Groups = p.presenter.Groups(r.Context(), data.Identity, result.Groups)
	data.Message = result.Message

	p.render(w, r, http.StatusOK, "home", data)
}

func (p *Pages) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		p.renderError(w, r, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	rec, err := p.discovery.Details(r.Context(), id)
	if err != nil {
		appErr := apperrors.Wrap(err, "Failed to load recipe")
		p.renderError(w, r, appErr.StatusCode(), appErr.Message)
		return
	}

	data := p.newPageData(r, rec.Title)
	detail := p.presenter.Detail(r.Context(), data.Identity, *rec)
	data.Detail = &detail

	p.render(w, r, http.StatusOK, "detail", data)
}

func (p *Pages) handleSaved(w http.ResponseWriter, r *http.Request) {
	data := p.newPageData(r, "Saved recipes")

	vm := saved.NewViewModel(p.saved)
	vm.SetIdentity(r.Context(), data.Identity)
	data.SavedState = vm.State()
	data.SavedCards = presentation.SavedCards(data.SavedState.Recipes)

	p.render(w, r, http.StatusOK, "saved", data)
}

func (p *Pages) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		p.renderError(w, r, http.StatusBadRequest, "Invalid recipe ID")
		return
	}
	if err := r.ParseForm(); err != nil {
		p.renderError(w, r, http.StatusBadRequest, "Invalid form")
		return
	}

	bookmark := recipe.SavedRecipe{
		ID:             id,
		Title:          r.PostForm.Get("title"),
		Image:          r.PostForm.Get("image"),
		ReadyInMinutes: formInt(r.PostForm, "readyInMinutes"),
		Servings:       formInt(r.PostForm, "servings"),
		Diets:          formDiets(r.PostForm),
	}
	bookmark.HealthScore, _ = strconv.ParseFloat(r.PostForm.Get("healthScore"), 64)
	bookmark.Difficulty = recipe.Classify(bookmark.ReadyInMinutes)

	card := presentation.CardFromSaved(bookmark)
	card.Saved = r.PostForm.Get("saved") == "true"

	identity := middleware.IdentityFromContext(r.Context())
	if identity != nil {
		if err := p.validator.Struct(bookmark); err != nil {
			p.renderError(w, r, http.StatusBadRequest, apperrors.Wrap(err, "Invalid recipe").Message)
			return
		}
	}

	outcome := p.presenter.ToggleSave(r.Context(), identity, card)
	p.sessions.Flash(w, r, outcome.Notification)

	http.Redirect(w, r, safeReturn(r.PostForm.Get("return"), "/"), http.StatusSeeOther)
}

// formDiets keeps an empty diet list distinct from an unknown one. The card
// form marks known lists with dietsKnown since an empty list posts no fields.
func formDiets(form url.Values) []string {
	diets := form["diets"]
	if diets == nil && form.Get("dietsKnown") == "true" {
		return []string{}
	}
	return diets
}

func (p *Pages) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := p.newPageData(r, "Sign in")
	data.Return = safeReturn(r.URL.Query().Get("return"), "/")
	p.render(w, r, http.StatusOK, "login", data)
}

func (p *Pages) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.authenticate(w, r, p.auth.SignIn)
}

func (p *Pages) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p.authenticate(w, r, p.auth.SignUp)
}

func (p *Pages) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	open func(ctx context.Context, email, password string) (*inbound.Session, error),
) {
	if err := r.ParseForm(); err != nil {
		p.renderError(w, r, http.StatusBadRequest, "Invalid form")
		return
	}
	returnTo := safeReturn(r.PostForm.Get("return"), "/")

	auth, err := open(r.Context(), strings.TrimSpace(r.PostForm.Get("email")), r.PostForm.Get("password"))
	if err != nil {
		appErr := apperrors.Wrap(err, "Authentication failed")
		if appErr.StatusCode() >= http.StatusInternalServerError {
			p.logger.Error("Authentication failed", zap.Error(err))
		}
		data := p.newPageData(r, "Sign in")
		data.Return = returnTo
		data.Error = appErr.Message
		p.render(w, r, appErr.StatusCode(), "login", data)
		return
	}

	p.sessions.SignIn(w, r, auth)
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

func (p *Pages) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromContext(r.Context()); token != "" {
		if err := p.auth.SignOut(r.Context(), token); err != nil {
			p.logger.Warn("Failed to revoke session token", zap.Error(err))
		}
	}
	p.sessions.Destroy(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error("Failed to render page",
			zap.String("page", name),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := p.newPageData(r, http.StatusText(status))
	data.Error = message
	p.render(w, r, status, "error", data)
}

func formInt(values url.Values, key string) int {
	n, err := strconv.Atoi(values.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// safeReturn accepts only local absolute paths as redirect targets
func safeReturn(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func filterMessage(err error) string {
	switch {
	case errors.Is(err, search.ErrUnknownDiet):
		return "Unknown diet"
	case errors.Is(err, search.ErrUnknownCuisine):
		return "Unknown cuisine"
	case errors.Is(err, search.ErrInvalidServings):
		return "Servings must be a non-negative number"
	}
	return "Invalid filters"
}
