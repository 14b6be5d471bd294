package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/obs"
)

// idTokenCookieMaxAge is fixed by the frontend contract, independent of the
// token TTL.
const idTokenCookieMaxAge = 1800

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *API) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	a.render(w, http.StatusOK, "index.html", nil)
}

// Register serves the registration form and handles submissions in both
// form-encoded and JSON shapes; the Content-Type header selects the parser.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.render(w, http.StatusOK, "register.html", registerPage{Error: r.URL.Query().Get("error")})
	case http.MethodPost:
		a.handleRegister(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	isForm := isFormRequest(r)

	var reg auth.Registration
	if isForm {
		if err := r.ParseForm(); err != nil {
			a.render(w, http.StatusBadRequest, "register.html", registerPage{Error: "Invalid request format"})
			return
		}
		reg = auth.Registration{
			Username:       r.PostFormValue("username"),
			Email:          r.PostFormValue("email"),
			Password:       r.PostFormValue("password"),
			PasswordSubmit: r.PostFormValue("passwordSubmit"),
		}
	} else {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		reg = auth.Registration{
			Username:       req.Username,
			Email:          req.Email,
			Password:       req.Password,
			PasswordSubmit: req.Password,
		}
	}

	user, err := a.svc.Register(r.Context(), reg)
	if err != nil {
		status, msg := registerFailure(err)
		if isForm {
			a.render(w, status, "register.html", registerPage{Error: msg})
		} else {
			writeDetail(w, status, msg)
		}
		return
	}

	if isForm {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Enabled:   user.Enabled,
		CreatedAt: user.CreatedAt,
	})
}

func registerFailure(err error) (int, string) {
	switch {
	case auth.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusBadRequest, "Username already exists"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest, "Email already exists"
	default:
		return http.StatusInternalServerError, "Error creating user"
	}
}

// Login serves the login form and handles the browser login flow, including
// the OAuth2 authorization-code branch.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.render(w, http.StatusOK, "login.html", loginPage{Error: r.URL.Query().Get("error")})
	case http.MethodPost:
		a.handleLogin(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, http.StatusBadRequest, "login.html", loginPage{Error: "Invalid request format"})
		return
	}
	octx := oauthFromForm(r)
	page := loginPage{OAuth: octx}

	user, err := a.svc.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			page.Error = "Incorrect username or password"
			a.render(w, http.StatusUnauthorized, "login.html", page)
			return
		}
		page.Error = "Authentication failed"
		a.render(w, http.StatusInternalServerError, "login.html", page)
		return
	}

	token, err := a.svc.IssueToken(user)
	if err != nil {
		page.Error = "Authentication failed"
		a.render(w, http.StatusInternalServerError, "login.html", page)
		return
	}
	obs.TokenIssued(a.alg)

	// Authorization-code branch. The "code" is the access token itself:
	// there is no exchange endpoint, matching the original flow.
	if octx.RedirectURI != "" && octx.ResponseType == "code" {
		http.Redirect(w, r, octx.RedirectURI+"?code="+url.QueryEscape(token), http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "id_token",
		Value:    token,
		Path:     "/",
		MaxAge:   idTokenCookieMaxAge,
		HttpOnly: false,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.opts.FrontendURL, http.StatusSeeOther)
}

// Token implements the password-grant style API login.
func (a *API) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := a.svc.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	token, err := a.svc.IssueToken(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Token generation failed")
		return
	}
	obs.TokenIssued(a.alg)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// CurrentUser resolves the bearer token to its subject. All failures collapse
// into one generic 401.
func (a *API) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		unauthorized(w, "Could not validate credentials")
		return
	}
	subject, err := a.svc.CurrentSubject(token)
	if err != nil {
		obs.TokenRejected()
		unauthorized(w, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": subject})
}

// Authorize starts the authorization-code flow by rendering the login form
// pre-seeded with the OAuth2 context.
func (a *API) Authorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	octx := oauthFromQuery(r)
	if octx.ResponseType != "code" || octx.ClientID != a.opts.ClientID {
		writeDetail(w, http.StatusBadRequest, "Invalid request parameters")
		return
	}
	a.render(w, http.StatusOK, "login.html", loginPage{OAuth: octx})
}

// JWKS publishes the RSA verification key set.
func (a *API) JWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.jwks)
}

// oauthContext is the transient authorization context accompanying a login.
// It is parsed per request, consumed to pick the response shape, and never
// stored.
type oauthContext struct {
	ResponseType        string
	ClientID            string
	Scope               string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
}

func oauthFromForm(r *http.Request) oauthContext {
	return oauthContext{
		ResponseType:        r.PostFormValue("response_type"),
		ClientID:            r.PostFormValue("client_id"),
		Scope:               r.PostFormValue("scope"),
		RedirectURI:         r.PostFormValue("redirect_uri"),
		CodeChallenge:       r.PostFormValue("code_challenge"),
		CodeChallengeMethod: r.PostFormValue("code_challenge_method"),
	}
}

func oauthFromQuery(r *http.Request) oauthContext {
	q := r.URL.Query()
	return oauthContext{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		Scope:               q.Get("scope"),
		RedirectURI:         q.Get("redirect_uri"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}
}

func isFormRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "form")
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
