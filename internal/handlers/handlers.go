// Package handlers exposes the engine over HTTP. Handlers only translate
// between JSON and the services; every decision about credentials and
// tokens lives below this layer.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MohamedAshiq09/authentify/internal/identity"
	"github.com/MohamedAshiq09/authentify/internal/sdkclients"
	"github.com/MohamedAshiq09/authentify/internal/tokens"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/middleware"
	"github.com/MohamedAshiq09/authentify/pkg/models"
	"github.com/MohamedAshiq09/authentify/pkg/monitoring"
)

// Identity type tags accepted by the register endpoint
const (
	identityTypePassword = "password"
	identityTypeWallet   = "wallet"
	identityTypeSocial   = "social"
)

// Handlers holds the service dependencies for all HTTP endpoints
type Handlers struct {
	identity  *identity.Service
	tokens    *tokens.Service
	clients   *sdkclients.Registry
	jwtSecret []byte
	logger    logging.Logger
	authOps   *prometheus.CounterVec
}

// NewHandlers creates the HTTP handler set. metrics may be nil in tests.
func NewHandlers(
	identitySvc *identity.Service,
	tokenSvc *tokens.Service,
	clientRegistry *sdkclients.Registry,
	jwtSecret []byte,
	logger logging.Logger,
	metrics *monitoring.MetricsCollector,
) *Handlers {
	h := &Handlers{
		identity:  identitySvc,
		tokens:    tokenSvc,
		clients:   clientRegistry,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
	if metrics != nil {
		h.authOps = metrics.NewCounter(
			"authentify_auth_operations_total",
			"Authentication operations by outcome",
			[]string{"operation", "outcome"},
		)
	}
	return h
}

func (h *Handlers) count(operation string, err error) {
	if h.authOps == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = errs.KindOf(err).Code()
	}
	h.authOps.WithLabelValues(operation, outcome).Inc()
}

// respondError maps a classified error onto the wire format. Causes are
// logged, never returned.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	if kind == errs.Internal || kind == errs.Unavailable {
		middleware.GetContextLogger(c, h.logger).WithError(err).Error("Request failed")
	}
	c.JSON(kind.HTTPStatus(), gin.H{
		"error": errs.PublicMessage(err),
		"code":  kind.Code(),
	})
}

type registerRequest struct {
	Type           string `json:"type"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	WalletAddress  string `json:"wallet_address"`
	SocialIDHash   string `json:"social_id_hash"`
	SocialProvider string `json:"social_provider"`
}

// identity builds the tagged variant for the request. Fields that do not
// belong to the declared type are rejected up front so callers cannot
// smuggle a password into a wallet registration.
func (r *registerRequest) identity() (models.Identity, error) {
	switch r.Type {
	case identityTypePassword, "":
		if r.WalletAddress != "" || r.SocialIDHash != "" {
			return nil, errs.E(errs.InvalidIdentity, "password registration does not accept wallet fields")
		}
		return models.PasswordIdentity{
			Username: r.Username,
			Email:    r.Email,
			Password: r.Password,
		}, nil
	case identityTypeWallet:
		if r.Password != "" || r.SocialIDHash != "" {
			return nil, errs.E(errs.InvalidIdentity, "wallet registration does not accept a password")
		}
		return models.WalletIdentity{
			Username:      r.Username,
			Email:         r.Email,
			WalletAddress: r.WalletAddress,
		}, nil
	case identityTypeSocial:
		if r.Password != "" {
			return nil, errs.E(errs.InvalidIdentity, "social registration does not accept a password")
		}
		return models.SocialIdentity{
			Username:       r.Username,
			Email:          r.Email,
			WalletAddress:  r.WalletAddress,
			SocialIDHash:   r.SocialIDHash,
			SocialProvider: r.SocialProvider,
		}, nil
	default:
		return nil, errs.E(errs.InvalidIdentity, "unsupported identity type")
	}
}

// Register creates an account and starts its first session
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidIdentity, "invalid request body"))
		return
	}

	ident, err := req.identity()
	if err != nil {
		h.count("register", err)
		h.respondError(c, err)
		return
	}

	user, err := h.identity.Register(c.Request.Context(), ident)
	if err != nil {
		h.count("register", err)
		h.respondError(c, err)
		return
	}

	pair, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.count("register", err)
		h.respondError(c, err)
		return
	}

	h.count("register", nil)
	c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": pair})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login authenticates by username or email plus password
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidIdentity, "invalid request body"))
		return
	}

	user, err := h.identity.VerifyPassword(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		h.count("login", err)
		h.respondError(c, err)
		return
	}

	pair, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.count("login", err)
		h.respondError(c, err)
		return
	}

	h.count("login", nil)
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
}

type contractLoginRequest struct {
	WalletAddress string `json:"wallet_address"`
	Message       string `json:"message"`
	Signature     string `json:"signature"`
}

// ContractLogin authenticates a contract account by wallet proof
func (h *Handlers) ContractLogin(c *gin.Context) {
	var req contractLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidIdentity, "invalid request body"))
		return
	}

	user, err := h.identity.VerifyWalletProof(c.Request.Context(), req.WalletAddress, models.WalletProof{
		Message:   req.Message,
		Signature: req.Signature,
	})
	if err != nil {
		h.count("contract_login", err)
		h.respondError(c, err)
		return
	}

	pair, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.count("contract_login", err)
		h.respondError(c, err)
		return
	}

	h.count("contract_login", nil)
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token into a new token pair
func (h *Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		h.respondError(c, errs.E(errs.InvalidToken, "refresh token required"))
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.count("refresh", err)
		h.respondError(c, err)
		return
	}

	h.count("refresh", nil)
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// Logout ends a session. It accepts a bearer access token, a refresh token
// in the body, or both, and always answers 204: ending a session that is
// already gone is success.
func (h *Handlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if bearer := middleware.BearerToken(c); bearer != "" {
		if claims, err := h.tokens.VerifyAccess(bearer); err == nil && claims.LineageID != "" {
			if err := h.tokens.Revoke(ctx, claims.LineageID); err != nil {
				h.count("logout", err)
				h.respondError(c, err)
				return
			}
		}
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if err := h.tokens.RevokeByRefreshToken(ctx, req.RefreshToken); err != nil {
			h.count("logout", err)
			h.respondError(c, err)
			return
		}
	}

	h.count("logout", nil)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	user, err := h.identity.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type createClientRequest struct {
	AppName      string   `json:"app_name"`
	AppURL       string   `json:"app_url"`
	RedirectURIs []string `json:"redirect_uris"`
}

// CreateClient registers an SDK client for the authenticated user
func (h *Handlers) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidIdentity, "invalid request body"))
		return
	}

	ownerID := c.GetString("user_id")
	owner, err := h.identity.GetUser(c.Request.Context(), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !owner.IsActive {
		h.respondError(c, errs.E(errs.Unauthorized, "account disabled"))
		return
	}

	creds, client, err := h.clients.Create(c.Request.Context(), ownerID, req.AppName, req.AppURL, req.RedirectURIs)
	if err != nil {
		h.count("client_create", err)
		h.respondError(c, err)
		return
	}

	h.count("client_create", nil)
	c.JSON(http.StatusCreated, gin.H{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"client":        client,
	})
}

// ListClients returns the authenticated user's SDK clients
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if clients == nil {
		clients = []*models.SDKClient{}
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// RevokeClient permanently disables one of the user's SDK clients
func (h *Handlers) RevokeClient(c *gin.Context) {
	err := h.clients.Revoke(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.count("client_revoke", err)
		h.respondError(c, err)
		return
	}
	h.count("client_revoke", nil)
	c.Status(http.StatusNoContent)
}

type clientCredentialsRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// VerifyClient checks a client_id/client_secret pair
func (h *Handlers) VerifyClient(c *gin.Context) {
	var req clientCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidClient, "invalid client credentials"))
		return
	}

	if _, _, err := h.clients.Verify(c.Request.Context(), req.ClientID, req.ClientSecret); err != nil {
		h.count("client_verify", err)
		h.respondError(c, err)
		return
	}

	h.count("client_verify", nil)
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ClientToken exchanges client credentials for a short-lived scoped token.
// The token identifies the application only; it is rejected anywhere a
// user identity is required.
func (h *Handlers) ClientToken(c *gin.Context) {
	var req clientCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errs.E(errs.InvalidClient, "invalid client credentials"))
		return
	}

	token, expiresAt, err := h.clients.Verify(c.Request.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		h.count("client_token", err)
		h.respondError(c, err)
		return
	}

	h.count("client_token", nil)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt,
	})
}

// PurgeExpired removes expired refresh tokens. Exposed for operators, not
// part of the authentication surface.
func (h *Handlers) PurgeExpired(c *gin.Context) {
	purged, err := h.tokens.PurgeExpired(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}
