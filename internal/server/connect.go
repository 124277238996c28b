package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/google"
	"github.com/graviton-studio/logos-I/internal/logging"
	"github.com/graviton-studio/logos-I/internal/token"
)

// stateTTL bounds how long a consent screen can sit open before the
// callback is rejected.
const stateTTL = 15 * time.Minute

// ConnectHandler serves the OAuth connect flow for the Google-family
// providers: /connect/{provider} starts the authorization-code flow and
// /oauth/callback finishes it by storing the minted credential.
type ConnectHandler struct {
	connectors map[string]*google.Connector
	store      credential.Store
	tokens     *token.Service
	sc         *ServerContext
	secret     []byte
	logger     *slog.Logger
}

// NewConnectHandler creates a connect handler over the given connectors.
// The secret signs the OAuth state parameter; it is the same secret the
// bearer-token authenticator uses.
func NewConnectHandler(connectors []*google.Connector, store credential.Store, tokens *token.Service, sc *ServerContext, secret string, logger *slog.Logger) *ConnectHandler {
	byKey := make(map[string]*google.Connector, len(connectors))
	for _, c := range connectors {
		byKey[c.ProviderKey()] = c
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectHandler{
		connectors: byKey,
		store:      store,
		tokens:     tokens,
		sc:         sc,
		secret:     []byte(secret),
		logger:     logger,
	}
}

// Register wires the connect-flow routes onto the mux. The connect and
// disconnect routes expect an authenticated request; the callback arrives
// from the browser redirect and authenticates through the signed state.
func (h *ConnectHandler) Register(mux *http.ServeMux, auth *Authenticator) {
	mux.Handle("GET /connect/{provider}", auth.Middleware(http.HandlerFunc(h.handleConnect)))
	mux.HandleFunc("GET /oauth/callback", h.handleCallback)
	mux.Handle("POST /disconnect/{provider}", auth.Middleware(http.HandlerFunc(h.handleDisconnect)))
	mux.Handle("GET /integrations", auth.Middleware(http.HandlerFunc(h.handleIntegrations)))
}

func (h *ConnectHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	providerKey := r.PathValue("provider")
	connector, ok := h.connectors[providerKey]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown provider %q", providerKey), http.StatusNotFound)
		return
	}

	state, err := h.signState(userID, providerKey)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, connector.AuthURL(state), http.StatusFound)
}

func (h *ConnectHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		http.Error(w, fmt.Sprintf("authorization denied: %s", errCode), http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	userID, providerKey, err := h.parseState(state)
	if err != nil {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	connector, ok := h.connectors[providerKey]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown provider %q", providerKey), http.StatusBadRequest)
		return
	}

	cred, err := connector.Exchange(r.Context(), userID, code)
	if err != nil {
		h.logger.Warn("auth code exchange failed",
			logging.Provider(providerKey), logging.Err(err))
		http.Error(w, "authorization failed", http.StatusBadGateway)
		return
	}

	if err := h.store.Upsert(r.Context(), cred); err != nil {
		h.logger.Error("persist credential failed",
			logging.Provider(providerKey), logging.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("integration connected",
		logging.Provider(providerKey),
		slog.String(logging.KeyUserHash, logging.AnonymizeUserID(userID)),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Connected %s. You can close this window.\n", providerKey)
}

func (h *ConnectHandler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	providerKey := r.PathValue("provider")
	if err := h.tokens.Disconnect(r.Context(), userID, providerKey); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if h.sc != nil {
		h.sc.InvalidateUser(userID)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConnectHandler) handleIntegrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	connected := make(map[string]bool)
	for _, key := range []string{
		credential.ProviderGCal, credential.ProviderGmail, credential.ProviderGSheets,
		credential.ProviderGDrive, credential.ProviderSlack, credential.ProviderAirtable,
		credential.ProviderExa,
	} {
		ok, err := h.tokens.Connected(r.Context(), userID, key)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		connected[key] = ok
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"integrations": connected})
}

// signState binds the callback to the initiating user and provider.
func (h *ConnectHandler) signState(userID, providerKey string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      userID,
		"provider": providerKey,
		"exp":      time.Now().Add(stateTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

func (h *ConnectHandler) parseState(state string) (userID, providerKey string, err error) {
	parsed, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("unexpected claims type")
	}
	userID, _ = claims["sub"].(string)
	providerKey, _ = claims["provider"].(string)
	if userID == "" || providerKey == "" {
		return "", "", fmt.Errorf("state missing subject or provider")
	}
	return userID, providerKey, nil
}
