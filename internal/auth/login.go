package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/audit"
	"dstech-dashboard/internal/observability/metrics"
)

// DefaultTokenTTL bounds issued tokens.
const DefaultTokenTTL = 12 * time.Hour

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      Role      `json:"role"`
}

// LoginHandler exchanges credentials for a token.
type LoginHandler struct {
	users  *Users
	secret []byte
	ttl    time.Duration
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

// NewLoginHandler constructs a login handler.
func NewLoginHandler(users *Users, secret []byte, ttl time.Duration, auditLogger audit.Logger, logger *zap.Logger) (*LoginHandler, error) {
	if users == nil {
		return nil, errors.New("login handler: nil users")
	}
	if len(secret) == 0 {
		return nil, errors.New("login handler: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginHandler{users: users, secret: secret, ttl: ttl, audit: auditLogger, logger: logger, now: time.Now}, nil
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<14)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		metrics.IncLogin(metrics.ResultError)
		audit.Record(r, h.audit, h.logger, audit.Entry{Actor: req.Username, Action: audit.ActionLoginFailed})
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expires, err := IssueJWT(h.secret, user.Username, user.Role, h.now(), h.ttl)
	if err != nil {
		h.logger.Error("issue token failed", zap.String("user", user.Username), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	metrics.IncLogin(metrics.ResultSuccess)
	audit.Record(r, h.audit, h.logger, audit.Entry{Actor: user.Username, Role: string(user.Role), Action: audit.ActionLogin})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token, ExpiresAt: expires.UTC(), Role: user.Role})
}
