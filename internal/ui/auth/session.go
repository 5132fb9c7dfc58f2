// Пакет auth — аутентификация администраторов: подписанные сессии,
// хеширование паролей (scrypt) и CSRF double-submit.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Имя cookie с токеном сессии администратора.
const SessionCookieName = "ADMIN_SESSION"

// DefaultSessionTTL — время жизни сессии по умолчанию.
const DefaultSessionTTL = 8 * time.Hour

// SessionVersion — версия схемы полезной нагрузки токена.
const SessionVersion = 1

// fingerprintKey — фиксированная метка-ключ HMAC для отпечатка клиента.
var fingerprintKey = []byte("fp")

// Причины отказа в проверке токена. Наружу не отдаются: Verify
// сворачивает их в nil, различие нужно только для диагностики.
var (
	ErrMalformed           = errors.New("токен сессии имеет неверный формат")
	ErrBadSignature        = errors.New("подпись токена сессии не сходится")
	ErrExpired             = errors.New("срок действия сессии истёк")
	ErrFingerprintMismatch = errors.New("отпечаток клиента не совпадает")
)

// segmentParser декодирует base64url-сегменты, с padding и без.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// SessionPayload — полезная нагрузка токена сессии.
type SessionPayload struct {
	// SubjectID — идентификатор учётной записи администратора.
	SubjectID string `json:"uid"`
	// IssuedAt — время выдачи (Unix, секунды).
	IssuedAt int64 `json:"iat"`
	// ExpiresAt — время истечения (Unix, секунды).
	ExpiresAt int64 `json:"exp"`
	// Fingerprint — отпечаток User-Agent и Accept-Language.
	Fingerprint string `json:"fp"`
	// Version — версия схемы, сейчас 1.
	Version int `json:"ver"`
}

// SessionSigner подписывает и проверяет токены
// base64url(JSON) "." base64url(HMAC-SHA256(secret, JSON)).
// Сервер не хранит выданные токены: украденный токен действует до истечения.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner создаёт подписчика сессий.
// ttl <= 0 заменяется на DefaultSessionTTL.
func NewSessionSigner(secret []byte, ttl time.Duration) (*SessionSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("секрет подписи сессий не задан")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &SessionSigner{secret: s, ttl: ttl, now: time.Now}, nil
}

// TTL возвращает время жизни сессии.
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

// Issue формирует и подписывает новую сессию для subjectID.
func (s *SessionSigner) Issue(subjectID, fingerprint string) (string, *SessionPayload, error) {
	now := s.now().Unix()
	p := &SessionPayload{
		SubjectID:   subjectID,
		IssuedAt:    now,
		ExpiresAt:   now + int64(s.ttl/time.Second),
		Fingerprint: fingerprint,
		Version:     SessionVersion,
	}
	token, err := s.Sign(p)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Sign подписывает готовую полезную нагрузку.
func (s *SessionSigner) Sign(p *SessionPayload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	sig, err := jwt.SigningMethodHS256.Sign(string(body), s.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи сессии: %w", err)
	}
	return encodeSegment(body) + "." + encodeSegment(sig), nil
}

// Inspect проверяет токен и возвращает причину отказа.
// Порядок проверок: формат, подпись, срок, отпечаток.
func (s *SessionSigner) Inspect(token, fingerprint string) (*SessionPayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformed
	}

	body, err := segmentParser.DecodeSegment(parts[0])
	if err != nil {
		return nil, ErrMalformed
	}
	sig, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}

	if err := jwt.SigningMethodHS256.Verify(string(body), sig, s.secret); err != nil {
		return nil, ErrBadSignature
	}

	var p SessionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrBadSignature
	}

	if p.ExpiresAt <= s.now().Unix() {
		return nil, ErrExpired
	}
	if p.Fingerprint != fingerprint {
		return nil, ErrFingerprintMismatch
	}
	return &p, nil
}

// Verify проверяет токен. Любой отказ — nil.
func (s *SessionSigner) Verify(token, fingerprint string) *SessionPayload {
	p, err := s.Inspect(token, fingerprint)
	if err != nil {
		return nil
	}
	return p
}

// SetSessionCookie выдаёт сессию для subjectID и пишет её в cookie.
// Отпечаток берётся из заголовков текущего запроса.
func (s *SessionSigner) SetSessionCookie(w http.ResponseWriter, r *http.Request, subjectID string) (*SessionPayload, error) {
	token, p, err := s.Issue(subjectID, FingerprintFromRequest(r))
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   !IsLoopbackHost(r.Host),
		SameSite: http.SameSiteLaxMode,
	})
	return p, nil
}

// SessionFromRequest извлекает и проверяет сессию из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (s *SessionSigner) SessionFromRequest(r *http.Request) (*SessionPayload, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	if cookie.Value == "" {
		return nil, nil
	}
	return s.Inspect(cookie.Value, FingerprintFromRequest(r))
}

// ClearSessionCookie удаляет session cookie (logout). Идемпотентна.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Fingerprint вычисляет base64url(HMAC-SHA256("fp", ua + "|" + acceptLanguage)).
// Смена любого из заголовков посреди сессии разлогинивает пользователя.
func Fingerprint(userAgent, acceptLanguage string) string {
	// Ключ — []byte, поэтому ошибка типа ключа невозможна.
	digest, _ := jwt.SigningMethodHS256.Sign(userAgent+"|"+acceptLanguage, fingerprintKey)
	return encodeSegment(digest)
}

// FingerprintFromRequest вычисляет отпечаток по заголовкам запроса.
func FingerprintFromRequest(r *http.Request) string {
	return Fingerprint(r.Header.Get("User-Agent"), r.Header.Get("Accept-Language"))
}

// IsLoopbackHost сообщает, указывает ли Host на локальную машину.
func IsLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
