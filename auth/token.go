package auth

import (
	"chat-dm/domain"
	"chat-dm/errors"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var validMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Signer issues tokens. Issuance belongs to the account service; this one
// exists for tests and the dev token tool.
type Signer struct {
	key    []byte
	issuer string
}

func NewSigner(key, issuer string) Signer {
	return Signer{key: []byte(key), issuer: issuer}
}

// Issue creates a signed HS256 JWT for identity, valid for ttl.
func (s Signer) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: identity.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verifier checks HMAC-signed tokens against a shared key.
type Verifier struct {
	key []byte
}

func NewVerifier(key string) *Verifier {
	return &Verifier{key: []byte(key)}
}

// Verify validates signature and expiry of token and returns the caller
// identity found in the `userId` claim, or in `id` when `userId` is absent.
//
// An empty token is ErrUnauthenticated, any rejected token is
// ErrInvalidCredential, and a verifier that cannot check signatures at all
// fails with ErrVerifierMisconfigured.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	if len(v.key) == 0 {
		return "", errors.ErrVerifierMisconfigured
	}
	if token == "" {
		return "", errors.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithValidMethods(validMethods), jwt.WithExpirationRequired())
	if err != nil {
		if stderrors.Is(err, jwt.ErrInvalidKey) || stderrors.Is(err, jwt.ErrInvalidKeyType) {
			return "", &errors.Error{Kind: errors.KindInternal, Msg: errors.ErrVerifierMisconfigured.Msg, Err: err}
		}
		return "", &errors.Error{Kind: errors.KindInvalidCredential, Msg: errors.ErrInvalidCredential.Msg, Err: err}
	}

	identity, ok := identityFromClaims(claims)
	if !ok {
		return "", &errors.Error{
			Kind: errors.KindInvalidCredential,
			Msg:  errors.ErrInvalidCredential.Msg,
			Err:  stderrors.New("token carries no userId or id claim"),
		}
	}
	return identity, nil
}

func identityFromClaims(claims jwt.MapClaims) (domain.Identity, bool) {
	for _, name := range []string{"userId", "id"} {
		if id, ok := claimToIdentity(claims[name]); ok {
			return id, true
		}
	}
	return "", false
}

func claimToIdentity(value any) (domain.Identity, bool) {
	switch v := value.(type) {
	case string:
		return domain.Identity(v), v != ""
	case float64:
		return domain.NumericIdentity(v), true
	case int64:
		return domain.Identity(strconv.FormatInt(v, 10)), true
	default:
		return "", false
	}
}
