package policy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/logging"
)

// ClaimsPolicy routes on the claims of a bearer token. A candidate with
// Claims stays valid only if the request carries a token whose claims hold
// every expected value. For array claims the expected value must be one of
// the elements.
//
// With a secret the token signature is verified (HMAC); without one the
// claims are read unverified, which is only suitable when an upstream proxy
// has already authenticated the request. A token that fails to parse or
// verify is logged at debug level and treated as absent.
type ClaimsPolicy struct {
	secret []byte
	parser *jwt.Parser
	log    *slog.Logger
}

// NewClaimsPolicy creates a claims policy. secret and log may be nil.
func NewClaimsPolicy(secret []byte, log *slog.Logger) *ClaimsPolicy {
	if log == nil {
		log = logging.Nop()
	}
	return &ClaimsPolicy{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
		log:    log,
	}
}

func (p *ClaimsPolicy) Name() string { return "claims" }
func (p *ClaimsPolicy) Order() int   { return OrderClaims }

func (p *ClaimsPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.Claims) > 0
	})
}

func (p *ClaimsPolicy) Apply(r *Request, set *candidate.Set) error {
	claims, err := p.claims(r)
	if err != nil {
		p.log.Debug("bearer token rejected",
			"method", r.HTTP.Method,
			"path", r.HTTP.URL.Path,
			"verified", len(p.secret) > 0,
			"error", err,
		)
	}
	return filter(set, func(st *candidate.State) bool {
		return matchClaims(st.Endpoint.Metadata.Claims, claims)
	})
}

// claims extracts the token claims, or nil when the request has no usable
// token.
func (p *ClaimsPolicy) claims(r *Request) (jwt.MapClaims, error) {
	raw, ok := bearerToken(r.HTTP.Header.Get("Authorization"))
	if !ok {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	if len(p.secret) == 0 {
		if _, _, err := p.parser.ParseUnverified(raw, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	_, err := p.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func matchClaims(expected map[string]string, claims jwt.MapClaims) bool {
	if len(expected) == 0 {
		return true
	}
	if claims == nil {
		return false
	}
	for name, want := range expected {
		if !claimHas(claims[name], want) {
			return false
		}
	}
	return true
}

func claimHas(actual any, want string) bool {
	switch v := actual.(type) {
	case nil:
		return false
	case string:
		return v == want
	case []any:
		for _, item := range v {
			if claimHas(item, want) {
				return true
			}
		}
		return false
	default:
		return fmt.Sprint(v) == want
	}
}
