package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/attendance"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "actorToken",
		Claims:        new(Claims),
	}
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the actor's id; identity issuance itself lives in the external
// roster/identity service.
type Claims struct {
	jwt.StandardClaims
	Name           string `json:"name,omitempty"`
	Role           string `json:"role,omitempty"` // Parent | Staff | Other
	KindergartenID string `json:"kindergarten_id,omitempty"`
}

func (c Claims) IsStaff() bool { return c.Role == string(attendance.PersonStaff) }

// Actor maps the claims to the workflow engine's actor identity.
func (c Claims) Actor() attendance.Actor {
	return attendance.Actor{
		ID:   c.Subject,
		Type: attendance.PersonType(c.Role),
		Name: c.Name,
	}
}

// GetActorClaims builds the claims for an authenticated actor.
func GetActorClaims(actor attendance.Actor, kindergartenID string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   actor.ID,
			Audience:  "CheckKid",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:           actor.Name,
		Role:           string(actor.Type),
		KindergartenID: kindergartenID,
	}
}

// GenerateToken generates a signed JWT token string representing the actor Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
