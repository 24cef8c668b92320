package auth

import (
	"fmt"
	"time"

	"github.com/Azzc0/fika-guild.xyz/config"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
	Exp     int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) error {
	mapClaims, ok := jwtClaims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("unexpected claims type %T", jwtClaims)
	}
	roles := []string{}
	if mapClaims["roles"] != nil {
		rawRoles, ok := mapClaims["roles"].([]interface{})
		if !ok {
			return fmt.Errorf("malformed roles claim")
		}
		for _, role := range rawRoles {
			roleString, ok := role.(string)
			if !ok {
				return fmt.Errorf("malformed roles claim")
			}
			roles = append(roles, roleString)
		}
	}
	subject, _ := mapClaims["sub"].(string)
	exp, _ := mapClaims["exp"].(float64)
	claims.Subject = subject
	claims.Roles = roles
	claims.Exp = int64(exp)
	return nil
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

func CreateToken(subject string, roles []string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":   subject,
			"roles": roles,
			"exp":   time.Now().Add(time.Hour * 24 * 21).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}
	return token, nil
}
