package service

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AuthContext 后台请求鉴权上下文
// Secret 为请求携带的口令，其余字段用于操作日志
type AuthContext struct {
	Secret    string
	RequestID string
	ClientIP  string
}

// AdminAuthService 后台共享口令校验
type AdminAuthService struct {
	secret     []byte
	secretHash []byte
}

// NewAdminAuthService 创建口令校验服务，secretHash 非空时按 bcrypt 校验
func NewAdminAuthService(secret, secretHash string) *AdminAuthService {
	return &AdminAuthService{
		secret:     []byte(secret),
		secretHash: []byte(strings.TrimSpace(secretHash)),
	}
}

// Configured 是否配置了后台口令
func (s *AdminAuthService) Configured() bool {
	return s != nil && (len(s.secret) > 0 || len(s.secretHash) > 0)
}

// Authorize 校验口令，未配置口令时一律拒绝
func (s *AdminAuthService) Authorize(auth AuthContext) error {
	if !s.Configured() || auth.Secret == "" {
		return ErrAuthFailure
	}
	if len(s.secretHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(auth.Secret)); err != nil {
			return ErrAuthFailure
		}
		return nil
	}
	if subtle.ConstantTimeCompare(s.secret, []byte(auth.Secret)) != 1 {
		return ErrAuthFailure
	}
	return nil
}
