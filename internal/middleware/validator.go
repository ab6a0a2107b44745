package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 在 gin 的校验引擎上注册 college_email 标签
func RegisterValidators(allowedSuffixes []string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("college_email", collegeEmail(allowedSuffixes))
}

func collegeEmail(suffixes []string) validator.Func {
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			normalized = append(normalized, s)
		}
	}
	return func(fl validator.FieldLevel) bool {
		email := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		if !strings.Contains(email, "@") {
			return false
		}
		for _, s := range normalized {
			if strings.HasSuffix(email, s) {
				return true
			}
		}
		return false
	}
}
