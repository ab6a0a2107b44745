package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/response"
)

// MediaLocator 解析公开媒体对象
type MediaLocator interface {
	Locate(ctx context.Context, bucket, key string) (storage.Location, error)
}

// Options 不属于任何服务的展示信息
type Options struct {
	Version              string
	AllowedEmailSuffixes []string
	Now                  func() time.Time
}

// Handler 所有路由共用的处理器
type Handler struct {
	auth          service.AuthService
	profiles      service.ProfileService
	verification  service.VerificationService
	posts         service.PostService
	notifications service.NotificationService
	messages      service.MessageService
	search        service.SearchService
	media         MediaLocator
	opts          Options
}

func NewHandler(svc *service.Services, media MediaLocator, opts Options) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		auth:          svc.Auth,
		profiles:      svc.Profiles,
		verification:  svc.Verification,
		posts:         svc.Posts,
		notifications: svc.Notifications,
		messages:      svc.Messages,
		search:        svc.Search,
		media:         media,
		opts:          opts,
	}
}

// fail 将服务层错误映射为 HTTP 状态码；未分类的错误一律 500
func fail(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		response.InternalError(c, err)
		return
	}
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrDuplicateUser):
		response.BadRequest(c, se.Msg)
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, se.Msg)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, se.Msg)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, se.Msg)
	default:
		response.InternalError(c, err)
	}
}

var bindMessages = map[string]string{
	"required":      "Missing required fields",
	"college_email": "Please use a valid college email address",
	"email":         "Invalid email address",
	"min":           "Value is too short",
}

// bindError 把校验错误转成面向用户的提示
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		if msg, ok := bindMessages[ve[0].Tag()]; ok {
			response.BadRequest(c, msg)
			return
		}
		response.BadRequest(c, "Invalid field: "+ve[0].Field())
		return
	}
	response.BadRequest(c, "Invalid request body")
}

// formBlob 读取可选的上传文件；字段缺失时返回 nil
func formBlob(c *gin.Context, field string) (*storage.Blob, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return openBlob(fh)
}

func openBlob(fh *multipart.FileHeader) (*storage.Blob, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	ct := fh.Header.Get("Content-Type")
	return &storage.Blob{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// formBool 解析 "true"/"1"/"on"
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}
