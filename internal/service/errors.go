package service

import (
	"errors"
)

// 错误分类，handler 据此映射 HTTP 状态码；其余错误一律视为上游故障 (500)
var (
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("duplicate user")
)

// Error 携带面向用户的提示信息
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(msg string) error   { return &Error{Kind: ErrValidation, Msg: msg} }
func notFound(msg string) error  { return &Error{Kind: ErrNotFound, Msg: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }
