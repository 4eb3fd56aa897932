package handler

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 学号：6~12 位字母或数字
var studentNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{6,12}$`)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则，启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return v.RegisterValidation("student_number", validateStudentNumber)
}

func validateStudentNumber(fl validator.FieldLevel) bool {
	return studentNumberPattern.MatchString(fl.Field().String())
}
