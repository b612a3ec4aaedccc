package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	dom "taskmanager/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the taskstatus and taskpriority tags to gin's validator
// and makes it report json field names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			_, err := dom.ParseStatus(fl.Field().String())
			return err == nil
		}); err != nil {
			return
		}
		err = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
			_, err := dom.ParsePriority(fl.Field().String())
			return err == nil
		})
	})
	return err
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// bindingErrors converts a ShouldBindJSON failure into field errors.
func bindingErrors(err error) *dom.ValidationError {
	var ve dom.ValidationError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			ve.Add(fe.Field(), fieldMessage(fe))
		}
		return &ve
	}
	ve.Add("body", err.Error())
	return &ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "taskstatus":
		return "status must be Todo, In Progress, or Completed"
	case "taskpriority":
		return "priority must be Low, Medium, or High"
	default:
		return fe.Field() + " is invalid"
	}
}
