package dto

import dom "taskmanager/internal/domain"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    any              `json:"data,omitempty"`
	Errors  []dom.FieldError `json:"errors,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func OKMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func Fail(message string, errs ...dom.FieldError) Envelope {
	return Envelope{Success: false, Message: message, Errors: errs}
}
