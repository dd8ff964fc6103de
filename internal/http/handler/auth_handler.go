package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
)

var validate = validator.New()

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    model.UserView `json:"user"`
}

func fieldErrorsFrom(err error) []service.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []service.FieldError{{Field: "body", Message: "Invalid request body"}}
	}
	out := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required"
		case "min":
			msg = "Value is too short (min " + fe.Param() + ")"
		case "max":
			msg = "Value is too long (max " + fe.Param() + ")"
		default:
			msg = "Invalid value"
		}
		out = append(out, service.FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// Register handles POST /auth/register.
func Register(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeFieldErrors(c, fieldErrorsFrom(err))
		}

		res, err := authSvc.Register(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(authResponse{
			Message: "User registered successfully",
			Token:   res.Token,
			User:    res.User,
		})
	}
}

// Login handles POST /auth/login.
func Login(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeFieldErrors(c, fieldErrorsFrom(err))
		}

		res, err := authSvc.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(authResponse{
			Message: "Login successful",
			Token:   res.Token,
			User:    res.User,
		})
	}
}
