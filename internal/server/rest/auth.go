package rest

import (
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *HTTPServer) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	session, err := s.svc.Auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return reply(c, fiber.StatusCreated, newSessionView(session), "User registered successfully")
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	session, err := s.svc.Auth.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, newSessionView(session), "Login successful")
}

func (s *HTTPServer) logout(c *fiber.Ctx) error {
	if err := s.svc.Auth.Logout(c.UserContext(), currentToken(c), currentUser(c).ID); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, nil, "Logged out successfully")
}

func (s *HTTPServer) me(c *fiber.Ctx) error {
	return reply(c, fiber.StatusOK, newUserView(currentUser(c)), "")
}

func (s *HTTPServer) changePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := s.svc.Auth.ChangePassword(c.UserContext(), currentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, nil, "Password changed successfully")
}
