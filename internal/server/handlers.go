package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/url"
	"time"

	"blog/internal/middleware"
	"blog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Index renders the home page.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.pages.Index(c.UserContext())
	if err != nil {
		return err
	}
	return c.Render("index", page)
}

// PostDetail renders a single post.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	slug, err := url.PathUnescape(c.Params("slug"))
	if err != nil {
		return models.NewNotFoundError("post", c.Params("slug"))
	}

	page, err := s.pages.PostDetail(c.UserContext(), slug)
	if err != nil {
		return err
	}
	return c.Render("post-details", page)
}

// TagFilter renders the posts carrying a tag.
func (s *Server) TagFilter(c *fiber.Ctx) error {
	title, err := url.PathUnescape(c.Params("title"))
	if err != nil {
		return models.NewNotFoundError("tag", c.Params("title"))
	}

	page, err := s.pages.TagFilter(c.UserContext(), title)
	if err != nil {
		return err
	}
	return c.Render("posts-list", page)
}

func (s *Server) Contacts(c *fiber.Ctx) error {
	return c.Render("contacts", fiber.Map{})
}

// errorHandler renders 404 and 500 pages. Other fiber errors keep their
// status with a plain message.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
		return c.Status(fiber.StatusNotFound).Render("404", fiber.Map{"Message": appErr.Message})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return c.Status(fiber.StatusNotFound).Render("404", fiber.Map{"Message": "Nothing lives at this address."})
		}
		return c.Status(fe.Code).SendString(fe.Message)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "page failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.Status(fiber.StatusInternalServerError).Render("500", fiber.Map{})
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"postURL": func(slug string) string {
			return "/post/" + url.PathEscape(slug)
		},
		"tagURL": func(title string) string {
			return "/tag/" + url.PathEscape(title)
		},
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}
