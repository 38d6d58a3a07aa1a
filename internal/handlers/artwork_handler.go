package handlers

import (
	"log"

	"galeri/internal/middleware"
	"galeri/internal/models"
	"galeri/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ArtworkHandler handles HTTP requests for the artwork catalog.
type ArtworkHandler struct {
	service  *services.ArtworkService
	validate *validator.Validate
}

// NewArtworkHandler creates a new ArtworkHandler.
func NewArtworkHandler(service *services.ArtworkService) *ArtworkHandler {
	return &ArtworkHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the artwork routes with the Fiber app. Reads are
// public; writes are admin only and are registered separately.
func (h *ArtworkHandler) RegisterRoutes(public, admin fiber.Router) {
	publicRoutes := public.Group("/artworks")
	publicRoutes.Get("/", h.HandleGetArtworks)
	publicRoutes.Get("/:id", h.HandleGetArtworkByID)

	adminRoutes := admin.Group("/artworks", middleware.AdminRequired())
	adminRoutes.Post("/", h.HandleCreateArtwork)
	adminRoutes.Put("/:id", h.HandleUpdateArtwork)
	adminRoutes.Delete("/:id", h.HandleDeleteArtwork)
}

// HandleGetArtworks retrieves all artworks.
func (h *ArtworkHandler) HandleGetArtworks(c *fiber.Ctx) error {
	artworks, err := h.service.GetAllArtworks()
	if err != nil {
		return respondError(c, err, "Could not retrieve artworks")
	}
	return c.JSON(artworks)
}

// HandleGetArtworkByID retrieves a single artwork by its ID.
func (h *ArtworkHandler) HandleGetArtworkByID(c *fiber.Ctx) error {
	artwork, err := h.service.GetArtworkByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve artwork")
	}
	return c.JSON(artwork)
}

// HandleCreateArtwork creates a new artwork.
func (h *ArtworkHandler) HandleCreateArtwork(c *fiber.Ctx) error {
	var artwork models.Artwork
	if err := c.BodyParser(&artwork); err != nil {
		log.Printf("Error parsing artwork request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if msgs := validationMessages(h.validate.Struct(&artwork)); msgs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  msgs,
		})
	}

	if err := h.service.CreateArtwork(&artwork); err != nil {
		return respondError(c, err, "Could not create artwork")
	}
	return c.Status(fiber.StatusCreated).JSON(artwork)
}

// HandleUpdateArtwork updates an existing artwork.
func (h *ArtworkHandler) HandleUpdateArtwork(c *fiber.Ctx) error {
	var artwork models.Artwork
	if err := c.BodyParser(&artwork); err != nil {
		log.Printf("Error parsing artwork request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	artwork.ID = c.Params("id")
	if msgs := validationMessages(h.validate.Struct(&artwork)); msgs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  msgs,
		})
	}

	if err := h.service.UpdateArtwork(&artwork); err != nil {
		return respondError(c, err, "Could not update artwork")
	}
	return c.JSON(artwork)
}

// HandleDeleteArtwork deletes an artwork by its ID.
func (h *ArtworkHandler) HandleDeleteArtwork(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteArtwork(id); err != nil {
		return respondError(c, err, "Could not delete artwork")
	}
	return c.JSON(fiber.Map{
		"message": "Artwork deleted successfully",
	})
}
