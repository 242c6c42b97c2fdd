package api

import (
	"net/http"                       // HTTP status codes
	"rental_system/internal/service" // Rental workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// PropertyRequest is the multipart form for creating or editing a listing
type PropertyRequest struct {
	Title       string `form:"title" json:"title"`             // Listing title
	Address     string `form:"address" json:"address"`         // Street address
	Price       string `form:"price" json:"price"`             // Monthly rent, decimal string
	Description string `form:"description" json:"description"` // Free text
}

func (r PropertyRequest) input() service.PropertyInput {
	return service.PropertyInput{Title: r.Title, Address: r.Address, Price: r.Price, Description: r.Description}
}

// bindProperty reads the listing fields and the "images" files
func bindProperty(c *gin.Context) (service.PropertyInput, []service.Upload, bool) {
	var req PropertyRequest // Bind form or JSON request to struct
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return service.PropertyInput{}, nil, false
	}
	images, err := readUploads(c, "images") // Up to four images
	if err != nil {
		respondError(c, err)
		return service.PropertyInput{}, nil, false
	}
	return req.input(), images, true
}

// CreatePropertyHandler registers a new listing for the calling owner
func CreatePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, images, ok := bindProperty(c)
		if !ok {
			return // Response already written
		}
		property, err := svc.CreateProperty(c.Request.Context(), actor(c), in, images)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, property) // Return the stored listing
	}
}

// ListAvailableHandler returns every property open for rent
func ListAvailableHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		properties, err := svc.ListAvailable(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, properties)
	}
}

// ListOwnPropertiesHandler returns the caller's properties
func ListOwnPropertiesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		properties, err := svc.ListForOwner(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, properties)
	}
}

// GetPropertyHandler returns one property by id
func GetPropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		property, err := svc.GetProperty(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, property)
	}
}

// UpdatePropertyHandler edits a listing; supplied images replace the old ones
func UpdatePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		in, images, ok := bindProperty(c)
		if !ok {
			return
		}
		property, err := svc.UpdateProperty(c.Request.Context(), actor(c), id, in, images)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, property)
	}
}

// DeletePropertyHandler removes a listing and settles its leases
func DeletePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteProperty(c.Request.Context(), actor(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
	}
}
