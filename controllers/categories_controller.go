package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/reorder"
	"github.com/rs/zerolog/log"
)

const reorderFailed = "Failed to reorder categories. Please try again."

type CategoryAPI interface {
	Categories(ctx context.Context, headers http.Header) ([]models.Category, error)
	ReorderCategories(ctx context.Context, headers http.Header, positions []dto.CategoryPosition) error
}

// CategoriesController owns the categories screen and its reorder board.
type CategoriesController struct {
	sessions SessionService
	api      CategoryAPI
	board    *reorder.Board[int64, models.Category]
}

func NewCategoriesController(sessions SessionService, api CategoryAPI) *CategoriesController {
	cc := &CategoriesController{sessions: sessions, api: api}
	cc.board = reorder.NewBoard[int64, models.Category](nil, reorder.PersisterFunc[int64](cc.persist),
		reorder.WithOnReorder[int64](func(items []models.Category) {
			log.Info().Int("count", len(items)).Msg("category order saved")
		}),
		reorder.WithLogger[int64, models.Category](log.Logger),
	)
	return cc
}

func (cc *CategoriesController) Board() *reorder.Board[int64, models.Category] {
	return cc.board
}

func (cc *CategoriesController) persist(ctx context.Context, positions []reorder.Position[int64]) error {
	headers, err := cc.sessions.AuthHeaders()
	if err != nil {
		return err
	}
	body := make([]dto.CategoryPosition, len(positions))
	for i, p := range positions {
		body[i] = dto.CategoryPosition{CategoryID: p.ID, NewPosition: p.NewPosition}
	}
	return cc.api.ReorderCategories(ctx, headers, body)
}

// Reload fetches the list from the backend and makes it the board's source.
func (cc *CategoriesController) Reload(ctx context.Context) error {
	headers, err := cc.sessions.AuthHeaders()
	if err != nil {
		return err
	}
	items, err := cc.api.Categories(ctx, headers)
	if err != nil {
		return err
	}
	cc.board.SetSource(items)
	return nil
}

// Page re-fetches the categories on every visit and renders the board.
func (cc *CategoriesController) Page() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := pageData(cc.sessions, "Categories")
		if err := cc.Reload(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("load categories")
			data["loadError"] = "Failed to load categories"
		}
		data["categories"] = cc.board.Items()
		data["saving"] = cc.board.Saving()
		data["failed"] = cc.board.Err() != nil
		c.HTML(http.StatusOK, "categories.html", data)
	}
}

func (cc *CategoriesController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, cc.state())
	}
}

// Reorder applies a drag-end event. The response always carries the
// board's order after the move settled, so the page can snap back.
func (cc *CategoriesController) Reorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.DragEndDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := cc.board.DragEnd(c.Request.Context(), body.ActiveID, body.OverID)
		var perr *reorder.PersistenceError
		switch {
		case err == nil:
			c.JSON(http.StatusOK, cc.state())
		case errors.Is(err, reorder.ErrUnknownItem), errors.Is(err, reorder.ErrPositionOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, reorder.ErrSuperseded):
			c.JSON(http.StatusConflict, gin.H{"error": "category list was reloaded", "items": cc.board.Items()})
		case errors.As(err, &perr):
			c.JSON(http.StatusBadGateway, gin.H{"error": reorderFailed, "items": cc.board.Items()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func (cc *CategoriesController) ReloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cc.Reload(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("reload categories")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load categories"})
			return
		}
		if c.ContentType() != gin.MIMEJSON && c.GetHeader("Accept") != gin.MIMEJSON {
			c.Redirect(http.StatusSeeOther, "/categories")
			return
		}
		c.JSON(http.StatusOK, cc.state())
	}
}

func (cc *CategoriesController) state() gin.H {
	h := gin.H{
		"items":  cc.board.Items(),
		"saving": cc.board.Saving(),
	}
	if err := cc.board.Err(); err != nil {
		h["error"] = reorderFailed
	}
	return h
}
