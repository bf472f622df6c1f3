package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/category"
	"github.com/MikeMC777/ordenes-ecom/internal/httpx"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/product"
)

func newRouter(products product.Repository, categories category.Repository, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(log), httpx.Logger(log), m.Middleware(), httpx.Identity())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	writers := httpx.RequireRole(httpx.RoleAdmin, httpx.RoleSeller)

	r.GET("/products", listOnlyHandler(products, log))
	r.GET("/products/search", searchHandler(products, log))
	r.GET("/products/:id", getProductHandler(products, log))
	r.POST("/products", writers, createProductHandler(products, log))
	r.PUT("/products/:id", writers, updateProductHandler(products, log))
	r.DELETE("/products/:id", writers, deleteProductHandler(products, log))

	r.POST("/categories", writers, createCategoryHandler(categories, log))
	r.GET("/categories/getAllCategories", listCategoriesHandler(categories, log))
	r.PUT("/categories/:id", writers, updateCategoryHandler(categories, log))
	r.DELETE("/categories/:id", writers, deleteCategoryHandler(categories, log))
	r.GET("/categories/:id/subcategories", listSubcategoriesHandler(categories, log))
	r.POST("/categories/:id/subcategories", writers, createSubcategoryHandler(categories, log))
	return r
}

func parsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &httpx.ValidationError{Err: err}
	}
	if d.IsNegative() || d.Exponent() < -2 {
		return decimal.Zero, &httpx.ValidationError{Err: errPrice}
	}
	return d, nil
}

var errPrice = errors.New("price must be non-negative with at most two decimals")

// ---------- products ----------

func listOnlyHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := httpx.Page(c)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		items, err := repo.List(c.Request.Context(), product.Query{Limit: limit, Offset: offset})
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Limit: limit, Offset: offset, Items: items})
	}
}

func searchHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len([]rune(q)) < 2 {
			c.JSON(http.StatusBadRequest, product.HTTPError{Message: "q must have at least 2 characters"})
			return
		}
		limit, offset, err := httpx.Page(c)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		items, err := repo.List(c.Request.Context(), product.Query{Q: q, Limit: limit, Offset: offset})
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q, Limit: limit, Offset: offset, Items: items})
	}
}

func getProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		price, err := parsePrice(in.Price)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		p := &product.Product{
			ID:          uuid.NewString(),
			Title:       in.Title,
			Description: in.Description,
			Price:       price,
			Quantity:    in.Quantity,
			CategoryID:  in.CategoryID,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler leaves the price alone unless one is sent.
func updateProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.UpdateProductRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		ctx := c.Request.Context()
		cur, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}

		updatePrice := in.Price != ""
		if updatePrice {
			if cur.Price, err = parsePrice(in.Price); err != nil {
				httpx.Fail(c, log, err)
				return
			}
		}
		if in.Title != "" {
			cur.Title = in.Title
		}
		if in.Description != "" {
			cur.Description = in.Description
		}
		if in.Quantity != nil {
			cur.Quantity = *in.Quantity
		}
		if err := repo.Update(ctx, cur, updatePrice); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, cur)
	}
}

func deleteProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		if !ok {
			httpx.Fail(c, log, product.ErrNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ---------- categories ----------

func createCategoryHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in category.CategoryRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		cat := &category.Category{
			ID:    uuid.NewString(),
			Name:  strings.TrimSpace(in.Name),
			Slug:  category.Slugify(in.Name),
			Image: in.Image,
		}
		if err := repo.Create(c.Request.Context(), cat); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "success", "category": cat})
	}
}

func listCategoriesHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := repo.List(c.Request.Context())
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "categories": cats})
	}
}

func updateCategoryHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in category.CategoryRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		cat := &category.Category{
			ID:    c.Param("id"),
			Name:  strings.TrimSpace(in.Name),
			Slug:  category.Slugify(in.Name),
			Image: in.Image,
		}
		if err := repo.Update(c.Request.Context(), cat); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "category": cat})
	}
}

func deleteCategoryHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		if !ok {
			httpx.Fail(c, log, category.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	}
}

func listSubcategoriesHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := repo.ListSubcategories(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "subcategories": subs})
	}
}

func createSubcategoryHandler(repo category.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in category.SubcategoryRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		sub := &category.Subcategory{
			ID:         uuid.NewString(),
			CategoryID: c.Param("id"),
			Name:       strings.TrimSpace(in.Name),
			Slug:       category.Slugify(in.Name),
		}
		if err := repo.CreateSubcategory(c.Request.Context(), sub); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "success", "subcategory": sub})
	}
}
