package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
	"github.com/MikeMC777/ordenes-ecom/internal/httpx"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/user"
)

func newRouter(svc *user.Service, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(log), httpx.Logger(log), m.Middleware(), httpx.Identity())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.POST("/users", createUserHandler(svc, log))
	r.GET("/users", httpx.RequireRole(httpx.RoleAdmin), listUsersHandler(svc, log))
	r.GET("/users/:id", httpx.RequireRole(), getUserHandler(svc, log))
	r.PUT("/users/:id", httpx.RequireRole(), updateUserHandler(svc, log))
	r.PATCH("/users/:id/password", httpx.RequireRole(), changePasswordHandler(svc, log))
	r.DELETE("/users/:id", httpx.RequireRole(), deleteUserHandler(svc, log))
	return r
}

// selfOrAdmin lets admins act on anyone and everyone else on themselves only.
func selfOrAdmin(c *gin.Context, log *zap.Logger) bool {
	p, _ := httpx.CurrentPrincipal(c)
	if p.Role == httpx.RoleAdmin || p.UserID == c.Param("id") {
		return true
	}
	httpx.Fail(c, log, apperr.ErrForbidden)
	return false
}

func createUserHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.CreateUserRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		u, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "success", "user": u})
	}
}

func listUsersHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := httpx.Page(c)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		users, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "users": users})
	}
}

func getUserHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !selfOrAdmin(c, log) {
			return
		}
		u, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "user": u})
	}
}

func updateUserHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !selfOrAdmin(c, log) {
			return
		}
		var in user.UpdateUserRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		u, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "user": u})
	}
}

func changePasswordHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !selfOrAdmin(c, log) {
			return
		}
		var in user.ChangePasswordRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		u, err := svc.ChangePassword(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success", "user": u})
	}
}

func deleteUserHandler(svc *user.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !selfOrAdmin(c, log) {
			return
		}
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
