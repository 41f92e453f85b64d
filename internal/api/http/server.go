package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type QueryController interface {
	GetStatistics(*gin.Context)

	GetSlots(*gin.Context)
	GetBlocks(*gin.Context)
	GetTransactions(*gin.Context)

	GetAddressNfts(*gin.Context)
}

type Server struct {
	listenHost string
	router     *gin.Engine
}

func NewServer(host string) *Server {
	return &Server{listenHost: host, router: gin.Default()}
}

func (s *Server) RegisterRoutes(t QueryController) {
	base := s.router.Group(basePath)

	base.GET("/statistics", t.GetStatistics)

	base.GET("/slots", t.GetSlots)
	base.GET("/blocks", t.GetBlocks)
	base.GET("/transactions", t.GetTransactions)

	base.GET("/address/:address/nfts", t.GetAddressNfts)

	base.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL(basePath+"/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1)))

	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Run() error {
	return s.router.Run(s.listenHost)
}
