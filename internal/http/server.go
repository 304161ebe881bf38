package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/config"
	"github.com/beuysscout/InsightTool-v2/internal/engine"
	"github.com/beuysscout/InsightTool-v2/internal/pipeline"
	"github.com/beuysscout/InsightTool-v2/internal/services"
	"github.com/beuysscout/InsightTool-v2/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	fm, err := storage.NewFileManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	claude := engine.NewClaude(cfg)
	pipe := pipeline.New(store, claude)
	guides := pipeline.NewGuideManager(store, claude)
	pdfSvc := services.NewPDFService()
	shareSvc := services.NewShareService(cfg)

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	ginEngine.Use(RequestLogger())
	ginEngine.Use(MaxBodySize(cfg.MaxUploadBytes))
	ginEngine.Use(CORS())

	api := NewAPI(cfg, fm, store, pipe, guides, pdfSvc, shareSvc)
	registerRoutes(ginEngine, api)

	return &Server{engine: ginEngine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
