package server

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pvtools/casedup/internal/core/assess"
	"github.com/pvtools/casedup/internal/core/cases"
	"github.com/pvtools/casedup/internal/core/detect"
	"github.com/pvtools/casedup/internal/core/resolve"
	"github.com/pvtools/casedup/internal/logging"
	"github.com/pvtools/casedup/internal/store"
)

// Server wires the HTTP surface to the services. Assessor may be nil when
// no language model is configured; the assess endpoint then reports the
// feature as unavailable.
type Server struct {
	Store    store.Store
	Cases    *cases.Service
	Resolver *resolve.Service
	Scanner  *detect.Scanner
	Assessor *assess.Assessor

	log *logrus.Entry
}

func New(st store.Store, caseSvc *cases.Service, resolver *resolve.Service, scanner *detect.Scanner, assessor *assess.Assessor) *Server {
	return &Server{
		Store:    st,
		Cases:    caseSvc,
		Resolver: resolver,
		Scanner:  scanner,
		Assessor: assessor,
		log:      logging.Module("server"),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/duplicates", s.ListDuplicates)
	r.GET("/duplicates/:id", s.DuplicateDetail)
	r.POST("/duplicates/:id/resolve", s.ResolveDuplicate)
	r.POST("/duplicates/:id/merge", s.MergeDuplicate)
	r.POST("/duplicates/:id/assess", s.AssessDuplicate)

	r.GET("/cases/:id", s.GetCase)
	r.POST("/cases", s.CreateCase)

	return r
}
